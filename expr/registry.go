package expr

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Attributes holds the placeholder maps accumulated by a Registry, in the
// shape DynamoDB expects. A nil map means the corresponding parameter must
// be omitted entirely; DynamoDB rejects empty attribute maps.
type Attributes struct {
	Names  map[string]string
	Values map[string]any
}

// Registry owns the placeholder namespace for one expression-building
// session. Tokens are never reused within a Registry instance; create a
// fresh Registry per expression and discard it after use.
type Registry struct {
	names  map[string]string
	values map[string]any

	nameCount  int
	valueCount int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		names:  make(map[string]string),
		values: make(map[string]any),
	}
}

// AddName registers an attribute name and returns its placeholder path.
// A dotted path ("a.b") gets one placeholder per segment. Every call mints
// fresh tokens; callers control reuse by retaining a returned token.
func (r *Registry) AddName(name string) string {
	segments := strings.Split(name, ".")
	tokens := make([]string, len(segments))
	for i, segment := range segments {
		token := fmt.Sprintf("#NC%d", r.nameCount)
		r.nameCount++
		r.names[token] = segment
		tokens[i] = token
	}
	return strings.Join(tokens, ".")
}

// AddValue registers a literal value and returns its placeholder.
func (r *Registry) AddValue(value any) string {
	token := fmt.Sprintf(":VC%d", r.valueCount)
	r.valueCount++
	r.values[token] = value
	return token
}

// Merge copies a foreign expression's attribute maps into this registry
// under brand-new local tokens and returns foreign-to-local translation
// tables for names and values. Local tokens are never disturbed, even when
// foreign tokens look identical to local ones.
func (r *Registry) Merge(foreign *Built) (names, values map[string]string) {
	names = make(map[string]string)
	values = make(map[string]string)
	if foreign == nil {
		return names, values
	}
	for _, token := range sortedTokens(foreign.Names) {
		local := fmt.Sprintf("#NC%d", r.nameCount)
		r.nameCount++
		r.names[local] = foreign.Names[token]
		names[token] = local
	}
	valueTokens := make([]string, 0, len(foreign.Values))
	for token := range foreign.Values {
		valueTokens = append(valueTokens, token)
	}
	sortTokens(valueTokens)
	for _, token := range valueTokens {
		local := fmt.Sprintf(":VC%d", r.valueCount)
		r.valueCount++
		r.values[local] = foreign.Values[token]
		values[token] = local
	}
	return names, values
}

// Splice merges a previously built expression into this registry and
// returns its clause text rewritten to the new local tokens. Returns the
// empty string for a nil expression.
func (r *Registry) Splice(foreign *Built) string {
	if foreign == nil {
		return ""
	}
	names, values := r.Merge(foreign)
	return rewriteTokens(foreign.text(), names, values)
}

// Expression returns the accumulated placeholder maps. Empty maps come back
// nil so callers can pass the result through to the store verbatim.
func (r *Registry) Expression() Attributes {
	var attrs Attributes
	if len(r.names) > 0 {
		attrs.Names = make(map[string]string, len(r.names))
		for k, v := range r.names {
			attrs.Names[k] = v
		}
	}
	if len(r.values) > 0 {
		attrs.Values = make(map[string]any, len(r.values))
		for k, v := range r.values {
			attrs.Values[k] = v
		}
	}
	return attrs
}

var tokenPattern = regexp.MustCompile(`#NC\d+|:VC\d+`)

// rewriteTokens substitutes foreign tokens in clause text with their local
// replacements in a single pass, so a replacement can never be re-replaced.
func rewriteTokens(text string, names, values map[string]string) string {
	return tokenPattern.ReplaceAllStringFunc(text, func(token string) string {
		if local, ok := names[token]; ok {
			return local
		}
		if local, ok := values[token]; ok {
			return local
		}
		return token
	})
}

func sortedTokens(m map[string]string) []string {
	tokens := make([]string, 0, len(m))
	for token := range m {
		tokens = append(tokens, token)
	}
	sortTokens(tokens)
	return tokens
}

// sortTokens orders placeholder tokens numerically: shorter tokens carry
// smaller counters, equal lengths compare lexically.
func sortTokens(tokens []string) {
	sort.Slice(tokens, func(i, j int) bool {
		if len(tokens[i]) != len(tokens[j]) {
			return len(tokens[i]) < len(tokens[j])
		}
		return tokens[i] < tokens[j]
	})
}
