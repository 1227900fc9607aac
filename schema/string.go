package schema

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// buildString installs the String kind: enum, invalid-character, and
// format validators in declaration order, then the optional slugify
// converter.
func buildString(n *node) error {
	n.vt = typeString
	f := n.field

	if len(f.Enum) > 0 {
		allowed := make(map[string]struct{}, len(f.Enum))
		for _, v := range f.Enum {
			allowed[v] = struct{}{}
		}
		n.putRules = append(n.putRules, func(n *node, value any) []string {
			s, ok := value.(string)
			if !ok {
				return nil
			}
			if _, ok := allowed[s]; !ok {
				return []string{fmt.Sprintf("field %q must be one of [%s], got %q",
					n.name, strings.Join(n.field.Enum, ", "), s)}
			}
			return nil
		})
	}

	if f.InvalidCharacters != "" {
		re, err := regexp.Compile("[" + f.InvalidCharacters + "]")
		if err != nil {
			return fmt.Errorf("schema: field %q has invalid invalidCharacters class: %w", n.name, err)
		}
		n.putRules = append(n.putRules, func(n *node, value any) []string {
			s, ok := value.(string)
			if !ok {
				return nil
			}
			if re.MatchString(s) {
				return []string{fmt.Sprintf("field %q contains invalid characters (%s)",
					n.name, n.field.InvalidCharacters)}
			}
			return nil
		})
	}

	if f.Format != "" {
		re, err := regexp.Compile("^(?:" + f.Format + ")$")
		if err != nil {
			return fmt.Errorf("schema: field %q has invalid format pattern: %w", n.name, err)
		}
		n.putRules = append(n.putRules, func(n *node, value any) []string {
			s, ok := value.(string)
			if !ok {
				return nil
			}
			if !re.MatchString(s) {
				return []string{fmt.Sprintf("field %q does not match format %q", n.name, n.field.Format)}
			}
			return nil
		})
	}

	if f.Slugify != nil {
		slug, err := newSlugifier(f.Slugify)
		if err != nil {
			return fmt.Errorf("schema: field %q has invalid slugify options: %w", n.name, err)
		}
		n.converters = append(n.converters, Converter{
			ToWire: func(value any) any {
				s, ok := value.(string)
				if !ok {
					return value
				}
				return slug.apply(s)
			},
		})
	}

	return nil
}

// slugifier canonicalizes a string into a slug. The caller's character
// map and removal pattern run first; a final pass always strips Unicode
// symbol and emoji runes, whatever the custom removal pattern matched.
type slugifier struct {
	replacement string
	remove      *regexp.Regexp
	charMap     map[string]string
}

func newSlugifier(opts *SlugifyOptions) (*slugifier, error) {
	s := &slugifier{replacement: "-"}
	if opts.Replacement != "" {
		s.replacement = opts.Replacement
	}
	if opts.Remove != "" {
		re, err := regexp.Compile(opts.Remove)
		if err != nil {
			return nil, err
		}
		s.remove = re
	}
	s.charMap = opts.CharMap
	return s, nil
}

var whitespaceRun = regexp.MustCompile(`\s+`)

func (s *slugifier) apply(in string) string {
	out := in
	for from, to := range s.charMap {
		out = strings.ReplaceAll(out, from, to)
	}
	if s.remove != nil {
		out = s.remove.ReplaceAllString(out, "")
	}
	// Symbols and emoji never survive, even when a custom removal
	// pattern did not cover them.
	var b strings.Builder
	b.Grow(len(out))
	for _, r := range out {
		if unicode.IsSymbol(r) || unicode.In(r, unicode.Co) {
			continue
		}
		b.WriteRune(r)
	}
	out = b.String()

	return whitespaceRun.ReplaceAllString(strings.TrimSpace(out), s.replacement)
}
