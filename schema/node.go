package schema

import (
	"fmt"
	"sort"
)

// valueType is the expected shape tag of a field's application value.
type valueType string

const (
	typeString  valueType = "string"
	typeNumber  valueType = "number"
	typeBoolean valueType = "boolean"
	typeObject  valueType = "object"
	typeUnknown valueType = "unknown"
)

// typeOf classifies a runtime value into the tag vocabulary. Slices and
// maps both count as object; anything else is unknown.
func typeOf(v any) valueType {
	switch v.(type) {
	case string:
		return typeString
	case bool:
		return typeBoolean
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return typeNumber
	case map[string]any:
		return typeObject
	case []any:
		return typeObject
	default:
		return typeUnknown
	}
}

// putRule validates one present field value, returning all failures.
type putRule func(n *node, value any) []string

// updateRule validates kind-specific aspects of an update body.
type updateRule func(n *node, body *UpdateBody) []string

// node is the compiled runtime form of one declared field. It is built
// once during Schema construction and never mutated afterwards, so a node
// tree is safe for unboundedly many concurrent validate/convert calls.
//
// Kind-specific behavior is composed in, not inherited: rules and hooks
// are plain function values installed by the kind constructors, and
// structural kinds own their child nodes by value.
type node struct {
	name  string
	field Field
	vt    valueType

	// converters apply in registration order for BOTH directions.
	converters []Converter

	putRules    []putRule
	updateRules []updateRule

	// normalizeFn rewrites Append/Prepend entries into Set form before
	// update conversion. Installed by structural kinds only.
	normalizeFn func(n *node, body *UpdateBody)

	// convertPathFn converts the value of a dotted Set path rooted at
	// this field. Installed by Map and MappedList.
	convertPathFn func(n *node, rest string, value any, toWire bool) any

	// children holds the compiled Attributes of a Map field. childNames
	// is sorted for deterministic error ordering.
	children   map[string]*node
	childNames []string

	// elem is the embedded Map node applied per element of a List or
	// MappedList field.
	elem *node
}

// checkValue runs the value-type tag check and then the kind's put rules,
// in registration order.
func (n *node) checkValue(value any) []string {
	if n.vt != typeUnknown {
		if actual := typeOf(value); actual != n.vt {
			return []string{fmt.Sprintf("field %q expects type %s, got %s", n.name, n.vt, actual)}
		}
	}
	var errs []string
	for _, rule := range n.putRules {
		errs = append(errs, rule(n, value)...)
	}
	return errs
}

// validatePut collects every rule failure for this field within doc.
// Validation never short-circuits across fields; an absent non-required
// field is simply valid.
func (n *node) validatePut(doc map[string]any) []string {
	value, ok := doc[n.name]
	if !ok || value == nil {
		if n.field.Required {
			return []string{fmt.Sprintf("field %q is required", n.name)}
		}
		return nil
	}
	return n.checkValue(value)
}

// validateUpdate collects every rule failure for this field within an
// update body.
func (n *node) validateUpdate(body *UpdateBody) []string {
	var errs []string

	if n.field.Constant || n.field.Primary || n.field.Sort {
		if body.touches(n.name) {
			return []string{fmt.Sprintf("field %q is immutable and cannot appear in an update", n.name)}
		}
		return nil
	}

	if n.field.Required {
		if body.removes(n.name) {
			errs = append(errs, fmt.Sprintf("field %q is required and cannot be removed", n.name))
		}
		if value, ok := body.Set[n.name]; ok && value == nil {
			errs = append(errs, fmt.Sprintf("field %q is required and cannot be set to null", n.name))
		}
	}

	if value, ok := body.Set[n.name]; ok && value != nil {
		errs = append(errs, n.checkValue(value)...)
	}

	for _, rule := range n.updateRules {
		errs = append(errs, rule(n, body)...)
	}
	return errs
}

// applyToWire converts this field in place within doc. Absent fields are
// untouched; a converter chain ending in nil drops the field entirely.
func (n *node) applyToWire(doc map[string]any) {
	n.apply(doc, true)
}

// applyFromWire converts this field in place within doc, applying the
// converter list in the same forward order as applyToWire.
func (n *node) applyFromWire(doc map[string]any) {
	n.apply(doc, false)
}

func (n *node) apply(doc map[string]any, toWire bool) {
	value, ok := doc[n.name]
	if !ok {
		return
	}
	ran := false
	for _, c := range n.converters {
		fn := c.FromWire
		if toWire {
			fn = c.ToWire
		}
		if fn != nil {
			value = fn(value)
			ran = true
		}
	}
	if value == nil && ran {
		delete(doc, n.name)
		return
	}
	doc[n.name] = value
}

// normalize rewrites structural Append/Prepend entries into Set form.
// No-op for leaf kinds.
func (n *node) normalize(body *UpdateBody) {
	if n.normalizeFn != nil {
		n.normalizeFn(n, body)
	}
}

// convertSet converts every Set entry rooted at this field, in place.
// Only the Set portion of a body is ever converted; Append and Prepend
// must have been normalized away first.
func (n *node) convertSet(set map[string]any, toWire bool) {
	for _, path := range sortedKeys(set) {
		if pathRoot(path) != n.name {
			continue
		}
		original := set[path]
		value := original
		if path == n.name {
			value = n.convertValue(value, toWire)
		} else if n.convertPathFn != nil {
			value = n.convertPathFn(n, path[len(n.name)+1:], value, toWire)
		}
		if value == nil && original != nil {
			delete(set, path)
			continue
		}
		set[path] = value
	}
}

// convertValue runs the converter chain over a standalone value.
func (n *node) convertValue(value any, toWire bool) any {
	for _, c := range n.converters {
		fn := c.FromWire
		if toWire {
			fn = c.ToWire
		}
		if fn != nil {
			value = fn(value)
		}
	}
	return value
}

// child returns the compiled child node, or nil.
func (n *node) child(name string) *node {
	if n.children == nil {
		return nil
	}
	return n.children[name]
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
