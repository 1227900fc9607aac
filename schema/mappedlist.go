package schema

import (
	"fmt"
	"sort"
)

// OrderAttribute is the reserved element attribute a MappedList uses to
// remember each record's original array position on the wire. A
// user-declared attribute with this name is undefined behavior.
const OrderAttribute = "__order"

// buildMappedList installs the MappedList kind: an ordered array of
// uniformly-shaped records persisted as a map keyed by one of their
// attributes, because DynamoDB has no efficient single-element array
// update.
func buildMappedList(n *node) error {
	n.vt = typeObject

	if n.field.KeyAttribute == "" {
		return fmt.Errorf("schema: MappedList field %q requires a keyAttribute", n.name)
	}

	elem, err := compileField(n.name, Field{Type: Map, Attributes: n.field.Attributes})
	if err != nil {
		return err
	}
	n.elem = elem

	n.putRules = append(n.putRules, mappedListPutRule)
	n.updateRules = append(n.updateRules, mappedListUpdateRule)
	n.normalizeFn = mappedListNormalize
	n.convertPathFn = mappedListConvertPath
	n.converters = append(n.converters, Converter{
		ToWire:   func(value any) any { return n.arrayToMap(value) },
		FromWire: func(value any) any { return n.mapToArray(value) },
	})
	return nil
}

func mappedListPutRule(n *node, value any) []string {
	arr, ok := value.([]any)
	if !ok {
		return []string{fmt.Sprintf("field %q expects a list", n.name)}
	}
	var errs []string
	for _, el := range arr {
		errs = append(errs, n.checkElement(el)...)
	}
	return errs
}

// mappedListUpdateRule validates records added through Append or Prepend
// and whole-element assignments through dotted Set paths.
func mappedListUpdateRule(n *node, body *UpdateBody) []string {
	var errs []string
	for _, el := range body.Append[n.name] {
		errs = append(errs, n.checkElement(el)...)
	}
	for _, el := range body.Prepend[n.name] {
		errs = append(errs, n.checkElement(el)...)
	}
	for _, path := range sortedSetPathsUnder(n, body) {
		_, rest := splitPath(path[len(n.name)+1:])
		if rest == "" {
			errs = append(errs, n.checkElement(body.Set[path])...)
		} else {
			errs = append(errs, n.elem.validateSetPath(rest, body.Set[path])...)
		}
	}
	return errs
}

func (n *node) checkElement(el any) []string {
	em, ok := el.(map[string]any)
	if !ok {
		return []string{fmt.Sprintf("field %q elements must be maps", n.name)}
	}
	if v, ok := em[n.field.KeyAttribute]; !ok || v == nil {
		return []string{fmt.Sprintf("field %q elements must carry key attribute %q",
			n.name, n.field.KeyAttribute)}
	}
	return n.elem.checkValue(el)
}

// mappedListNormalize rewrites Append and Prepend records into Set
// entries keyed by the element's key attribute. Positional order is not
// preserved for these records; they surface after indexed entries on the
// next read. Existing Set entries are never overwritten.
func mappedListNormalize(n *node, body *UpdateBody) {
	items := append(append([]any(nil), body.Append[n.name]...), body.Prepend[n.name]...)
	if len(items) == 0 {
		return
	}
	if body.Set == nil {
		body.Set = make(map[string]any, len(items))
	}
	for _, item := range items {
		em, ok := item.(map[string]any)
		if !ok {
			continue
		}
		path := n.name + "." + stringifyKey(em[n.field.KeyAttribute])
		if _, exists := body.Set[path]; !exists {
			body.Set[path] = em
		}
	}
	delete(body.Append, n.name)
	delete(body.Prepend, n.name)
}

// mappedListConvertPath converts a whole-element Set entry
// ("field.<keyValue>") or a deeper attribute path within one element.
func mappedListConvertPath(n *node, rest string, value any, toWire bool) any {
	_, remainder := splitPath(rest)
	if remainder == "" {
		return n.elem.convertValue(value, toWire)
	}
	return mapConvertPath(n.elem, remainder, value, toWire)
}

// arrayToMap converts the application array into its wire map, keyed by
// the stringified key attribute and tagged with each record's original
// index under OrderAttribute.
func (n *node) arrayToMap(value any) any {
	arr, ok := value.([]any)
	if !ok {
		return value
	}
	out := make(map[string]any, len(arr))
	for i, el := range arr {
		em, ok := el.(map[string]any)
		if !ok {
			continue
		}
		converted, ok := n.elem.convertValue(em, true).(map[string]any)
		if !ok {
			continue
		}
		converted[OrderAttribute] = i
		out[stringifyKey(em[n.field.KeyAttribute])] = converted
	}
	return out
}

// mapToArray reconstructs the application array: entries sorted by their
// reserved index, entries lacking one appended afterwards ordered by wire
// key, and the reserved attribute stripped from every record.
func (n *node) mapToArray(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	type entry struct {
		order int
		el    map[string]any
	}
	var indexed, unindexed []entry
	for _, key := range sortedKeys(m) {
		em, ok := m[key].(map[string]any)
		if !ok {
			continue
		}
		converted, ok := n.elem.convertValue(em, false).(map[string]any)
		if !ok {
			continue
		}
		if order, ok := asInt(converted[OrderAttribute]); ok {
			delete(converted, OrderAttribute)
			indexed = append(indexed, entry{order: order, el: converted})
		} else {
			delete(converted, OrderAttribute)
			unindexed = append(unindexed, entry{el: converted})
		}
	}
	sort.SliceStable(indexed, func(i, j int) bool {
		return indexed[i].order < indexed[j].order
	})
	out := make([]any, 0, len(indexed)+len(unindexed))
	for _, e := range indexed {
		out = append(out, e.el)
	}
	for _, e := range unindexed {
		out = append(out, e.el)
	}
	return out
}

func stringifyKey(value any) string {
	return fmt.Sprintf("%v", value)
}

func asInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}
