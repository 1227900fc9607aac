package schema

import "fmt"

// buildList installs the List kind. When attributes are declared, each
// map-shaped element is validated and converted through an embedded Map
// node; without attributes the list passes through unchanged.
func buildList(n *node) error {
	n.vt = typeObject

	n.putRules = append(n.putRules, listPutRule)

	if len(n.field.Attributes) == 0 {
		return nil
	}
	elem, err := compileField(n.name, Field{Type: Map, Attributes: n.field.Attributes})
	if err != nil {
		return err
	}
	n.elem = elem
	n.updateRules = append(n.updateRules, listUpdateRule)
	n.converters = append(n.converters, Converter{
		ToWire:   func(value any) any { return n.convertList(value, true) },
		FromWire: func(value any) any { return n.convertList(value, false) },
	})
	return nil
}

func listPutRule(n *node, value any) []string {
	arr, ok := value.([]any)
	if !ok {
		return []string{fmt.Sprintf("field %q expects a list", n.name)}
	}
	if n.elem == nil {
		return nil
	}
	var errs []string
	for _, el := range arr {
		errs = append(errs, n.elem.checkValue(el)...)
	}
	return errs
}

// listUpdateRule validates elements added through Append or Prepend.
func listUpdateRule(n *node, body *UpdateBody) []string {
	var errs []string
	for _, el := range body.Append[n.name] {
		errs = append(errs, n.elem.checkValue(el)...)
	}
	for _, el := range body.Prepend[n.name] {
		errs = append(errs, n.elem.checkValue(el)...)
	}
	return errs
}

func (n *node) convertList(value any, toWire bool) any {
	arr, ok := value.([]any)
	if !ok {
		return value
	}
	out := make([]any, len(arr))
	for i, el := range arr {
		out[i] = n.elem.convertValue(el, toWire)
	}
	return out
}
