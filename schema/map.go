package schema

import (
	"fmt"
	"strings"
)

// buildMap installs the Map kind: child nodes compiled from the declared
// attributes, recursive validation and conversion, and dotted-path
// handling for update bodies.
func buildMap(n *node) error {
	n.vt = typeObject

	children, names, err := compileChildren(n.field.Attributes)
	if err != nil {
		return err
	}
	n.children = children
	n.childNames = names

	n.putRules = append(n.putRules, mapPutRule)
	n.updateRules = append(n.updateRules, mapUpdateRule)
	n.convertPathFn = mapConvertPath
	n.converters = append(n.converters, Converter{
		ToWire:   func(value any) any { return n.convertMap(value, true) },
		FromWire: func(value any) any { return n.convertMap(value, false) },
	})
	return nil
}

func compileChildren(attrs map[string]Field) (map[string]*node, []string, error) {
	if len(attrs) == 0 {
		return nil, nil, nil
	}
	children := make(map[string]*node, len(attrs))
	names := sortedKeys(attrs)
	for _, name := range names {
		child, err := compileField(name, attrs[name])
		if err != nil {
			return nil, nil, err
		}
		children[name] = child
	}
	return children, names, nil
}

func mapPutRule(n *node, value any) []string {
	m, ok := value.(map[string]any)
	if !ok {
		return []string{fmt.Sprintf("field %q expects a map", n.name)}
	}
	var errs []string
	if n.field.OnlyAllowDefinedAttributes {
		for _, key := range sortedKeys(m) {
			if n.child(key) == nil {
				errs = append(errs, fmt.Sprintf("field %q is not allowed in %q", key, n.name))
			}
		}
	}
	for _, name := range n.childNames {
		errs = append(errs, n.children[name].validatePut(m)...)
	}
	return errs
}

// mapUpdateRule validates dotted Set and Remove paths rooted at this
// field, plus whole-map replacements. A path like "field.sub.attr" is
// equivalent to mutating that attribute inside a nested object, so the
// walk applies the same per-attribute rules a whole object put would,
// and additionally the update-only ones: constant attributes are
// immutable and required attributes cannot be removed.
func mapUpdateRule(n *node, body *UpdateBody) []string {
	var errs []string
	if value, ok := body.Set[n.name]; ok {
		if m, ok := value.(map[string]any); ok {
			errs = append(errs, n.checkConstantChildren(m)...)
		}
	}
	for _, path := range sortedSetPathsUnder(n, body) {
		errs = append(errs, n.validateSetPath(path[len(n.name)+1:], body.Set[path])...)
	}
	for _, path := range body.Remove {
		if path != n.name && pathRoot(path) == n.name {
			errs = append(errs, n.validateRemovePath(path[len(n.name)+1:])...)
		}
	}
	return errs
}

// checkConstantChildren rejects constant attributes carried by a
// whole-map replacement value, recursing into nested maps.
func (n *node) checkConstantChildren(m map[string]any) []string {
	var errs []string
	for _, name := range n.childNames {
		value, ok := m[name]
		if !ok {
			continue
		}
		child := n.children[name]
		if child.field.Constant {
			errs = append(errs, fmt.Sprintf("field %q is immutable and cannot appear in an update", child.name))
			continue
		}
		if cm, ok := value.(map[string]any); ok && child.children != nil {
			errs = append(errs, child.checkConstantChildren(cm)...)
		}
	}
	return errs
}

// sortedSetPathsUnder returns the body's dotted Set paths rooted at n, in
// deterministic order. The bare field name itself is handled by the base
// rules, not here.
func sortedSetPathsUnder(n *node, body *UpdateBody) []string {
	var paths []string
	for _, path := range sortedKeys(body.Set) {
		if path != n.name && pathRoot(path) == n.name {
			paths = append(paths, path)
		}
	}
	return paths
}

func (n *node) validateSetPath(rest string, value any) []string {
	seg, remainder := splitPath(rest)
	child := n.child(seg)
	if child == nil {
		if n.field.OnlyAllowDefinedAttributes {
			return []string{fmt.Sprintf("field %q is not allowed in %q", seg, n.name)}
		}
		return nil
	}
	if child.field.Constant {
		return []string{fmt.Sprintf("field %q is immutable and cannot appear in an update", child.name)}
	}
	if remainder != "" {
		if child.children != nil || child.convertPathFn != nil {
			return child.validateSetPath(remainder, value)
		}
		return nil
	}
	if value == nil {
		if child.field.Required {
			return []string{fmt.Sprintf("field %q is required and cannot be set to null", child.name)}
		}
		return nil
	}
	return child.checkValue(value)
}

// validateRemovePath walks a dotted Remove path the same way
// validateSetPath walks a Set path.
func (n *node) validateRemovePath(rest string) []string {
	seg, remainder := splitPath(rest)
	child := n.child(seg)
	if child == nil {
		return nil
	}
	if child.field.Constant {
		return []string{fmt.Sprintf("field %q is immutable and cannot appear in an update", child.name)}
	}
	if remainder != "" {
		if child.children != nil {
			return child.validateRemovePath(remainder)
		}
		return nil
	}
	if child.field.Required {
		return []string{fmt.Sprintf("field %q is required and cannot be removed", child.name)}
	}
	return nil
}

func mapConvertPath(n *node, rest string, value any, toWire bool) any {
	seg, remainder := splitPath(rest)
	child := n.child(seg)
	if child == nil {
		return value
	}
	if remainder == "" {
		return child.convertValue(value, toWire)
	}
	if child.convertPathFn != nil {
		return child.convertPathFn(child, remainder, value, toWire)
	}
	return value
}

// convertMap shallow-copies the sub-object and converts each declared
// child in place. Undeclared keys pass through untouched.
func (n *node) convertMap(value any, toWire bool) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	for _, name := range n.childNames {
		if toWire {
			n.children[name].applyToWire(out)
		} else {
			n.children[name].applyFromWire(out)
		}
	}
	return out
}

func splitPath(path string) (head, rest string) {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i], path[i+1:]
	}
	return path, ""
}
