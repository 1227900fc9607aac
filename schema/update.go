package schema

import "strings"

// UpdateBody describes a partial mutation of one record.
//
// Set assigns values by field path; dotted paths ("profile.city") address
// nested Map attributes. Append and Prepend add elements to List and
// MappedList fields. Remove deletes field paths.
//
// A constant, primary, or sort field must not appear in any of the three.
type UpdateBody struct {
	Set     map[string]any   `yaml:"set,omitempty"`
	Append  map[string][]any `yaml:"append,omitempty"`
	Prepend map[string][]any `yaml:"prepend,omitempty"`
	Remove  []string         `yaml:"remove,omitempty"`
}

// clone returns a body whose maps and slices can be rewritten without
// mutating the caller's copy. Values are shared.
func (b *UpdateBody) clone() *UpdateBody {
	if b == nil {
		return &UpdateBody{}
	}
	out := &UpdateBody{}
	if b.Set != nil {
		out.Set = make(map[string]any, len(b.Set))
		for k, v := range b.Set {
			out.Set[k] = v
		}
	}
	if b.Append != nil {
		out.Append = make(map[string][]any, len(b.Append))
		for k, v := range b.Append {
			out.Append[k] = append([]any(nil), v...)
		}
	}
	if b.Prepend != nil {
		out.Prepend = make(map[string][]any, len(b.Prepend))
		for k, v := range b.Prepend {
			out.Prepend[k] = append([]any(nil), v...)
		}
	}
	out.Remove = append([]string(nil), b.Remove...)
	return out
}

// pathRoot returns the first segment of a dotted field path.
func pathRoot(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// touches reports whether the body mutates the named top-level field
// through any channel.
func (b *UpdateBody) touches(name string) bool {
	if b == nil {
		return false
	}
	for path := range b.Set {
		if pathRoot(path) == name {
			return true
		}
	}
	for path := range b.Append {
		if pathRoot(path) == name {
			return true
		}
	}
	for path := range b.Prepend {
		if pathRoot(path) == name {
			return true
		}
	}
	for _, path := range b.Remove {
		if pathRoot(path) == name {
			return true
		}
	}
	return false
}

// removes reports whether the body removes the named top-level field or
// any path under it.
func (b *UpdateBody) removes(name string) bool {
	if b == nil {
		return false
	}
	for _, path := range b.Remove {
		if pathRoot(path) == name {
			return true
		}
	}
	return false
}
