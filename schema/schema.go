package schema

import "fmt"

// Schema is the compiled form of a record declaration. It is built once
// by New and read-only afterwards; a single Schema is safe for any number
// of concurrent validate and convert calls.
//
// Validation failures are reported as message lists, never as errors.
// Errors are reserved for schema misuse at construction time.
type Schema struct {
	fields map[string]Field
	nodes  []*node
	byName map[string]*node

	primary string
	sort    string
}

// New compiles a field declaration into a Schema. It fails on malformed
// key configuration (no primary key, duplicate primary keys, multiple
// sort keys), unknown kinds, and invalid per-kind options.
func New(fields map[string]Field) (*Schema, error) {
	s := &Schema{
		fields: fields,
		byName: make(map[string]*node, len(fields)),
	}
	for _, name := range sortedKeys(fields) {
		f := fields[name]
		n, err := compileField(name, f)
		if err != nil {
			return nil, err
		}
		s.nodes = append(s.nodes, n)
		s.byName[name] = n

		if f.Primary {
			if s.primary != "" {
				return nil, fmt.Errorf("schema: duplicate primary key: %q and %q", s.primary, name)
			}
			s.primary = name
		}
		if f.Sort {
			if s.sort != "" {
				return nil, fmt.Errorf("schema: multiple sort keys: %q and %q", s.sort, name)
			}
			s.sort = name
		}
	}
	if s.primary == "" {
		return nil, fmt.Errorf("schema: no primary key declared")
	}
	return s, nil
}

// Must is New for schemas declared in code; it panics on misuse.
func Must(fields map[string]Field) *Schema {
	s, err := New(fields)
	if err != nil {
		panic(err)
	}
	return s
}

// compileField dispatches on the declared kind. The kind set is closed;
// Untyped is the only fallback and must be asked for explicitly.
func compileField(name string, f Field) (*node, error) {
	n := &node{name: name, field: f, vt: typeUnknown}

	var err error
	switch f.Type {
	case Boolean:
		n.vt = typeBoolean
	case Number:
		n.vt = typeNumber
	case String:
		err = buildString(n)
	case Date:
		err = buildDate(n)
	case List:
		err = buildList(n)
	case Map:
		err = buildMap(n)
	case MappedList:
		err = buildMappedList(n)
	case Untyped:
		// no tag, no rules
	case "":
		return nil, fmt.Errorf("schema: field %q is missing a type", name)
	default:
		return nil, fmt.Errorf("schema: field %q has unknown type %q", name, f.Type)
	}
	if err != nil {
		return nil, err
	}

	if f.Process != nil {
		n.converters = append(n.converters, *f.Process)
	}
	return n, nil
}

// Validate checks a whole record against the schema and returns every
// failure. An empty result means the record is valid. Validation never
// stops at the first failure.
func (s *Schema) Validate(doc map[string]any) []string {
	var errs []string
	for _, n := range s.nodes {
		errs = append(errs, n.validatePut(doc)...)
	}
	return errs
}

// ValidateUpdate checks an update body against the schema and returns
// every failure.
func (s *Schema) ValidateUpdate(body *UpdateBody) []string {
	if body == nil {
		return nil
	}
	var errs []string
	for _, n := range s.nodes {
		errs = append(errs, n.validateUpdate(body)...)
	}
	return errs
}

// ToWire converts a record to its wire representation. The input is not
// mutated; undeclared fields pass through unchanged. Validation is a
// separate, orthogonal pass: ToWire converts whatever it is given.
func (s *Schema) ToWire(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	for _, n := range s.nodes {
		n.applyToWire(out)
	}
	return out
}

// FromWire converts a raw stored item back to its application
// representation. The input is not mutated.
func (s *Schema) FromWire(doc map[string]any) map[string]any {
	if doc == nil {
		return nil
	}
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	for _, n := range s.nodes {
		n.applyFromWire(out)
	}
	return out
}

// ToWireUpdate converts an update body to wire form: structural kinds
// first rewrite Append and Prepend into Set entries, then conversion is
// applied to the Set portion only. The input body is not mutated.
func (s *Schema) ToWireUpdate(body *UpdateBody) *UpdateBody {
	out := body.clone()
	for _, n := range s.nodes {
		n.normalize(out)
	}
	if len(out.Set) > 0 {
		for _, n := range s.nodes {
			n.convertSet(out.Set, true)
		}
	}
	return out
}

// WithDefaults returns a copy of doc with declared defaults substituted
// for absent fields. Defaults are applied before validation by callers
// that want them; the conversion passes never apply them implicitly.
func (s *Schema) WithDefaults(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	for _, n := range s.nodes {
		if n.field.Default == nil {
			continue
		}
		if _, ok := out[n.name]; !ok {
			out[n.name] = n.field.Default
		}
	}
	return out
}

// PrimaryKey returns the name of the partition key field.
func (s *Schema) PrimaryKey() string {
	return s.primary
}

// SortKey returns the name of the sort key field, or "" when none is
// declared.
func (s *Schema) SortKey() string {
	return s.sort
}

// KeyFields returns the key field names, partition key first.
func (s *Schema) KeyFields() []string {
	if s.sort == "" {
		return []string{s.primary}
	}
	return []string{s.primary, s.sort}
}

// Field returns the declaration of a top-level field.
func (s *Schema) Field(name string) (Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}
