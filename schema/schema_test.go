package schema_test

import (
	"strings"
	"testing"

	"github.com/jacentio/lattice/schema"
)

func userFields() map[string]schema.Field {
	return map[string]schema.Field{
		"id":    {Type: schema.String, Primary: true},
		"email": {Type: schema.String, Required: true},
		"age":   {Type: schema.Number},
		"admin": {Type: schema.Boolean},
	}
}

func TestNew_KeyConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		fields  map[string]schema.Field
		wantErr string
	}{
		{
			name: "valid single primary",
			fields: map[string]schema.Field{
				"id": {Type: schema.String, Primary: true},
			},
		},
		{
			name: "primary plus sort",
			fields: map[string]schema.Field{
				"pk": {Type: schema.String, Primary: true},
				"sk": {Type: schema.String, Sort: true},
			},
		},
		{
			name: "no primary key",
			fields: map[string]schema.Field{
				"name": {Type: schema.String},
			},
			wantErr: "no primary key",
		},
		{
			name: "duplicate primary key",
			fields: map[string]schema.Field{
				"a": {Type: schema.String, Primary: true},
				"b": {Type: schema.String, Primary: true},
			},
			wantErr: "duplicate primary key",
		},
		{
			name: "multiple sort keys",
			fields: map[string]schema.Field{
				"id": {Type: schema.String, Primary: true},
				"a":  {Type: schema.String, Sort: true},
				"b":  {Type: schema.String, Sort: true},
			},
			wantErr: "multiple sort keys",
		},
		{
			name: "unknown kind",
			fields: map[string]schema.Field{
				"id": {Type: "Blob", Primary: true},
			},
			wantErr: "unknown type",
		},
		{
			name: "missing kind",
			fields: map[string]schema.Field{
				"id": {Primary: true},
			},
			wantErr: "missing a type",
		},
		{
			name: "mapped list without key attribute",
			fields: map[string]schema.Field{
				"id":   {Type: schema.String, Primary: true},
				"tags": {Type: schema.MappedList},
			},
			wantErr: "requires a keyAttribute",
		},
		{
			name: "invalid format pattern",
			fields: map[string]schema.Field{
				"id": {Type: schema.String, Primary: true, Format: "("},
			},
			wantErr: "invalid format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.New(tt.fields)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected success, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestMust_PanicsOnMisuse(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for schema without primary key")
		}
	}()
	schema.Must(map[string]schema.Field{"x": {Type: schema.String}})
}

func TestValidate_RequiredField(t *testing.T) {
	s := schema.Must(userFields())

	tests := []struct {
		name string
		doc  map[string]any
		want int
	}{
		{"present", map[string]any{"id": "1", "email": "a@b.c"}, 0},
		{"absent", map[string]any{"id": "1"}, 1},
		{"nil", map[string]any{"id": "1", "email": nil}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := s.Validate(tt.doc)
			if len(errs) != tt.want {
				t.Fatalf("expected %d errors, got %v", tt.want, errs)
			}
			if tt.want == 1 && !strings.Contains(errs[0], `"email"`) {
				t.Errorf("expected error naming the field, got %q", errs[0])
			}
		})
	}
}

func TestValidate_TypeMismatch(t *testing.T) {
	s := schema.Must(userFields())

	errs := s.Validate(map[string]any{
		"id":    "1",
		"email": "a@b.c",
		"age":   "forty",
		"admin": 1,
	})
	if len(errs) != 2 {
		t.Fatalf("expected 2 errors, got %v", errs)
	}
	// All failures collected, never just the first.
	joined := strings.Join(errs, "\n")
	if !strings.Contains(joined, "expects type number, got string") {
		t.Errorf("expected number mismatch naming both types, got %v", errs)
	}
	if !strings.Contains(joined, "expects type boolean, got number") {
		t.Errorf("expected boolean mismatch naming both types, got %v", errs)
	}
}

func TestValidate_Enum(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id":     {Type: schema.String, Primary: true},
		"status": {Type: schema.String, Enum: []string{"active", "inactive"}},
	})

	if errs := s.Validate(map[string]any{"id": "1", "status": "active"}); len(errs) != 0 {
		t.Errorf("expected allowed value to pass, got %v", errs)
	}
	errs := s.Validate(map[string]any{"id": "1", "status": "paused"})
	if len(errs) != 1 || !strings.Contains(errs[0], "must be one of") {
		t.Errorf("expected enum rejection, got %v", errs)
	}
}

func TestValidate_InvalidCharacters(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id":   {Type: schema.String, Primary: true},
		"name": {Type: schema.String, InvalidCharacters: `#@`},
	})

	if errs := s.Validate(map[string]any{"id": "1", "name": "plain"}); len(errs) != 0 {
		t.Errorf("expected clean value to pass, got %v", errs)
	}
	if errs := s.Validate(map[string]any{"id": "1", "name": "has#hash"}); len(errs) != 1 {
		t.Errorf("expected forbidden character rejection, got %v", errs)
	}
}

func TestValidate_FormatIsAnchored(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id":   {Type: schema.String, Primary: true},
		"code": {Type: schema.String, Format: `[a-z]{3}`},
	})

	if errs := s.Validate(map[string]any{"id": "1", "code": "abc"}); len(errs) != 0 {
		t.Errorf("expected full match to pass, got %v", errs)
	}
	// A substring match is not enough; the pattern anchors at both ends.
	if errs := s.Validate(map[string]any{"id": "1", "code": "xabcx"}); len(errs) != 1 {
		t.Errorf("expected partial match to fail, got %v", errs)
	}
}

func TestValidate_MapOnlyAllowDefinedAttributes(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id": {Type: schema.String, Primary: true},
		"profile": {
			Type:                       schema.Map,
			OnlyAllowDefinedAttributes: true,
			Attributes: map[string]schema.Field{
				"x": {Type: schema.String},
			},
		},
	})

	if errs := s.Validate(map[string]any{"id": "1", "profile": map[string]any{"x": "ok"}}); len(errs) != 0 {
		t.Errorf("expected declared attribute to pass, got %v", errs)
	}
	errs := s.Validate(map[string]any{"id": "1", "profile": map[string]any{"x": "ok", "y": "no"}})
	if len(errs) != 1 || !strings.Contains(errs[0], `"y"`) {
		t.Errorf("expected rejection of undeclared sibling, got %v", errs)
	}
}

func TestValidate_MapRecursesIntoChildren(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id": {Type: schema.String, Primary: true},
		"profile": {
			Type: schema.Map,
			Attributes: map[string]schema.Field{
				"city": {Type: schema.String, Required: true},
				"zip":  {Type: schema.Number},
			},
		},
	})

	errs := s.Validate(map[string]any{
		"id":      "1",
		"profile": map[string]any{"zip": "oslo"},
	})
	if len(errs) != 2 {
		t.Fatalf("expected missing-required and type errors, got %v", errs)
	}
}

func TestValidateUpdate_ImmutableFields(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id":      {Type: schema.String, Primary: true},
		"region":  {Type: schema.String, Sort: true},
		"kind":    {Type: schema.String, Constant: true},
		"email":   {Type: schema.String, Required: true},
		"display": {Type: schema.String},
	})

	tests := []struct {
		name string
		body *schema.UpdateBody
		want int
	}{
		{"set primary", &schema.UpdateBody{Set: map[string]any{"id": "2"}}, 1},
		{"set sort", &schema.UpdateBody{Set: map[string]any{"region": "eu"}}, 1},
		{"set constant", &schema.UpdateBody{Set: map[string]any{"kind": "b"}}, 1},
		{"remove constant", &schema.UpdateBody{Remove: []string{"kind"}}, 1},
		{"append to constant", &schema.UpdateBody{Append: map[string][]any{"kind": {"x"}}}, 1},
		{"untouched fields never error", &schema.UpdateBody{Set: map[string]any{"display": "ok"}}, 0},
		{"remove required", &schema.UpdateBody{Remove: []string{"email"}}, 1},
		{"set required to nil", &schema.UpdateBody{Set: map[string]any{"email": nil}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := s.ValidateUpdate(tt.body)
			if len(errs) != tt.want {
				t.Errorf("expected %d errors, got %v", tt.want, errs)
			}
		})
	}
}

func TestValidateUpdate_NestedImmutableAttributes(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id": {Type: schema.String, Primary: true},
		"profile": {
			Type: schema.Map,
			Attributes: map[string]schema.Field{
				"origin": {Type: schema.String, Constant: true},
				"city":   {Type: schema.String, Required: true},
				"geo": {Type: schema.Map, Attributes: map[string]schema.Field{
					"src": {Type: schema.String, Constant: true},
					"lat": {Type: schema.Number},
				}},
			},
		},
	})

	tests := []struct {
		name string
		body *schema.UpdateBody
		want int
	}{
		{"dotted set of constant", &schema.UpdateBody{Set: map[string]any{"profile.origin": "x"}}, 1},
		{"dotted set of constant to null", &schema.UpdateBody{Set: map[string]any{"profile.origin": nil}}, 1},
		{"dotted set below constant", &schema.UpdateBody{Set: map[string]any{"profile.geo.src": "x"}}, 1},
		{"whole map carrying constant", &schema.UpdateBody{Set: map[string]any{"profile": map[string]any{"origin": "x", "city": "Oslo"}}}, 1},
		{"whole map carrying nested constant", &schema.UpdateBody{Set: map[string]any{"profile": map[string]any{"city": "Oslo", "geo": map[string]any{"src": "x"}}}}, 1},
		{"whole map without constants", &schema.UpdateBody{Set: map[string]any{"profile": map[string]any{"city": "Oslo"}}}, 0},
		{"dotted set of mutable sibling", &schema.UpdateBody{Set: map[string]any{"profile.geo.lat": 59.9}}, 0},
		{"dotted remove of constant", &schema.UpdateBody{Remove: []string{"profile.origin"}}, 1},
		{"dotted remove of required", &schema.UpdateBody{Remove: []string{"profile.city"}}, 1},
		{"dotted remove of nested constant", &schema.UpdateBody{Remove: []string{"profile.geo.src"}}, 1},
		{"dotted remove of mutable sibling", &schema.UpdateBody{Remove: []string{"profile.geo.lat"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := s.ValidateUpdate(tt.body)
			if len(errs) != tt.want {
				t.Errorf("expected %d errors, got %v", tt.want, errs)
			}
		})
	}
}

func TestValidateUpdate_SetTypeMismatch(t *testing.T) {
	s := schema.Must(userFields())

	errs := s.ValidateUpdate(&schema.UpdateBody{Set: map[string]any{"age": "old"}})
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
	if !strings.Contains(errs[0], "number") || !strings.Contains(errs[0], "string") {
		t.Errorf("expected error naming expected and actual types, got %q", errs[0])
	}
}

func TestValidateUpdate_DottedMapPath(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id": {Type: schema.String, Primary: true},
		"profile": {
			Type:                       schema.Map,
			OnlyAllowDefinedAttributes: true,
			Attributes: map[string]schema.Field{
				"city": {Type: schema.String},
				"geo": {Type: schema.Map, Attributes: map[string]schema.Field{
					"lat": {Type: schema.Number},
				}},
			},
		},
	})

	if errs := s.ValidateUpdate(&schema.UpdateBody{Set: map[string]any{"profile.city": "Oslo"}}); len(errs) != 0 {
		t.Errorf("expected declared path to pass, got %v", errs)
	}
	if errs := s.ValidateUpdate(&schema.UpdateBody{Set: map[string]any{"profile.city": 7}}); len(errs) != 1 {
		t.Errorf("expected type error on dotted path, got %v", errs)
	}
	if errs := s.ValidateUpdate(&schema.UpdateBody{Set: map[string]any{"profile.nope": "x"}}); len(errs) != 1 {
		t.Errorf("expected undeclared dotted path rejection, got %v", errs)
	}
	if errs := s.ValidateUpdate(&schema.UpdateBody{Set: map[string]any{"profile.geo.lat": 59.9}}); len(errs) != 0 {
		t.Errorf("expected nested dotted path to pass, got %v", errs)
	}
	if errs := s.ValidateUpdate(&schema.UpdateBody{Set: map[string]any{"profile.geo.lat": "north"}}); len(errs) != 1 {
		t.Errorf("expected nested type error, got %v", errs)
	}
}

func TestValidateUpdate_NilBody(t *testing.T) {
	s := schema.Must(userFields())
	if errs := s.ValidateUpdate(nil); len(errs) != 0 {
		t.Errorf("expected nil body to be valid, got %v", errs)
	}
}

func TestToWire_DoesNotMutateInput(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id":   {Type: schema.String, Primary: true},
		"when": {Type: schema.Date},
	})

	doc := map[string]any{"id": "1", "when": "2024-05-01T10:00:00Z"}
	s.ToWire(doc)

	if doc["when"] != "2024-05-01T10:00:00Z" {
		t.Errorf("input document mutated: %v", doc)
	}
}

func TestToWire_PassesThroughUndeclaredFields(t *testing.T) {
	s := schema.Must(userFields())

	wire := s.ToWire(map[string]any{"id": "1", "email": "a@b.c", "extra": 42})
	if wire["extra"] != 42 {
		t.Errorf("expected undeclared field to pass through, got %v", wire)
	}
}

func TestWithDefaults(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id":     {Type: schema.String, Primary: true},
		"status": {Type: schema.String, Default: "active"},
	})

	doc := s.WithDefaults(map[string]any{"id": "1"})
	if doc["status"] != "active" {
		t.Errorf("expected default applied, got %v", doc)
	}

	doc = s.WithDefaults(map[string]any{"id": "1", "status": "inactive"})
	if doc["status"] != "inactive" {
		t.Errorf("expected present value kept, got %v", doc)
	}
}

func TestKeyFields(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"pk": {Type: schema.String, Primary: true},
		"sk": {Type: schema.Number, Sort: true},
	})

	if s.PrimaryKey() != "pk" || s.SortKey() != "sk" {
		t.Errorf("expected pk/sk, got %q/%q", s.PrimaryKey(), s.SortKey())
	}
	fields := s.KeyFields()
	if len(fields) != 2 || fields[0] != "pk" || fields[1] != "sk" {
		t.Errorf("expected [pk sk], got %v", fields)
	}
}

func TestProcessConverter(t *testing.T) {
	s := schema.Must(map[string]schema.Field{
		"id": {Type: schema.String, Primary: true},
		"shout": {Type: schema.String, Process: &schema.Converter{
			ToWire: func(v any) any {
				if s, ok := v.(string); ok {
					return strings.ToUpper(s)
				}
				return v
			},
			FromWire: func(v any) any {
				if s, ok := v.(string); ok {
					return strings.ToLower(s)
				}
				return v
			},
		}},
	})

	wire := s.ToWire(map[string]any{"id": "1", "shout": "hey"})
	if wire["shout"] != "HEY" {
		t.Errorf("expected custom toWire applied, got %v", wire["shout"])
	}
	back := s.FromWire(wire)
	if back["shout"] != "hey" {
		t.Errorf("expected custom fromWire applied, got %v", back["shout"])
	}
}

func TestConcurrentValidateAndConvert(t *testing.T) {
	s := schema.Must(userFields())
	doc := map[string]any{"id": "1", "email": "a@b.c", "age": 30}

	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				if errs := s.Validate(doc); len(errs) != 0 {
					t.Errorf("unexpected validation failure: %v", errs)
					return
				}
				s.FromWire(s.ToWire(doc))
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}
