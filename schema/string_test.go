package schema_test

import (
	"testing"

	"github.com/jacentio/lattice/schema"
)

func slugSchema(opts *schema.SlugifyOptions) *schema.Schema {
	return schema.Must(map[string]schema.Field{
		"id":   {Type: schema.String, Primary: true},
		"slug": {Type: schema.String, Slugify: opts},
	})
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		opts *schema.SlugifyOptions
		in   string
		want string
	}{
		{
			name: "whitespace replaced, case and dots kept",
			opts: &schema.SlugifyOptions{},
			in:   "This is a test value.",
			want: "This-is-a-test-value.",
		},
		{
			name: "whitespace runs collapse to one replacement",
			opts: &schema.SlugifyOptions{},
			in:   "a \t b",
			want: "a-b",
		},
		{
			name: "leading and trailing whitespace trimmed",
			opts: &schema.SlugifyOptions{},
			in:   "  padded  ",
			want: "padded",
		},
		{
			name: "custom replacement",
			opts: &schema.SlugifyOptions{Replacement: "_"},
			in:   "two words",
			want: "two_words",
		},
		{
			name: "char map applies before removal",
			opts: &schema.SlugifyOptions{CharMap: map[string]string{"&": "and"}},
			in:   "Rock & Roll",
			want: "Rock-and-Roll",
		},
		{
			name: "remove pattern strips matches",
			opts: &schema.SlugifyOptions{Remove: `[!?,]`},
			in:   "Really? Yes, really!",
			want: "Really-Yes-really",
		},
		{
			name: "emoji stripped without a remove pattern",
			opts: &schema.SlugifyOptions{},
			in:   "hello \U0001F600 world",
			want: "hello-world",
		},
		{
			name: "symbols stripped",
			opts: &schema.SlugifyOptions{},
			in:   "price > value",
			want: "price-value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := slugSchema(tt.opts)
			wire := s.ToWire(map[string]any{"id": "1", "slug": tt.in})
			if wire["slug"] != tt.want {
				t.Errorf("expected %q, got %q", tt.want, wire["slug"])
			}
		})
	}
}

func TestSlugify_ToWireOnly(t *testing.T) {
	s := slugSchema(&schema.SlugifyOptions{})

	// Reading a stored slug back must not re-process it.
	back := s.FromWire(map[string]any{"id": "1", "slug": "kept as is"})
	if back["slug"] != "kept as is" {
		t.Errorf("expected stored value untouched on read, got %q", back["slug"])
	}
}

func TestSlugify_InvalidRemovePattern(t *testing.T) {
	_, err := schema.New(map[string]schema.Field{
		"id":   {Type: schema.String, Primary: true},
		"slug": {Type: schema.String, Slugify: &schema.SlugifyOptions{Remove: "("}},
	})
	if err == nil {
		t.Error("expected invalid remove pattern to fail construction")
	}
}

func TestSlugify_AppliedOnUpdateSet(t *testing.T) {
	s := slugSchema(&schema.SlugifyOptions{})

	body := s.ToWireUpdate(&schema.UpdateBody{Set: map[string]any{"slug": "new value"}})
	if body.Set["slug"] != "new-value" {
		t.Errorf("expected slugified set value, got %v", body.Set["slug"])
	}
}
