package schema

// Kind identifies the declared type of a field. The set is closed; New
// rejects kinds outside it. Untyped is the explicit escape hatch for
// fields that should pass through without type enforcement.
type Kind string

const (
	Boolean    Kind = "Boolean"
	Number     Kind = "Number"
	String     Kind = "String"
	Date       Kind = "Date"
	List       Kind = "List"
	Map        Kind = "Map"
	MappedList Kind = "MappedList"
	Untyped    Kind = "Untyped"
)

// Wire formats for Date fields.
const (
	// DateFormatISO persists dates as UTC ISO-8601 strings with
	// millisecond precision. This is the default.
	DateFormatISO = "ISO-8601"

	// DateFormatTimestamp persists dates as epoch milliseconds.
	DateFormatTimestamp = "Timestamp"
)

// Field is the declarative description of one record field. A Field is
// pure data; it is compiled into runtime form once, at Schema
// construction, and never consulted again.
type Field struct {
	// Type selects the field kind. Required.
	Type Kind `yaml:"type"`

	// Required rejects records where the field is absent or nil.
	Required bool `yaml:"required,omitempty"`

	// Constant forbids the field from appearing in any update body.
	Constant bool `yaml:"constant,omitempty"`

	// Primary marks the partition key. Exactly one top-level field must
	// set it. Primary fields are immutable, like Constant.
	Primary bool `yaml:"primary,omitempty"`

	// Sort marks the sort key. At most one top-level field may set it.
	Sort bool `yaml:"sort,omitempty"`

	// Default is substituted for an absent field by Schema.WithDefaults.
	Default any `yaml:"default,omitempty"`

	// Enum restricts a String field to an allow-list of values.
	Enum []string `yaml:"enum,omitempty"`

	// Format is a regular expression a String field must match in full;
	// anchoring is applied automatically.
	Format string `yaml:"format,omitempty"`

	// InvalidCharacters is a character-class body; a String field
	// containing any of the characters is rejected.
	InvalidCharacters string `yaml:"invalidCharacters,omitempty"`

	// Slugify enables slug canonicalization of a String field on the way
	// to the store. The zero options are valid.
	Slugify *SlugifyOptions `yaml:"slugify,omitempty"`

	// DateFormat selects the wire format for a Date field:
	// DateFormatISO (default) or DateFormatTimestamp.
	DateFormat string `yaml:"dateFormat,omitempty"`

	// Attributes declares the child fields of a Map, the element shape of
	// a List, or the record shape of a MappedList.
	Attributes map[string]Field `yaml:"attributes,omitempty"`

	// KeyAttribute names the element attribute a MappedList is keyed by.
	// Required for MappedList fields.
	KeyAttribute string `yaml:"keyAttribute,omitempty"`

	// OnlyAllowDefinedAttributes makes a Map reject keys not declared in
	// Attributes.
	OnlyAllowDefinedAttributes bool `yaml:"onlyAllowDefinedAttributes,omitempty"`

	// Process is an optional custom converter pair, applied after the
	// kind's own converters in both directions.
	Process *Converter `yaml:"-"`
}

// SlugifyOptions tunes slug canonicalization.
type SlugifyOptions struct {
	// Replacement substitutes for whitespace runs. Default "-".
	Replacement string `yaml:"replacement,omitempty"`

	// Remove is a regular expression of substrings to strip before
	// whitespace replacement. Unicode symbols and emoji are stripped
	// regardless of this pattern.
	Remove string `yaml:"remove,omitempty"`

	// CharMap substitutes individual characters before removal,
	// e.g. {"&": "and"}.
	CharMap map[string]string `yaml:"charMap,omitempty"`
}

// Converter is a pure transcoding pair for one field. A nil function is
// an identity; a nil result drops the field from the output document.
// Converter registration order governs application order for both
// directions; the list is deliberately not reversed for FromWire.
type Converter struct {
	ToWire   func(any) any
	FromWire func(any) any
}
