package expr

import "strings"

// Built is a completed expression: the clause text plus the placeholder
// maps it references. Exactly one of FilterExpression and
// ConditionExpression is set, matching how the expression was begun.
type Built struct {
	FilterExpression    string
	ConditionExpression string
	Names               map[string]string
	Values              map[string]any

	inclusive bool
}

func (b *Built) text() string {
	if b.ConditionExpression != "" {
		return b.ConditionExpression
	}
	return b.FilterExpression
}

// Builder assembles a filter or condition expression clause by clause,
// strictly in call order. A Builder is bound to one Registry and is
// single-use; two independent Builders never interfere.
//
// Contract misuse (a predicate with no field cursor, an empty continuation)
// is a silent no-op rather than an error; that is programmer error and the
// builder stays usable.
type Builder struct {
	reg       *Registry
	condition bool
	inclusive bool

	clauses []string
	pending string // conjunction awaiting the next clause
	cursor  string // placeholder path of the field under construction

	// first-assigned name token per literal field name, reused on repeat
	// references within this builder
	fieldTokens map[string]string
}

// Scan begins a FilterExpression positioned on field. The inclusive flag
// marks the finished expression for parenthesization when it is later
// embedded into another builder.
func Scan(field string, inclusive bool) *Builder {
	b := newBuilder(false, inclusive)
	b.moveTo(field)
	return b
}

// ScanExpr begins a FilterExpression seeded with a previously built
// expression, merged through this builder's registry.
func ScanExpr(prior *Built, inclusive bool) *Builder {
	b := newBuilder(false, inclusive)
	b.embed(prior)
	return b
}

// Condition begins a ConditionExpression positioned on field. Aside from
// the output key it behaves exactly like Scan.
func Condition(field string, inclusive bool) *Builder {
	b := newBuilder(true, inclusive)
	b.moveTo(field)
	return b
}

// ConditionExpr begins a ConditionExpression seeded with a previously
// built expression.
func ConditionExpr(prior *Built, inclusive bool) *Builder {
	b := newBuilder(true, inclusive)
	b.embed(prior)
	return b
}

func newBuilder(condition, inclusive bool) *Builder {
	return &Builder{
		reg:         NewRegistry(),
		condition:   condition,
		inclusive:   inclusive,
		fieldTokens: make(map[string]string),
	}
}

// Registry returns the registry this builder mints placeholders from.
func (b *Builder) Registry() *Registry {
	return b.reg
}

// And appends the next clause with AND and positions the builder on field.
// An empty field is a no-op.
func (b *Builder) And(field string) *Builder {
	if field != "" {
		b.pending = " AND "
		b.moveTo(field)
	}
	return b
}

// Or appends the next clause with OR and positions the builder on field.
// An empty field is a no-op.
func (b *Builder) Or(field string) *Builder {
	if field != "" {
		b.pending = " OR "
		b.moveTo(field)
	}
	return b
}

// AndExpr appends a previously built expression with AND, merging its
// placeholder maps into this builder's registry. The spliced text is
// parenthesized only when the prior expression was begun inclusive.
// A nil expression is a no-op.
func (b *Builder) AndExpr(prior *Built) *Builder {
	if prior != nil {
		b.pending = " AND "
		b.embed(prior)
	}
	return b
}

// OrExpr appends a previously built expression with OR.
// A nil expression is a no-op.
func (b *Builder) OrExpr(prior *Built) *Builder {
	if prior != nil {
		b.pending = " OR "
		b.embed(prior)
	}
	return b
}

// Equals appends a "field = value" clause for the current field.
func (b *Builder) Equals(value any) *Builder {
	if b.cursor != "" {
		b.append(b.cursor + "=" + b.reg.AddValue(value))
	}
	return b
}

// NotEquals appends a "field <> value" clause for the current field.
func (b *Builder) NotEquals(value any) *Builder {
	if b.cursor != "" {
		b.append(b.cursor + "<>" + b.reg.AddValue(value))
	}
	return b
}

// EqualsAny appends one equality comparison per value, OR-joined, all
// reusing the current field's name token. A single value degenerates to
// Equals.
func (b *Builder) EqualsAny(values ...any) *Builder {
	return b.spread("=", " OR ", values)
}

// NotEqualsAll appends one inequality comparison per value, AND-joined.
func (b *Builder) NotEqualsAll(values ...any) *Builder {
	return b.spread("<>", " AND ", values)
}

// Contains appends a contains(field, value) clause.
func (b *Builder) Contains(value any) *Builder {
	if b.cursor != "" {
		b.append("contains(" + b.cursor + "," + b.reg.AddValue(value) + ")")
	}
	return b
}

// ContainsAny appends one contains clause per value, OR-joined.
func (b *Builder) ContainsAny(values ...any) *Builder {
	if b.cursor == "" || len(values) == 0 {
		return b
	}
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = "contains(" + b.cursor + "," + b.reg.AddValue(value) + ")"
	}
	b.append(strings.Join(parts, " OR "))
	return b
}

// Exists appends an attribute_exists(field) clause.
func (b *Builder) Exists() *Builder {
	if b.cursor != "" {
		b.append("attribute_exists(" + b.cursor + ")")
	}
	return b
}

// NotExists appends an attribute_not_exists(field) clause.
func (b *Builder) NotExists() *Builder {
	if b.cursor != "" {
		b.append("attribute_not_exists(" + b.cursor + ")")
	}
	return b
}

// Build assembles the final expression strictly in call order. No implicit
// precedence is applied; parentheses appear only around embedded inclusive
// expressions.
func (b *Builder) Build() *Built {
	attrs := b.reg.Expression()
	built := &Built{
		Names:     attrs.Names,
		Values:    attrs.Values,
		inclusive: b.inclusive,
	}
	text := strings.Join(b.clauses, "")
	if b.condition {
		built.ConditionExpression = text
	} else {
		built.FilterExpression = text
	}
	return built
}

// moveTo positions the builder on a field, reusing the field's
// first-assigned token within this builder.
func (b *Builder) moveTo(field string) {
	if field == "" {
		return
	}
	token, ok := b.fieldTokens[field]
	if !ok {
		token = b.reg.AddName(field)
		b.fieldTokens[field] = token
	}
	b.cursor = token
}

func (b *Builder) append(clause string) {
	b.clauses = append(b.clauses, b.pending, clause)
	b.pending = ""
}

func (b *Builder) embed(prior *Built) {
	if prior == nil {
		return
	}
	spliced := b.reg.Splice(prior)
	if spliced == "" {
		b.pending = ""
		return
	}
	if prior.inclusive {
		spliced = "(" + spliced + ")"
	}
	b.append(spliced)
	b.cursor = ""
}

// spread emits one comparison per value against the current field, joined
// with the given conjunction. Scalar callers pass a single value and get a
// bare comparison with no grouping.
func (b *Builder) spread(op, conj string, values []any) *Builder {
	if b.cursor == "" || len(values) == 0 {
		return b
	}
	parts := make([]string, len(values))
	for i, value := range values {
		parts[i] = b.cursor + op + b.reg.AddValue(value)
	}
	b.append(strings.Join(parts, conj))
	return b
}
