// Package expr builds DynamoDB filter and condition expressions from
// collision-free attribute placeholders.
//
// DynamoDB's expression grammar cannot reference attribute names or values
// directly; both must go through placeholder tokens. A [Registry] owns the
// token namespace for one expression-building session, and a [Builder]
// assembles boolean clauses against it with caller-controlled operator
// sequencing.
//
// # Building expressions
//
//	built := expr.Scan("status", false).
//	    Equals("active").
//	    And("region").EqualsAny("us-east-1", "us-west-2").
//	    Build()
//
//	// built.FilterExpression: #NC0=:VC0 AND #NC1=:VC1 OR #NC1=:VC2
//	// built.Names:  {"#NC0": "status", "#NC1": "region"}
//	// built.Values: {":VC0": "active", ":VC1": "us-east-1", ":VC2": "us-west-2"}
//
// [Condition] behaves identically but yields a ConditionExpression for
// conditional writes.
//
// # Composition
//
// Independently built expressions compose without token collisions: the
// receiving builder re-mints every foreign token through its own registry
// and splices the rewritten clause text. An expression begun with
// inclusive=true is parenthesized at its embedding site:
//
//	either := expr.Scan("a", true).Equals(1).Or("a").Equals(2).Build()
//	both := expr.Scan("b", false).Equals(3).AndExpr(either).Build()
//	// #NC0=:VC0 AND (#NC1=:VC1 OR #NC1=:VC2)
//
// Clauses assemble strictly in call order; the builder never reorders for
// operator precedence.
//
// # Sessions
//
// A Registry (and the Builder bound to it) is single-use: one instance per
// expression being assembled, never shared across sessions. Placeholder
// tokens are never reused within an instance.
package expr
