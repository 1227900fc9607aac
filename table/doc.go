// Package table is the façade over one DynamoDB table: it runs records
// through their compiled schema on the way in and out and delegates to
// the low-level client.
//
// # Pipeline
//
// Writes validate before they convert: Put collects every schema failure
// into one [ValidationError], then transcodes the record to wire form and
// marshals it. Reads convert before the caller sees them: Get, Query, and
// Scan unmarshal raw items and run them back through the schema. Guarded
// writes build their existence conditions with the expr package.
//
// Every store call is wrapped in exponential backoff, retrying only
// throttling and server-side failures.
//
//	users := schema.Must(map[string]schema.Field{
//	    "id":    {Type: schema.String, Primary: true},
//	    "email": {Type: schema.String, Required: true},
//	})
//	tbl, err := table.New(client, users, table.Config{Name: "users"})
//	doc, err := tbl.Put(ctx, map[string]any{"email": "a@example.com"})
//	got, err := tbl.Get(ctx, tbl.Key(doc["id"]))
//
// # Errors
//
//   - [ErrNotFound] - Get missed
//   - [ErrAlreadyExists] - guarded Put found an existing item
//   - [ErrConditionFailed] - caller-supplied condition rejected a write
//   - [*ValidationError] - the record or update body failed validation;
//     carries all messages, not just the first
package table
