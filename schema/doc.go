// Package schema compiles declarative field descriptions into a
// validation and transcoding engine for DynamoDB-backed records.
//
// A record declaration maps field names to [Field] descriptions. [New]
// compiles the declaration once, dispatching on the closed set of kinds
// (Boolean, Number, String, Date, List, Map, MappedList, Untyped) and
// rejecting malformed key configuration up front. The compiled [Schema]
// is immutable and safe for concurrent use.
//
// # Declaring a record
//
//	users := schema.Must(map[string]schema.Field{
//	    "id":        {Type: schema.String, Primary: true},
//	    "email":     {Type: schema.String, Required: true, Format: `[^@]+@[^@]+`},
//	    "createdAt": {Type: schema.Date, Constant: true},
//	    "profile": {Type: schema.Map, OnlyAllowDefinedAttributes: true,
//	        Attributes: map[string]schema.Field{
//	            "city": {Type: schema.String},
//	        }},
//	})
//
// Declarations can also be loaded from YAML files with [ParseYAML] and
// [LoadFile].
//
// # Validation and conversion
//
// [Schema.Validate] and [Schema.ValidateUpdate] return fully-collected
// message lists; an empty list means valid, and validation never stops at
// the first failure. [Schema.ToWire] and [Schema.FromWire] transcode
// whole records between their application and persisted shapes, applying
// each field's converter list in registration order for both directions.
// Validation and conversion are orthogonal: conversion never refuses a
// record that would fail validation. Callers decide the ordering
// (validate before convert on writes, convert before trust on reads).
//
// # Mapped lists
//
// A MappedList field is an ordered array of uniformly-shaped records that
// is persisted as a map keyed by one of their attributes, so that a
// single record can be updated without rewriting the array. Each record's
// original position is remembered under the reserved [OrderAttribute] and
// the array order is reconstructed on the way back.
//
// # Errors
//
// Construction misuse (no primary key, duplicate keys, an unknown kind,
// an invalid option pattern) fails [New] immediately. Validation
// failures are values, not errors; nothing in this package retries.
package schema
