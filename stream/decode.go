// Package stream decodes DynamoDB Streams events through a record
// schema, so Lambda consumers see application-domain documents instead
// of raw stream attribute values.
package stream

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacentio/lattice/schema"
)

// Record is one decoded stream record. Old and New are nil when the
// corresponding image is absent (inserts have no Old, removes no New).
type Record struct {
	EventID   string
	EventName string
	Keys      map[string]any
	Old       map[string]any
	New       map[string]any
}

// Decoder converts stream images back to application shape via a
// compiled schema.
type Decoder struct {
	schema *schema.Schema
	logger *slog.Logger
}

// NewDecoder creates a Decoder. A nil logger falls back to slog.Default().
func NewDecoder(s *schema.Schema, logger *slog.Logger) *Decoder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Decoder{
		schema: s,
		logger: logger,
	}
}

// DecodeRecord decodes one stream record: stream attribute values are
// lowered to wire documents, then converted through the schema.
func (d *Decoder) DecodeRecord(record events.DynamoDBEventRecord) *Record {
	out := &Record{
		EventID:   record.EventID,
		EventName: record.EventName,
		Keys:      decodeImage(record.Change.Keys),
	}
	if len(record.Change.OldImage) > 0 {
		out.Old = d.schema.FromWire(decodeImage(record.Change.OldImage))
	}
	if len(record.Change.NewImage) > 0 {
		out.New = d.schema.FromWire(decodeImage(record.Change.NewImage))
	}
	return out
}

// HandleEvent decodes each record in the event and passes it to fn.
// The first handler error stops processing and is returned, so Lambda
// retries the batch and eventually dead-letters it.
func (d *Decoder) HandleEvent(ctx context.Context, event events.DynamoDBEvent, fn func(context.Context, *Record) error) error {
	for _, record := range event.Records {
		if err := fn(ctx, d.DecodeRecord(record)); err != nil {
			d.logger.Error("failed to process stream record",
				"eventID", record.EventID,
				"error", err,
			)
			return err
		}
	}
	return nil
}

// decodeImage lowers a stream image into a wire document.
func decodeImage(image map[string]events.DynamoDBAttributeValue) map[string]any {
	if len(image) == 0 {
		return nil
	}
	out := make(map[string]any, len(image))
	for k, v := range image {
		out[k] = decodeValue(v)
	}
	return out
}

func decodeValue(v events.DynamoDBAttributeValue) any {
	switch v.DataType() {
	case events.DataTypeString:
		return v.String()
	case events.DataTypeNumber:
		return decodeNumber(v.Number())
	case events.DataTypeBoolean:
		return v.Boolean()
	case events.DataTypeBinary:
		return v.Binary()
	case events.DataTypeNull:
		return nil
	case events.DataTypeMap:
		out := make(map[string]any, len(v.Map()))
		for k, item := range v.Map() {
			out[k] = decodeValue(item)
		}
		return out
	case events.DataTypeList:
		out := make([]any, len(v.List()))
		for i, item := range v.List() {
			out[i] = decodeValue(item)
		}
		return out
	case events.DataTypeStringSet:
		out := make([]any, len(v.StringSet()))
		for i, s := range v.StringSet() {
			out[i] = s
		}
		return out
	case events.DataTypeNumberSet:
		out := make([]any, len(v.NumberSet()))
		for i, n := range v.NumberSet() {
			out[i] = decodeNumber(n)
		}
		return out
	case events.DataTypeBinarySet:
		out := make([]any, len(v.BinarySet()))
		for i, b := range v.BinarySet() {
			out[i] = b
		}
		return out
	}
	return nil
}

// decodeNumber keeps integral values as int64 so MappedList ordinals and
// Timestamp dates survive the trip; everything else becomes float64.
func decodeNumber(s string) any {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
