package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"github.com/jacentio/lattice/expr"
	"github.com/jacentio/lattice/internal/backoff"
	"github.com/jacentio/lattice/schema"
)

// Client is the slice of the DynamoDB API a Table uses. It is satisfied
// by *dynamodb.Client and by test doubles.
type Client interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// Table binds a compiled record schema to one DynamoDB table and runs the
// validate-convert-store pipeline for it: validate before convert on
// writes, convert after read, retries around every store call.
type Table struct {
	client  Client
	schema  *schema.Schema
	config  Config
	logger  *slog.Logger
	metrics *metrics
}

// New creates a Table. The schema must already be compiled; the config
// must carry a table name.
func New(client Client, s *schema.Schema, config Config) (*Table, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("lattice: table name is required")
	}
	if s == nil {
		return nil, fmt.Errorf("lattice: schema is required")
	}
	config.validate()
	t := &Table{
		client: client,
		schema: s,
		config: config,
		logger: config.Logger,
	}
	if config.Registerer != nil {
		t.metrics = newMetrics(config.Registerer)
	}
	return t, nil
}

// Schema returns the compiled schema this table writes through.
func (t *Table) Schema() *schema.Schema {
	return t.schema
}

// Key builds a key document from positional key values, partition key
// first.
func (t *Table) Key(values ...any) map[string]any {
	fields := t.schema.KeyFields()
	key := make(map[string]any, len(fields))
	for i, name := range fields {
		if i < len(values) {
			key[name] = values[i]
		}
	}
	return key
}

// Put writes a record, failing with ErrAlreadyExists when an item with
// the same key exists. An absent primary key gets a generated UUID.
// Returns the record as written, defaults and generated key included.
func (t *Table) Put(ctx context.Context, doc map[string]any) (map[string]any, error) {
	return t.put(ctx, doc, true)
}

// PutOverwrite writes a record unconditionally.
func (t *Table) PutOverwrite(ctx context.Context, doc map[string]any) (map[string]any, error) {
	return t.put(ctx, doc, false)
}

func (t *Table) put(ctx context.Context, doc map[string]any, guard bool) (map[string]any, error) {
	doc = t.schema.WithDefaults(doc)

	pk := t.schema.PrimaryKey()
	if v, ok := doc[pk]; !ok || v == nil || v == "" {
		doc[pk] = uuid.NewString()
	}

	if msgs := t.schema.Validate(doc); len(msgs) > 0 {
		return nil, &ValidationError{Messages: msgs}
	}

	item, err := attributevalue.MarshalMap(t.schema.ToWire(doc))
	if err != nil {
		return nil, fmt.Errorf("lattice: marshal item: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(t.config.Name),
		Item:      item,
	}
	if guard {
		cond := expr.Condition(pk, false).NotExists().Build()
		input.ConditionExpression = aws.String(cond.ConditionExpression)
		input.ExpressionAttributeNames = cond.Names
	}

	err = t.do(ctx, "put", func(ctx context.Context) error {
		_, err := t.client.PutItem(ctx, input)
		return err
	})
	if err != nil {
		if isConditionFailure(err) {
			return nil, ErrAlreadyExists
		}
		return nil, err
	}
	return doc, nil
}

// Get retrieves one record by key, converted back to its application
// shape. Returns ErrNotFound on a miss.
func (t *Table) Get(ctx context.Context, key map[string]any) (map[string]any, error) {
	k, err := t.marshalKey(key)
	if err != nil {
		return nil, err
	}

	var out *dynamodb.GetItemOutput
	err = t.do(ctx, "get", func(ctx context.Context) error {
		var err error
		out, err = t.client.GetItem(ctx, &dynamodb.GetItemInput{
			TableName: aws.String(t.config.Name),
			Key:       k,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, ErrNotFound
	}
	return t.unmarshalItem(out.Item)
}

// UpdateOptions configures an Update.
type UpdateOptions struct {
	// Condition guards the write; its failure maps to ErrConditionFailed.
	Condition *expr.Built
}

// Update applies an update body to one record. The body is validated and
// converted first: structural append/prepend entries are rewritten into
// set form, then the update expression is assembled through a fresh
// placeholder registry.
func (t *Table) Update(ctx context.Context, key map[string]any, body *schema.UpdateBody, opts UpdateOptions) error {
	if msgs := t.schema.ValidateUpdate(body); len(msgs) > 0 {
		return &ValidationError{Messages: msgs}
	}
	wire := t.schema.ToWireUpdate(body)

	reg := expr.NewRegistry()
	var sets, removes []string

	for _, path := range sortedPaths(wire.Set) {
		sets = append(sets, reg.AddName(path)+" = "+reg.AddValue(wire.Set[path]))
	}
	// Plain List fields keep their append/prepend semantics via
	// list_append; MappedList entries were normalized into Set above.
	for _, path := range sortedPaths(wire.Append) {
		name := reg.AddName(path)
		sets = append(sets, name+" = list_append("+name+", "+reg.AddValue(wire.Append[path])+")")
	}
	for _, path := range sortedPaths(wire.Prepend) {
		name := reg.AddName(path)
		sets = append(sets, name+" = list_append("+reg.AddValue(wire.Prepend[path])+", "+name+")")
	}
	for _, path := range wire.Remove {
		removes = append(removes, reg.AddName(path))
	}

	var parts []string
	if len(sets) > 0 {
		parts = append(parts, "SET "+strings.Join(sets, ", "))
	}
	if len(removes) > 0 {
		parts = append(parts, "REMOVE "+strings.Join(removes, ", "))
	}
	if len(parts) == 0 {
		return nil
	}

	condition := reg.Splice(opts.Condition)

	k, err := t.marshalKey(key)
	if err != nil {
		return err
	}
	input := &dynamodb.UpdateItemInput{
		TableName:        aws.String(t.config.Name),
		Key:              k,
		UpdateExpression: aws.String(strings.Join(parts, " ")),
	}
	if condition != "" {
		input.ConditionExpression = aws.String(condition)
	}
	if err := t.applyAttributes(input, reg.Expression()); err != nil {
		return err
	}

	err = t.do(ctx, "update", func(ctx context.Context) error {
		_, err := t.client.UpdateItem(ctx, input)
		return err
	})
	if err != nil && isConditionFailure(err) {
		return ErrConditionFailed
	}
	return err
}

// DeleteOptions configures a Delete.
type DeleteOptions struct {
	// Condition guards the delete; its failure maps to ErrConditionFailed.
	Condition *expr.Built
}

// Delete removes one record by key.
func (t *Table) Delete(ctx context.Context, key map[string]any, opts DeleteOptions) error {
	k, err := t.marshalKey(key)
	if err != nil {
		return err
	}
	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(t.config.Name),
		Key:       k,
	}
	if opts.Condition != nil {
		reg := expr.NewRegistry()
		condition := reg.Splice(opts.Condition)
		input.ConditionExpression = aws.String(condition)
		if err := t.applyAttributes(input, reg.Expression()); err != nil {
			return err
		}
	}

	err = t.do(ctx, "delete", func(ctx context.Context) error {
		_, err := t.client.DeleteItem(ctx, input)
		return err
	})
	if err != nil && isConditionFailure(err) {
		return ErrConditionFailed
	}
	return err
}

// QueryInput defines parameters for querying records.
type QueryInput struct {
	// KeyCondition is required; build it with expr.Scan on the key
	// fields.
	KeyCondition *expr.Built

	// Filter is applied server-side after key matching.
	Filter *expr.Built

	// Index is the optional GSI/LSI to query.
	Index string

	// Limit caps items per page (0 = no limit).
	Limit int32

	// ScanIndexForward determines sort order (nil = ascending).
	ScanIndexForward *bool
}

// Query runs a key-condition query, paginating through all results and
// converting each item back to its application shape. The key condition
// and filter may come from independent builders; their placeholder sets
// are merged collision-free.
func (t *Table) Query(ctx context.Context, input QueryInput) ([]map[string]any, error) {
	reg := expr.NewRegistry()
	keyCondition := reg.Splice(input.KeyCondition)
	if keyCondition == "" {
		return nil, ErrNoKeyCondition
	}
	filter := reg.Splice(input.Filter)

	qi := &dynamodb.QueryInput{
		TableName:              aws.String(t.config.Name),
		KeyConditionExpression: aws.String(keyCondition),
	}
	if filter != "" {
		qi.FilterExpression = aws.String(filter)
	}
	if input.Index != "" {
		qi.IndexName = aws.String(input.Index)
	}
	if input.Limit > 0 {
		qi.Limit = aws.Int32(input.Limit)
	}
	if input.ScanIndexForward != nil {
		qi.ScanIndexForward = input.ScanIndexForward
	}
	if err := t.applyAttributes(qi, reg.Expression()); err != nil {
		return nil, err
	}

	var items []map[string]any
	paginator := dynamodb.NewQueryPaginator(t.client, qi)
	for paginator.HasMorePages() {
		var page *dynamodb.QueryOutput
		err := t.do(ctx, "query", func(ctx context.Context) error {
			var err error
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			item, err := t.unmarshalItem(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// ScanInput defines parameters for scanning records.
type ScanInput struct {
	// Filter excludes non-matching items after retrieval.
	Filter *expr.Built

	// Index is the optional GSI/LSI to scan.
	Index string

	// Limit caps items per page (0 = no limit).
	Limit int32
}

// Scan pages through the whole table, converting each item back to its
// application shape.
func (t *Table) Scan(ctx context.Context, input ScanInput) ([]map[string]any, error) {
	reg := expr.NewRegistry()
	filter := reg.Splice(input.Filter)

	si := &dynamodb.ScanInput{
		TableName: aws.String(t.config.Name),
	}
	if filter != "" {
		si.FilterExpression = aws.String(filter)
	}
	if input.Index != "" {
		si.IndexName = aws.String(input.Index)
	}
	if input.Limit > 0 {
		si.Limit = aws.Int32(input.Limit)
	}
	if err := t.applyAttributes(si, reg.Expression()); err != nil {
		return nil, err
	}

	var items []map[string]any
	paginator := dynamodb.NewScanPaginator(t.client, si)
	for paginator.HasMorePages() {
		var page *dynamodb.ScanOutput
		err := t.do(ctx, "scan", func(ctx context.Context) error {
			var err error
			page, err = paginator.NextPage(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range page.Items {
			item, err := t.unmarshalItem(raw)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	}
	return items, nil
}

// do wraps one store call in retry, metrics, and logging.
func (t *Table) do(ctx context.Context, op string, fn func(context.Context) error) error {
	start := time.Now()
	err := backoff.Retry(ctx, t.config.Retry, fn, isRetryable)
	t.metrics.observe(t.config.Name, op, start, err)
	if err != nil && !isConditionFailure(err) {
		t.logger.Error("dynamodb operation failed",
			"table", t.config.Name,
			"op", op,
			"error", err,
		)
	}
	return err
}

// marshalKey converts an application-domain key document to wire form.
// Key fields go through schema conversion so Date keys and the like land
// in their persisted shape.
func (t *Table) marshalKey(key map[string]any) (map[string]types.AttributeValue, error) {
	k, err := attributevalue.MarshalMap(t.schema.ToWire(key))
	if err != nil {
		return nil, fmt.Errorf("lattice: marshal key: %w", err)
	}
	return k, nil
}

func (t *Table) unmarshalItem(raw map[string]types.AttributeValue) (map[string]any, error) {
	var wire map[string]any
	if err := attributevalue.UnmarshalMap(raw, &wire); err != nil {
		return nil, fmt.Errorf("lattice: unmarshal item: %w", err)
	}
	return t.schema.FromWire(wire), nil
}

// applyAttributes copies registry placeholder maps onto a DynamoDB input.
// Empty maps stay unset; DynamoDB rejects empty attribute maps.
func (t *Table) applyAttributes(input any, attrs expr.Attributes) error {
	var values map[string]types.AttributeValue
	if len(attrs.Values) > 0 {
		var err error
		values, err = attributevalue.MarshalMap(attrs.Values)
		if err != nil {
			return fmt.Errorf("lattice: marshal expression values: %w", err)
		}
	}
	switch in := input.(type) {
	case *dynamodb.UpdateItemInput:
		in.ExpressionAttributeNames = attrs.Names
		in.ExpressionAttributeValues = values
	case *dynamodb.DeleteItemInput:
		in.ExpressionAttributeNames = attrs.Names
		in.ExpressionAttributeValues = values
	case *dynamodb.QueryInput:
		in.ExpressionAttributeNames = attrs.Names
		in.ExpressionAttributeValues = values
	case *dynamodb.ScanInput:
		in.ExpressionAttributeNames = attrs.Names
		in.ExpressionAttributeValues = values
	}
	return nil
}

func isConditionFailure(err error) bool {
	var condErr *types.ConditionalCheckFailedException
	return errors.As(err, &condErr)
}

// isRetryable classifies throttling and server-side failures as worth a
// retry; everything else surfaces immediately.
func isRetryable(err error) bool {
	var throughput *types.ProvisionedThroughputExceededException
	if errors.As(err, &throughput) {
		return true
	}
	var requestLimit *types.RequestLimitExceeded
	if errors.As(err, &requestLimit) {
		return true
	}
	var internal *types.InternalServerError
	if errors.As(err, &internal) {
		return true
	}
	var limit *types.LimitExceededException
	return errors.As(err, &limit)
}

func sortedPaths[V any](m map[string]V) []string {
	paths := make([]string, 0, len(m))
	for path := range m {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
