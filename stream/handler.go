// Package stream evicts cached records when DynamoDB Streams reports that
// another process changed them. A change to a cached table whose key cannot
// be read invalidates that table's whole cache.
package stream

import (
	"context"
	"log/slog"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Evicter is the part of a cache column the handler needs.
// *cache.Column satisfies it.
type Evicter interface {
	Table() string
	KeyAttribute() string
	Evict(key string)
	Invalidate()
}

// Handler routes stream records to the column caching their table.
type Handler struct {
	columns map[string]Evicter
	logger  *slog.Logger
}

// NewHandler creates a handler for the given columns.
func NewHandler(logger *slog.Logger, columns ...Evicter) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{
		columns: make(map[string]Evicter, len(columns)),
		logger:  logger,
	}
	for _, c := range columns {
		h.columns[c.Table()] = c
	}
	return h
}

// HandleChanges evicts every record named in the event from its column.
// It only touches local cache state, so it never fails on a record; records
// for unknown tables or without a key are skipped. It can be used directly as
// an AWS Lambda handler.
func (h *Handler) HandleChanges(ctx context.Context, event events.DynamoDBEvent) error {
	evicted := 0
	for _, record := range event.Records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if h.processRecord(record) {
			evicted++
		}
	}
	if evicted > 0 {
		h.logger.Debug("applied stream changes", "records", len(event.Records), "evicted", evicted)
	}
	return nil
}

// processRecord evicts the record's key, or the whole column when the key is
// missing, and reports whether anything was dropped.
func (h *Handler) processRecord(record events.DynamoDBEventRecord) bool {
	table := tableFromARN(record.EventSourceArn)
	col, ok := h.columns[table]
	if !ok {
		h.logger.Debug("skipping change for uncached table",
			"eventID", record.EventID,
			"table", table,
		)
		return false
	}

	attr := col.KeyAttribute()
	key := getStringAttr(record.Change.Keys, attr)
	if key == "" {
		key = getStringAttr(record.Change.NewImage, attr)
	}
	if key == "" {
		key = getStringAttr(record.Change.OldImage, attr)
	}
	if key == "" {
		col.Invalidate()
		h.logger.Warn("stream record has no key, invalidated table cache",
			"eventID", record.EventID,
			"table", table,
			"keyAttribute", attr,
		)
		return true
	}

	col.Evict(key)
	h.logger.Info("evicted cached record",
		"table", table,
		"key", key,
		"event", record.EventName,
	)
	return true
}

// tableFromARN extracts the table name from a stream ARN such as
// arn:aws:dynamodb:us-west-1:123456789012:table/students/stream/2024-01-01T00:00:00.000.
func tableFromARN(arn string) string {
	_, rest, ok := strings.Cut(arn, ":table/")
	if !ok {
		return ""
	}
	name, _, _ := strings.Cut(rest, "/")
	return name
}

// getStringAttr extracts a string attribute from a DynamoDB stream image.
func getStringAttr(image map[string]events.DynamoDBAttributeValue, key string) string {
	if v, ok := image[key]; ok && v.DataType() == events.DataTypeString {
		return v.String()
	}
	return ""
}
