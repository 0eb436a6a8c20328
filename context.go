package eventstorage

import (
	"context"
)

type ctxKey string

const (
	aggregateRootIDKey ctxKey = "aggregateRootID"
	operationKey       ctxKey = "operation"
)

// Operations a Store runs against its collection.
const (
	OperationSave = "save"
	OperationLoad = "load"
)

func withOperation(ctx context.Context, operation, aggregateRootID string) context.Context {
	ctx = context.WithValue(ctx, operationKey, operation)
	ctx = context.WithValue(ctx, aggregateRootIDKey, aggregateRootID)
	return ctx
}

// AggregateRootIDFromContext returns the aggregate a Store is saving or
// loading, or "" when ctx does not come from a Store.
func AggregateRootIDFromContext(ctx context.Context) string {
	if v := ctx.Value(aggregateRootIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// OperationFromContext returns OperationSave or OperationLoad, or "" when
// ctx does not come from a Store.
func OperationFromContext(ctx context.Context) string {
	if v := ctx.Value(operationKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
