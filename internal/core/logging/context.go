package logging

import "context"

type contextKey string

const (
	itemIDKey contextKey = "item_id"
	passIDKey contextKey = "pass_id"
)

// WithItemID adds a line-item ID to the context.
func WithItemID(ctx context.Context, itemID string) context.Context {
	return context.WithValue(ctx, itemIDKey, itemID)
}

// WithPassID adds a reconciliation pass ID to the context.
func WithPassID(ctx context.Context, passID string) context.Context {
	return context.WithValue(ctx, passIDKey, passID)
}

// GetItemID retrieves the line-item ID from the context.
// Returns empty string if not present.
func GetItemID(ctx context.Context) string {
	if id, ok := ctx.Value(itemIDKey).(string); ok {
		return id
	}
	return ""
}

// GetPassID retrieves the reconciliation pass ID from the context.
// Returns empty string if not present.
func GetPassID(ctx context.Context) string {
	if id, ok := ctx.Value(passIDKey).(string); ok {
		return id
	}
	return ""
}
