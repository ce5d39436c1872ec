package middleware

import "context"

type contextKey string

const ctxOwnerID contextKey = "owner_id"

func OwnerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxOwnerID).(string); ok {
		return v
	}
	return ""
}

// WithOwnerID injects the cart owner identifier into the context.
func WithOwnerID(ctx context.Context, ownerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxOwnerID, ownerID)
}
