package middleware

import "context"

type contextKey string

const (
	ctxStaffID    contextKey = "staff_id"
	ctxRole       contextKey = "staff_role"
	ctxSessionKey contextKey = "session_key"
)

func StaffIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxStaffID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

func SessionKeyFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionKey).(string); ok {
		return v
	}
	return ""
}

// WithSessionKey injects the storefront session key for downstream handlers.
func WithSessionKey(ctx context.Context, sessionKey string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionKey, sessionKey)
}

// WithStaffID injects the staff identifier into the context.
func WithStaffID(ctx context.Context, staffID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxStaffID, staffID)
}
