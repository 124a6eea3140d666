package middleware

import "context"

type contextKey string

const (
	ctxDeveloperID contextKey = "developer_id"
	ctxAdminToken  contextKey = "admin_token"
)

// DeveloperIDFromContext returns the id sent in the X-Developer-Id header.
func DeveloperIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxDeveloperID).(string); ok {
		return v
	}
	return ""
}

// AdminTokenFromContext returns the token sent in the X-Admin-Token header.
func AdminTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAdminToken).(string); ok {
		return v
	}
	return ""
}

// WithDeveloperID injects the developer identifier into the context.
func WithDeveloperID(ctx context.Context, developerID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxDeveloperID, developerID)
}

// WithAdminToken injects the admin token into the context for downstream handlers.
func WithAdminToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAdminToken, token)
}
