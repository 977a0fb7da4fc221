package types

import "context"

type ContextKey string

const (
	CtxRequestID ContextKey = "ctx_request_id"
	CtxCompanyID ContextKey = "ctx_company_id"
	CtxUserID    ContextKey = "ctx_user_id"
	CtxUserEmail ContextKey = "ctx_user_email"
	CtxUserRole  ContextKey = "ctx_user_role"
)

func GetRequestID(ctx context.Context) string {
	return ctxString(ctx, CtxRequestID)
}

// GetCompanyID returns the tenant company id resolved by the auth middleware.
// Empty when the request is unauthenticated (e.g. the webhook endpoint).
func GetCompanyID(ctx context.Context) string {
	return ctxString(ctx, CtxCompanyID)
}

func GetUserID(ctx context.Context) string {
	return ctxString(ctx, CtxUserID)
}

func GetUserEmail(ctx context.Context) string {
	return ctxString(ctx, CtxUserEmail)
}

func GetUserRole(ctx context.Context) UserRole {
	return UserRole(ctxString(ctx, CtxUserRole))
}

func SetCompanyID(ctx context.Context, companyID string) context.Context {
	return context.WithValue(ctx, CtxCompanyID, companyID)
}

func ctxString(ctx context.Context, key ContextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
