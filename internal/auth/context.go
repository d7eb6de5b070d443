package auth

import "context"

type contextKey struct{}

// AuthContext is the identity carried by a verified token. It never grants
// admin rights on its own; admin checks go through Service.RequireAdmin.
type AuthContext struct {
	UserID string
	Email  string
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}
