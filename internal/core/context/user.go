package context

import "context"

// UserContext holds the authenticated staff user for the request.
type UserContext struct {
	UserID string
	Email  string
	Name   string
	Roles  []string
}

type userKey struct{}

// WithUser attaches the authenticated user to the context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the authenticated user from the context, or nil.
func GetUser(ctx context.Context) *UserContext {
	if u, ok := ctx.Value(userKey{}).(*UserContext); ok {
		return u
	}
	return nil
}

// GetUserID returns the authenticated user's ID, or "".
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}
