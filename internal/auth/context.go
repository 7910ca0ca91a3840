package auth

import "context"

type ctxKey string

const claimsKey ctxKey = "authClaims"

type Claims struct {
	Email   string
	Role    string
	Purpose string
}

func (c Claims) IsAdmin() bool { return c.Role == "admin" }

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

func FromContext(ctx context.Context) Claims {
	if v, ok := ctx.Value(claimsKey).(Claims); ok {
		return v
	}
	return Claims{}
}

// Subject returns the email the current request authenticated as.
func Subject(ctx context.Context) string {
	return FromContext(ctx).Email
}
