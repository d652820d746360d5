package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/racha/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// BarKey is the context key for storing the authenticated venue name.
const BarKey contextKey = "bar"

// GetBar extracts the authenticated venue name from the context.
// Returns empty string if the request is anonymous.
func GetBar(ctx context.Context) string {
	bar, _ := ctx.Value(BarKey).(string)
	return bar
}

// WithBar returns a copy of ctx carrying the venue name.
func WithBar(ctx context.Context, bar string) context.Context {
	return context.WithValue(ctx, BarKey, bar)
}

// bearerToken returns the token of an "Authorization: Bearer <token>" header.
func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireAuth returns a middleware that validates JWT tokens and requires authentication.
// It extracts the token from the Authorization header, validates it, and adds
// the venue name to the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			tokenString, ok := bearerToken(authHeader)
			if !ok {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(tokenString)
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			return next(WithBar(ctx, claims.Bar), req)
		}
	}
}

// OptionalAuth returns a middleware that validates JWT tokens if present, but allows
// anonymous requests. Tables created by an authenticated venue are listed under it.
func OptionalAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if tokenString, ok := bearerToken(req.Header().Get("Authorization")); ok {
				// Invalid tokens are ignored; the request continues anonymously.
				if claims, err := jwtManager.Validate(tokenString); err == nil {
					ctx = WithBar(ctx, claims.Bar)
				}
			}
			return next(ctx, req)
		}
	}
}
