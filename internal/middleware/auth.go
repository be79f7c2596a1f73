package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/onnwee/palette/internal/auth"
)

// callerKey is the context key for the authenticated caller address.
type callerKey struct{}

// SetCaller stores the caller address in the context.
func SetCaller(ctx context.Context, address string) context.Context {
	return context.WithValue(ctx, callerKey{}, address)
}

// GetCaller retrieves the caller address from context. Returns empty string
// if the request was not authenticated.
func GetCaller(ctx context.Context) string {
	if address, ok := ctx.Value(callerKey{}).(string); ok {
		return address
	}
	return ""
}

// Auth extracts and validates the bearer token, threading the caller
// address through the request context. Requests without a token pass
// through unauthenticated; handlers that mutate state reject them.
// Requests with an invalid token are rejected here.
func Auth(jwtService *auth.JWTService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				http.Error(w, "malformed Authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := jwtService.ValidateToken(token)
			if err != nil {
				http.Error(w, "invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := SetCaller(r.Context(), claims.Address())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
