package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey int

const (
	userIDKey contextKey = iota
	loginKey
)

// UserID returns the authenticated caller's id injected by Middleware.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// Login returns the authenticated caller's login injected by Middleware.
func Login(ctx context.Context) (string, bool) {
	login, ok := ctx.Value(loginKey).(string)
	return login, ok
}

// Middleware rejects requests without a valid bearer token and resolves
// the token to the caller's identity. There are no roles: any
// authenticated user may call any protected route.
func Middleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "authorization header missing", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Validate(parts[1])
			if err != nil {
				slog.Error("token validation failed", "error", err)
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
			ctx = context.WithValue(ctx, loginKey, claims.Login)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
