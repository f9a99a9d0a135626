package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/example/music-odyssey/internal/platform/api"
	"github.com/example/music-odyssey/internal/platform/httpserver"
)

// RequireOwner validates the Bearer token, checks the owner role and
// injects the subject into context.
func RequireOwner(verifier JWTVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := httpserver.RequestIDFromContext(r.Context())
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if authz == "" {
				api.Unauthorized(w, "AUTH_MISSING", "authentication required", rid)
				return
			}
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				api.Unauthorized(w, "AUTH_INVALID", "bearer token required", rid)
				return
			}
			claims, err := verifier.Parse(strings.TrimSpace(parts[1]))
			if err != nil || strings.TrimSpace(claims.Subject) == "" || claims.Role != RoleOwner {
				api.Unauthorized(w, "AUTH_INVALID", "invalid or expired token", rid)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeySubject{}, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
