package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or overwrite the
// identity stored in a request context.
type contextKey string

const identityKey contextKey = "identity"

// Authenticate is the soft stage of the auth gate. It runs on every request:
// it reads "Authorization: Bearer <token>", verifies the token, and stores
// the resulting Identity (possibly Absent) in the request context.
//
// It never rejects a request. A missing token and an invalid token both
// leave the request anonymous.
func Authenticate(tokens *TokenService, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := Absent
			if raw, ok := bearerToken(r); ok {
				id = tokens.Verify(raw)
				if !id.Present() {
					logger.Debug("bearer token rejected",
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireAuth is the hard stage. It must run after Authenticate. Requests
// whose identity is Absent get 401 and never reach the handler.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IdentityFromContext(r.Context()).Present() {
			writeUnauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFromContext returns the identity attached by Authenticate, or
// Absent when there is none.
func IdentityFromContext(ctx context.Context) Identity {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok {
		return Absent
	}
	return id
}

// bearerToken extracts the token from the Authorization header.
// The scheme is matched case-insensitively.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	return token, token != ""
}

// writeUnauthorized writes the standard error envelope. It is duplicated
// here instead of imported from the handler package, which depends on auth.
func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]any{
			"message": "authentication required",
			"status":  http.StatusUnauthorized,
		},
	})
}
