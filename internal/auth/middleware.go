package auth

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// contextKey is unexported so no other package can read or shadow our values.
type contextKey string

const claimsKey contextKey = "claims"

// RoleAdmin is the role carried by admin tokens.
const RoleAdmin = "admin"

const unauthorizedBody = `{"error":"unauthorized","message":"valid credentials required"}`

// RequireAdmin only lets through requests with a valid admin JWT in the
// Authorization header. The validated claims go into the request context.
//
// MIDDLEWARE PATTERN:
// A middleware takes an http.Handler and returns one that wraps it.
// Chi runs them as a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAdmin(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, ok := BearerToken(r)
			if !ok {
				unauthorized(w)
				return
			}
			c, err := tokens.Validate(raw)
			if err != nil || c.Role != RoleAdmin {
				unauthorized(w)
				return
			}
			ctx := context.WithValue(r.Context(), claimsKey, c)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSecret only lets through requests whose bearer token equals secret.
// It rejects before the wrapped handler reads anything from the request.
//
// subtle.ConstantTimeCompare takes the same time however many leading bytes
// match, so response timing does not leak the secret byte by byte.
// An empty secret rejects every request.
func RequireSecret(secret string) func(http.Handler) http.Handler {
	want := []byte(secret)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, ok := BearerToken(r)
			if !ok || len(want) == 0 || subtle.ConstantTimeCompare([]byte(got), want) != 1 {
				unauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClaimsFromContext returns the claims RequireAdmin stored, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*Claims)
	return c, ok && c != nil
}

// BearerToken extracts the value of an "Authorization: Bearer <value>" header.
func BearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	scheme, value, found := strings.Cut(h, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(unauthorizedBody))
}
