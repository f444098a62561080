package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func okHandler(called *bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*called = true
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireSecret(t *testing.T) {
	tests := []struct {
		name   string
		secret string
		header string
		want   int
	}{
		{"match", "cron-secret", "Bearer cron-secret", http.StatusOK},
		{"lowercase scheme", "cron-secret", "bearer cron-secret", http.StatusOK},
		{"mismatch", "cron-secret", "Bearer nope", http.StatusUnauthorized},
		{"prefix of secret", "cron-secret", "Bearer cron", http.StatusUnauthorized},
		{"missing header", "cron-secret", "", http.StatusUnauthorized},
		{"wrong scheme", "cron-secret", "Basic cron-secret", http.StatusUnauthorized},
		{"empty configured secret", "", "Bearer ", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			h := RequireSecret(tt.secret)(okHandler(&called))

			req := httptest.NewRequest(http.MethodGet, "/api/cron/dispatch", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			assert.Equal(t, tt.want == http.StatusOK, called)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	ts := newTestTokenService(t)
	admin, _ := ts.Generate("admin", RoleAdmin)
	member, _ := ts.Generate("someone", "user")

	tests := []struct {
		name  string
		token string
		want  int
	}{
		{"admin token", admin, http.StatusOK},
		{"non-admin role", member, http.StatusUnauthorized},
		{"garbage", "abc", http.StatusUnauthorized},
		{"none", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var subject string
			h := RequireAdmin(ts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				c, ok := ClaimsFromContext(r.Context())
				if ok {
					subject = c.Subject
				}
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/admin/settings", nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "admin", subject)
			}
		})
	}
}
