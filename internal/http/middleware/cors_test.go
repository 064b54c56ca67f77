package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOriginPolicyAllows(t *testing.T) {
	policy := NewOriginPolicy([]string{"https://Front.Clinic.example/", " http://localhost:3000 ", "not a url", "ftp://files.example"})

	cases := []struct {
		name   string
		origin string
		host   string
		want   bool
	}{
		{"listed", "https://front.clinic.example", "api.clinic.example", true},
		{"listed case-insensitive", "HTTPS://FRONT.CLINIC.EXAMPLE", "api.clinic.example", true},
		{"listed dev server", "http://localhost:3000", "localhost:8090", true},
		{"scheme matters", "http://front.clinic.example", "api.clinic.example", false},
		{"unlisted", "https://evil.example", "api.clinic.example", false},
		{"same host", "http://api.clinic.example:8090", "api.clinic.example:8090", true},
		{"null origin", "null", "api.clinic.example", false},
		{"non-http listed entry is dropped", "ftp://files.example", "api.clinic.example", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, policy.Allows(tc.origin, tc.host))
		})
	}
	assert.True(t, policy.CrossOrigin())
}

func TestOriginPolicyWildcardAndEmpty(t *testing.T) {
	assert.True(t, NewOriginPolicy([]string{"*"}).Allows("https://anywhere.example", "api.clinic.example"))

	empty := NewOriginPolicy(nil)
	assert.False(t, empty.CrossOrigin())
	assert.False(t, empty.Allows("https://front.clinic.example", "api.clinic.example"))
	assert.True(t, empty.Allows("http://api.clinic.example", "api.clinic.example"))

	var unset *OriginPolicy
	assert.False(t, unset.CrossOrigin())
	assert.True(t, unset.Allows("http://api.clinic.example", "api.clinic.example"))
}

func TestCORSPreflightForScheduling(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	mw := CORS(NewOriginPolicy([]string{"http://localhost:3000"}))

	req := httptest.NewRequest(http.MethodOptions, "/appointments", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Request-ID")
	assert.Equal(t, "Origin", rec.Header().Get("Vary"))
}

func TestCORSRefusesUnlistedPreflight(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	mw := CORS(NewOriginPolicy([]string{"http://localhost:3000"}))

	req := httptest.NewRequest(http.MethodOptions, "/appointments/7/complete", nil)
	req.Header.Set("Origin", "https://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSTagsAllowedResponses(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", "req-1")
		w.WriteHeader(http.StatusOK)
	})
	mw := CORS(NewOriginPolicy([]string{"http://localhost:3000"}))

	req := httptest.NewRequest(http.MethodGet, "/billing/summary", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "X-Request-ID", rec.Header().Get("Access-Control-Expose-Headers"))
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Methods"))
}

func TestCORSLeavesUnlistedSimpleRequestsUntagged(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	mw := CORS(NewOriginPolicy([]string{"http://localhost:3000"}))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec := httptest.NewRecorder()
	mw(next).ServeHTTP(rec, req)

	assert.True(t, called)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
