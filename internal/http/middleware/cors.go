package middleware

import (
	"net/http"
	"net/url"
	"strings"
)

const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Content-Type, X-Request-ID"
	corsMaxAge  = "600"
)

// OriginPolicy is the browser origin allowlist shared by the CORS middleware
// and the search socket handshake. A page served from the gateway's own host
// is always allowed; "*" allows every origin.
type OriginPolicy struct {
	any     bool
	allowed map[string]struct{}
}

// NewOriginPolicy normalizes origins such as "https://clinic.example/" to
// scheme://host form. Entries that do not parse are ignored.
func NewOriginPolicy(origins []string) *OriginPolicy {
	p := &OriginPolicy{allowed: map[string]struct{}{}}
	for _, raw := range origins {
		raw = strings.TrimSpace(raw)
		if raw == "*" {
			p.any = true
			continue
		}
		if origin, ok := canonicalOrigin(raw); ok {
			p.allowed[origin] = struct{}{}
		}
	}
	return p
}

// CrossOrigin reports whether any cross-origin caller is configured.
func (p *OriginPolicy) CrossOrigin() bool {
	return p != nil && (p.any || len(p.allowed) > 0)
}

// Allows reports whether a page at origin may call the gateway reached as host.
func (p *OriginPolicy) Allows(origin, host string) bool {
	canonical, ok := canonicalOrigin(origin)
	if !ok {
		return false
	}
	if u, _ := url.Parse(canonical); u != nil && host != "" && strings.EqualFold(u.Host, host) {
		return true
	}
	if p == nil {
		return false
	}
	if p.any {
		return true
	}
	_, ok = p.allowed[canonical]
	return ok
}

func canonicalOrigin(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return "", false
	}
	return scheme + "://" + strings.ToLower(u.Host), true
}

// CORS answers preflights and tags responses for origins the policy allows.
// Preflights from any other origin are refused with 403.
func CORS(policy *OriginPolicy) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			w.Header().Add("Vary", "Origin")
			allowed := policy.Allows(origin, r.Host)
			preflight := r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != ""

			if !allowed {
				if preflight {
					w.WriteHeader(http.StatusForbidden)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Expose-Headers", "X-Request-ID")
			if preflight {
				w.Header().Set("Access-Control-Allow-Methods", corsMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
				w.Header().Set("Access-Control-Max-Age", corsMaxAge)
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
