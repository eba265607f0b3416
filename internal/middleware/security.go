// internal/middleware/security.go
//
// Security-header middleware for the preview server.
//
// Context
//   Every response carries a fixed set of hardening headers.  The two that
//   depend on deployment come from config (http.csp, http.hsts_max_age):
//
//   • Content-Security-Policy   –  self-only unless configured otherwise
//   • Strict-Transport-Security –  only when a max-age is configured
//
//   The rest are constant: X-Frame-Options, X-Content-Type-Options,
//   Referrer-Policy, and Permissions-Policy.
//
// Notes
//   • Defaults are set before next runs, so a handler that sets one of these
//     headers itself wins.  Headers added after the body is written are lost.
//   • HSTS is off by default; the preview server usually runs on plain HTTP
//     and a preload policy on localhost outlives the session.
//   • The default CSP allows inline styles so the hidden CSRF wrapper div
//     renders.

package middleware

import (
	"net/http"
	"strconv"
	"time"
)

// DefaultCSP is used when SecurityPolicy.CSP is empty.
const DefaultCSP = "default-src 'self'; img-src 'self' data:; style-src 'self' 'unsafe-inline'; " +
	"object-src 'none'; base-uri 'self'; frame-ancestors 'none'"

// SecurityPolicy holds the deployment-specific headers.
type SecurityPolicy struct {
	CSP            string        // empty means DefaultCSP
	HSTSMaxAge     time.Duration // zero disables Strict-Transport-Security
	HSTSSubdomains bool
}

// Security sets the default security headers on every response.
func Security(next http.Handler) http.Handler {
	return SecurityWith(SecurityPolicy{})(next)
}

// SecurityWith returns middleware applying p.
func SecurityWith(p SecurityPolicy) func(http.Handler) http.Handler {
	csp := p.CSP
	if csp == "" {
		csp = DefaultCSP
	}
	var hsts string
	if secs := int64(p.HSTSMaxAge / time.Second); secs > 0 {
		hsts = "max-age=" + strconv.FormatInt(secs, 10)
		if p.HSTSSubdomains {
			hsts += "; includeSubDomains"
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Frame-Options", "DENY")
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=()")
			if hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}
