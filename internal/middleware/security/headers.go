package security

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Policy is the fixed set of headers sent with every response.
type Policy struct {
	// ContentSecurity directives, joined with "; ".
	ContentSecurity []string
	// HSTS is the Strict-Transport-Security max-age, sent on TLS requests only.
	HSTS time.Duration
	// Headers are sent as-is. Empty values are skipped.
	Headers map[string]string
}

// DefaultPolicy fits the EconoRise pages: htmx comes from unpkg and
// everything else from this origin. No inline scripts or styles.
func DefaultPolicy() Policy {
	return Policy{
		ContentSecurity: []string{
			"default-src 'self'",
			"script-src 'self' https://unpkg.com",
			"style-src 'self'",
			"img-src 'self' data:",
			"connect-src 'self'",
			"object-src 'none'",
			"frame-ancestors 'none'",
			"base-uri 'self'",
			"form-action 'self'",
		},
		HSTS: 365 * 24 * time.Hour,
		Headers: map[string]string{
			"X-Content-Type-Options":       "nosniff",
			"X-Frame-Options":              "DENY",
			"Referrer-Policy":              "strict-origin-when-cross-origin",
			"Permissions-Policy":           "geolocation=(), microphone=(), camera=(), payment=()",
			"Cross-Origin-Opener-Policy":   "same-origin",
			"Cross-Origin-Resource-Policy": "same-origin",
		},
	}
}

// Headers applies p to every response.
func Headers(p Policy) func(http.Handler) http.Handler {
	fixed := http.Header{}
	for name, value := range p.Headers {
		if value != "" {
			fixed.Set(name, value)
		}
	}
	if len(p.ContentSecurity) > 0 {
		fixed.Set("Content-Security-Policy", strings.Join(p.ContentSecurity, "; "))
	}
	hsts := ""
	if p.HSTS > 0 {
		hsts = fmt.Sprintf("max-age=%d; includeSubDomains", int64(p.HSTS.Seconds()))
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			for name, values := range fixed {
				h[name] = values
			}
			if r.TLS != nil && hsts != "" {
				h.Set("Strict-Transport-Security", hsts)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// CacheStatic marks the embedded assets cacheable for maxAge.
func CacheStatic(maxAge time.Duration) func(http.Handler) http.Handler {
	value := fmt.Sprintf("public, max-age=%d", int64(maxAge.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", value)
			next.ServeHTTP(w, r)
		})
	}
}
