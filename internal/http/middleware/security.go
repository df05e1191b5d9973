// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware that attaches a
// conservative set of HTTP security headers for a JSON API behind a reverse
// proxy: HSTS for HTTPS traffic, cache controls for private responses and
// browser feature policies. No CSP is sent; the API serves no HTML outside
// the optional Swagger UI.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// exposedHeaders are response headers browser clients may read.
var exposedHeaders = []string{requestIDHeader, HeaderIdempotencyReplayed, "Content-Disposition"}

// SecurityOptions configures HTTP security headers emitted by SecurityHeaders.
//
// HSTS is only sent for HTTPS requests, and only when EnableHSTS is set;
// enable it only when traffic is HTTPS end-to-end. HSTSMaxAge defaults to
// 180 days.
//
// NoStore marks every response as non-cacheable. NoStoreRoutes does the same
// for specific route patterns (as reported by c.FullPath()), which is how
// per-user downloads like the shopping list stay out of shared caches.
type SecurityOptions struct {
	EnableHSTS    bool
	HSTSMaxAge    time.Duration
	NoStore       bool
	NoStoreRoutes []string
	EnablePolicy  bool // Permissions-Policy, X-Permitted-Cross-Domain-Policies
}

// SecurityHeaders returns a Gin middleware that adds security headers.
//
// Always:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//	Access-Control-Expose-Headers: X-Request-ID, Idempotency-Replayed, Content-Disposition
//
// The expose list is merged into any value set earlier in the chain.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	noStore := make(map[string]struct{}, len(opt.NoStoreRoutes))
	for _, p := range opt.NoStoreRoutes {
		noStore[p] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		_, private := noStore[c.FullPath()]
		if opt.NoStore || private {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		h.Set("Access-Control-Expose-Headers", mergeHeaderList(h.Get("Access-Control-Expose-Headers"), exposedHeaders))

		c.Next()
	}
}

// mergeHeaderList appends names missing from the comma-separated list cur,
// comparing case-insensitively and keeping cur's order.
func mergeHeaderList(cur string, names []string) string {
	have := make(map[string]struct{})
	var out []string
	for _, p := range strings.Split(cur, ",") {
		if p = strings.TrimSpace(p); p != "" {
			have[strings.ToLower(p)] = struct{}{}
			out = append(out, p)
		}
	}
	for _, n := range names {
		if _, ok := have[strings.ToLower(n)]; !ok {
			out = append(out, n)
		}
	}
	return strings.Join(out, ", ")
}

// isHTTPS reports whether the request used HTTPS directly or via a reverse
// proxy that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
