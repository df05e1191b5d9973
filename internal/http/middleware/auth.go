// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file resolves the caller's identity. Authenticate runs on every
// request and stores the user ID under "userID" when credentials are
// present; RequireAuth guards routes that need a known user.
//
// Credentials, in order:
//   - Authorization: Bearer <jwt>, checked by the configured TokenVerifier.
//     A bad token is rejected with 401 even on public routes.
//   - X-User-ID, only when TrustUserHeader is enabled (development and tests).
//
// Requests without credentials continue anonymously.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderUserID carries a trusted caller identity when AuthOptions.TrustUserHeader is on.
const HeaderUserID = "X-User-ID"

// TokenVerifier validates a bearer token and returns the user it identifies.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// AuthOptions configures Authenticate.
type AuthOptions struct {
	Verifier        TokenVerifier
	TrustUserHeader bool
}

// UserLookup reports whether a user with id exists.
type UserLookup func(ctx context.Context, id string) (bool, error)

// Authenticate resolves the caller identity from request credentials.
func Authenticate(opts AuthOptions) gin.HandlerFunc {
	return func(c *gin.Context) {
		if h := c.GetHeader("Authorization"); h != "" {
			scheme, token, _ := strings.Cut(h, " ")
			token = strings.TrimSpace(token)
			if !strings.EqualFold(scheme, "Bearer") || token == "" || opts.Verifier == nil {
				unauthorized(c, "invalid authorization header")
				return
			}
			uid, err := opts.Verifier.Verify(token)
			if err != nil {
				unauthorized(c, err.Error())
				return
			}
			c.Set(userIDKey, uid)
			c.Next()
			return
		}

		if opts.TrustUserHeader {
			if uid := strings.TrimSpace(c.GetHeader(HeaderUserID)); uid != "" {
				c.Set(userIDKey, uid)
			}
		}
		c.Next()
	}
}

// RequireAuth rejects anonymous callers and callers whose account does not
// exist with 401. A nil lookup skips the existence check.
func RequireAuth(lookup UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := UserID(c)
		if uid == "" {
			unauthorized(c, "authentication required")
			return
		}
		if lookup != nil {
			ok, err := lookup(c.Request.Context(), uid)
			if err != nil {
				LoggerFrom(c).Error().Err(err).Msg("user lookup failed")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"request_id": c.Writer.Header().Get(requestIDHeader),
					"code":       "internal_error",
					"message":    "internal server error",
				})
				return
			}
			if !ok {
				unauthorized(c, "unknown user")
				return
			}
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context, msg string) {
	c.Header("WWW-Authenticate", `Bearer realm="api"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       "unauthorized",
		"message":    msg,
	})
}
