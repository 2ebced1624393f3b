// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the authorization gate. Authenticate reads the
// Authorization header, verifies the bearer token and attaches the caller's
// auth.Identity to the request. Nothing is cached; every request is verified
// again.
//
//   - missing header or not "Bearer <token>" → 401 unauthorized
//   - token rejected by the verifier           → 403 invalid_token
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classifieds-backend/internal/auth"
	"github.com/tbourn/go-classifieds-backend/internal/observability"
)

// identityKey is the Gin context key holding the verified auth.Identity.
const identityKey = "auth.identity"

// TokenVerifier resolves a bearer token to a user id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Authenticate returns the authorization gate backed by v.
func Authenticate(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			observability.AuthFailures.WithLabelValues("missing_token").Inc()
			abortAuth(c, http.StatusUnauthorized, "unauthorized", "Access denied. No token provided.")
			return
		}

		uid, err := v.Verify(token)
		if err != nil || uid == "" {
			observability.AuthFailures.WithLabelValues("invalid_token").Inc()
			abortAuth(c, http.StatusForbidden, "invalid_token", "Invalid token.")
			return
		}

		c.Set(identityKey, auth.Identity{UserID: uid})
		c.Next()
	}
}

// bearerToken extracts <token> from "Bearer <token>". The scheme is matched
// case-sensitively.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	tok := strings.TrimSpace(header[len(prefix):])
	if tok == "" || strings.ContainsAny(tok, " \t") {
		return "", false
	}
	return tok, true
}

// abortAuth writes the standard error envelope. The handlers package cannot be
// imported here, so the shape is repeated.
func abortAuth(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, gin.H{
		"request_id": c.Writer.Header().Get(requestIDHeader),
		"code":       code,
		"message":    msg,
	})
}

// IdentityFrom returns the identity attached by Authenticate.
func IdentityFrom(c *gin.Context) (auth.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return auth.Identity{}, false
	}
	id, ok := v.(auth.Identity)
	return id, ok && id.UserID != ""
}

// RequireIdentity is IdentityFrom for handlers mounted behind Authenticate.
// It aborts with 401 when no identity is present and reports whether the
// handler may continue.
func RequireIdentity(c *gin.Context) (auth.Identity, bool) {
	id, ok := IdentityFrom(c)
	if !ok {
		abortAuth(c, http.StatusUnauthorized, "unauthorized", "Access denied. No token provided.")
	}
	return id, ok
}

// userIDFromCtx returns the authenticated user id or "".
func userIDFromCtx(c *gin.Context) string {
	id, _ := IdentityFrom(c)
	return id.UserID
}
