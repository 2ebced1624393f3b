// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file handles the Idempotency-Key header on message sends. It is split
// in two stages because the key is validated for every request while the
// replay lookup needs an authenticated caller:
//
//   - IdempotencyValidator (global): rejects malformed keys with 400 and
//     stashes valid ones for GetIdempotencyKey.
//   - IdempotentReplay (behind Authenticate): asks the store whether
//     (user, conversation, key) already produced a message and, if so, lets
//     the request skip the rate limiter.
//
// Serving the stored message is left to the handler and service.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey carries the client-chosen key for a retryable send.
const HeaderIdempotencyKey = "Idempotency-Key"

// HeaderIdempotencyReplayed is set to "true" on responses served from a
// previous send.
const HeaderIdempotencyReplayed = "Idempotency-Replayed"

const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyRateBypass = "rate.bypass"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// GetIdempotencyKey returns the key stashed by IdempotencyValidator.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	s := c.GetString(ctxKeyIdemKey)
	return s, s != ""
}

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	// MaxLen caps the key length; <= 0 means 200.
	MaxLen int
	// Pattern restricts the key alphabet; nil means ^[A-Za-z0-9._~\-:]+$.
	Pattern *regexp.Regexp
}

// IdempotencyLookup reports whether a still-valid send exists for
// (userID, conversationID, key) at now. Errors are treated as "no replay".
type IdempotencyLookup func(ctx context.Context, userID, conversationID, key string, now time.Time) (bool, error)

// IdempotencyValidator validates the Idempotency-Key header when present.
// Requests without the header pass through untouched.
func IdempotencyValidator(opts IdempotencyOptions) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_request",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)
		c.Next()
	}
}

// IdempotentReplay exempts replayable sends from rate limiting. The conversation is taken from the
// ":id" route parameter and the user from the authenticated identity; either
// missing disables the lookup.
func IdempotentReplay(lookup IdempotencyLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		key, ok := GetIdempotencyKey(c)
		uid := userIDFromCtx(c)
		convID := c.Param("id")
		if !ok || lookup == nil || uid == "" || convID == "" {
			c.Next()
			return
		}

		if exists, err := lookup(c.Request.Context(), uid, convID, key, time.Now().UTC()); err == nil && exists {
			c.Set(ctxKeyRateBypass, true)
		}
		c.Next()
	}
}
