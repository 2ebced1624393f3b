// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are lowercase snake_case and stable; clients branch on them rather
// than on messages. failErr translates the service error taxonomy into a
// status, a code and the user-facing message.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-classifieds-backend/internal/http/middleware"
	"github.com/tbourn/go-classifieds-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeInvalidOperation = "invalid_operation"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeInvalidToken     = "invalid_token"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeConflict         = "conflict"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
	ErrCodeTooLarge         = "payload_too_large"
)

// failErr writes the response for a service error. Unknown errors become an
// opaque 500; the cause is logged, never returned.
func failErr(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.As(err, &verr):
		failFields(c, http.StatusBadRequest, ErrCodeBadRequest, verr.Message, verr.Fields)
	case errors.Is(err, services.ErrEmptyContent):
		fail(c, http.StatusBadRequest, ErrCodeInvalidOperation, "Message content cannot be empty.")
	case errors.Is(err, services.ErrContentTooLong):
		fail(c, http.StatusBadRequest, ErrCodeInvalidOperation, "Message content is too long.")
	case errors.Is(err, services.ErrSelfConversation):
		fail(c, http.StatusBadRequest, ErrCodeInvalidOperation, "Cannot start a chat with yourself.")
	case errors.Is(err, services.ErrInvalidCategory):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "Invalid category ID.")
	case errors.Is(err, services.ErrProductNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "Product not found.")
	case errors.Is(err, services.ErrNotParticipant):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Forbidden: Not a participant in this conversation.")
	case errors.Is(err, services.ErrForbidden):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "Forbidden: You do not own this product.")
	case errors.Is(err, services.ErrEmailTaken):
		fail(c, http.StatusConflict, ErrCodeConflict, "User with this email already exists.")
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid credentials.")
	case errors.Is(err, services.ErrUserNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "User not found.")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Str("route", c.FullPath()).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// bindJSON decodes the body into dst, answering 413 for oversized bodies
// and 400 for anything else undecodable.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
			return false
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return false
	}
	return true
}
