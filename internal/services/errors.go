// Package services defines the business logic of the marketplace: accounts,
// the product catalog, favorites, and buyer/seller conversations with their
// messages. This file centralizes service-level error values so that they can
// be consistently returned by service methods and checked by callers.
//
// Translation into user-facing messages or HTTP status codes is performed at
// the handler layer.
package services

import (
	"errors"
	"sort"
	"strings"
)

// Input errors.
var (
	// ErrValidation marks malformed input. ValidationError values match it
	// with errors.Is.
	ErrValidation = errors.New("validation failed")

	// ErrEmptyContent is returned when a message is empty after trimming.
	ErrEmptyContent = errors.New("message content is empty")

	// ErrContentTooLong is returned when a message exceeds the configured
	// rune limit.
	ErrContentTooLong = errors.New("message content too long")

	// ErrInvalidCategory is returned when a product references an unknown
	// category.
	ErrInvalidCategory = errors.New("invalid category")
)

// Conversation and message errors.
var (
	// ErrProductNotFound indicates that the referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrSelfConversation is returned when a seller tries to open a
	// conversation about their own product.
	ErrSelfConversation = errors.New("cannot start a conversation with yourself")

	// ErrNotParticipant is returned both when a conversation does not exist
	// and when the caller is neither its buyer nor its seller.
	ErrNotParticipant = errors.New("not a participant of this conversation")
)

// Account errors.
var (
	// ErrEmailTaken is returned on registration with an email already in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned for an unknown email or a wrong
	// password alike.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUserNotFound indicates the authenticated user no longer exists.
	ErrUserNotFound = errors.New("user not found")
)

// Ownership errors.
var (
	// ErrForbidden is returned when the caller does not own the product.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries per-field messages for a rejected input.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

// Error implements error.
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + " (" + strings.Join(parts, "; ") + ")"
}

// Is makes errors.Is(err, ErrValidation) true for every ValidationError.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// fieldErrors accumulates per-field validation failures.
type fieldErrors map[string]string

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

// err returns nil when no field failed.
func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Message: "Validation failed", Fields: f}
}

// invalid builds a ValidationError without field details.
func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
