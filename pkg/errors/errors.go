package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches errors sharing the same code so clones compare equal to their template.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) || e == nil || t == nil {
		return false
	}
	return e.Code == t.Code
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors for common scenarios.
var (
	ErrNotFound     = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden    = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrUnauthorized = New("UNAUTHORIZED", http.StatusUnauthorized, "unauthorized")
	ErrConflict     = New("CONFLICT", http.StatusConflict, "conflict")
	ErrValidation   = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal     = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrTooMany      = New("RATE_LIMITED", http.StatusTooManyRequests, "too many requests")

	ErrLoadFailed       = New("LOAD_FAILED", http.StatusServiceUnavailable, "data could not be loaded")
	ErrInvalidInterval  = New("INVALID_INTERVAL", http.StatusBadRequest, "invalid availability interval")
	ErrInvalidTimezone  = New("INVALID_TIMEZONE", http.StatusBadRequest, "invalid timezone")
	ErrOutsideHorizon   = New("OUTSIDE_HORIZON", http.StatusBadRequest, "requested period is outside the booking horizon")
	ErrSlotUnavailable  = New("SLOT_UNAVAILABLE", http.StatusConflict, "time slot is no longer available")
	ErrEventInactive    = New("EVENT_TYPE_INACTIVE", http.StatusConflict, "event type is not active")
	ErrTransient        = New("TRANSIENT_FAILURE", http.StatusBadGateway, "request failed, please retry")
	ErrInvalidState     = New("INVALID_TRANSITION", http.StatusConflict, "action not allowed in current state")
	ErrInFlight         = New("IN_FLIGHT", http.StatusConflict, "an identical request is already in progress")
	ErrNothingToSave    = New("NOTHING_TO_SAVE", http.StatusConflict, "there are no unsaved changes")
	ErrAlreadyCancelled = New("ALREADY_CANCELLED", http.StatusConflict, "booking is already cancelled")

	// ErrCacheMiss signals an absent cache entry; it never reaches clients.
	ErrCacheMiss = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// FromError normalises any error into an *Error.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// IsConflict reports whether err means the user must pick something else.
func IsConflict(err error) bool {
	return hasCode(err, ErrSlotUnavailable.Code, ErrEventInactive.Code, ErrConflict.Code, ErrAlreadyCancelled.Code)
}

// IsValidation reports whether err was raised by local or request validation.
func IsValidation(err error) bool {
	return hasCode(err, ErrValidation.Code, ErrInvalidInterval.Code, ErrInvalidTimezone.Code, ErrOutsideHorizon.Code)
}

// IsTransient reports whether err is a retryable transport failure.
func IsTransient(err error) bool {
	return hasCode(err, ErrTransient.Code, ErrLoadFailed.Code, ErrInternal.Code)
}

// IsUnauthorized reports whether err is an absent or rejected session.
func IsUnauthorized(err error) bool {
	return hasCode(err, ErrUnauthorized.Code, ErrForbidden.Code)
}

func hasCode(err error, codes ...string) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	for _, code := range codes {
		if e.Code == code {
			return true
		}
	}
	return false
}
