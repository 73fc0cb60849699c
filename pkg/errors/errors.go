// Package errors defines custom error types and error handling utilities for
// the clipgate media acquisition core. The taxonomy distinguishes deliberate
// backpressure signals (rate limit, queue overflow, duplicate in flight) from
// terminal acquisition failures.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/clipgate/clipgate/pkg/constants"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// CoreError represents a structured error with additional metadata.
type CoreError interface {
	error

	// Code returns the error class
	Code() constants.ErrorCode

	// HTTPStatus returns the HTTP status code the error maps to
	HTTPStatus() int

	// RetryAfter returns the suggested backoff before retrying, zero if
	// retrying is pointless or immediately allowed
	RetryAfter() time.Duration

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause attaches a cause error to the chain
	WithCause(cause error) CoreError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) CoreError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

// baseError is the internal implementation of CoreError.
type baseError struct {
	code       constants.ErrorCode
	httpStatus int
	message    string
	retryAfter time.Duration
	cause      error
	metadata   map[string]interface{}
}

func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

func (e *baseError) Code() constants.ErrorCode { return e.code }

func (e *baseError) HTTPStatus() int { return e.httpStatus }

func (e *baseError) RetryAfter() time.Duration { return e.retryAfter }

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) WithCause(cause error) CoreError {
	e.cause = cause
	return e
}

func (e *baseError) WithMetadata(key string, value interface{}) CoreError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} { return e.metadata }

// ================================================================================
// Error Constructor
// ================================================================================

// NewError creates a new CoreError with the specified parameters.
func NewError(code constants.ErrorCode, httpStatus int, message string) CoreError {
	return &baseError{
		code:       code,
		httpStatus: httpStatus,
		message:    message,
		metadata:   make(map[string]interface{}),
	}
}

// ================================================================================
// Admission Errors (backpressure signals, never retried internally)
// ================================================================================

// ErrRateLimited creates a rate_limited error carrying the remaining wait.
func ErrRateLimited(retryAfter time.Duration) CoreError {
	e := &baseError{
		code:       constants.ErrCodeRateLimited,
		httpStatus: http.StatusTooManyRequests,
		message:    fmt.Sprintf("rate limit exceeded, retry in %s", retryAfter.Round(time.Second)),
		retryAfter: retryAfter,
		metadata:   make(map[string]interface{}),
	}
	return e
}

// ErrQueueOverflow creates a queue_overflow error.
func ErrQueueOverflow(depth int) CoreError {
	return NewError(
		constants.ErrCodeQueueOverflow,
		http.StatusTooManyRequests,
		"too many pending requests for this user",
	).WithMetadata("queue_depth", depth)
}

// ErrDuplicateInFlight creates a duplicate_in_flight error.
func ErrDuplicateInFlight(requestKey string) CoreError {
	return NewError(
		constants.ErrCodeDuplicateInFlight,
		http.StatusConflict,
		"an identical request is already in progress",
	).WithMetadata("request_key", requestKey)
}

// ================================================================================
// Acquisition Errors
// ================================================================================

// ErrProviderUnavailable creates a provider_unavailable error.
func ErrProviderUnavailable(message string) CoreError {
	return NewError(
		constants.ErrCodeProviderUnavailable,
		http.StatusBadGateway,
		message,
	)
}

// ErrNoViableFormat creates a no_viable_format error. The last recorded
// candidate failure is attached as the cause so callers can surface it.
func ErrNoViableFormat(lastErr error) CoreError {
	return NewError(
		constants.ErrCodeNoViableFormat,
		http.StatusUnprocessableEntity,
		"no format candidate produced a usable artifact",
	).WithCause(lastErr)
}

// ErrSizeExceeded creates a size_exceeded error.
func ErrSizeExceeded(size, limit int64) CoreError {
	return NewError(
		constants.ErrCodeSizeExceeded,
		http.StatusRequestEntityTooLarge,
		fmt.Sprintf("artifact of %d bytes exceeds the %d byte limit", size, limit),
	).WithMetadata("size", size).WithMetadata("limit", limit)
}

// ErrTranscodeFailed creates a transcode_failed error. Non-fatal: the
// pipeline keeps the original artifact when conversion fails.
func ErrTranscodeFailed(cause error) CoreError {
	return NewError(
		constants.ErrCodeTranscodeFailed,
		http.StatusUnprocessableEntity,
		"container conversion failed",
	).WithCause(cause)
}

// ErrTimeout creates a timeout error for the outer acquisition deadline.
func ErrTimeout(elapsed time.Duration) CoreError {
	return NewError(
		constants.ErrCodeTimeout,
		http.StatusGatewayTimeout,
		fmt.Sprintf("acquisition did not finish within %s", elapsed),
	)
}

// ================================================================================
// General Errors
// ================================================================================

// ErrInvalidRequest creates an invalid_request error.
func ErrInvalidRequest(message string) CoreError {
	return NewError(constants.ErrCodeInvalidRequest, http.StatusBadRequest, message)
}

// ErrNotFound creates a not_found error.
func ErrNotFound(message string) CoreError {
	return NewError(constants.ErrCodeNotFound, http.StatusNotFound, message)
}

// ErrInternal creates an internal_error.
func ErrInternal(message string) CoreError {
	return NewError(constants.ErrCodeInternal, http.StatusInternalServerError, message)
}

// ================================================================================
// Inspection Helpers
// ================================================================================

// IsCode reports whether err (or any error in its chain) is a CoreError with
// the given code.
func IsCode(err error, code constants.ErrorCode) bool {
	for err != nil {
		if ce, ok := err.(CoreError); ok && ce.Code() == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// CodeOf returns the error code of err if it is a CoreError, or
// ErrCodeInternal otherwise.
func CodeOf(err error) constants.ErrorCode {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if ce, ok := e.(CoreError); ok {
			return ce.Code()
		}
	}
	return constants.ErrCodeInternal
}

// HTTPStatusOf returns the HTTP status err maps to, defaulting to 500.
func HTTPStatusOf(err error) int {
	for e := err; e != nil; e = stderrors.Unwrap(e) {
		if ce, ok := e.(CoreError); ok {
			return ce.HTTPStatus()
		}
	}
	return http.StatusInternalServerError
}

// IsBackpressure reports whether err is one of the deliberate admission
// signals that the caller must not retry automatically.
func IsBackpressure(err error) bool {
	switch CodeOf(err) {
	case constants.ErrCodeRateLimited, constants.ErrCodeQueueOverflow, constants.ErrCodeDuplicateInFlight:
		return true
	}
	return false
}
