package model

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for errors.Is. Every APIError wraps exactly one of them.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrUpstreamError  = errors.New("upstream error")
	ErrRateLimited    = errors.New("rate limited")
	ErrInternal       = errors.New("internal error")

	// ErrUnknownAction marks a dispatch of an action type the store does not know.
	// This is a programming fault, never a recoverable condition.
	ErrUnknownAction = errors.New("unknown action type")
)

// Error codes carried by APIError.Code.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeUpstream     = "UPSTREAM_ERROR"
	CodeRateLimited  = "RATE_LIMITED"
	CodeInternal     = "INTERNAL_ERROR"
)

// APIError is a fault reaching or talking to the storefront, or a request
// rejected before it was sent. Storefront business rejections are not
// APIErrors; they come back as UserErrors in a Result.
type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *APIError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same call may succeed later unchanged.
func (e *APIError) Retryable() bool {
	return e.Code == CodeRateLimited || e.Code == CodeUpstream
}

func newAPIError(code string, status int, cause error, msg string) *APIError {
	return &APIError{Code: code, Message: msg, StatusCode: status, Err: cause}
}

// NewNotFoundError reports that resource does not exist upstream.
func NewNotFoundError(resource string) *APIError {
	return newAPIError(CodeNotFound, http.StatusNotFound, ErrNotFound, resource+" not found")
}

// NewValidationError rejects field locally, before any storefront call.
func NewValidationError(field, reason string) *APIError {
	e := newAPIError(CodeValidation, http.StatusBadRequest, ErrInvalidRequest,
		fmt.Sprintf("invalid %s: %s", field, reason))
	e.Field = field
	return e
}

// NewUnauthorizedError reports a rejected storefront access token.
func NewUnauthorizedError(reason string) *APIError {
	return newAPIError(CodeUnauthorized, http.StatusUnauthorized, ErrUnauthorized, reason)
}

// NewUpstreamError wraps a network, HTTP or decoding failure talking to service.
func NewUpstreamError(service string, err error) *APIError {
	return newAPIError(CodeUpstream, http.StatusBadGateway,
		fmt.Errorf("%w: %v", ErrUpstreamError, err), service+" request failed")
}

// NewRateLimitError reports storefront throttling.
func NewRateLimitError(service string) *APIError {
	return newAPIError(CodeRateLimited, http.StatusTooManyRequests, ErrRateLimited,
		service+" is throttling requests, retry later")
}

// NewInternalError hides err behind a generic message.
func NewInternalError(err error) *APIError {
	return newAPIError(CodeInternal, http.StatusInternalServerError,
		fmt.Errorf("%w: %v", ErrInternal, err), "an internal error occurred")
}
