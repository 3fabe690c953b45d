package model

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAPIError_Error(t *testing.T) {
	bare := &APIError{Code: CodeNotFound, Message: "checkout not found"}
	if got, want := bare.Error(), "NOT_FOUND: checkout not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}

	wrapped := &APIError{Code: CodeUpstream, Message: "Storefront request failed", Err: errors.New("EOF")}
	if got, want := wrapped.Error(), "UPSTREAM_ERROR: Storefront request failed (EOF)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if bare.Unwrap() != nil {
		t.Error("Unwrap() should be nil without a cause")
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name      string
		err       *APIError
		code      string
		status    int
		sentinel  error
		message   string
		retryable bool
	}{
		{"not found", NewNotFoundError("checkout"), CodeNotFound, http.StatusNotFound, ErrNotFound, "checkout not found", false},
		{"validation", NewValidationError("quantity", "must be positive"), CodeValidation, http.StatusBadRequest, ErrInvalidRequest, "invalid quantity: must be positive", false},
		{"unauthorized", NewUnauthorizedError("token rejected"), CodeUnauthorized, http.StatusUnauthorized, ErrUnauthorized, "token rejected", false},
		{"upstream", NewUpstreamError("Storefront", errors.New("connection reset")), CodeUpstream, http.StatusBadGateway, ErrUpstreamError, "Storefront request failed", true},
		{"rate limited", NewRateLimitError("Storefront"), CodeRateLimited, http.StatusTooManyRequests, ErrRateLimited, "Storefront is throttling requests, retry later", true},
		{"internal", NewInternalError(errors.New("boom")), CodeInternal, http.StatusInternalServerError, ErrInternal, "an internal error occurred", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.status)
			}
			if tt.err.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.message)
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false", tt.err, tt.sentinel)
			}
			if tt.err.Retryable() != tt.retryable {
				t.Errorf("Retryable() = %v, want %v", tt.err.Retryable(), tt.retryable)
			}
		})
	}
}

func TestNewValidationError_Field(t *testing.T) {
	if got := NewValidationError("variant_id", "required").Field; got != "variant_id" {
		t.Errorf("Field = %q, want variant_id", got)
	}
}

func TestUpstreamError_KeepsCause(t *testing.T) {
	err := NewUpstreamError("Storefront", errors.New("dial tcp: i/o timeout"))
	if got := err.Err.Error(); got != "upstream error: dial tcp: i/o timeout" {
		t.Errorf("cause = %q", got)
	}
}

func TestAPIError_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("renewing token: %w", NewRateLimitError("Storefront"))

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("errors.As should find the APIError")
	}
	if apiErr.Code != CodeRateLimited || !errors.Is(err, ErrRateLimited) {
		t.Errorf("unwrapped = %+v", apiErr)
	}
}
