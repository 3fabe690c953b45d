package model

import "strings"

// UserError is an expected validation or business-rule rejection returned by the storefront.
type UserError struct {
	Field   []string `json:"field,omitempty"`
	Message string   `json:"message"`
	Code    string   `json:"code,omitempty"`
}

func (e UserError) String() string {
	if len(e.Field) == 0 {
		return e.Message
	}
	return strings.Join(e.Field, ".") + ": " + e.Message
}

// Result is the outcome of a gateway call: either Data or UserErrors.
// A Result with neither is treated as a failure.
type Result[T any] struct {
	Data       *T          `json:"data,omitempty"`
	UserErrors []UserError `json:"user_errors,omitempty"`
}

// OK reports whether the call produced a data payload.
func (r Result[T]) OK() bool {
	return r.Data != nil
}

// Success wraps a payload.
func Success[T any](data T) Result[T] {
	return Result[T]{Data: &data}
}

// Failure wraps a list of user errors.
func Failure[T any](errs ...UserError) Result[T] {
	return Result[T]{UserErrors: errs}
}
