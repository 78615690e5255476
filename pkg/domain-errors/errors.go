// Package domainerrors defines coded errors that services return and the transport
// layer translates into HTTP responses.
//
// Stores return infrastructure facts from pkg/platform/sentinel; services translate
// those into coded errors with New or Wrap so handlers never inspect driver errors.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies an error for clients and HTTP status mapping.
type Code string

const (
	CodeBadRequest           Code = "bad_request"
	CodeInvalidInput         Code = "invalid_input"
	CodeNotFound             Code = "not_found"
	CodeGatewayMisconfigured Code = "gateway_misconfigured"
	CodeDeliveryFailed       Code = "delivery_failed"
	CodePersistence          Code = "persistence_error"
	CodeInternal             Code = "internal_error"
)

// Error is a coded error with a client-safe message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, message string) error {
	return &Error{Code: code, Message: message}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, message string) error {
	return &Error{Code: code, Message: message, Err: err}
}

// As returns the outermost coded error in the chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// Is reports whether the outermost coded error in err's chain carries code.
func Is(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// HasCode reports whether any coded error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		if de, ok := err.(*Error); ok && de.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// ToHTTPStatus maps a code to its HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeDeliveryFailed:
		return http.StatusBadGateway
	case CodeGatewayMisconfigured, CodePersistence, CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// IsClientSafe reports whether the error message may be returned to callers.
// Internal and persistence failures only expose their code.
func IsClientSafe(code Code) bool {
	switch code {
	case CodeInternal, CodePersistence:
		return false
	default:
		return true
	}
}
