package service

import (
	"errors"
	"fmt"
)

const (
	// ErrInternalServerError means that an internal server error has occurred.
	ErrInternalServerError = "internal_server_error"
	// ErrEntityNotFound means that a route does not exist. Absent instances and unknown
	// groups are valid empty outcomes and never produce it.
	ErrEntityNotFound = "entity_not_found"
	// ErrBadParameter means that provided parameter does not match declared (ValidationError).
	ErrBadParameter = "bad_parameter"
	// ErrStoreUnavailable means that the persistence layer cannot be reached or timed out.
	ErrStoreUnavailable = "store_unavailable"
	// ErrMethodNotAllowed means that the route exists but not for the request method.
	ErrMethodNotAllowed = "method_not_allowed"
)

// errorNames holds the external "name" of each code. Unknown codes are InternalServerError.
var errorNames = map[string]string{
	ErrInternalServerError: "InternalServerError",
	ErrEntityNotFound:      "NotFound",
	ErrBadParameter:        "ValidationError",
	ErrStoreUnavailable:    "StoreUnavailable",
	ErrMethodNotAllowed:    "MethodNotAllowed",
}

// MyError represents an error within the context of the registry.
type MyError struct {
	// Code is a machine-readable code.
	Code string `json:"code,omitempty"`
	// Message is a human-readable message.
	Message string `json:"message"`
	// Inner is a wrapped error that is never shown to API consumers.
	Inner error `json:"-"`
}

// NewMyError creates a new MyError.
func NewMyError(code string, message string, inner error) *MyError {
	return &MyError{
		Code:    code,
		Message: message,
		Inner:   inner,
	}
}

// keepOrWrap returns inner unchanged when it already carries a code, so the
// classification made closest to the failure wins.
func keepOrWrap(code, message string, inner error) *MyError {
	if myInner := ToMyError(inner); myInner != nil {
		return myInner
	}
	return NewMyError(code, message, inner)
}

func NewInternalServerError(message string, inner error) *MyError {
	return keepOrWrap(ErrInternalServerError, message, inner)
}

func NewEntityNotFoundError(message string, inner error) *MyError {
	return keepOrWrap(ErrEntityNotFound, message, inner)
}

// NewBadParameterError reports malformed or missing caller input.
func NewBadParameterError(message string, inner error) *MyError {
	return keepOrWrap(ErrBadParameter, message, inner)
}

// NewStoreUnavailableError reports a failure of the persistence layer. Store adapters wrap
// every driver error with it; nothing above the store retries it.
func NewStoreUnavailableError(message string, inner error) *MyError {
	return keepOrWrap(ErrStoreUnavailable, message, inner)
}

func (e MyError) Error() string {
	if e.Inner != nil {
		return fmt.Sprintf("%s %s: %v", e.Code, e.Message, e.Inner)
	}

	return fmt.Sprintf("%s %s", e.Code, e.Message)
}

// Unwrap the error returning the error's reason.
func (e MyError) Unwrap() error {
	return e.Inner
}

// Name is the stable external label of the error.
func (e MyError) Name() string {
	if name, ok := errorNames[e.Code]; ok {
		return name
	}
	return errorNames[ErrInternalServerError]
}

// ToMyError returns a pointer to a registry error, or nil if it is not a registry error.
func ToMyError(err error) *MyError {
	var e *MyError
	if errors.As(err, &e) {
		return e
	}

	return nil
}

// ToMyErrorCode returns the code of the error, if available.
func ToMyErrorCode(err error) string {
	if myerror := ToMyError(err); myerror != nil {
		return myerror.Code
	}
	return ""
}

func IsMyError(err error, code string) bool {
	return ToMyErrorCode(err) == code && code != ""
}

func IsInternalServerError(err error) bool {
	return IsMyError(err, ErrInternalServerError)
}

func IsBadParameterError(err error) bool {
	return IsMyError(err, ErrBadParameter)
}

func IsStoreUnavailableError(err error) bool {
	return IsMyError(err, ErrStoreUnavailable)
}
