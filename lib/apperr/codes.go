package apperr

import "net/http"

// Code is a stable machine-readable error category.
type Code string

const (
	CodeValidation        Code = "validation_error"
	CodeNotFound          Code = "not_found"
	CodeInvalidTransition Code = "invalid_transition"
	CodeAlreadyRegistered Code = "already_registered"
	CodeDateOverlap       Code = "date_overlap"
	CodeEventFull         Code = "event_full"
	CodeStorage           Code = "storage_failure"
	CodeUnauthorized      Code = "unauthorized"
	CodeForbidden         Code = "forbidden"
)

// HTTPStatus maps the code to a transport status.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeInvalidTransition, CodeAlreadyRegistered, CodeDateOverlap, CodeEventFull:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// Business reports whether the code is an expected outcome of a well-formed request
// rather than a system fault.
func (c Code) Business() bool {
	switch c {
	case CodeStorage, "":
		return false
	default:
		return true
	}
}
