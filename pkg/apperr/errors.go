package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeBadRequest      Code = "BAD_REQUEST"
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodePlanLimit       Code = "PLAN_LIMIT_EXCEEDED"
	CodeInvalidPlan     Code = "INVALID_PLAN"
	CodeRateLimited     Code = "RATE_LIMITED"
	CodeUpstream        Code = "UPSTREAM_ERROR"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeUnavailable     Code = "SERVICE_UNAVAILABLE"
	CodeFeatureDisabled Code = "FEATURE_NOT_AVAILABLE"
)

// Error is an application error that knows its HTTP status and public code.
type Error struct {
	Status  int
	Code    Code
	Message string
	Details map[string]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithDetail attaches a field-level detail and returns the same error.
func (e *Error) WithDetail(field, msg string) *Error {
	if e.Details == nil {
		e.Details = map[string]string{}
	}
	e.Details[field] = msg
	return e
}

func New(status int, code Code, msg string) *Error {
	return &Error{Status: status, Code: code, Message: msg}
}

func BadRequest(msg string) *Error { return New(http.StatusBadRequest, CodeBadRequest, msg) }

func Validation(msg string) *Error { return New(http.StatusBadRequest, CodeValidation, msg) }

func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "autenticación requerida"
	}
	return New(http.StatusUnauthorized, CodeUnauthorized, msg)
}

func Forbidden(msg string) *Error { return New(http.StatusForbidden, CodeForbidden, msg) }

func NotFound(msg string) *Error { return New(http.StatusNotFound, CodeNotFound, msg) }

func Conflict(msg string) *Error { return New(http.StatusConflict, CodeConflict, msg) }

func PlanLimit(msg string) *Error { return New(http.StatusForbidden, CodePlanLimit, msg) }

func FeatureDisabled(feature string) *Error {
	return New(http.StatusForbidden, CodeFeatureDisabled, "tu plan no incluye: "+feature)
}

func InvalidPlan(id string) *Error {
	return New(http.StatusBadRequest, CodeInvalidPlan, fmt.Sprintf("plan no válido: %q", id))
}

func TooManyRequests() *Error {
	return New(http.StatusTooManyRequests, CodeRateLimited, "demasiadas peticiones, inténtalo más tarde")
}

func Upstream(service string, err error) *Error {
	return &Error{Status: http.StatusBadGateway, Code: CodeUpstream, Message: service + " no disponible", Err: err}
}

func Internal(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Message: "error interno del servidor", Err: err}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code Code) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}
