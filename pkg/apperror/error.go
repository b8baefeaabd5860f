package apperror

import "net/http"

// Machine-readable error codes returned in the "code" field of error bodies.
const (
	KindValidation   = "VALIDATION_ERROR"
	KindBadRequest   = "BAD_REQUEST"
	KindUnauthorized = "UNAUTHORIZED"
	KindForbidden    = "FORBIDDEN"
	KindNotFound     = "NOT_FOUND"
	KindConflict     = "CONFLICT"
	KindRateLimited  = "RATE_LIMITED"
	KindConfig       = "CONFIG_ERROR"
	KindTableMissing = "TABLE_MISSING"
	KindInternal     = "INTERNAL_ERROR"
)

type AppError struct {
	Code    int         `json:"-"`
	Kind    string      `json:"code"`
	Message string      `json:"error"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails returns a copy of e carrying details.
func (e *AppError) WithDetails(details interface{}) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

func New(code int, kind, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string) *AppError {
	return New(http.StatusBadRequest, KindBadRequest, message, nil)
}

func Validation(message string, details interface{}) *AppError {
	e := New(http.StatusBadRequest, KindValidation, message, nil)
	e.Details = details
	return e
}

func Unauthorized(message string) *AppError {
	return New(http.StatusUnauthorized, KindUnauthorized, message, nil)
}

func Forbidden(message string) *AppError {
	return New(http.StatusForbidden, KindForbidden, message, nil)
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, KindNotFound, message, nil)
}

func Conflict(message string) *AppError {
	return New(http.StatusConflict, KindConflict, message, nil)
}

func TooManyRequests(message string) *AppError {
	return New(http.StatusTooManyRequests, KindRateLimited, message, nil)
}

func Config(message string) *AppError {
	return New(http.StatusInternalServerError, KindConfig, message, nil)
}

func TableMissing(message string, err error) *AppError {
	return New(http.StatusInternalServerError, KindTableMissing, message, err)
}

// Internal wraps an unexpected failure of a primary read or write. The
// underlying message is surfaced to the caller.
func Internal(err error) *AppError {
	msg := "Internal Server Error"
	if err != nil {
		msg = err.Error()
	}
	return New(http.StatusInternalServerError, KindInternal, msg, err)
}
