package apperror

import "net/http"

type AppError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Err     error       `json:"-"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NotFound(message string) *AppError {
	return New(http.StatusNotFound, message, nil)
}

// Unprocessable reports a request that parsed but failed validation.
func Unprocessable(message string, details interface{}) *AppError {
	e := New(http.StatusUnprocessableEntity, message, nil)
	e.Details = details
	return e
}

// BadGateway reports a failure of an upstream dependency (the LLM provider).
func BadGateway(message string, err error) *AppError {
	return New(http.StatusBadGateway, message, err)
}

func TooManyRequests(message string) *AppError {
	return New(http.StatusTooManyRequests, message, nil)
}

// ServiceUnavailable reports a dependency the request cannot proceed without.
func ServiceUnavailable(message string, err error) *AppError {
	return New(http.StatusServiceUnavailable, message, err)
}

func Internal(err error) *AppError {
	return New(http.StatusInternalServerError, "Internal Server Error", err)
}
