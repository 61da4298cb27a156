package services

import (
	"errors"
	"fmt"
	"net/http"

	"moviereview/app/repositories"
	"moviereview/app/runtime"
	"moviereview/app/token"
)

// Program error sentinels. Codes follow the custom-error numbering of the
// deployed program so clients can match on either.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("account not found")
	ErrAlreadyExists = errors.New("account already exists")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrSeedMismatch  = errors.New("seeds constraint was violated")
	ErrInvalidOwner  = errors.New("account owned by the wrong program")
)

const firstErrorCode = 6000

var errorNames = []struct {
	err  error
	name string
}{
	{ErrValidation, "ValidationError"},
	{ErrNotFound, "NotFound"},
	{ErrAlreadyExists, "AlreadyExists"},
	{ErrUnauthorized, "Unauthorized"},
	{ErrSeedMismatch, "SeedMismatch"},
	{ErrInvalidOwner, "InvalidOwner"},
}

// Error is a program error with its numeric code.
type Error struct {
	Code    int    `json:"code"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Name, e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// newError wraps one of the sentinels above.
func newError(sentinel error, format string, args ...interface{}) *Error {
	e := &Error{Code: -1, Name: "Unknown", Message: fmt.Sprintf(format, args...), Err: sentinel}
	for i, n := range errorNames {
		if n.err == sentinel {
			e.Code = firstErrorCode + i
			e.Name = n.name
		}
	}
	return e
}

func Validation(format string, args ...interface{}) *Error {
	return newError(ErrValidation, format, args...)
}

func NotFound(format string, args ...interface{}) *Error {
	return newError(ErrNotFound, format, args...)
}

func AlreadyExists(format string, args ...interface{}) *Error {
	return newError(ErrAlreadyExists, format, args...)
}

func Unauthorized(format string, args ...interface{}) *Error {
	return newError(ErrUnauthorized, format, args...)
}

func SeedMismatch(format string, args ...interface{}) *Error {
	return newError(ErrSeedMismatch, format, args...)
}

func InvalidOwner(format string, args ...interface{}) *Error {
	return newError(ErrInvalidOwner, format, args...)
}

// HTTPStatus maps program and runtime errors to a response status.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation),
		errors.Is(err, ErrSeedMismatch),
		errors.Is(err, ErrInvalidOwner),
		errors.Is(err, runtime.ErrEmptyTransaction),
		errors.Is(err, runtime.ErrInvalidTransactionEncoding),
		errors.Is(err, runtime.ErrBlockhashNotFound),
		errors.Is(err, runtime.ErrAirdropLimit),
		errors.Is(err, runtime.ErrUnknownProgram),
		errors.Is(err, token.ErrNotTokenAccount),
		errors.Is(err, token.ErrInvalidAccountData):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, runtime.ErrMissingSignature),
		errors.Is(err, runtime.ErrSignatureVerification):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound), errors.Is(err, repositories.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists),
		errors.Is(err, runtime.ErrAlreadyProcessed),
		errors.Is(err, runtime.ErrAccountAlreadyInUse):
		return http.StatusConflict
	case errors.Is(err, runtime.ErrInsufficientFunds):
		return http.StatusPaymentRequired
	}
	var ixErr *runtime.InstructionError
	if errors.As(err, &ixErr) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
