package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("not authorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrPersistence     = errors.New("persistence failure")
)

// ValidationError describes rejected input. Fields lists the offending field
// names in the order they were checked; Details carries a per-field message.
type ValidationError struct {
	Message string
	Fields  []string
	Details map[string]string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NewMissingFields reports required fields that were absent from the input.
func NewMissingFields(fields ...string) *ValidationError {
	return &ValidationError{
		Message: fmt.Sprintf("Missing required fields: %s", strings.Join(fields, ", ")),
		Fields:  fields,
	}
}

// NewValidation builds a ValidationError from per-field messages.
func NewValidation(message string, details map[string]string) *ValidationError {
	fields := make([]string, 0, len(details))
	for f := range details {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return &ValidationError{Message: message, Fields: fields, Details: details}
}

// kindError carries a user-facing message and matches one sentinel kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Is(target error) bool { return target == e.kind }

func newKind(kind error, format string, a ...interface{}) error {
	return &kindError{kind: kind, msg: fmt.Sprintf(format, a...)}
}

func NewUnauthenticated(format string, a ...interface{}) error {
	return newKind(ErrUnauthenticated, format, a...)
}

func NewForbidden(format string, a ...interface{}) error {
	return newKind(ErrForbidden, format, a...)
}

func NewNotFound(format string, a ...interface{}) error {
	return newKind(ErrNotFound, format, a...)
}

func NewConflict(format string, a ...interface{}) error {
	return newKind(ErrConflict, format, a...)
}

// NewPersistence marks err as a storage failure while keeping it in the chain.
func NewPersistence(err error, msg string) error {
	return &persistenceError{msg: msg, err: err}
}

type persistenceError struct {
	msg string
	err error
}

func (e *persistenceError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *persistenceError) Unwrap() error { return e.err }

func (e *persistenceError) Is(target error) bool { return target == ErrPersistence }

func IsValidation(err error) bool { return errors.Is(err, ErrValidation) }

func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func IsConflict(err error) bool { return errors.Is(err, ErrConflict) }

// AsValidation extracts the ValidationError from err's chain.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// StatusCode maps an error to the HTTP status the API reports for it.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
