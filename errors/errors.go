// errors/errors.go
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// The five failure kinds every backend maps onto. Callers match with
// errors.Is; entity-specific sentinels below wrap these so both levels work.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrBackendUnavailable = errors.New("backend unavailable")
	ErrUnauthorized       = errors.New("unauthorized")
)

// InvalidInputError reports which fields failed shape validation or could
// not be decoded from a directory entry.
type InvalidInputError struct {
	Fields []string
	Reason string
}

func (e *InvalidInputError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid input: %s: %s", strings.Join(e.Fields, ", "), e.Reason)
	}
	return fmt.Sprintf("invalid input: %s", strings.Join(e.Fields, ", "))
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// NewInvalidInput builds an InvalidInputError for the named fields.
func NewInvalidInput(reason string, fields ...string) error {
	return &InvalidInputError{Fields: fields, Reason: reason}
}
