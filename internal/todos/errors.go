package todos

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by a conditional update whose record does not exist.
var ErrNotFound = errors.New("todo not found")

type ValidationKind string

const (
	MissingField  ValidationKind = "MissingField"
	InvalidType   ValidationKind = "InvalidType"
	InvalidFormat ValidationKind = "InvalidFormat"
)

// ValidationError is a client-correctable input problem, reported before any
// store call is made.
type ValidationError struct {
	Kind    ValidationKind `json:"kind"`
	Field   string         `json:"field,omitempty"`
	Message string         `json:"message"`
}

func (e *ValidationError) Error() string { return e.Message }

func missingField(field, msg string) error {
	return &ValidationError{Kind: MissingField, Field: field, Message: msg}
}

func invalidType(field, msg string) error {
	return &ValidationError{Kind: InvalidType, Field: field, Message: msg}
}

func invalidFormat(field, msg string) error {
	return &ValidationError{Kind: InvalidFormat, Field: field, Message: msg}
}

// StoreError wraps any failure of the underlying store. It is never retried.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }

func (e *StoreError) Unwrap() error { return e.Err }

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) || errors.Is(err, ErrNotFound) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
