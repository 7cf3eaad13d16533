// Package apperrors defines the error taxonomy shared by the store, the
// conversation flow, the dispatcher and the HTTP layer.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrTooManyOptions  = errors.New("too many options")
)

// StatusError is returned when a broadcast operation is not allowed in its current status
type StatusError struct {
	Op          string
	BroadcastID string
	Status      string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cannot %s broadcast %s in status %s", e.Op, e.BroadcastID, e.Status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrInvalidStatus
}

// NewStatusError builds a precondition failure for op on a broadcast
func NewStatusError(op, broadcastID, status string) error {
	return &StatusError{Op: op, BroadcastID: broadcastID, Status: status}
}

// PersistenceError wraps a store failure that crossed a component boundary
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Persistence wraps err as a PersistenceError, passing nil through
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence reports whether err carries a PersistenceError
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
