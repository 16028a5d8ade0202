package services

import "fmt"

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return "Validation error" }

type UnauthenticatedError struct{ Message string }

func (e *UnauthenticatedError) Error() string { return e.Message }

type NotFoundError struct{ Message string }

func (e *NotFoundError) Error() string { return e.Message }

type ConflictError struct{ Message string }

func (e *ConflictError) Error() string { return e.Message }

// PersistenceError wraps a failed read or write against the chat store.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("failed to %s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

var errUnauthenticated = &UnauthenticatedError{Message: "User not authenticated"}
