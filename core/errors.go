package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

func (err ValidationError) Unwrap() error { return err.Err }

// PersistenceError is returned when a record store call fails.
type PersistenceError struct {
	Op         string // select, insert, update, delete, batch update
	Collection string
	Err        error
}

func NewPersistenceError(op, collection string, err error) error {
	return &PersistenceError{Op: op, Collection: collection, Err: err}
}

func (err *PersistenceError) Error() string {
	return err.Op + " " + err.Collection + ": " + err.Err.Error()
}

func (err *PersistenceError) Unwrap() error { return err.Err }

// IsPersistence reports whether err originated in the record store.
func IsPersistence(err error) bool {
	_, ok := errors.Cause(err).(*PersistenceError)
	return ok
}

// ShutdownError is a failure the process cannot recover from, e.g. the database shutting down.
// The API stops gracefully when a request fails with one.
type ShutdownError struct {
	Message string
	Err     error
}

func NewShutdownError(msg string, err error) error {
	return &ShutdownError{Message: msg, Err: err}
}

func (err *ShutdownError) Error() string {
	if err.Err == nil {
		return err.Message
	}
	return err.Message + ": " + err.Err.Error()
}

func (err *ShutdownError) Unwrap() error { return err.Err }

func IsShutdown(err error) bool {
	var s *ShutdownError
	return errors.As(err, &s)
}
