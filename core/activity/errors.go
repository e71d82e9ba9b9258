package activity

import (
	"github.com/pkg/errors"
)

var (
	ErrNotFound       = errors.New("activity not found")
	ErrUnknownType    = errors.New("unknown activity type")
	ErrTypeMismatch   = errors.New("payload type does not match activity type")
	ErrMinimumItems   = errors.New("list cannot be left empty")
	ErrOutOfRange     = errors.New("position out of range")
	ErrPolicyRequired = errors.New("activity is referenced by lesson plan directions: choose to keep or delete them")
)

// ReferenceCheckError is returned when the dependents of an activity could not be determined.
// Nothing is deleted in that case.
type ReferenceCheckError struct {
	ActivityID string
	Err        error
}

func (err *ReferenceCheckError) Error() string {
	return "checking references of activity " + err.ActivityID + ": " + err.Err.Error()
}

func (err *ReferenceCheckError) Unwrap() error { return err.Err }

// RenumberError is returned when the order fields of a lesson could not be rewritten.
// The lesson must be re-fetched; Service.Renumber repairs it.
type RenumberError struct {
	LessonID string
	Err      error
}

func (err *RenumberError) Error() string {
	return "renumbering lesson " + err.LessonID + ": " + err.Err.Error()
}

func (err *RenumberError) Unwrap() error { return err.Err }
