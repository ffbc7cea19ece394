package session

import (
	"errors"
	"fmt"

	"github.com/GriffinCanCode/tabsession/internal/shared/paths"
	"github.com/GriffinCanCode/tabsession/internal/shared/types"
)

var (
	// ErrNameProtected is returned for internal names without force
	ErrNameProtected = errors.New("internal session")
	// ErrNotFound is returned when no session file exists for a name
	ErrNotFound = errors.New("session not found")
	// ErrNoCurrentSession is returned by --current before any load or save
	ErrNoCurrentSession = errors.New("no session loaded currently")
	// ErrConflictingName is returned when --current is combined with a name
	ErrConflictingName = errors.New("--current can't be combined with a session name")
	// ErrTargetIsDirectory is returned when a session path is a directory
	ErrTargetIsDirectory = errors.New("target is a directory")
	// ErrNothingToSave is returned when the browser has no windows to capture
	ErrNothingToSave = errors.New("no windows to save")
	// ErrInvalidName is returned for names that are not filesystem-safe
	ErrInvalidName = paths.ErrInvalidName
)

// Verb names a session operation
type Verb string

const (
	VerbSave   Verb = "save"
	VerbLoad   Verb = "load"
	VerbDelete Verb = "delete"
)

func (v Verb) gerund() string {
	switch v {
	case VerbSave:
		return "saving"
	case VerbLoad:
		return "loading"
	case VerbDelete:
		return "deleting"
	}
	return string(v) + "ing"
}

// DecodeError reports a session document that could not be read back
type DecodeError struct {
	Stage string // "decoding", "parsing" or "validating"
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// OpError is a failed operation; Error() is the text shown to the user
type OpError struct {
	Verb Verb
	Name string
	Err  error
}

func (e *OpError) Error() string {
	switch {
	case errors.Is(e.Err, ErrNameProtected):
		return fmt.Sprintf("%s is an internal session, use --force to %s anyways.", e.Name, e.Verb)
	case errors.Is(e.Err, ErrNotFound):
		return fmt.Sprintf("Session %s not found!", e.Name)
	case errors.Is(e.Err, ErrNoCurrentSession):
		return "No session loaded currently!"
	case errors.Is(e.Err, ErrConflictingName):
		return "--current can't be combined with a session name!"
	}
	return fmt.Sprintf("Error while %s session: %v", e.Verb.gerund(), e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies an error for metrics and transport status mapping
func ErrorKind(err error) string {
	var decodeErr *DecodeError
	var validationErr *types.ValidationError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrNameProtected):
		return "protected"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNoCurrentSession):
		return "no_current"
	case errors.Is(err, ErrConflictingName):
		return "conflict"
	case errors.Is(err, ErrInvalidName):
		return "invalid_name"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &validationErr), errors.Is(err, ErrNothingToSave):
		return "invalid_document"
	}
	return "storage"
}
