package common

import (
	"fmt"

	"github.com/pkg/errors"
)

type ErrorKind int

const (
	// FormatError: request input is malformed.
	FormatError ErrorKind = iota + 1
	// ConsistencyError: requests contradict the wallet state.
	ConsistencyError
	// ValueError: amounts do not allow a valid transaction.
	ValueError
	// TransientError: an external source failed after retries.
	TransientError
)

func (k ErrorKind) String() string {
	switch k {
	case FormatError:
		return "format error"
	case ConsistencyError:
		return "consistency error"
	case ValueError:
		return "value error"
	case TransientError:
		return "transient error"
	}
	return "unknown error"
}

var (
	ErrFormat      = &Error{Kind: FormatError}
	ErrConsistency = &Error{Kind: ConsistencyError}
	ErrValue       = &Error{Kind: ValueError}
	ErrTransient   = &Error{Kind: TransientError}
)

// Error is the failure type of a build. Stage and Line are optional
// annotations; Line is 1-based and 0 when not tied to the request file.
type Error struct {
	Kind  ErrorKind
	Stage string
	Line  int
	Err   error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	if e.Stage != "" {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrValue)
// works whatever the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NewError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: errors.Errorf(format, args...)}
}

func NewLineError(kind ErrorKind, line int, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Line: line, Err: errors.Errorf(format, args...)}
}

func WrapError(kind ErrorKind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Err: errors.Wrapf(err, format, args...)}
}

// WithStage annotates err with stage. Errors without a kind become
// TransientError since they come from a collaborator.
func WithStage(err error, stage string) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Stage == "" {
			e.Stage = stage
		}
		return e
	}
	return &Error{Kind: TransientError, Stage: stage, Err: err}
}

// KindOf returns the kind of err, or 0 if err is not an *Error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
