// Package envelope parses raw Lambda trigger payloads once, at the handler
// boundary, into a tagged union of the shapes this project receives: direct
// test invocations, SQS-wrapped messages, event bus events and S3 bucket
// notifications. It also carries the field checks and the environment loader
// shared by every handler.
package envelope

import (
	"errors"
	"fmt"
)

// Kind classifies a validation failure.
type Kind int

const (
	// MissingField means a required key is absent or holds an empty value.
	MissingField Kind = iota + 1
	// UnexpectedValue means a key is present but its value does not match.
	UnexpectedValue
	// MalformedEvent means the trigger payload has none of the known shapes.
	MalformedEvent
	// MissingEnv means a required environment variable is not set.
	MissingEnv
)

func (k Kind) String() string {
	switch k {
	case MissingField:
		return "missing field"
	case UnexpectedValue:
		return "unexpected value"
	case MalformedEvent:
		return "malformed event"
	case MissingEnv:
		return "missing environment variable"
	}
	return "unknown"
}

// Error is a validation failure with an explicit kind.
type Error struct {
	Kind  Kind
	Field string
	Msg   string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	switch e.Kind {
	case MissingField:
		return fmt.Sprintf("missing %q field", e.Field)
	case UnexpectedValue:
		return fmt.Sprintf("unexpected value for %q field", e.Field)
	case MissingEnv:
		return fmt.Sprintf("%v environment variable is required", e.Field)
	}
	return "malformed event"
}

// KindOf returns the kind of err, or zero if err carries no kind.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func missing(field string) *Error {
	return &Error{Kind: MissingField, Field: field}
}

func unexpected(field string) *Error {
	return &Error{Kind: UnexpectedValue, Field: field}
}

func malformed(msg string) *Error {
	return &Error{Kind: MalformedEvent, Msg: msg}
}
