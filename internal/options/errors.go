package options

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownOption         = errors.New("unknown option")
	ErrMissingValue          = errors.New("missing value")
	ErrMissingRequiredOption = errors.New("missing required option")
)

// Error describes a parse or validation failure for a single token.
type Error struct {
	Kind   error
	Option string
}

func (e *Error) Error() string {
	switch e.Kind {
	case ErrMissingValue:
		return fmt.Sprintf("%s: option %s requires a value", e.Kind, e.Option)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Option)
	}
}

func (e *Error) Unwrap() error {
	return e.Kind
}
