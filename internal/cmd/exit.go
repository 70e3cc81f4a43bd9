package cmd

import (
	"errors"
)

// Exit statuses besides the engine's own.
const (
	exitFailure = 1
	exitUsage   = 2
)

// ExitError carries the status the process should exit with.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode returns the process exit status for an error returned by a
// command: 0 for nil, the carried code for an *ExitError, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return exitFailure
}
