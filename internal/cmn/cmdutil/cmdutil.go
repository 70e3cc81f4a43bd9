// Package cmdutil holds helpers shared by the components that start
// external processes.
package cmdutil

import (
	"errors"
	"os/exec"
	"strings"
	"syscall"

	"mvdan.cc/sh/v3/syntax"
)

// ExitCodeNotStarted is reported when a program could not be started at
// all, as a shell does for a command it cannot find.
const ExitCodeNotStarted = 127

// QuoteArgs renders args as a single line that a POSIX shell splits back
// into the same words.
func QuoteArgs(args []string) (string, error) {
	quoted := make([]string, 0, len(args))
	for _, arg := range args {
		q, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", err
		}
		quoted = append(quoted, q)
	}
	return strings.Join(quoted, " "), nil
}

// ExitCode returns the exit status carried by err. A nil error is 0 and an
// error that does not come from a finished process is ExitCodeNotStarted.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal())
		}
		if code := exitErr.ExitCode(); code >= 0 {
			return code
		}
		return 1
	}
	return ExitCodeNotStarted
}
