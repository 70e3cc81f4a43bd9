// Package launcher runs an engine command as a child process and reports
// how it ended.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"slices"
	"syscall"

	"github.com/tailor-analysis/tailor/internal/cmn/cmdutil"
	"github.com/tailor-analysis/tailor/internal/cmn/logger"
	"github.com/tailor-analysis/tailor/internal/cmn/logger/tag"
)

var ErrChildProcessFailure = errors.New("child process failure")

// ExitError reports a child that exited with a non-zero status or could
// not be started. It matches ErrChildProcessFailure with errors.Is.
type ExitError struct {
	Code int
	// Err is the underlying error from os/exec.
	Err error
}

func (e *ExitError) Error() string {
	if e.Code == cmdutil.ExitCodeNotStarted && e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrChildProcessFailure, e.Err)
	}
	return fmt.Sprintf("%s: exit status %d", ErrChildProcessFailure, e.Code)
}

func (e *ExitError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrChildProcessFailure}
	}
	return []error{ErrChildProcessFailure, e.Err}
}

// Command is the argv of a program to run.
type Command interface {
	Program() string
	Args() []string
}

// Argv is a Command given as a plain argument vector.
type Argv []string

func (a Argv) Program() string {
	if len(a) == 0 {
		return ""
	}
	return a[0]
}

func (a Argv) Args() []string {
	if len(a) < 2 {
		return nil
	}
	return slices.Clone(a[1:])
}

// Launcher starts child processes that share the caller's streams.
type Launcher struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Dir is the working directory of the child. Empty means the
	// current directory.
	Dir string
	// Signals received while a child runs are forwarded to it.
	Signals []os.Signal
}

// New returns a Launcher wired to the process's standard streams that
// forwards SIGINT and SIGTERM to the child.
func New() *Launcher {
	return &Launcher{
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
}

// Run starts cmd and waits for it. A zero exit status returns nil; any
// other outcome is an *ExitError. Cancelling ctx kills the child.
func (l *Launcher) Run(ctx context.Context, cmd Command) error {
	program, args := cmd.Program(), cmd.Args()
	if program == "" {
		return &ExitError{Code: cmdutil.ExitCodeNotStarted, Err: errors.New("empty command")}
	}

	c := exec.CommandContext(ctx, program, args...)
	c.Stdin = l.Stdin
	c.Stdout = l.Stdout
	c.Stderr = l.Stderr
	c.Dir = l.Dir
	cmdutil.SetupCommand(c)
	c.Cancel = func() error {
		return cmdutil.KillProcessGroup(c, os.Kill)
	}

	if err := c.Start(); err != nil {
		logger.Error(ctx, "Failed to start process", tag.File(program), tag.Error(err))
		return &ExitError{Code: cmdutil.ExitCodeNotStarted, Err: err}
	}
	logger.Debug(ctx, "Process started", tag.File(program), tag.PID(c.Process.Pid))

	stop := l.forwardSignals(ctx, c)
	err := c.Wait()
	stop()

	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		return fmt.Errorf("failed to wait for %s: %w", program, err)
	}
	code := cmdutil.ExitCode(err)
	logger.Debug(ctx, "Process exited", tag.File(program), tag.ExitCode(code))
	return &ExitError{Code: code, Err: err}
}

func (l *Launcher) forwardSignals(ctx context.Context, c *exec.Cmd) (stop func()) {
	if len(l.Signals) == 0 {
		return func() {}
	}

	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	exited := make(chan struct{})
	signal.Notify(sigCh, l.Signals...)

	go func() {
		defer close(exited)
		for {
			select {
			case sig := <-sigCh:
				logger.Info(ctx, "Forwarding signal", tag.Signal(sig.String()))
				if err := cmdutil.KillProcessGroup(c, sig); err != nil {
					logger.Warn(ctx, "Failed to forward signal", tag.Signal(sig.String()), tag.Error(err))
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
		<-exited
	}
}
