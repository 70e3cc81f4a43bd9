// Package tag provides standardized tag functions for structured logging.
//
// All tag keys use kebab-case naming convention for consistency.
package tag

import (
	"log/slog"
	"strings"
)

// Error creates a tag for error objects.
func Error(err any) slog.Attr {
	return slog.Any("err", err)
}

// RunID creates a tag for the id of one launcher run.
func RunID(id string) slog.Attr {
	return slog.String("run-id", id)
}

// File creates a tag for file paths.
func File(path string) slog.Attr {
	return slog.String("file", path)
}

// Dir creates a tag for directory paths.
func Dir(path string) slog.Attr {
	return slog.String("dir", path)
}

// Command creates a tag for a command line.
func Command(args []string) slog.Attr {
	return slog.String("command", strings.Join(args, " "))
}

// ExitCode creates a tag for process exit codes.
func ExitCode(code int) slog.Attr {
	return slog.Int("exit-code", code)
}

// PID creates a tag for process ids.
func PID(pid int) slog.Attr {
	return slog.Int("pid", pid)
}

// Signal creates a tag for signal names (e.g., SIGTERM).
func Signal(sig string) slog.Attr {
	return slog.String("signal", sig)
}

// Count creates a tag for numeric counts.
func Count(n int) slog.Attr {
	return slog.Int("count", n)
}

// Options creates a tag for the option keys supplied on the command line.
func Options(keys []string) slog.Attr {
	return slog.Any("options", keys)
}

// Profile creates a tag for the engine profile version.
func Profile(version string) slog.Attr {
	return slog.String("profile", version)
}

// Config creates a tag for the configuration file in use.
func Config(path string) slog.Attr {
	return slog.String("config", path)
}
