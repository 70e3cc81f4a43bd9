package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	slogmulti "github.com/samber/slog-multi"
)

// Logger is the structured logger used across the launcher and the build
// assembler.
type Logger interface {
	Debug(msg string, tags ...any)
	Info(msg string, tags ...any)
	Warn(msg string, tags ...any)
	Error(msg string, tags ...any)

	With(attrs ...any) Logger
	WithGroup(name string) Logger
}

var _ Logger = (*appLogger)(nil)

type appLogger struct {
	logger *slog.Logger
	debug  bool
}

type Config struct {
	debug   bool
	format  string
	console io.Writer
	writer  io.Writer
	quiet   bool
}

type Option func(*Config)

// WithDebug sets the level of the logger to debug.
func WithDebug() Option {
	return func(o *Config) {
		o.debug = true
	}
}

// WithFormat sets the format of the logger (text or json).
func WithFormat(format string) Option {
	return func(o *Config) {
		o.format = format
	}
}

// WithConsole replaces stderr as the console destination.
func WithConsole(w io.Writer) Option {
	return func(o *Config) {
		o.console = w
	}
}

// WithWriter adds a second destination that receives every record.
func WithWriter(w io.Writer) Option {
	return func(o *Config) {
		o.writer = w
	}
}

// WithQuiet suppresses console output.
func WithQuiet() Option {
	return func(o *Config) {
		o.quiet = true
	}
}

var defaultLogger = NewLogger(WithFormat("text"))

func NewLogger(opts ...Option) Logger {
	cfg := &Config{console: os.Stderr}
	for _, opt := range opts {
		opt(cfg)
	}

	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}

	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.debug,
	}

	var handlers []slog.Handler
	if !cfg.quiet && cfg.console != nil {
		handlers = append(handlers, newHandler(cfg.console, cfg.format, handlerOpts))
	}
	if cfg.writer != nil {
		handlers = append(handlers, newHandler(cfg.writer, cfg.format, handlerOpts))
	}

	return &appLogger{
		logger: slog.New(slogmulti.Fanout(handlers...)),
		debug:  cfg.debug,
	}
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Debug implements logger.Logger.
func (a *appLogger) Debug(msg string, tags ...any) {
	a.log(slog.LevelDebug, msg, tags...)
}

// Info implements logger.Logger.
func (a *appLogger) Info(msg string, tags ...any) {
	a.log(slog.LevelInfo, msg, tags...)
}

// Warn implements logger.Logger.
func (a *appLogger) Warn(msg string, tags ...any) {
	a.log(slog.LevelWarn, msg, tags...)
}

// Error implements logger.Logger.
func (a *appLogger) Error(msg string, tags ...any) {
	a.log(slog.LevelError, msg, tags...)
}

// log records the caller's PC so AddSource points at the call site rather
// than this package.
func (a *appLogger) log(level slog.Level, msg string, tags ...any) {
	if !a.logger.Enabled(context.Background(), level) {
		return
	}
	if !a.debug {
		a.logger.Log(context.Background(), level, msg, tags...)
		return
	}

	var pcs [1]uintptr
	runtime.Callers(3, pcs[:]) // Skip runtime.Callers, log, and the level method

	record := slog.NewRecord(time.Now(), level, msg, pcs[0])
	record.Add(tags...)
	_ = a.logger.Handler().Handle(context.Background(), record)
}

// With implements logger.Logger.
func (a *appLogger) With(attrs ...any) Logger {
	return &appLogger{
		logger: a.logger.With(attrs...),
		debug:  a.debug,
	}
}

// WithGroup implements logger.Logger.
func (a *appLogger) WithGroup(name string) Logger {
	return &appLogger{
		logger: a.logger.WithGroup(name),
		debug:  a.debug,
	}
}
