package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tailor-analysis/tailor/internal/build"
	"github.com/tailor-analysis/tailor/internal/cmn/config"
	"github.com/tailor-analysis/tailor/internal/cmn/logger"
	"github.com/tailor-analysis/tailor/internal/cmn/logger/tag"
	"github.com/tailor-analysis/tailor/internal/launcher"
	"github.com/tailor-analysis/tailor/internal/pathsep"
)

// configEnv names a config file for commands that take no flags of their
// own.
var configEnv = strings.ToUpper(build.Slug) + "_CONFIG"

// Context holds the configuration for a command.
type Context struct {
	context.Context

	Command   *cobra.Command
	Config    *config.Config
	Separator pathsep.Separator
	Stdout    io.Writer
	Stderr    io.Writer
	Launcher  *launcher.Launcher
}

// NewContext loads the configuration, sets up the logger in the context,
// and logs any warnings.
func NewContext(cmd *cobra.Command) (*Context, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	var loaderOpts []config.ConfigLoaderOption
	if cfgPath := configPath(cmd); cfgPath != "" {
		loaderOpts = append(loaderOpts, config.WithConfigFile(cfgPath))
	}

	cfg, err := config.Load(loaderOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	quiet := cfg.Quiet
	if q, err := cmd.Flags().GetBool(quietFlag.name); err == nil && q {
		quiet = true
	}

	opts := []logger.Option{
		logger.WithConsole(cmd.ErrOrStderr()),
		logger.WithFormat(cfg.LogFormat),
	}
	if cfg.Debug {
		opts = append(opts, logger.WithDebug())
	}
	if quiet {
		opts = append(opts, logger.WithQuiet())
	}
	ctx = logger.WithLogger(ctx, logger.NewLogger(opts...))

	for _, w := range cfg.Warnings {
		logger.Warn(ctx, w)
	}
	if cfg.ConfigFileUsed != "" {
		logger.Debug(ctx, "Configuration loaded", tag.Config(cfg.ConfigFileUsed))
	}

	return &Context{
		Context:   ctx,
		Command:   cmd,
		Config:    cfg,
		Separator: pathsep.Host(),
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
		Launcher: &launcher.Launcher{
			Stdin:   cmd.InOrStdin(),
			Stdout:  cmd.OutOrStdout(),
			Stderr:  cmd.ErrOrStderr(),
			Signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
		},
	}, nil
}

func configPath(cmd *cobra.Command) string {
	if p, err := cmd.Flags().GetString(configFlag.name); err == nil && p != "" {
		return p
	}
	return os.Getenv(configEnv)
}

// NewCommand wires runFunc into cmd behind context setup. Errors are
// returned to the caller, which maps them to an exit status with ExitCode.
func NewCommand(cmd *cobra.Command, flags []commandLineFlag, runFunc func(ctx *Context, args []string) error) *cobra.Command {
	initFlags(cmd, flags...)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx, err := NewContext(cmd)
		if err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Initialization error: %v\n", err)
			return &ExitError{Code: exitFailure, Err: err}
		}
		return runFunc(ctx, args)
	}

	return cmd
}
