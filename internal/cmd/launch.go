package cmd

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tailor-analysis/tailor/internal/build"
	"github.com/tailor-analysis/tailor/internal/cmn/cmdutil"
	"github.com/tailor-analysis/tailor/internal/cmn/logger"
	"github.com/tailor-analysis/tailor/internal/cmn/logger/tag"
	"github.com/tailor-analysis/tailor/internal/compose"
	"github.com/tailor-analysis/tailor/internal/launcher"
	"github.com/tailor-analysis/tailor/internal/options"
)

// CmdLaunch returns the root command of the launcher. Its arguments are
// the engine options and are passed to the option parser untouched.
func CmdLaunch() *cobra.Command {
	return NewCommand(
		&cobra.Command{
			Use:   build.Slug + " [options]",
			Short: "Run the " + build.AppName + " static analysis engine",
			Long: `Run the ` + build.AppName + ` whole-program static analysis engine.

The options are translated into the engine's command line, which is printed
and then executed. Run "` + build.Slug + ` -help" for the list of options.`,
			DisableFlagParsing: true,
			Args:               cobra.ArbitraryArgs,
		}, nil, runLaunch,
	)
}

func runLaunch(ctx *Context, args []string) error {
	rec, err := options.Parse(args, ctx.Separator)
	if err != nil {
		return usageError(ctx, err)
	}
	if rec.Help() {
		return options.Usage(ctx.Stdout, build.Slug)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("failed to generate run id: %w", err)
	}
	ctx.Context = logger.WithValues(ctx.Context, tag.RunID(id.String()))

	engine := ctx.Config.Engine
	profile, err := compose.ProfileFor(engine.Profile)
	if err != nil {
		return usageError(ctx, err)
	}

	composer := compose.New(compose.Env{
		Separator:     ctx.Separator,
		Java:          engine.Java,
		JavaOptions:   engine.JavaOptions,
		EngineArchive: engine.Archive,
		LibDir:        engine.LibDir,
		Profile:       profile,
	})
	command, err := composer.Compose(rec)
	if err != nil {
		return usageError(ctx, err)
	}

	logger.Debug(ctx, "Engine command composed",
		tag.Options(rec.Keys()),
		tag.Profile(profile.Version),
		tag.Command(command.Fragments()),
	)

	if ctx.Config.DryRun {
		line, err := cmdutil.QuoteArgs(command.Fragments())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(ctx.Stdout, line)
		return err
	}

	if _, err := fmt.Fprintln(ctx.Stdout, command.String()); err != nil {
		return err
	}

	if err := ctx.Launcher.Run(ctx, command); err != nil {
		var exitErr *launcher.ExitError
		if errors.As(err, &exitErr) {
			logger.Error(ctx, "Engine failed", tag.ExitCode(exitErr.Code), tag.Error(err))
			return &ExitError{Code: exitErr.Code, Err: err}
		}
		logger.Error(ctx, "Engine failed", tag.Error(err))
		return err
	}
	logger.Debug(ctx, "Engine finished")
	return nil
}

// usageError reports an error in the supplied options on stderr and maps
// it to the usage exit status.
func usageError(ctx *Context, err error) error {
	_, _ = fmt.Fprintf(ctx.Stderr, "%s: %v\nRun '%s -help' for usage.\n", build.Slug, err, build.Slug)
	return &ExitError{Code: exitUsage, Err: err}
}
