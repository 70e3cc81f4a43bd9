package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tailor-analysis/tailor/internal/assembler"
	"github.com/tailor-analysis/tailor/internal/build"
	"github.com/tailor-analysis/tailor/internal/cmn/logger"
	"github.com/tailor-analysis/tailor/internal/cmn/logger/tag"
)

// CmdAssemble returns the root command of the build assembler.
func CmdAssemble() *cobra.Command {
	cmd := NewCommand(
		&cobra.Command{
			Use:   build.Slug + "-build",
			Short: "Compile and package the " + build.AppName + " engine",
			Long: `Compile every Java source under the source directory and package the
classes into the engine archive used by ` + build.Slug + `.

Directories are taken from the configuration; every run is a full rebuild.`,
			Args: cobra.NoArgs,
		}, []commandLineFlag{configFlag, quietFlag}, runAssemble,
	)
	cmd.AddCommand(CmdVersion())
	return cmd
}

func runAssemble(ctx *Context, _ []string) error {
	b := ctx.Config.Build
	a := assembler.New(
		assembler.Layout{
			SourceDir: b.SourceDir,
			LibDir:    ctx.Config.Engine.LibDir,
			BuildDir:  b.OutputDir,
			Archive:   ctx.Config.Engine.Archive,
		},
		assembler.WithJavac(b.Javac),
		assembler.WithSeparator(ctx.Separator),
		assembler.WithRunner(ctx.Launcher),
	)

	if err := a.Assemble(ctx); err != nil {
		logger.Error(ctx, "Build failed", tag.Error(err))
		return err
	}
	logger.Info(ctx, "Build finished", tag.File(a.Layout().Archive))
	return nil
}
