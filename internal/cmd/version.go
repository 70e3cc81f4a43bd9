package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailor-analysis/tailor/internal/build"
)

func CmdVersion() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display the binary version",
		Long:  `Print the current version of the ` + build.AppName + ` tools.`,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), build.Version)
		},
	}
}
