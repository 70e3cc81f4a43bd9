package cmd

import (
	"github.com/spf13/cobra"
)

type commandLineFlag struct {
	name, shorthand, defaultValue, usage string
	isBool                               bool
}

var (
	configFlag = commandLineFlag{
		name:      "config",
		shorthand: "c",
		usage:     "config file (default is ./tailor.yaml or $XDG_CONFIG_HOME/tailor/tailor.yaml)",
	}
	quietFlag = commandLineFlag{
		name:      "quiet",
		shorthand: "q",
		usage:     "suppress log output",
		isBool:    true,
	}
)

func initFlags(cmd *cobra.Command, flags ...commandLineFlag) {
	for _, flag := range flags {
		if flag.isBool {
			cmd.Flags().BoolP(flag.name, flag.shorthand, flag.defaultValue == "true", flag.usage)
			continue
		}
		cmd.Flags().StringP(flag.name, flag.shorthand, flag.defaultValue, flag.usage)
	}
}
