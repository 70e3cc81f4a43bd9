package main

import (
	"os"

	"github.com/tailor-analysis/tailor/internal/build"
	"github.com/tailor-analysis/tailor/internal/cmd"
)

func main() {
	if err := cmd.CmdLaunch().Execute(); err != nil {
		os.Exit(cmd.ExitCode(err))
	}
}

func init() {
	build.Version = version
}

var version = "0.0.0"
