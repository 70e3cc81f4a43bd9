package config

import (
	"fmt"
	"slices"
)

// Config is the resolved launcher and build configuration.
type Config struct {
	Home      string
	Debug     bool
	LogFormat string
	Quiet     bool
	DryRun    bool

	Engine Engine
	Build  Build

	// ConfigFileUsed is the config file that was read, if any.
	ConfigFileUsed string
	// Warnings collects non-fatal problems found while loading.
	Warnings []string
}

// Engine holds the resolved engine settings.
type Engine struct {
	Java        string
	JavaOptions []string
	Archive     string
	LibDir      string
	Profile     string
}

// Build holds the resolved build assembler settings.
type Build struct {
	Javac     string
	SourceDir string
	OutputDir string
}

var validLogFormats = []string{"text", "json"}

// Validate checks the resolved configuration for values no component
// could use.
func (c *Config) Validate() error {
	if !slices.Contains(validLogFormats, c.LogFormat) {
		return fmt.Errorf("invalid log format %q: must be one of %v", c.LogFormat, validLogFormats)
	}
	if c.Engine.Java == "" {
		return fmt.Errorf("engine java binary must not be empty")
	}
	if c.Engine.Archive == "" {
		return fmt.Errorf("engine archive path must not be empty")
	}
	if c.Build.OutputDir == "" {
		return fmt.Errorf("build output directory must not be empty")
	}
	return nil
}
