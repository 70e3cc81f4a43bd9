package config

// Definition mirrors the keys accepted in the config file and environment.
type Definition struct {
	// Home is the directory relative engine and build paths are resolved
	// against. Empty means the working directory.
	Home string `mapstructure:"home"`

	// Debug enables debug logging with source locations.
	Debug bool `mapstructure:"debug"`

	// LogFormat is "text" or "json".
	LogFormat string `mapstructure:"log_format"`

	// Quiet suppresses log output on stderr.
	Quiet bool `mapstructure:"quiet"`

	// DryRun prints the engine command without running it.
	DryRun bool `mapstructure:"dry_run"`

	Engine EngineDef `mapstructure:"engine"`
	Build  BuildDef  `mapstructure:"build"`
}

// EngineDef configures how the engine is started.
type EngineDef struct {
	Java        string   `mapstructure:"java"`
	JavaOptions []string `mapstructure:"java_options"`
	Archive     string   `mapstructure:"archive"`
	LibDir      string   `mapstructure:"lib_dir"`
	Profile     string   `mapstructure:"profile"`
}

// BuildDef configures the build assembler.
type BuildDef struct {
	Javac     string `mapstructure:"javac"`
	SourceDir string `mapstructure:"source_dir"`
	OutputDir string `mapstructure:"output_dir"`
}
