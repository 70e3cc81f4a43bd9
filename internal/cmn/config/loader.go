package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/adrg/xdg"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"mvdan.cc/sh/v3/shell"

	"github.com/tailor-analysis/tailor/internal/build"
	"github.com/tailor-analysis/tailor/internal/cmn/fileutil"
)

// Defaults match the layout of a source checkout of the engine.
const (
	DefaultJava      = "java"
	DefaultJavac     = "javac"
	DefaultArchive   = "build/tailor.jar"
	DefaultLibDir    = "lib"
	DefaultSourceDir = "src"
	DefaultOutputDir = "build/bin"
	DefaultLogFormat = "text"
)

// ConfigLoader reads and merges configuration from the config file, a
// .env file and the environment.
type ConfigLoader struct {
	v          *viper.Viper
	configFile string
	homeDir    string
	workDir    string
	skipDotEnv bool
	warnings   []string
}

// ConfigLoaderOption defines a functional option for configuring a ConfigLoader.
type ConfigLoaderOption func(*ConfigLoader)

// WithConfigFile sets an explicit configuration file. The file must exist.
func WithConfigFile(configFile string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.configFile = configFile
	}
}

// WithHomeDir overrides the home directory from the config file and
// environment.
func WithHomeDir(dir string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.homeDir = dir
	}
}

// WithWorkDir sets the directory searched for tailor.yaml and .env.
// Defaults to the process working directory.
func WithWorkDir(dir string) ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.workDir = dir
	}
}

// WithoutDotEnv disables loading the .env file.
func WithoutDotEnv() ConfigLoaderOption {
	return func(l *ConfigLoader) {
		l.skipDotEnv = true
	}
}

// NewConfigLoader creates a ConfigLoader with the given viper instance and options.
func NewConfigLoader(v *viper.Viper, options ...ConfigLoaderOption) *ConfigLoader {
	loader := &ConfigLoader{v: v}
	for _, opt := range options {
		opt(loader)
	}
	return loader
}

// Load loads the configuration with a fresh viper instance.
func Load(options ...ConfigLoaderOption) (*Config, error) {
	return NewConfigLoader(viper.New(), options...).Load()
}

// Load reads configuration files, applies defaults and environment overrides,
// and returns a validated Config instance.
func (l *ConfigLoader) Load() (*Config, error) {
	if l.workDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("could not determine working directory: %w", err)
		}
		l.workDir = wd
	}

	if err := l.loadDotEnv(); err != nil {
		return nil, err
	}

	l.configureViper()
	l.bindEnvironmentVariables()
	l.setViperDefaultValues()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var def Definition
	if err := l.v.Unmarshal(&def, viper.DecodeHook(fieldsHookFunc())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg, err := l.buildConfig(def)
	if err != nil {
		return nil, fmt.Errorf("failed to build config: %w", err)
	}

	if used := l.v.ConfigFileUsed(); used != "" {
		if cfg.ConfigFileUsed, err = fileutil.ResolvePath(used); err != nil {
			return nil, err
		}
	}
	cfg.Warnings = l.warnings

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *ConfigLoader) loadDotEnv() error {
	if l.skipDotEnv {
		return nil
	}
	path := filepath.Join(l.workDir, ".env")
	if !fileutil.FileExists(path) {
		return nil
	}
	// Variables already in the environment take precedence.
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

func (l *ConfigLoader) buildConfig(def Definition) (*Config, error) {
	home := def.Home
	if l.homeDir != "" {
		home = l.homeDir
	}
	home, err := fileutil.ResolvePath(home)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home %q: %w", def.Home, err)
	}
	if home != "" && !fileutil.IsDir(home) {
		l.warnings = append(l.warnings, fmt.Sprintf("Home directory %s does not exist", home))
	}

	logFormat := strings.ToLower(def.LogFormat)
	if logFormat != "text" && logFormat != "json" {
		l.warnings = append(l.warnings, fmt.Sprintf("Invalid log_format %q, using %q", def.LogFormat, DefaultLogFormat))
		logFormat = DefaultLogFormat
	}

	cfg := &Config{
		Home:      home,
		Debug:     def.Debug,
		LogFormat: logFormat,
		Quiet:     def.Quiet,
		DryRun:    def.DryRun,
		Engine: Engine{
			Java:        javaTool(def.Engine.Java, DefaultJava),
			JavaOptions: def.Engine.JavaOptions,
			Archive:     fileutil.JoinUnder(home, filepath.FromSlash(def.Engine.Archive)),
			LibDir:      fileutil.JoinUnder(home, filepath.FromSlash(def.Engine.LibDir)),
			Profile:     def.Engine.Profile,
		},
		Build: Build{
			Javac:     javaTool(def.Build.Javac, DefaultJavac),
			SourceDir: fileutil.JoinUnder(home, filepath.FromSlash(def.Build.SourceDir)),
			OutputDir: fileutil.JoinUnder(home, filepath.FromSlash(def.Build.OutputDir)),
		},
	}
	return cfg, nil
}

// javaTool returns the configured JDK tool, falling back to the one under
// JAVA_HOME and then to the bare name looked up on PATH.
func javaTool(configured, name string) string {
	if configured != "" {
		return configured
	}
	if javaHome := os.Getenv("JAVA_HOME"); javaHome != "" {
		return filepath.Join(javaHome, "bin", name)
	}
	return name
}

func (l *ConfigLoader) setViperDefaultValues() {
	l.v.SetDefault("home", "")
	l.v.SetDefault("debug", false)
	l.v.SetDefault("log_format", DefaultLogFormat)
	l.v.SetDefault("quiet", false)
	l.v.SetDefault("dry_run", false)

	// Engine
	l.v.SetDefault("engine.java", "")
	l.v.SetDefault("engine.java_options", []string{})
	l.v.SetDefault("engine.archive", DefaultArchive)
	l.v.SetDefault("engine.lib_dir", DefaultLibDir)
	l.v.SetDefault("engine.profile", "")

	// Build
	l.v.SetDefault("build.javac", "")
	l.v.SetDefault("build.source_dir", DefaultSourceDir)
	l.v.SetDefault("build.output_dir", DefaultOutputDir)
}

type envBinding struct {
	key    string
	env    string
	isPath bool
}

var envBindings = []envBinding{
	{key: "home", env: "HOME", isPath: true},
	{key: "debug", env: "DEBUG"},
	{key: "log_format", env: "LOG_FORMAT"},
	{key: "quiet", env: "QUIET"},
	{key: "dry_run", env: "DRY_RUN"},

	// Engine
	{key: "engine.java", env: "JAVA"},
	{key: "engine.java_options", env: "JAVA_OPTIONS"},
	{key: "engine.archive", env: "ENGINE_ARCHIVE", isPath: true},
	{key: "engine.lib_dir", env: "LIB_DIR", isPath: true},
	{key: "engine.profile", env: "ENGINE_PROFILE"},

	// Build
	{key: "build.javac", env: "JAVAC"},
	{key: "build.source_dir", env: "SOURCE_DIR", isPath: true},
	{key: "build.output_dir", env: "BUILD_DIR", isPath: true},
}

func (l *ConfigLoader) bindEnvironmentVariables() {
	prefix := strings.ToUpper(build.Slug) + "_"

	for _, b := range envBindings {
		fullEnv := prefix + b.env

		if b.isPath {
			if val := os.Getenv(fullEnv); val != "" {
				if abs, err := filepath.Abs(val); err == nil && abs != val {
					_ = os.Setenv(fullEnv, abs)
				}
			}
		}

		_ = l.v.BindEnv(b.key, fullEnv)
	}
}

func (l *ConfigLoader) configureViper() {
	if l.configFile == "" {
		l.v.AddConfigPath(l.workDir)
		l.v.AddConfigPath(filepath.Join(xdg.ConfigHome, build.Slug))
		l.v.SetConfigName(build.Slug)
	} else {
		l.v.SetConfigFile(l.configFile)
	}
	l.v.SetConfigType("yaml")
	l.v.SetEnvPrefix(strings.ToUpper(build.Slug))
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	l.v.AutomaticEnv()
}

// fieldsHookFunc splits a string into shell words when the target is a
// string slice, the way JVM options are written in JAVA_OPTS.
func fieldsHookFunc() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to != reflect.TypeOf([]string{}) {
			return data, nil
		}
		fields, err := shell.Fields(data.(string), nil)
		if err != nil {
			return nil, fmt.Errorf("invalid option list %q: %w", data, err)
		}
		return fields, nil
	}
}
