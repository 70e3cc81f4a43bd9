// Package compose builds the engine command line from a parsed options
// Record.
package compose

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tailor-analysis/tailor/internal/options"
	"github.com/tailor-analysis/tailor/internal/pathsep"
)

var ErrInvalidJREDirectory = errors.New("invalid JRE directory")

// Defaults for Env fields left empty.
const (
	DefaultJava          = "java"
	DefaultEngineArchive = "build/tailor.jar"
	DefaultLibDir        = "lib"
)

// Env describes where the engine lives and how to start it.
type Env struct {
	Separator pathsep.Separator
	// Java is the JVM launcher binary.
	Java string
	// JavaOptions are extra JVM flags placed before the memory limit.
	JavaOptions []string
	// EngineArchive is the packaged engine produced by the build step.
	EngineArchive string
	// LibDir holds the engine's third-party libraries.
	LibDir  string
	Profile Profile
}

// StatFunc reports file information, like os.Stat.
type StatFunc func(name string) (os.FileInfo, error)

// Composer turns Records into engine Commands.
type Composer struct {
	env  Env
	stat StatFunc
}

// Option configures a Composer.
type Option func(*Composer)

// WithStat replaces the function used to check the JRE directory.
func WithStat(fn StatFunc) Option {
	return func(c *Composer) {
		c.stat = fn
	}
}

// New returns a Composer for env. Empty fields of env take their defaults.
func New(env Env, opts ...Option) *Composer {
	if env.Separator == "" {
		env.Separator = pathsep.Host()
	}
	if env.Java == "" {
		env.Java = DefaultJava
	}
	if env.EngineArchive == "" {
		env.EngineArchive = filepath.FromSlash(DefaultEngineArchive)
	}
	if env.LibDir == "" {
		env.LibDir = DefaultLibDir
	}
	if env.Profile.Version == "" {
		env.Profile = ProfileV1
	}

	c := &Composer{env: env, stat: os.Stat}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compose builds the engine invocation for rec. The fragment order is
// fixed and does not depend on the order options were given in.
func (c *Composer) Compose(rec *options.Record) (*Command, error) {
	if err := options.Validate(rec); err != nil {
		return nil, err
	}

	env := c.env
	prof := env.Profile
	cmd := &Command{}

	cmd.append(env.Java, "-cp", env.Separator.Join(env.EngineArchive, filepath.Join(env.LibDir, "*")))
	cmd.append(env.JavaOptions...)
	cmd.append(prof.MemoryLimit, prof.EntryPoint)

	scFile, _ := rec.Lookup(options.KeySCFile)
	cmd.append(options.KeySCFile.Flag(), scFile)

	for _, k := range []options.Key{options.KeyOutDir, options.KeyExtendSC} {
		if v, ok := rec.Lookup(k); ok {
			cmd.append(k.Flag(), v)
		}
	}

	cmd.append(prof.AnalysisMode...)

	classpath, err := c.analysisClasspath(rec)
	if err != nil {
		return nil, err
	}
	if len(classpath) > 0 {
		cmd.append(options.KeyClasspath.Flag(), env.Separator.Join(classpath...))
	}

	cmd.append(prof.CallGraph...)

	if v, ok := rec.Lookup(options.KeyReflectionLog); ok {
		cmd.append(prof.reflectionLog(v)...)
	}

	cmd.append(prof.Precision...)

	if v, ok := rec.Lookup(options.KeyMainClass); ok {
		// The engine reads the class once as the flag value and once as
		// the class to analyse.
		cmd.append(options.KeyMainClass.Flag(), v, v)
	}

	return cmd, nil
}

// analysisClasspath returns the JRE archives followed by the application
// classpath entries.
func (c *Composer) analysisClasspath(rec *options.Record) ([]string, error) {
	var entries []string

	if dir, ok := rec.Lookup(options.KeyJRELib); ok {
		archives := c.env.Profile.JREArchives
		if len(archives) > 0 {
			if _, err := c.stat(filepath.Join(dir, archives[0])); err != nil {
				return nil, fmt.Errorf("%w: %s", ErrInvalidJREDirectory, dir)
			}
		}
		for _, a := range archives {
			entries = append(entries, filepath.Join(dir, a))
		}
	}

	return append(entries, rec.Classpath()...), nil
}

// Command is an engine invocation: an ordered list of fragments.
type Command struct {
	fragments []string
}

func (c *Command) append(frags ...string) {
	c.fragments = append(c.fragments, frags...)
}

// String returns the fragments joined by single spaces.
func (c *Command) String() string {
	return strings.Join(c.fragments, " ")
}

// Program returns the executable to run.
func (c *Command) Program() string {
	if len(c.fragments) == 0 {
		return ""
	}
	return c.fragments[0]
}

// Args returns the arguments passed to Program.
func (c *Command) Args() []string {
	if len(c.fragments) < 2 {
		return nil
	}
	return slices.Clone(c.fragments[1:])
}

// Fragments returns a copy of every fragment, program included.
func (c *Command) Fragments() []string {
	return slices.Clone(c.fragments)
}
