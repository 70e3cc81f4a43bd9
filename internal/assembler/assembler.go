// Package assembler compiles the engine sources and packages the classes
// into the archive the launcher puts on the engine classpath.
package assembler

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/mholt/archives"

	"github.com/tailor-analysis/tailor/internal/build"
	"github.com/tailor-analysis/tailor/internal/cmn/logger"
	"github.com/tailor-analysis/tailor/internal/cmn/logger/tag"
	"github.com/tailor-analysis/tailor/internal/launcher"
	"github.com/tailor-analysis/tailor/internal/pathsep"
)

var (
	ErrNoSources = errors.New("assembler: no sources found")
	ErrCompile   = errors.New("assembler: compilation failed")
	ErrPackage   = errors.New("assembler: packaging failed")
)

const (
	sourcePattern = "**/*.java"
	manifestPath  = "META-INF/MANIFEST.MF"
)

// Layout names the directories and files of an engine checkout.
type Layout struct {
	SourceDir string
	LibDir    string
	// BuildDir receives compiled classes.
	BuildDir string
	// Archive is the packaged engine.
	Archive string
}

// DefaultLayout returns the layout of a source checkout, relative to the
// working directory.
func DefaultLayout() Layout {
	return Layout{
		SourceDir: "src",
		LibDir:    "lib",
		BuildDir:  filepath.FromSlash("build/bin"),
		Archive:   filepath.FromSlash("build/tailor.jar"),
	}
}

// Runner runs a compiler command to completion.
type Runner interface {
	Run(ctx context.Context, cmd launcher.Command) error
}

// Assembler builds the engine archive from a Layout.
type Assembler struct {
	layout Layout
	javac  string
	sep    pathsep.Separator
	runner Runner
}

// Option configures an Assembler.
type Option func(*Assembler)

// WithJavac sets the compiler binary. Defaults to "javac".
func WithJavac(javac string) Option {
	return func(a *Assembler) {
		a.javac = javac
	}
}

// WithSeparator sets the classpath separator. Defaults to the host's.
func WithSeparator(sep pathsep.Separator) Option {
	return func(a *Assembler) {
		a.sep = sep
	}
}

// WithRunner replaces the launcher used to run the compiler.
func WithRunner(r Runner) Option {
	return func(a *Assembler) {
		a.runner = r
	}
}

// New returns an Assembler for layout. Empty fields take their defaults.
func New(layout Layout, opts ...Option) *Assembler {
	def := DefaultLayout()
	if layout.SourceDir == "" {
		layout.SourceDir = def.SourceDir
	}
	if layout.LibDir == "" {
		layout.LibDir = def.LibDir
	}
	if layout.BuildDir == "" {
		layout.BuildDir = def.BuildDir
	}
	if layout.Archive == "" {
		layout.Archive = def.Archive
	}

	a := &Assembler{
		layout: layout,
		javac:  "javac",
		sep:    pathsep.Host(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.runner == nil {
		a.runner = launcher.New()
	}
	return a
}

// Layout returns the layout the Assembler works on.
func (a *Assembler) Layout() Layout {
	return a.layout
}

// Assemble compiles every source and packages the result. Each call is a
// full rebuild.
func (a *Assembler) Assemble(ctx context.Context) error {
	if err := a.Compile(ctx); err != nil {
		return err
	}
	return a.Package(ctx)
}

// Compile runs the compiler over every source file, writing classes to
// the build directory.
func (a *Assembler) Compile(ctx context.Context) error {
	sources, err := FindSources(a.layout.SourceDir)
	if err != nil {
		return wrapError(ErrCompile, err)
	}
	if len(sources) == 0 {
		return fmt.Errorf("%w in %s", ErrNoSources, a.layout.SourceDir)
	}

	classpath, err := CompileClasspath(a.layout, a.sep)
	if err != nil {
		return wrapError(ErrCompile, err)
	}

	if err := os.MkdirAll(a.layout.BuildDir, 0750); err != nil {
		return wrapError(ErrCompile, err)
	}

	argv := launcher.Argv{a.javac, "-cp", classpath, "-d", a.layout.BuildDir}
	argv = append(argv, sources...)

	logger.Info(ctx, "Compiling sources",
		tag.Dir(a.layout.SourceDir),
		tag.Count(len(sources)),
	)
	logger.Debug(ctx, "Compiler command", tag.Command(argv))

	if err := a.runner.Run(ctx, argv); err != nil {
		return wrapError(ErrCompile, err)
	}
	return nil
}

// Package writes a jar manifest into the build directory and packages the
// directory's contents, rooted at the top of the archive, into the
// archive file.
func (a *Assembler) Package(ctx context.Context) error {
	if err := writeManifest(a.layout.BuildDir); err != nil {
		return wrapError(ErrPackage, err)
	}

	entries, err := os.ReadDir(a.layout.BuildDir)
	if err != nil {
		return wrapError(ErrPackage, err)
	}
	names := make(map[string]string, len(entries))
	for _, e := range entries {
		names[filepath.Join(a.layout.BuildDir, e.Name())] = e.Name()
	}

	files, err := archives.FilesFromDisk(ctx, nil, names)
	if err != nil {
		return wrapError(ErrPackage, err)
	}
	// The manifest goes first so streaming jar readers find it.
	slices.SortFunc(files, func(x, y archives.FileInfo) int {
		return strings.Compare(entryOrder(x.NameInArchive), entryOrder(y.NameInArchive))
	})

	if err := writeArchive(ctx, a.layout.Archive, files); err != nil {
		return wrapError(ErrPackage, err)
	}

	logger.Info(ctx, "Archive written", tag.File(a.layout.Archive), tag.Count(len(files)))
	return nil
}

// entryOrder returns a sort key that places META-INF ahead of every
// other entry and keeps the rest in lexical order.
func entryOrder(name string) string {
	if name == "META-INF" || strings.HasPrefix(name, "META-INF/") {
		return "\x00" + name
	}
	return name
}

func writeManifest(buildDir string) error {
	path := filepath.Join(buildDir, filepath.FromSlash(manifestPath))
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	content := "Manifest-Version: 1.0\r\n" +
		fmt.Sprintf("Created-By: %s-build %s\r\n", build.Slug, build.Version) +
		"\r\n"
	return os.WriteFile(path, []byte(content), 0600)
}

// writeArchive writes files to a temporary zip next to path and renames it
// into place.
func writeArchive(ctx context.Context, path string, files []archives.FileInfo) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := (archives.Zip{}).Archive(ctx, tmp, files); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// FindSources returns every .java file under root, sorted. A missing root
// has no sources.
func FindSources(root string) ([]string, error) {
	return findFiles(root, sourcePattern)
}

// CompileClasspath returns every file under the library directory
// followed by the source directory, joined with sep.
func CompileClasspath(layout Layout, sep pathsep.Separator) (string, error) {
	libs, err := findFiles(layout.LibDir, "**")
	if err != nil {
		return "", err
	}
	return sep.Join(append(libs, layout.SourceDir)...), nil
}

func findFiles(root, pattern string) ([]string, error) {
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, nil
	}
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("failed to search %s: %w", root, err)
	}
	slices.Sort(matches)

	paths := make([]string, 0, len(matches))
	for _, m := range matches {
		paths = append(paths, filepath.Join(root, filepath.FromSlash(m)))
	}
	return paths, nil
}

func wrapError(kind error, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", kind, err)
}
