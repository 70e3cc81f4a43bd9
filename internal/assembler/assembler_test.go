package assembler

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailor-analysis/tailor/internal/launcher"
	"github.com/tailor-analysis/tailor/internal/pathsep"
)

// fakeCompiler stands in for javac: it records the command and writes one
// class file per source into the -d directory.
type fakeCompiler struct {
	argv []string
	err  error
}

func (f *fakeCompiler) Run(_ context.Context, cmd launcher.Command) error {
	f.argv = append([]string{cmd.Program()}, cmd.Args()...)
	if f.err != nil {
		return f.err
	}

	args := cmd.Args()
	out := args[slices.Index(args, "-d")+1]
	for _, src := range args[slices.Index(args, "-d")+2:] {
		name := strings.TrimSuffix(filepath.Base(src), ".java") + ".class"
		if err := os.MkdirAll(filepath.Join(out, "tailor"), 0750); err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(out, "tailor", name), []byte("class"), 0600); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0600))
}

// checkout creates an engine checkout with two sources and two libraries.
func checkout(t *testing.T) Layout {
	t.Helper()
	root := t.TempDir()
	layout := Layout{
		SourceDir: filepath.Join(root, "src"),
		LibDir:    filepath.Join(root, "lib"),
		BuildDir:  filepath.Join(root, "build", "bin"),
		Archive:   filepath.Join(root, "build", "tailor.jar"),
	}
	writeFile(t, filepath.Join(layout.SourceDir, "tailor", "Driver.java"))
	writeFile(t, filepath.Join(layout.SourceDir, "tailor", "cg", "Spark.java"))
	writeFile(t, filepath.Join(layout.SourceDir, "README"))
	writeFile(t, filepath.Join(layout.LibDir, "soot.jar"))
	writeFile(t, filepath.Join(layout.LibDir, "ext", "asm.jar"))
	return layout
}

func zipEntries(t *testing.T, path string) []string {
	t.Helper()
	r, err := zip.OpenReader(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	var names []string
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names
}

func TestDefaultLayout(t *testing.T) {
	t.Parallel()

	l := DefaultLayout()
	assert.Equal(t, "src", l.SourceDir)
	assert.Equal(t, "lib", l.LibDir)
	assert.Equal(t, filepath.Join("build", "bin"), l.BuildDir)
	assert.Equal(t, filepath.Join("build", "tailor.jar"), l.Archive)
	assert.Equal(t, l, New(Layout{}).Layout())
}

func TestFindSources(t *testing.T) {
	t.Parallel()

	layout := checkout(t)

	sources, err := FindSources(layout.SourceDir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(layout.SourceDir, "tailor", "Driver.java"),
		filepath.Join(layout.SourceDir, "tailor", "cg", "Spark.java"),
	}, sources)

	missing, err := FindSources(filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestCompileClasspath(t *testing.T) {
	t.Parallel()

	layout := checkout(t)

	cp, err := CompileClasspath(layout, pathsep.Colon)
	require.NoError(t, err)
	assert.Equal(t, strings.Join([]string{
		filepath.Join(layout.LibDir, "ext", "asm.jar"),
		filepath.Join(layout.LibDir, "soot.jar"),
		layout.SourceDir,
	}, ":"), cp)

	t.Run("NoLibraries", func(t *testing.T) {
		t.Parallel()
		cp, err := CompileClasspath(Layout{SourceDir: "src", LibDir: filepath.Join(t.TempDir(), "none")}, pathsep.Semicolon)
		require.NoError(t, err)
		assert.Equal(t, "src", cp)
	})
}

func TestCompile(t *testing.T) {
	t.Parallel()

	layout := checkout(t)
	fc := &fakeCompiler{}
	a := New(layout, WithRunner(fc), WithJavac("/opt/jdk/bin/javac"), WithSeparator(pathsep.Colon))

	require.NoError(t, a.Compile(context.Background()))

	cp, err := CompileClasspath(layout, pathsep.Colon)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"/opt/jdk/bin/javac", "-cp", cp, "-d", layout.BuildDir,
		filepath.Join(layout.SourceDir, "tailor", "Driver.java"),
		filepath.Join(layout.SourceDir, "tailor", "cg", "Spark.java"),
	}, fc.argv)
	assert.DirExists(t, layout.BuildDir)
}

func TestCompile_NoSources(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	fc := &fakeCompiler{}
	a := New(Layout{
		SourceDir: filepath.Join(root, "src"),
		BuildDir:  filepath.Join(root, "bin"),
	}, WithRunner(fc))

	err := a.Compile(context.Background())
	require.ErrorIs(t, err, ErrNoSources)
	assert.Nil(t, fc.argv, "compiler must not run")
}

func TestCompile_Failure(t *testing.T) {
	t.Parallel()

	layout := checkout(t)
	cause := &launcher.ExitError{Code: 1}
	a := New(layout, WithRunner(&fakeCompiler{err: cause}))

	err := a.Compile(context.Background())
	require.ErrorIs(t, err, ErrCompile)
	assert.ErrorIs(t, err, launcher.ErrChildProcessFailure)

	var exitErr *launcher.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestPackage(t *testing.T) {
	t.Parallel()

	layout := checkout(t)
	writeFile(t, filepath.Join(layout.BuildDir, "tailor", "Driver.class"))
	writeFile(t, filepath.Join(layout.BuildDir, "tailor", "cg", "Spark.class"))

	a := New(layout)
	require.NoError(t, a.Package(context.Background()))

	names := zipEntries(t, layout.Archive)
	require.NotEmpty(t, names)
	assert.True(t, strings.HasPrefix(names[0], "META-INF"), "manifest entries come first: %v", names)
	assert.Contains(t, names, "META-INF/MANIFEST.MF")
	assert.Contains(t, names, "tailor/Driver.class")
	assert.Contains(t, names, "tailor/cg/Spark.class")
	for _, n := range names {
		assert.False(t, strings.HasPrefix(n, "bin"), "entries are rooted at the build directory: %s", n)
	}

	r, err := zip.OpenReader(layout.Archive)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()
	f, err := r.Open("META-INF/MANIFEST.MF")
	require.NoError(t, err)
	manifest, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(manifest), "Manifest-Version: 1.0\r\n"))

	// No temporary files are left next to the archive.
	entries, err := os.ReadDir(filepath.Dir(layout.Archive))
	require.NoError(t, err)
	for _, e := range entries {
		assert.False(t, strings.HasPrefix(e.Name(), ".tailor.jar"), e.Name())
	}
}

func TestPackage_BuildDirIsFile(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	// The build directory path is occupied by a file.
	bin := filepath.Join(root, "bin")
	writeFile(t, bin)

	a := New(Layout{BuildDir: bin, Archive: filepath.Join(root, "tailor.jar")})
	err := a.Package(context.Background())
	require.ErrorIs(t, err, ErrPackage)
	assert.NoFileExists(t, filepath.Join(root, "tailor.jar"))
}

func TestAssemble(t *testing.T) {
	t.Parallel()

	layout := checkout(t)
	fc := &fakeCompiler{}

	require.NoError(t, New(layout, WithRunner(fc)).Assemble(context.Background()))

	names := zipEntries(t, layout.Archive)
	assert.Contains(t, names, "tailor/Driver.class")
	assert.Contains(t, names, "tailor/Spark.class")
	assert.Contains(t, names, "META-INF/MANIFEST.MF")

	t.Run("StopsOnCompileFailure", func(t *testing.T) {
		t.Parallel()
		layout := checkout(t)
		err := New(layout, WithRunner(&fakeCompiler{err: errors.New("boom")})).Assemble(context.Background())
		require.ErrorIs(t, err, ErrCompile)
		assert.NoFileExists(t, layout.Archive)
	})
}

func TestAssemble_WithJavacScript(t *testing.T) {
	t.Parallel()
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	layout := checkout(t)
	javac := filepath.Join(t.TempDir(), "javac")
	script := `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    -d) out="$2"; shift 2 ;;
    -cp) shift 2 ;;
    *) shift ;;
  esac
done
mkdir -p "$out/tailor" && echo class > "$out/tailor/Driver.class"
`
	require.NoError(t, os.WriteFile(javac, []byte(script), 0700))

	l := &launcher.Launcher{Stdout: io.Discard, Stderr: io.Discard}
	a := New(layout, WithJavac(javac), WithRunner(l))
	require.NoError(t, a.Assemble(context.Background()))
	assert.Contains(t, zipEntries(t, layout.Archive), "tailor/Driver.class")

	t.Run("CompilerExitStatus", func(t *testing.T) {
		t.Parallel()
		failing := filepath.Join(t.TempDir(), "javac")
		require.NoError(t, os.WriteFile(failing, []byte("#!/bin/sh\nexit 1\n"), 0700))

		err := New(checkout(t), WithJavac(failing), WithRunner(l)).Compile(context.Background())
		require.ErrorIs(t, err, ErrCompile)
		var exitErr *launcher.ExitError
		require.ErrorAs(t, err, &exitErr)
		assert.Equal(t, 1, exitErr.Code)
	})
}

func TestEntryOrder(t *testing.T) {
	t.Parallel()

	names := []string{"tailor/Driver.class", "META-INF/MANIFEST.MF", "META-INF", "a.class"}
	slices.SortFunc(names, func(x, y string) int {
		return strings.Compare(entryOrder(x), entryOrder(y))
	})
	assert.Equal(t, []string{"META-INF", "META-INF/MANIFEST.MF", "a.class", "tailor/Driver.class"}, names)
}
