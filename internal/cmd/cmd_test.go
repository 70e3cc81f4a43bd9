package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailor-analysis/tailor/internal/build"
)

var tailorEnv = []string{
	"HOME", "DEBUG", "LOG_FORMAT", "QUIET", "DRY_RUN",
	"JAVA", "JAVA_OPTIONS", "ENGINE_ARCHIVE", "LIB_DIR", "ENGINE_PROFILE",
	"JAVAC", "SOURCE_DIR", "BUILD_DIR", "CONFIG",
}

// setupEnv isolates the command from the host configuration and pins it to
// an empty config file.
func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JAVA_HOME", "")
	for _, name := range tailorEnv {
		t.Setenv("TAILOR_"+name, "")
		require.NoError(t, os.Unsetenv("TAILOR_"+name))
	}
	cfgFile := filepath.Join(t.TempDir(), "tailor.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("quiet: true\n"), 0600))
	t.Setenv("TAILOR_CONFIG", cfgFile)
}

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(cmd *cobra.Command, args ...string) result {
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(""))
	// A nil slice would make cobra fall back to os.Args.
	cmd.SetArgs(append([]string{}, args...))
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// fakeJava writes a script that prints its arguments one per line and exits
// with code.
func fakeJava(t *testing.T, code string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}
	path := filepath.Join(t.TempDir(), "java")
	script := "#!/bin/sh\nfor a in \"$@\"; do echo \"$a\"; done\nexit " + code + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0700))
	return path
}

func TestLaunch_Help(t *testing.T) {
	setupEnv(t)

	for _, args := range [][]string{
		{"-help"},
		{"-sc-file", "crit.txt", "-help"},
		{"-bogus", "-help"},
	} {
		res := execute(CmdLaunch(), args...)
		require.NoError(t, res.err, args)
		assert.True(t, strings.HasPrefix(res.stdout, "Usage: tailor [options]"), res.stdout)
		assert.Contains(t, res.stdout, "-sc-file")
		assert.Contains(t, res.stdout, "-reflection-log")
		assert.Equal(t, 0, ExitCode(res.err))
	}
}

func TestLaunch_DryRun(t *testing.T) {
	setupEnv(t)
	t.Setenv("TAILOR_DRY_RUN", "true")

	res := execute(CmdLaunch(), "-sc-file", "crit.txt")
	require.NoError(t, res.err)
	assert.Equal(t,
		"java -cp 'build/tailor.jar:lib/*' -Xmx64G tailor.Driver -sc-file crit.txt "+
			"-w -app -p cg.spark enabled -keep-line-number -src-prec c -f n\n",
		res.stdout)
}

func TestLaunch_UsageErrors(t *testing.T) {
	setupEnv(t)

	tests := []struct {
		name    string
		args    []string
		env     map[string]string
		wantErr string
	}{
		{name: "UnknownOption", args: []string{"-sc-file", "c", "-bogus"}, wantErr: "unknown option: -bogus"},
		{name: "MissingValue", args: []string{"-sc-file"}, wantErr: "missing value: option -sc-file requires a value"},
		{name: "MissingSCFile", args: []string{"-cp", "a.jar"}, wantErr: "missing required option: -sc-file"},
		{name: "NoArguments", args: nil, wantErr: "missing required option: -sc-file"},
		{name: "InvalidJREDirectory", args: []string{"-sc-file", "c", "-jre-lib", "/nonexistent/jre"}, wantErr: "invalid JRE directory: /nonexistent/jre"},
		{name: "UnknownProfile", args: []string{"-sc-file", "c"}, env: map[string]string{"TAILOR_ENGINE_PROFILE": "99"}, wantErr: "unknown engine profile"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			res := execute(CmdLaunch(), tt.args...)
			require.Error(t, res.err)
			assert.Equal(t, exitUsage, ExitCode(res.err))
			assert.Contains(t, res.stderr, tt.wantErr)
			assert.Contains(t, res.stderr, "tailor -help")
			assert.Empty(t, res.stdout, "nothing is printed or run")
		})
	}
}

func TestLaunch_RunsEngine(t *testing.T) {
	setupEnv(t)
	java := fakeJava(t, "0")
	t.Setenv("TAILOR_JAVA", java)
	t.Setenv("TAILOR_JAVA_OPTIONS", "-Xss16m")

	res := execute(CmdLaunch(), "-sc-file", "crit.txt", "-cp", "a.jar:b.jar", "-main-class", "App")
	require.NoError(t, res.err)

	lines := strings.Split(strings.TrimSuffix(res.stdout, "\n"), "\n")
	require.NotEmpty(t, lines)
	// The command string comes first, then the engine's own output.
	assert.True(t, strings.HasPrefix(lines[0], java+" -cp build/tailor.jar:lib/* -Xss16m -Xmx64G tailor.Driver"), lines[0])
	assert.True(t, strings.HasSuffix(lines[0], "-main-class App App"), lines[0])
	assert.Equal(t, strings.Fields(lines[0])[1:], lines[1:])
}

func TestLaunch_EngineExitStatus(t *testing.T) {
	setupEnv(t)
	t.Setenv("TAILOR_JAVA", fakeJava(t, "5"))

	res := execute(CmdLaunch(), "-sc-file", "crit.txt")
	require.Error(t, res.err)
	assert.Equal(t, 5, ExitCode(res.err))
}

func TestLaunch_EngineNotFound(t *testing.T) {
	setupEnv(t)
	t.Setenv("TAILOR_JAVA", filepath.Join(t.TempDir(), "no-java"))

	res := execute(CmdLaunch(), "-sc-file", "crit.txt")
	require.Error(t, res.err)
	assert.Equal(t, 127, ExitCode(res.err))
	// The command is printed before the start is attempted.
	assert.Contains(t, res.stdout, "-sc-file crit.txt")
}

func TestLaunch_ConfigError(t *testing.T) {
	setupEnv(t)
	t.Setenv("TAILOR_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	res := execute(CmdLaunch(), "-help")
	require.Error(t, res.err)
	assert.Equal(t, 1, ExitCode(res.err))
	assert.Contains(t, res.stderr, "Initialization error")
}

func TestAssemble(t *testing.T) {
	setupEnv(t)
	if runtime.GOOS == "windows" {
		t.Skip("requires sh")
	}

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src", "tailor"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "tailor", "Driver.java"), []byte("class Driver {}"), 0600))

	javac := filepath.Join(t.TempDir(), "javac")
	script := `#!/bin/sh
while [ $# -gt 0 ]; do
  case "$1" in
    -d) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
mkdir -p "$out/tailor" && echo class > "$out/tailor/Driver.class"
`
	require.NoError(t, os.WriteFile(javac, []byte(script), 0700))

	t.Setenv("TAILOR_HOME", root)
	t.Setenv("TAILOR_JAVAC", javac)

	res := execute(CmdAssemble(), "-q")
	require.NoError(t, res.err, res.stderr)
	assert.FileExists(t, filepath.Join(root, "build", "tailor.jar"))
	assert.FileExists(t, filepath.Join(root, "build", "bin", "tailor", "Driver.class"))
	assert.Empty(t, res.stderr)

	t.Run("NoSources", func(t *testing.T) {
		t.Setenv("TAILOR_HOME", t.TempDir())

		res := execute(CmdAssemble())
		require.Error(t, res.err)
		assert.Equal(t, 1, ExitCode(res.err))
	})

	t.Run("ExplicitConfigFlag", func(t *testing.T) {
		cfgFile := filepath.Join(t.TempDir(), "build.yaml")
		require.NoError(t, os.WriteFile(cfgFile, []byte("quiet: true\nhome: "+root+"\n"), 0600))
		t.Setenv("TAILOR_HOME", "")
		require.NoError(t, os.Unsetenv("TAILOR_HOME"))

		res := execute(CmdAssemble(), "--config", cfgFile)
		require.NoError(t, res.err, res.stderr)
	})
}

func TestVersion(t *testing.T) {
	setupEnv(t)

	res := execute(CmdAssemble(), "version")
	require.NoError(t, res.err)
	assert.Equal(t, build.Version+"\n", res.stdout)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(errors.New("boom")))
	assert.Equal(t, 2, ExitCode(&ExitError{Code: 2, Err: errors.New("usage")}))

	cause := errors.New("inner")
	wrapped := &ExitError{Code: 42, Err: cause}
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "inner", wrapped.Error())
}
