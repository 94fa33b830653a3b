package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiihann/mulbench/codec"
	"github.com/weiihann/mulbench/harness"
	"github.com/weiihann/mulbench/vector"
)

// fakeTimer multiplies with shell arithmetic, so operands must stay small.
const fakeTimer = `#!/bin/sh
echo $(($2 * $3))
echo "real 0.001000 user 0.000500 sys 0.000100" >&2
`

func execute(t *testing.T, out io.Writer, args ...string) error {
	t.Helper()

	root := newRootCmd(slog.New(slog.NewTextHandler(io.Discard, nil)), new(slog.LevelVar))
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(io.Discard)

	return root.ExecuteContext(context.Background())
}

func writeScript(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o755))
}

func TestGenerateCommand(t *testing.T) {
	data := filepath.Join(t.TempDir(), "data")

	err := execute(t, io.Discard,
		"generate", "--bits", "8,16", "-n", "5", "-o", data, "--codec", "zst", "--seed", "9")
	require.NoError(t, err)

	c, err := codec.Lookup("zst")
	require.NoError(t, err)

	runs, err := vector.Discover(data, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"8", "16"}, runs.Bits())
	assert.Len(t, runs["16"].Vectors, 5)
}

func TestGenerateCommandUnknownCodec(t *testing.T) {
	err := execute(t, io.Discard, "generate", "-o", t.TempDir(), "--codec", "rar")
	require.ErrorIs(t, err, codec.ErrUnknownCodec)
}

func TestGenerateThenRun(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs need a POSIX shell")
	}

	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	out := filepath.Join(dir, "out")
	timer := filepath.Join(dir, "ctime")
	prog := filepath.Join(dir, "schoolbook")

	writeScript(t, timer, fakeTimer)
	writeScript(t, prog, "#!/bin/sh\n")

	require.NoError(t, execute(t, io.Discard,
		"generate", "--bits", "8,16", "-n", "4", "-o", data, "--seed", "5"))

	var stdout bytes.Buffer
	require.NoError(t, execute(t, &stdout,
		"run", "-i", data, "-o", out, "--timer", timer, "--json", prog))

	var summaries []harness.Summary
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &summaries))
	require.Len(t, summaries, 2)

	for _, s := range summaries {
		assert.Equal(t, 4, s.Vectors)
		assert.Equal(t, 4, s.Correct)

		b, err := os.ReadFile(harness.CSVPath(out, prog, s.Bits))
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
		require.Len(t, lines, 5)
		assert.Equal(t, harness.CSVHeader, lines[0])
		assert.True(t, strings.HasSuffix(lines[1], ",0.001000,0.000500,0.000100"))
	}
}

func TestRunMissingInputDir(t *testing.T) {
	dir := t.TempDir()
	prog := filepath.Join(dir, "karatsuba")
	writeScript(t, prog, "#!/bin/sh\n")

	err := execute(t, io.Discard, "run", "-i", filepath.Join(dir, "absent"), prog)
	require.ErrorIs(t, err, vector.ErrInputDir)
}

func TestRunRequiresProgram(t *testing.T) {
	err := execute(t, io.Discard, "run", "-i", t.TempDir())
	require.Error(t, err)
}

func TestRunMissingProgram(t *testing.T) {
	dir := t.TempDir()

	err := execute(t, io.Discard, "run", "-i", dir, filepath.Join(dir, "absent"))
	require.ErrorIs(t, err, harness.ErrProgram)
}

func TestRunDefaultsWithRelativePrograms(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs need a POSIX shell")
	}

	chdir(t, t.TempDir())

	writeScript(t, "ctime", fakeTimer)
	require.NoError(t, os.MkdirAll("bin", 0o755))

	programs := []string{"karatsuba", "./schoolbook", "bin/fft"}
	for _, p := range programs {
		writeScript(t, p, "#!/bin/sh\n")
	}

	require.NoError(t, execute(t, io.Discard, "generate", "--bits", "8", "-n", "3", "--seed", "2"))

	args := append([]string{"run"}, programs...)
	require.NoError(t, execute(t, io.Discard, args...))

	for _, p := range programs {
		b, err := os.ReadFile(filepath.Join("data", p, "8.csv"))
		require.NoError(t, err, p)

		lines := strings.Split(strings.TrimSuffix(string(b), "\n"), "\n")
		require.Len(t, lines, 4, p)
		assert.Equal(t, harness.CSVHeader, lines[0])

		for _, line := range lines[1:] {
			fields := strings.Split(line, ",")
			require.Len(t, fields, 7)
			assert.Equal(t, fields[3], fields[2], "result != target in %s", p)
		}
	}
}

func TestRunOutputCollidesWithProgram(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("shell script stubs need a POSIX shell")
	}

	chdir(t, t.TempDir())

	// The timer must never run: the collision is detected first.
	writeScript(t, "ctime", "#!/bin/sh\ntouch timer-ran\n")
	writeScript(t, "karatsuba", "#!/bin/sh\n")

	require.NoError(t, execute(t, io.Discard, "generate", "--bits", "8", "-n", "2", "--seed", "2"))

	err := execute(t, io.Discard, "run", "-o", ".", "karatsuba")
	require.ErrorIs(t, err, harness.ErrOutputDir)

	_, statErr := os.Stat("timer-ran")
	assert.True(t, os.IsNotExist(statErr), "timer was invoked before the output check")
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()

	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatalf("restore working directory: %v", err)
		}
	})
}
