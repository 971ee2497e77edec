package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	a := newApp()
	root := a.rootCmd()
	defer a.close()
	var out, errBuf bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errBuf)
	root.SetArgs(append([]string{"--color=off", "--ui=off"}, args...))
	err = root.Execute()
	return out.String(), errBuf.String(), err
}

func TestSamplesCommand(t *testing.T) {
	out, _, err := execute(t, "samples", "--quiet")
	require.NoError(t, err)
	assert.Equal(t, "classify\nfib\nhello\nlist\nparity\n", out)
}

func TestEmitMatchesGolden(t *testing.T) {
	out, _, err := execute(t, "emit", "hello")
	require.NoError(t, err)
	want, err := os.ReadFile(filepath.Join("..", "..", "internal", "backend", "llvm", "testdata", "hello.ll"))
	require.NoError(t, err)
	assert.Equal(t, string(want), out)
}

func TestEmitTargetOverride(t *testing.T) {
	out, _, err := execute(t, "emit", "fib", "--target", "i686-pc-linux-gnu")
	require.NoError(t, err)
	assert.Contains(t, out, `target triple = "i686-pc-linux-gnu"`)
	assert.Contains(t, out, `target datalayout = "e-p:32:32-i64:32-n8:16:32-S128"`)
}

func TestEmitToDirectory(t *testing.T) {
	dir := t.TempDir()
	_, stderr, err := execute(t, "calls", "fib", "list", "-o", dir)
	require.NoError(t, err)
	assert.Contains(t, stderr, filepath.Join(dir, "fib.calls"))

	data, err := os.ReadFile(filepath.Join(dir, "list.calls"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "finish()\n"))
}

func TestCallsCommand(t *testing.T) {
	out, _, err := execute(t, "calls", "fib")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, "finish()", lines[len(lines)-1])
	assert.Contains(t, out, "declare_function(fib")
}

func TestValidateCommand(t *testing.T) {
	out, stderr, err := execute(t, "validate", "--format", "short")
	require.NoError(t, err)
	assert.Contains(t, out, "ok  parity\n")
	assert.Empty(t, stderr)

	_, _, err = execute(t, "validate", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown sample(s) nope")

	_, _, err = execute(t, "validate", "--format", "xml")
	assert.Error(t, err)
}

func TestDumpCommand(t *testing.T) {
	out, _, err := execute(t, "dump", "list")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, `; module "list"`))
	assert.Contains(t, out, "%node = type")
}

func TestVersionJSON(t *testing.T) {
	out, _, err := execute(t, "version", "--format", "json", "--hash")
	require.NoError(t, err)
	var payload versionPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "irkit", payload.Tool)
	assert.NotEmpty(t, payload.Version)
	assert.NotEmpty(t, payload.GitCommit)

	out, _, err = execute(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "irkit "))
}

func TestBuildCommandUsesProjectFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "irkit.toml"), []byte(`
[build]
out_dir = "out"
samples = ["fib", "hello"]
cache = false
`), 0o644))
	t.Chdir(dir)

	out, _, err := execute(t, "build", "--timings")
	require.NoError(t, err)
	assert.Contains(t, out, "built 2 module(s), 0 cached, 0 failed")
	assert.Contains(t, out, "fib          done")

	data, err := os.ReadFile(filepath.Join(dir, "out", "fib.ll"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "define i32 @fib")
}

func TestBuildCommandCaches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "irkit.yaml"), []byte("build:\n  samples: [parity]\n  backend: calls\n"), 0o644))
	t.Chdir(dir)
	cacheDir := filepath.Join(dir, "cache")

	_, _, err := execute(t, "build", "--cache-dir", cacheDir)
	require.NoError(t, err)
	out, _, err := execute(t, "build", "--cache-dir", cacheDir)
	require.NoError(t, err)
	assert.Contains(t, out, "parity       cached")
	assert.Contains(t, out, "1 cached")

	_, err = os.Stat(filepath.Join(dir, "build", "parity.calls"))
	require.NoError(t, err)
}

func TestBadFlags(t *testing.T) {
	_, _, err := execute(t, "samples", "--log-level", "loud")
	assert.Error(t, err)
	_, _, err = execute(t, "samples", "--trace-level", "everything")
	assert.Error(t, err)
	_, _, err = execute(t, "build", "--ui", "sometimes")
	assert.Error(t, err)
}

func TestProfilingFlags(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.pprof")
	mem := filepath.Join(dir, "mem.pprof")
	_, _, err := execute(t, "--cpu-profile", cpu, "--mem-profile", mem, "emit", "fib")
	require.NoError(t, err)
	for _, path := range []string{cpu, mem} {
		_, err := os.Stat(path)
		assert.NoError(t, err, path)
	}
}

func TestEmitDataLayoutFlag(t *testing.T) {
	out, _, err := execute(t, "emit", "list", "--target", "x86_64-unknown-linux-gnu", "--data-layout", "e-p:32:32-i64:32")
	require.NoError(t, err)
	assert.Contains(t, out, `target datalayout = "e-p:32:32-i64:32"`)
	assert.Contains(t, out, "@head = internal global %node { i32 1, %node* @tail }, align 4")
	assert.Contains(t, out, "%cur.addr = alloca %node*, align 4")

	_, _, err = execute(t, "emit", "fib", "--target", "x86_64-unknown-linux-gnu", "--data-layout", "not a data layout")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--data-layout")
}

func TestTraceWritesStageSpans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.ndjson")
	_, _, err := execute(t, "--trace", path, "--trace-level", "detail", "emit", "fib")
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	type event struct {
		Kind  string `json:"kind"`
		Scope string `json:"scope"`
		Name  string `json:"name"`
		Attrs struct {
			Module string `json:"module"`
			Stage  string `json:"stage"`
			Entity string `json:"entity"`
			Items  int    `json:"items"`
		} `json:"attrs"`
	}
	var stages []string
	var body *event
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var ev event
		require.NoError(t, json.Unmarshal([]byte(line), &ev), line)
		if ev.Kind != "end" {
			continue
		}
		switch ev.Scope {
		case "stage":
			assert.Equal(t, "fib", ev.Attrs.Module)
			stages = append(stages, ev.Attrs.Stage)
		case "entity":
			body = &ev
		}
	}
	assert.Contains(t, stages, "validate")
	assert.Contains(t, stages, "bodies")
	assert.Contains(t, stages, "finish")
	require.NotNil(t, body)
	assert.Equal(t, "@fib", body.Attrs.Entity)
	assert.Equal(t, "bodies", body.Attrs.Stage)
	assert.Positive(t, body.Attrs.Items)
}
