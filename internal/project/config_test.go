package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "irkit.toml")
	writeFile(t, path, `
[target]
triple = "i686-pc-linux-gnu"

[build]
out_dir = "out"
jobs = 3
cache = false
backend = "calls"
samples = ["fib", "list"]

[trace]
level = "phase"
mode = "ring"
output = "trace.ndjson"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, dir, cfg.Root)
	assert.Equal(t, 3, cfg.Jobs())
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, "calls", cfg.Build.Backend)
	assert.Equal(t, []string{"fib", "list"}, cfg.Build.Samples)
	assert.Equal(t, filepath.Join(dir, "out"), cfg.OutDir())
	assert.Equal(t, "phase", cfg.Trace.Level)
	assert.Equal(t, 4, cfg.LayoutTarget().PtrSize)
	assert.Equal(t, "e-p:32:32-i64:32-n8:16:32-S128", cfg.DataLayout())
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "irkit.yaml")
	writeFile(t, path, `
target:
  triple: x86_64-unknown-linux-gnu
  data_layout: "e-m:e-p:64:64"
  pointer_size: 4
build:
  backend: llvm
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, "build", cfg.Build.OutDir)
	assert.Equal(t, 4, cfg.LayoutTarget().PtrSize)
	assert.Equal(t, "e-m:e-p:64:64", cfg.DataLayout())
	assert.Equal(t, "off", cfg.Trace.Level)
}

func TestLoadRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"unknown.toml": "[build]\nthreads = 4\n",
		"jobs.toml":    "[build]\njobs = -1\n",
		"backend.yaml": "build:\n  backend: wasm\n",
		"ptr.yaml":     "target:\n  pointer_size: 3\n",
		"layout.toml":  "[target]\ndata_layout = \"e-p:64\"\n",
		"field.yaml":   "build:\n  colour: red\n",
		"config.json":  "{}",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			writeFile(t, path, content)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(dir, "missing.toml"))
	assert.Error(t, err)
}

func TestDiscoverWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "irkit.yml"), "build:\n  jobs: 2\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, ok, err := Discover(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, 2, cfg.Build.Jobs)

	found, ok, err := FindProjectRoot(nested)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, root, found)
}

func TestDiscoverPrefersTOML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "irkit.yaml"), "build:\n  jobs: 5\n")
	writeFile(t, filepath.Join(root, "irkit.toml"), "[build]\njobs = 7\n")

	path, ok, err := FindConfig(root)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "irkit.toml", filepath.Base(path))
}

func TestDefaultWithoutProjectFile(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "llvm", cfg.Build.Backend)
	assert.Equal(t, "build", cfg.OutDir())
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, "x86_64-unknown-linux-gnu", cfg.LayoutTarget().Triple)
	require.NoError(t, cfg.Validate())
}
