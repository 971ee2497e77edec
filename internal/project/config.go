// Package project loads irkit.toml / irkit.yaml project files.
package project

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"irkit/internal/layout"
)

// TargetConfig is the [target] section.
type TargetConfig struct {
	Triple      string `toml:"triple" yaml:"triple"`
	DataLayout  string `toml:"data_layout" yaml:"data_layout"`
	PointerSize int    `toml:"pointer_size" yaml:"pointer_size"`
}

// BuildConfig is the [build] section.
type BuildConfig struct {
	OutDir  string   `toml:"out_dir" yaml:"out_dir"`
	Jobs    int      `toml:"jobs" yaml:"jobs"`
	Cache   *bool    `toml:"cache" yaml:"cache"`
	Backend string   `toml:"backend" yaml:"backend"`
	Samples []string `toml:"samples" yaml:"samples"`
}

// TraceConfig is the [trace] section.
type TraceConfig struct {
	Level  string `toml:"level" yaml:"level"`
	Mode   string `toml:"mode" yaml:"mode"`
	Output string `toml:"output" yaml:"output"`
}

// Config is a parsed project file. Relative paths are resolved against Root.
type Config struct {
	Path   string       `toml:"-" yaml:"-"`
	Root   string       `toml:"-" yaml:"-"`
	Target TargetConfig `toml:"target" yaml:"target"`
	Build  BuildConfig  `toml:"build" yaml:"build"`
	Trace  TraceConfig  `toml:"trace" yaml:"trace"`
}

// Backends accepted by [build].backend.
var Backends = []string{"llvm", "calls"}

// Default returns the configuration used when no project file exists.
func Default() Config {
	return Config{
		Build: BuildConfig{OutDir: "build", Backend: "llvm"},
		Trace: TraceConfig{Level: "off", Mode: "stream"},
	}
}

// Load parses the project file at path. The format follows the extension.
// Unknown keys are errors.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "read project file")
	}
	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		meta, err := toml.Decode(string(data), &cfg)
		if err != nil {
			return Config{}, errors.Wrapf(err, "%s: failed to parse TOML", path)
		}
		if undec := meta.Undecoded(); len(undec) > 0 {
			return Config{}, errors.Errorf("%s: unknown key %q", path, undec[0].String())
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, errors.Wrapf(err, "%s: failed to parse YAML", path)
		}
	default:
		return Config{}, errors.Errorf("%s: unsupported project file type", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "resolve project file")
	}
	cfg.Path = abs
	cfg.Root = filepath.Dir(abs)
	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, path)
	}
	return cfg, nil
}

// Discover finds the nearest project file above startDir and loads it. When
// none exists it returns Default rooted at startDir and ok=false.
func Discover(startDir string) (cfg Config, ok bool, err error) {
	path, ok, err := FindConfig(startDir)
	if err != nil {
		return Config{}, false, err
	}
	if !ok {
		cfg = Default()
		cfg.Root, err = filepath.Abs(startDir)
		return cfg, false, errors.Wrap(err, "resolve start directory")
	}
	cfg, err = Load(path)
	return cfg, err == nil, err
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Build.Jobs < 0 {
		return fmt.Errorf("build.jobs must not be negative, got %d", c.Build.Jobs)
	}
	if c.Build.Backend != "" && !slices.Contains(Backends, c.Build.Backend) {
		return fmt.Errorf("build.backend %q is not one of %s", c.Build.Backend, strings.Join(Backends, ", "))
	}
	switch c.Target.PointerSize {
	case 0, 2, 4, 8:
	default:
		return fmt.Errorf("target.pointer_size must be 2, 4 or 8, got %d", c.Target.PointerSize)
	}
	if _, err := layout.ParseDataLayout(c.Target.DataLayout); err != nil {
		return errors.Wrap(err, "target.data_layout")
	}
	return nil
}

// Jobs returns the worker count, defaulting to GOMAXPROCS.
func (c *Config) Jobs() int {
	if c.Build.Jobs > 0 {
		return c.Build.Jobs
	}
	return runtime.GOMAXPROCS(0)
}

// CacheEnabled reports whether [build].cache is on; it defaults to true.
func (c *Config) CacheEnabled() bool {
	return c.Build.Cache == nil || *c.Build.Cache
}

// OutDir returns the absolute output directory.
func (c *Config) OutDir() string {
	dir := c.Build.OutDir
	if dir == "" {
		dir = "build"
	}
	if filepath.IsAbs(dir) || c.Root == "" {
		return dir
	}
	return filepath.Join(c.Root, dir)
}

// LayoutTarget derives the layout target from [target]. An explicit
// pointer_size overrides the one implied by the triple.
func (c *Config) LayoutTarget() layout.Target {
	t := layout.TargetFromTriple(c.Target.Triple)
	if ps := c.Target.PointerSize; ps > 0 {
		t.PtrSize = ps
		t.PtrAlign = ps
	}
	return t
}

// DataLayout returns the configured data layout string, or the one derived
// from LayoutTarget.
func (c *Config) DataLayout() string {
	if c.Target.DataLayout != "" {
		return c.Target.DataLayout
	}
	return c.LayoutTarget().DataLayout()
}
