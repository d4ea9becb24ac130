// Package config handles quill.toml project configuration, grounded on
// the teacher's manifest package (chazu-maggie/manifest/manifest.go),
// which loads maggie.toml the same way: BurntSushi/toml, a FindAndLoad
// that walks up from a starting directory, and defaulted fields.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is quill.toml's schema, per SPEC_FULL.md's ambient configuration
// section.
type Config struct {
	Stdlib StdlibConfig `toml:"stdlib"`
	Cache  CacheConfig  `toml:"cache"`
	Trace  TraceConfig  `toml:"trace"`

	// Dir is the directory containing the quill.toml file (set at load
	// time, not read from the file itself).
	Dir string `toml:"-"`
}

// StdlibConfig controls whether the embedded standard library is
// compiled into every new Context.
type StdlibConfig struct {
	Load bool `toml:"load"`
}

// CacheConfig controls pkg/cache's compiled-code cache.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"`
}

// TraceConfig holds quill.toml's [trace] section. It is loaded but not
// read by pkg/quillctx; tracing is switched on and off by the `trace`
// primitive.
type TraceConfig struct {
	Enabled bool `toml:"enabled"`
}

// Default returns the configuration cmd/quill runs with if no quill.toml
// is found.
func Default() *Config {
	return &Config{
		Stdlib: StdlibConfig{Load: true},
		Cache:  CacheConfig{Enabled: true, Dir: ".quill/cache"},
		Trace:  TraceConfig{Enabled: false},
	}
}

// Load parses a quill.toml file from the given directory, filling in
// Default's values for anything the file omits.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "quill.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: cannot read %s: %w", path, err)
	}

	c := Default()
	if _, err := toml.Decode(string(data), c); err != nil {
		return nil, fmt.Errorf("config: parse error in %s: %w", path, err)
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("config: cannot resolve path %s: %w", dir, err)
	}
	return c, nil
}

// FindAndLoad walks up from startDir looking for a quill.toml file. It
// returns Default() with no error if none is found anywhere up to the
// filesystem root, matching the teacher's FindAndLoad (chazu-maggie's own
// mag CLI treats a missing maggie.toml the same permissive way).
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, "quill.toml")
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return Default(), nil
		}
		dir = parent
	}
}

// CacheDirPath returns the cache directory resolved relative to Dir, or
// the value verbatim if it is already absolute.
func (c *Config) CacheDirPath() string {
	if filepath.IsAbs(c.Cache.Dir) {
		return c.Cache.Dir
	}
	if c.Dir == "" {
		return c.Cache.Dir
	}
	return filepath.Join(c.Dir, c.Cache.Dir)
}
