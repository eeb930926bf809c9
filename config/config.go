// Package config handles cppbind.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/xyproto/env/v2"

	"github.com/rubiojr/cppbind/bindgen"
)

// FileName is the name of the configuration file.
const FileName = "cppbind.toml"

// Config represents a cppbind.toml project configuration.
type Config struct {
	// Description is the extractor output to generate from, relative to Dir.
	Description string            `toml:"description"`
	Generate    Generate          `toml:"generate"`
	Renames     map[string]string `toml:"renames"`
	Log         Log               `toml:"log"`

	// Dir is the directory containing the cppbind.toml file (set at load time).
	Dir string `toml:"-"`
}

// Generate configures the emitted bindings.
type Generate struct {
	// Mode is "exceptions", "no-exceptions" or "both".
	Mode            string   `toml:"mode"`
	Namespace       string   `toml:"namespace"`
	InlineNamespace string   `toml:"inline-namespace"`
	Preamble        bool     `toml:"preamble"`
	Includes        []string `toml:"includes"`
	HeaderGuard     string   `toml:"header-guard"`
	// Output is the exceptions-mode file; OutputNoExceptions the other.
	Output             string `toml:"output"`
	OutputNoExceptions string `toml:"output-noexceptions"`
}

// Log configures logging.
type Log struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the configuration used when no cppbind.toml exists.
func Default() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

func (c *Config) applyDefaults() {
	if c.Generate.Mode == "" {
		c.Generate.Mode = "exceptions"
	}
}

// Load parses a cppbind.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	c.applyDefaults()
	return &c, nil
}

// FindAndLoad walks up from startDir to find a cppbind.toml file, then
// loads and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// ApplyEnv overrides settings from CPPBIND_NO_EXCEPTIONS,
// CPPBIND_NAMESPACE and CPPBIND_VERBOSE. The environment is re-read on
// every call.
func (c *Config) ApplyEnv() {
	env.Load()
	if env.Bool("CPPBIND_NO_EXCEPTIONS") {
		c.Generate.Mode = "no-exceptions"
	}
	c.Generate.Namespace = env.Str("CPPBIND_NAMESPACE", c.Generate.Namespace)
	if env.Bool("CPPBIND_VERBOSE") && c.Log.Verbosity < 1 {
		c.Log.Verbosity = 1
	}
}

// DescriptionPath returns the description path resolved against Dir.
func (c *Config) DescriptionPath() string {
	if c.Description == "" || filepath.IsAbs(c.Description) || c.Dir == "" {
		return c.Description
	}
	return filepath.Join(c.Dir, c.Description)
}

// Modes returns the emission modes selected by Generate.Mode.
func (c *Config) Modes() ([]bindgen.Mode, error) {
	if strings.EqualFold(c.Generate.Mode, "both") {
		return []bindgen.Mode{bindgen.ModeExceptions, bindgen.ModeStatusCodes}, nil
	}
	m, err := bindgen.ParseMode(c.Generate.Mode)
	if err != nil {
		return nil, err
	}
	return []bindgen.Mode{m}, nil
}

// Options returns the generator options for mode.
func (c *Config) Options(mode bindgen.Mode) bindgen.Options {
	return bindgen.Options{
		Mode:            mode,
		Namespace:       c.Generate.Namespace,
		InlineNamespace: c.Generate.InlineNamespace,
		Renames:         c.Renames,
		Preamble:        c.Generate.Preamble,
		Includes:        c.Generate.Includes,
		HeaderGuard:     c.Generate.HeaderGuard,
	}
}

// OutputFor returns the configured output file for mode, or "" for
// standard output.
func (c *Config) OutputFor(mode bindgen.Mode) string {
	out := c.Generate.Output
	if mode == bindgen.ModeStatusCodes && c.Generate.OutputNoExceptions != "" {
		out = c.Generate.OutputNoExceptions
	}
	if out == "" || filepath.IsAbs(out) || c.Dir == "" {
		return out
	}
	return filepath.Join(c.Dir, out)
}
