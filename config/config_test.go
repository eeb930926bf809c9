package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubiojr/cppbind/bindgen"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(content), 0o644))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
description = "api/isl.toml"

[generate]
mode = "both"
namespace = "pet"
preamble = true
includes = ["isl/set.h", "isl/val.h"]
output = "include/isl.h"
output-noexceptions = "include/isl-noexceptions.h"

[renames]
intersect = "meet"

[log]
verbosity = 1
`)
	cfg, err := Load(dir)
	require.NoError(t, err)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, abs, cfg.Dir)
	assert.Equal(t, filepath.Join(abs, "api", "isl.toml"), cfg.DescriptionPath())
	assert.Equal(t, "both", cfg.Generate.Mode)
	assert.Equal(t, 1, cfg.Log.Verbosity)
	assert.Equal(t, filepath.Join(abs, "include", "isl.h"), cfg.OutputFor(bindgen.ModeExceptions))
	assert.Equal(t, filepath.Join(abs, "include", "isl-noexceptions.h"), cfg.OutputFor(bindgen.ModeStatusCodes))

	modes, err := cfg.Modes()
	require.NoError(t, err)
	assert.Equal(t, []bindgen.Mode{bindgen.ModeExceptions, bindgen.ModeStatusCodes}, modes)

	opts := cfg.Options(bindgen.ModeStatusCodes)
	assert.Equal(t, bindgen.ModeStatusCodes, opts.Mode)
	assert.Equal(t, "pet", opts.Namespace)
	assert.True(t, opts.Preamble)
	assert.Equal(t, []string{"isl/set.h", "isl/val.h"}, opts.Includes)
	assert.Equal(t, map[string]string{"intersect": "meet"}, opts.Renames)
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `description = "isl.toml"`)
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "exceptions", cfg.Generate.Mode)
	assert.Equal(t, "", cfg.OutputFor(bindgen.ModeExceptions))

	modes, err := cfg.Modes()
	require.NoError(t, err)
	assert.Equal(t, []bindgen.Mode{bindgen.ModeExceptions}, modes)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "[generate]\nstyle = \"google\"\n")
	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown keys: generate.style")
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.Error(t, err)
}

func TestFindAndLoad(t *testing.T) {
	root := t.TempDir()
	writeConfig(t, root, `description = "isl.toml"`)
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	cfg, err := FindAndLoad(nested)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	abs, _ := filepath.Abs(root)
	assert.Equal(t, abs, cfg.Dir)
}

func TestDefaultHasNoDescription(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "exceptions", cfg.Generate.Mode)
	assert.Equal(t, "", cfg.DescriptionPath())
}

func TestModesRejectsUnknown(t *testing.T) {
	cfg := Default()
	cfg.Generate.Mode = "sometimes"
	_, err := cfg.Modes()
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("CPPBIND_NO_EXCEPTIONS", "true")
	t.Setenv("CPPBIND_NAMESPACE", "polly")
	t.Setenv("CPPBIND_VERBOSE", "true")

	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "no-exceptions", cfg.Generate.Mode)
	assert.Equal(t, "polly", cfg.Generate.Namespace)
	assert.Equal(t, 1, cfg.Log.Verbosity)
}

func TestApplyEnvKeepsConfiguredValues(t *testing.T) {
	t.Setenv("CPPBIND_NO_EXCEPTIONS", "")
	t.Setenv("CPPBIND_NAMESPACE", "")
	t.Setenv("CPPBIND_VERBOSE", "")

	cfg := Default()
	cfg.Generate.Namespace = "pet"
	cfg.Log.Verbosity = 2
	cfg.ApplyEnv()
	assert.Equal(t, "exceptions", cfg.Generate.Mode)
	assert.Equal(t, "pet", cfg.Generate.Namespace)
	assert.Equal(t, 2, cfg.Log.Verbosity)
}

func TestApplyEnvSeesLaterChanges(t *testing.T) {
	t.Setenv("CPPBIND_NAMESPACE", "first")
	cfg := Default()
	cfg.ApplyEnv()
	assert.Equal(t, "first", cfg.Generate.Namespace)

	t.Setenv("CPPBIND_NAMESPACE", "second")
	again := Default()
	again.ApplyEnv()
	assert.Equal(t, "second", again.Generate.Namespace)
}
