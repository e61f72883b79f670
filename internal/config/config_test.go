package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"kvd/internal/config"
	"kvd/internal/engine"
)

func TestLoad_DefaultsWhenNoConfigFilesOrOverrides(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := config.Load(t.TempDir(), config.Config{}, false, false, false)
	require.NoError(t, err)
	require.Equal(t, config.Default(), cfg)
}

func TestLoad_ProjectConfigOverridesDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, ".kvd.json"), []byte(`{
		// project default engine
		"engine": "alt",
	}`), 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(dir, config.Config{}, false, false, false)
	require.NoError(t, err)
	require.Equal(t, "alt", cfg.Engine)
	require.Equal(t, config.Default().Addr, cfg.Addr)
}

func TestLoad_CLIOverrideWinsOverProjectConfig(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	dir := t.TempDir()

	err := os.WriteFile(filepath.Join(dir, ".kvd.json"), []byte(`{"engine": "alt"}`), 0o644)
	require.NoError(t, err)

	cfg, err := config.Load(dir, config.Config{Engine: "primary"}, false, true, false)
	require.NoError(t, err)
	require.Equal(t, "primary", cfg.Engine)
}

func TestCheckAndPersistEngine_PersistsOnFirstStart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, config.CheckAndPersistEngine(dir, "primary"))

	data, err := os.ReadFile(filepath.Join(dir, ".engine"))
	require.NoError(t, err)
	require.Equal(t, "primary", string(data))
}

func TestCheckAndPersistEngine_RefusesMismatchOnRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, config.CheckAndPersistEngine(dir, "primary"))

	err := config.CheckAndPersistEngine(dir, "alt")
	require.ErrorIs(t, err, engine.ErrEngineMismatch)
}

func TestCheckAndPersistEngine_AllowsMatchingRestart(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	require.NoError(t, config.CheckAndPersistEngine(dir, "primary"))
	require.NoError(t, config.CheckAndPersistEngine(dir, "primary"))
}
