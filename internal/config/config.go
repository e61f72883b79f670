// Package config loads kvd-server's optional JSON-with-comments config
// file, layering it under CLI flags, and enforces the .engine marker file
// startup check. Grounded on the teacher's LoadConfig/hujson config layer
// (its precedence order: defaults -> global config -> project config ->
// CLI flags) adapted to the server's three settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tailscale/hujson"
)

// Config holds kvd-server's configurable defaults.
type Config struct {
	Addr       string `json:"addr,omitempty"`
	Engine     string `json:"engine,omitempty"`
	ThreadPool string `json:"thread_pool,omitempty"` //nolint:tagliatelle // snake_case for config file
}

// Default returns kvd-server's built-in defaults, matching spec.md §6.4.
func Default() Config {
	return Config{
		Addr:       "[::1]:4000",
		Engine:     "primary",
		ThreadPool: "shared",
	}
}

// projectConfigFileName is the optional project-local config file.
const projectConfigFileName = ".kvd.json"

// Load resolves configuration with this precedence (highest wins):
//  1. Default()
//  2. global config ($XDG_CONFIG_HOME/kvd/config.json or ~/.config/kvd/config.json)
//  3. project config (./.kvd.json)
//  4. overrides, gated by the hasXxx flags, so only flags the caller
//     actually set on the command line take precedence over config files.
func Load(workDir string, overrides Config, hasAddr, hasEngine, hasThreadPool bool) (Config, error) {
	cfg := Default()

	globalCfg, err := loadOptional(globalConfigPath())
	if err != nil {
		return Config{}, err
	}

	cfg = merge(cfg, globalCfg)

	projectCfg, err := loadOptional(filepath.Join(workDir, projectConfigFileName))
	if err != nil {
		return Config{}, err
	}

	cfg = merge(cfg, projectCfg)

	if hasAddr {
		cfg.Addr = overrides.Addr
	}

	if hasEngine {
		cfg.Engine = overrides.Engine
	}

	if hasThreadPool {
		cfg.ThreadPool = overrides.ThreadPool
	}

	return cfg, nil
}

func globalConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "kvd", "config.json")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".config", "kvd", "config.json")
}

// loadOptional reads and parses a JSON-with-comments config file at path,
// returning a zero Config if path is empty or the file does not exist.
func loadOptional(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}

		return Config{}, fmt.Errorf("read config %q: %w", path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %q: invalid JSONC: %w", path, err)
	}

	var cfg Config

	if err := json.Unmarshal(standardized, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %q: invalid JSON: %w", path, err)
	}

	return cfg, nil
}

func merge(base, overlay Config) Config {
	if overlay.Addr != "" {
		base.Addr = overlay.Addr
	}

	if overlay.Engine != "" {
		base.Engine = overlay.Engine
	}

	if overlay.ThreadPool != "" {
		base.ThreadPool = overlay.ThreadPool
	}

	return base
}
