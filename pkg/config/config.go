// Package config loads Knowdes configuration from a TOML file.
//
// Configuration lives at $XDG_CONFIG_HOME/knowdes/config.toml (falling back
// to ~/.config/knowdes/config.toml). Every field has a working default, so
// a missing file is not an error.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	kerrors "github.com/MarkovWon/Knowdes/pkg/errors"
)

// Config is the top-level configuration.
type Config struct {
	LLM     LLM      `toml:"llm"`
	Physics Physics  `toml:"physics"`
	Cache   CacheCfg `toml:"cache"`
	Viewer  Viewer   `toml:"viewer"`
}

// LLM configures the generation backend.
type LLM struct {
	// BaseURL is the root of an OpenAI-compatible chat completions API.
	BaseURL string `toml:"base_url"`
	// Model is the model identifier sent with every request.
	Model string `toml:"model"`
	// APIKeyEnv names the environment variable holding the API key.
	// The key itself never lives in the config file.
	APIKeyEnv string `toml:"api_key_env"`
	// TimeoutSeconds bounds a single generation request.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// Physics configures the force simulation.
type Physics struct {
	SpringLength   float64 `toml:"spring_length"`
	SpringStrength float64 `toml:"spring_strength"`
	Repulsion      float64 `toml:"repulsion"`
	CenterStrength float64 `toml:"center_strength"`
	CollideRadius  float64 `toml:"collide_radius"`
}

// CacheCfg configures response caching.
type CacheCfg struct {
	// Backend selects the cache implementation: "file", "redis", or "none".
	Backend string `toml:"backend"`
	// RedisAddr is the host:port of the Redis server (redis backend only).
	RedisAddr string `toml:"redis_addr"`
	// TTLHours is the cache entry lifetime. Zero means entries never expire.
	TTLHours int `toml:"ttl_hours"`
}

// Viewer configures the interactive graph viewer.
type Viewer struct {
	MinScale float64 `toml:"min_scale"`
	MaxScale float64 `toml:"max_scale"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		LLM: LLM{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			APIKeyEnv:      "OPENAI_API_KEY",
			TimeoutSeconds: 60,
		},
		Physics: Physics{
			SpringLength:   80,
			SpringStrength: 0.05,
			Repulsion:      2000,
			CenterStrength: 0.01,
			CollideRadius:  14,
		},
		Cache: CacheCfg{
			Backend:   "file",
			RedisAddr: "localhost:6379",
			TTLHours:  24 * 7,
		},
		Viewer: Viewer{
			MinScale: 0.2,
			MaxScale: 5.0,
		},
	}
}

// Path returns the config file location using the XDG convention.
func Path() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "knowdes", "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "knowdes", "config.toml"), nil
}

// Load reads the config file at path, applying defaults for absent fields.
// A missing file returns the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := kerrors.ValidateURL(cfg.LLM.BaseURL); err != nil {
		return Default(), fmt.Errorf("invalid llm.base_url in %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDefault loads the config from the standard XDG location.
func LoadDefault() (Config, error) {
	path, err := Path()
	if err != nil {
		return Default(), nil
	}
	return Load(path)
}

// APIKey resolves the API key from the configured environment variable.
// Returns an empty string if the variable is unset.
func (l LLM) APIKey() string {
	if l.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(l.APIKeyEnv)
}
