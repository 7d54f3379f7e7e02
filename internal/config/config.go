// Package config loads the TOML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/weareuntitled/fixundfertig/internal/layout"
	"github.com/weareuntitled/fixundfertig/internal/model"
)

// Environment variables read by ApplyEnv and the CLI
const (
	EnvConfig  = "FIXUNDFERTIG_CONFIG"
	EnvLogoDir = "FIXUNDFERTIG_LOGO_DIR"
)

// Config is the file layout: [render], [server] and [logos]
type Config struct {
	Render layout.Config `toml:"render"`
	Server ServerConfig  `toml:"server"`
	Logos  LogoConfig    `toml:"logos"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr         string `toml:"addr"`
	Mode         string `toml:"mode"` // gin mode: debug, release or test
	MaxBodyBytes int64  `toml:"max_body_bytes"`
}

// LogoConfig configures logo lookup by company id
type LogoConfig struct {
	Dir string `toml:"dir"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Render: layout.DefaultConfig(),
		Server: ServerConfig{
			Addr:         ":8080",
			Mode:         "release",
			MaxBodyBytes: 10 << 20,
		},
	}
}

// Load reads path over the defaults. An empty path yields the defaults.
// Unknown keys are rejected so typos do not pass silently.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return cfg, fmt.Errorf("config %s: %s", path, strict.String())
		}
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, cfg.Validate()
}

// ApplyEnv overrides values from the environment
func (c Config) ApplyEnv(lookup func(string) (string, bool)) Config {
	if dir, ok := lookup(EnvLogoDir); ok && dir != "" {
		c.Logos.Dir = dir
	}
	return c
}

// Validate checks every section
func (c Config) Validate() error {
	if err := c.Render.Validate(); err != nil {
		return err
	}
	if c.Server.Addr == "" {
		return model.NewValidationError("server.addr", c.Server.Addr, "required", "listen address is required")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return model.NewValidationError("server.mode", c.Server.Mode, "oneof", "must be debug, release or test")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return model.NewValidationError("server.max_body_bytes", c.Server.MaxBodyBytes, "positive", "must be greater than zero")
	}
	return nil
}

// Marshal encodes the configuration as TOML
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// Save writes the configuration to path with restricted permissions
func Save(path string, c Config) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o600)
}
