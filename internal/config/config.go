// Package config loads the tmc configuration file
// ($XDG_CONFIG_HOME/tmc/config.yaml).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/samcharles93/tmckit/internal/logger"
	"github.com/samcharles93/tmckit/pkg/tmc"
)

// EnvPath overrides the config file location.
const EnvPath = "TMC_CONFIG"

// Config mirrors the YAML file. Empty strings and nil pointers mean "not set"
// so flag defaults are only replaced by values that were actually written.
type Config struct {
	Dialect   string `yaml:"dialect"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
	Strict    *bool  `yaml:"strict"`

	// Output
	OutputDir     string `yaml:"output_dir"`
	PreviewFormat string `yaml:"preview_format"`

	// Server
	ServerAddress  string `yaml:"server_address"`
	MaxUploadBytes *int64 `yaml:"max_upload_bytes"`
}

// Path returns the config file location, or "" when no config directory
// can be determined.
func Path() string {
	if p := os.Getenv(EnvPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "tmc", "config.yaml")
}

// Load reads the config file at path. A missing file yields a zero Config.
func Load(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the enumerated fields that are set.
func (c Config) Validate() error {
	if c.Dialect != "" {
		if _, err := tmc.ParseDialect(c.Dialect); err != nil {
			return err
		}
	}
	if c.LogLevel != "" {
		if _, err := logger.ParseLevel(c.LogLevel); err != nil {
			return err
		}
	}
	switch c.LogFormat {
	case "", "pretty", "text", "json":
	default:
		return fmt.Errorf("%w: %q", logger.ErrUnknownFormat, c.LogFormat)
	}
	switch c.PreviewFormat {
	case "", "webp", "tga":
	default:
		return fmt.Errorf("unknown preview format %q", c.PreviewFormat)
	}
	if c.MaxUploadBytes != nil && *c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive, got %d", *c.MaxUploadBytes)
	}
	return nil
}
