package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// Load reads the configuration from a TOML file, applies defaults, and
// expands environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	expandVars(&cfg)

	return &cfg, nil
}

// Default returns the configuration that applies when no config file is
// given: defaults plus environment variable overrides.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	expandVars(cfg)
	return cfg
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() []error {
	var errors []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errors = append(errors, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}

	if c.Paths.MemoryDir == "" {
		errors = append(errors, fmt.Errorf("paths.memory_dir is required"))
	}
	if c.Paths.CronDir == "" {
		errors = append(errors, fmt.Errorf("paths.cron_dir is required"))
	}
	if c.Paths.StickersDir == "" {
		errors = append(errors, fmt.Errorf("paths.stickers_dir is required"))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		errors = append(errors, fmt.Errorf("invalid logging.level: %s (expected: debug, info, warn, error)", c.Logging.Level))
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		errors = append(errors, fmt.Errorf("invalid logging.format: %s (expected: json, text)", c.Logging.Format))
	}

	if c.Logging.Output == "" {
		errors = append(errors, fmt.Errorf("logging.output is required"))
	}

	if c.Blogwatcher.Binary == "" {
		errors = append(errors, fmt.Errorf("blogwatcher.binary is required"))
	}
	if c.Blogwatcher.MaxOutputBytes < 0 {
		errors = append(errors, fmt.Errorf("blogwatcher.max_output_bytes cannot be negative"))
	}

	return errors
}

// expandVars expands ${VAR} and ${VAR:default} references and ~ prefixes in
// path-valued fields.
func expandVars(c *Config) {
	fields := []*string{
		&c.Paths.MemoryDir,
		&c.Paths.StickersDir,
		&c.Paths.DiariesDir,
		&c.Paths.CronDir,
		&c.Paths.DistDir,
		&c.Blogwatcher.Binary,
		&c.Blogwatcher.WorkingDir,
		&c.Delivery.DefaultTarget,
	}
	for _, field := range fields {
		*field = expandHome(expandEnv(*field))
	}
}
