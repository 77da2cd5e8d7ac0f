// Package config provides configuration loading and validation for the
// dashboard server. It supports TOML configuration files with environment
// variable expansion, default values, and validation.
//
// Configuration structure:
//   - [server]: listen port
//   - [paths]: memory, stickers, diaries, cron, and frontend directories
//   - [logging]: logging level, format, and output
//   - [blogwatcher]: external blogwatcher tool invocation
//   - [delivery]: default announce target for quick-scheduled digests
//
// Environment variables can be referenced using ${VAR} or ${VAR:default}
// syntax, for example: default_target = "${DISCORD_DM_TARGET:}".
package config

import "path/filepath"

// Config represents the main application configuration.
type Config struct {
	Server      ServerConfig      `toml:"server"`
	Paths       PathsConfig       `toml:"paths"`
	Logging     LoggingConfig     `toml:"logging"`
	Blogwatcher BlogwatcherConfig `toml:"blogwatcher"`
	Delivery    DeliveryConfig    `toml:"delivery"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port int `toml:"port"`
}

// PathsConfig locates the data directories the dashboard reads and writes.
type PathsConfig struct {
	MemoryDir   string `toml:"memory_dir"`
	StickersDir string `toml:"stickers_dir"`
	DiariesDir  string `toml:"diaries_dir"` // defaults to <memory_dir>/diaries
	CronDir     string `toml:"cron_dir"`    // holds jobs.json and runs/
	DistDir     string `toml:"dist_dir"`    // built frontend, served statically
}

// RunsDir returns the run-log directory inside the cron directory.
func (p PathsConfig) RunsDir() string {
	return filepath.Join(p.CronDir, "runs")
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Output string `toml:"output"`
}

// BlogwatcherConfig configures invocation of the external blogwatcher tool.
type BlogwatcherConfig struct {
	Binary         string `toml:"binary"`
	WorkingDir     string `toml:"working_dir"`
	MaxOutputBytes int    `toml:"max_output_bytes"`
}

// DeliveryConfig holds delivery defaults for quick-scheduled jobs.
type DeliveryConfig struct {
	DefaultTarget string `toml:"default_target"`
}
