package config

import "path/filepath"

// applyDefaults fills unset fields with their defaults.
func applyDefaults(c *Config) {
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}

	if c.Paths.MemoryDir == "" {
		c.Paths.MemoryDir = "/data/memory"
	}
	if c.Paths.StickersDir == "" {
		c.Paths.StickersDir = "/data/stickers"
	}
	if c.Paths.CronDir == "" {
		c.Paths.CronDir = "/data/cron"
	}
	if c.Paths.DiariesDir == "" {
		c.Paths.DiariesDir = filepath.Join(c.Paths.MemoryDir, "diaries")
	}
	if c.Paths.DistDir == "" {
		c.Paths.DistDir = "dist"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Output == "" {
		c.Logging.Output = "stdout"
	}

	if c.Blogwatcher.Binary == "" {
		c.Blogwatcher.Binary = "blogwatcher"
	}
	if c.Blogwatcher.MaxOutputBytes == 0 {
		c.Blogwatcher.MaxOutputBytes = 4 * 1024 * 1024
	}
}
