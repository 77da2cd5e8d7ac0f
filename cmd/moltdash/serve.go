package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/moltdash/moltdash/internal/api"
	"github.com/moltdash/moltdash/internal/blogwatch"
	"github.com/moltdash/moltdash/internal/config"
	"github.com/moltdash/moltdash/internal/cronjob"
	"github.com/moltdash/moltdash/internal/diary"
	"github.com/moltdash/moltdash/internal/logger"
	"github.com/moltdash/moltdash/internal/memory"
	"github.com/moltdash/moltdash/internal/runlog"
	"github.com/moltdash/moltdash/internal/stickers"
)

var (
	serveConfigPath string
	serveLogLevel   string
	servePort       int
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the dashboard server (main command)",
	Long: `Start the Moltdash HTTP server with the specified configuration.
This will initialize all components (logger, job store, run history reader,
blogwatcher adapter, dashboard feeds) and handle graceful shutdown.

The serve command is the main entry point for running Moltdash.`,
	Run: serveHandler,
}

func serveHandler(cmd *cobra.Command, args []string) {
	// Load .env file if exists
	_ = godotenv.Load()

	// Determine config path
	configPath := serveConfigPath
	if configPath == "" {
		configPath = defaultConfigPath
	}

	// Load configuration, falling back to defaults when no file exists
	var cfg *config.Config
	if _, err := os.Stat(configPath); err == nil {
		cfg, err = config.Load(configPath)
		if err != nil {
			fmt.Printf("❌ Failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	} else if serveConfigPath != "" {
		fmt.Printf("❌ Configuration file not found: %s\n", configPath)
		os.Exit(1)
	} else {
		cfg = config.Default()
	}

	// Apply flag overrides
	if serveLogLevel != "" {
		cfg.Logging.Level = serveLogLevel
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}

	// Validate configuration
	if errors := cfg.Validate(); len(errors) > 0 {
		fmt.Printf("❌ Configuration validation failed:\n")
		for _, e := range errors {
			fmt.Printf("  - %v\n", e)
		}
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	})
	if err != nil {
		fmt.Printf("❌ Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	log.Info("🚀 Starting Moltdash",
		logger.Field{Key: "version", Value: Version},
		logger.Field{Key: "git_commit", Value: GitCommit},
		logger.Field{Key: "config", Value: configPath},
		logger.Field{Key: "port", Value: cfg.Server.Port},
		logger.Field{Key: "memory_dir", Value: cfg.Paths.MemoryDir},
		logger.Field{Key: "cron_dir", Value: cfg.Paths.CronDir},
	)

	// Wire the components behind the HTTP surface
	store := cronjob.NewStore(cfg.Paths.CronDir, log)
	runs := runlog.NewReader(cfg.Paths.RunsDir(), log)
	blogs := blogwatch.NewRunner(cfg.Blogwatcher.Binary, cfg.Blogwatcher.WorkingDir, cfg.Blogwatcher.MaxOutputBytes, log)
	diaries := diary.NewReader(cfg.Paths.DiariesDir, log)
	mem := memory.NewReader(cfg.Paths.MemoryDir, log)
	stick := stickers.NewLister(cfg.Paths.StickersDir, log)

	handler := api.NewHandler(store, runs, blogs, diaries, mem, stick, cfg.Delivery.DefaultTarget, log)
	server := api.NewServer(api.ServerConfig{
		Port:        cfg.Server.Port,
		DistDir:     cfg.Paths.DistDir,
		StickersDir: cfg.Paths.StickersDir,
	}, handler, log)

	// Shutdown on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("✅ Moltdash is running")

	if err := server.Start(ctx); err != nil {
		log.Error("Server stopped with error", err)
		os.Exit(1)
	}

	log.Info("👋 Moltdash stopped gracefully")
}

func init() {
	serveCmd.Flags().StringVarP(&serveConfigPath, "config", "c", "", "Path to configuration file (default: ./config.toml)")
	serveCmd.Flags().StringVarP(&serveLogLevel, "log-level", "l", "", "Override log level (debug, info, warn, error)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Override listen port")
}
