package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "moltdash",
	Short: "Moltdash - Personal Automation Dashboard Backend",
	Long: `Moltdash serves the personal dashboard: scheduled agent jobs with run
history, RSS reading through the blogwatcher CLI, diary, quests, health
and sticker feeds, plus the built dashboard frontend.`,
	Version: Version,
}

func init() {
	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(serveCmd)
}
