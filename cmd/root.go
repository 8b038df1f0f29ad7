package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"cadenza/config"
	"cadenza/logger"
)

var rootCmd = &cobra.Command{
	Use:   "cadenza",
	Short: "Cadenza is a distributed audio playback service.",
	Long:  `Cadenza serves a track/playlist catalog with per-user streaming sessions and drives remote playback renders.`,
}

// initLogging configures the global logger from the loaded config.
func initLogging(cfg *config.Config) {
	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	})
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
