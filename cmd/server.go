package cmd

import (
	"github.com/spf13/cobra"

	"cadenza/config"
	"cadenza/server"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the media server",
	Long:  `Serve the track/playlist catalog, authenticate users and hand out per-user streaming sessions.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		initLogging(cfg)
		server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
