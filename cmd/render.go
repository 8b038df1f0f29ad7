package cmd

import (
	"github.com/spf13/cobra"

	"cadenza/config"
	"cadenza/core/player"
	"cadenza/render"
)

var headless bool

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Run the render daemon",
	Long:  `Expose remote transport controls and drive the local playback engine.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		initLogging(cfg)

		var engine render.Engine
		if headless {
			engine = player.NewNull()
		} else {
			engine = player.New()
		}
		render.Start(cfg, engine)
	},
}

func init() {
	renderCmd.Flags().BoolVar(&headless, "headless", false, "drain audio without an output device")
	rootCmd.AddCommand(renderCmd)
}
