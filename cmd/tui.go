package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/docqa/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Ask questions in an interactive terminal UI",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		eng, cleanup, err := buildEngine(cfg, engineOptions{withLLM: true})
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		return tui.Run(ctx, eng)
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}
