package main

import (
	"context"

	"github.com/codefionn/schnellrechner/internal/logger"
	"github.com/codefionn/schnellrechner/internal/tui"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive keypad",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runTUI(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(ctx context.Context) error {
	logger.Info("running in TUI mode")
	return tui.Run(ctx, tui.Options{
		Session:     newSession(""),
		Store:       store,
		ShowHistory: cfg.TUI.ShowHistory,
		Logger:      logger.Global(),
	})
}
