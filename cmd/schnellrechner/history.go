package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/codefionn/schnellrechner/internal/calc"
	"github.com/codefionn/schnellrechner/internal/history"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var historyLimit int

var errHistoryDisabled = errors.New("history is disabled")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or clear the evaluation history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recent evaluations, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if store == nil {
			return errHistoryDisabled
		}
		entries, err := store.List(cmd.Context(), historyLimit)
		if err != nil {
			return err
		}
		printHistory(cmd.OutOrStdout(), entries)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every recorded evaluation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if store == nil {
			return errHistoryDisabled
		}
		if err := store.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "History cleared")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyClearCmd)
	historyListCmd.Flags().IntVar(&historyLimit, "limit", history.DefaultListLimit, "Maximum number of entries")
}

func printHistory(w io.Writer, entries []history.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No evaluations recorded")
		return
	}
	for _, entry := range entries {
		stamp := entry.CreatedAt.Local().Format("2006-01-02 15:04:05")
		if entry.Succeeded() {
			fmt.Fprintf(w, "%5d  %s  %s = %s\n", entry.ID, stamp, entry.Expression,
				color.GreenString(calc.FormatResult(*entry.Result, calc.ShortestPrecision)))
		} else {
			fmt.Fprintf(w, "%5d  %s  %s  %s\n", entry.ID, stamp, entry.Expression,
				color.RedString(entry.ErrorKind))
		}
	}
}
