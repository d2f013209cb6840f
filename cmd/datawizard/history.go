package main

import (
	"errors"
	"fmt"

	"github.com/hyperjump/datawizard/internal/cli"
	"github.com/hyperjump/datawizard/internal/history"
	"github.com/spf13/cobra"
)

var errHistoryDisabled = errors.New("history is disabled in config (history.enabled: false)")

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

var (
	historyLimit  int
	historyOutput string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of runs to show")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "text", "output format: text or json")

	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseOutputFormat(historyOutput)
	if err != nil {
		return err
	}
	if historyLimit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}
	a, store, err := openHistoryOnly()
	if err != nil {
		return err
	}
	defer a.Close()

	recs, err := store.ListRecent(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}
	return cli.WriteHistory(cmd.OutOrStdout(), recs, format)
}

// openHistoryOnly sets up config and logging and opens the history store, failing when
// history is disabled or unavailable.
func openHistoryOnly() (*app, history.Store, error) {
	a, err := setup(configPath, debugFlag)
	if err != nil {
		return nil, nil, err
	}
	if !a.cfg.History.EnabledOrDefault() {
		a.Close()
		return nil, nil, errHistoryDisabled
	}
	store, err := history.NewSQLiteStore(a.cfg.History.DatabasePath)
	if err != nil {
		a.Close()
		return nil, nil, fmt.Errorf("failed to open history: %w", err)
	}
	a.store = store
	return a, store, nil
}
