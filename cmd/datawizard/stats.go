package main

import (
	"fmt"

	"github.com/hyperjump/datawizard/internal/cli"
	"github.com/hyperjump/datawizard/internal/history"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show run counts per input kind and history database size",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

var statsOutput string

func init() {
	statsCmd.Flags().StringVarP(&statsOutput, "output", "o", "text", "output format: text or json")

	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, _ []string) error {
	format, err := cli.ParseOutputFormat(statsOutput)
	if err != nil {
		return err
	}
	a, store, err := openHistoryOnly()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := cmd.Context()
	total, err := store.CountRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to count runs: %w", err)
	}
	byKind, err := store.StatsByKind(ctx)
	if err != nil {
		return fmt.Errorf("failed to count runs by kind: %w", err)
	}
	size, err := history.DatabaseSize(a.cfg.History.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to measure database: %w", err)
	}
	return cli.WriteStats(cmd.OutOrStdout(), &cli.Stats{
		Runs:          total,
		ByKind:        byKind,
		DatabasePath:  a.cfg.History.DatabasePath,
		DatabaseBytes: size,
	}, format)
}
