package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-entropy-forensics/internal/config"
	"go-entropy-forensics/internal/store"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent scans from the history store",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		history, err := store.Open(cfg.Store.Path)
		if err != nil {
			return fmt.Errorf("failed to open scan history: %w", err)
		}
		defer history.Close()

		records, err := history.ListRecent(historyLimit)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no recorded scans")
			return nil
		}

		for _, rec := range records {
			fmt.Fprintf(cmd.OutOrStdout(), "%s  %-5s  score=%.1f  detector=%s  %s\n",
				rec.ScannedAt.Format("2006-01-02 15:04:05"),
				rec.Result.Kind,
				rec.Result.Score,
				rec.Result.DetectorTag,
				rec.Result.InputPath,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "l", 20, "Maximum number of scans to list")
	rootCmd.AddCommand(historyCmd)
}
