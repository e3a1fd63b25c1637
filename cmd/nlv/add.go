package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/noleftovers/nlv/internal/capture"
	"github.com/noleftovers/nlv/internal/history"
	"github.com/noleftovers/nlv/internal/vault"
)

var addCmd = &cobra.Command{
	Use:   "add <task>...",
	Short: "Add tasks to the master checklist by hand",
	Long: `Append tasks to the master checklist without calling the language model.
Each argument becomes one task; duplicates of existing checklist entries
are skipped unless --no-dedupe is given.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		noDedupe, _ := cmd.Flags().GetBool("no-dedupe")
		if noDedupe {
			cfg.Dedupe = false
		}

		store := vault.New()

		var log *history.Store
		if cfg.HistoryPath != "" {
			var err error
			log, err = history.Open(cfg.HistoryPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: capture history unavailable: %v\n", err)
			} else {
				defer log.Close()
			}
		}

		session := capture.New(cfg, nil, store, log, nil)
		outcome, err := session.CaptureManual(ctx, args)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		printOutcome(cfg.MasterPath, outcome)
	},
}

func init() {
	addCmd.Flags().Bool("no-dedupe", false, "Append every task without duplicate suppression")
	rootCmd.AddCommand(addCmd)
}
