package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noleftovers/nlv/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent capture operations",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		limit, _ := cmd.Flags().GetInt("limit")

		if cfg.HistoryPath == "" {
			fmt.Println("Capture history is disabled (history_path is empty).")
			return
		}

		store, err := history.Open(cfg.HistoryPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()

		captures, err := store.Recent(ctx, limit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()

		if len(captures) == 0 {
			fmt.Println("No captures recorded yet.")
			return
		}

		for _, c := range captures {
			source := c.NotePath
			if source == "" {
				source = "(manual)"
			}
			fmt.Printf("%s  %s\n", c.StartedAt.Local().Format("2006-01-02 15:04"), source)
			fmt.Printf("  %s added, %d skipped", green(fmt.Sprintf("%d", c.Added)), c.Skipped)
			if c.Dropped > 0 {
				fmt.Printf(", %d dropped", c.Dropped)
			}
			if c.Model != "" {
				fmt.Printf("  %s", gray(c.Model))
			}
			if c.Duration > 0 {
				fmt.Printf("  %s", gray(c.Duration.Round(time.Millisecond).String()))
			}
			fmt.Println()
		}

		added, skipped, err := store.Totals(ctx)
		if err == nil {
			fmt.Println()
			fmt.Printf("%s\n", gray(fmt.Sprintf("lifetime: %d added, %d skipped", added, skipped)))
		}
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of captures to show")
	rootCmd.AddCommand(historyCmd)
}
