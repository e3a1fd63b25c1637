package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noleftovers/nlv/internal/capture"
	"github.com/noleftovers/nlv/internal/extract"
	"github.com/noleftovers/nlv/internal/history"
	"github.com/noleftovers/nlv/internal/merge"
	"github.com/noleftovers/nlv/internal/task"
	"github.com/noleftovers/nlv/internal/vault"
)

var captureCmd = &cobra.Command{
	Use:   "capture <note-file> [<note-file>...]",
	Short: "Extract leftover tasks from notes and merge them into the master checklist",
	Long: `Read one or more journal notes, extract unresolved action items with the
configured model, and append the genuinely new ones to the master
checklist. Tasks already present in the checklist (compared
case-insensitively, ignoring whitespace and provenance) are skipped.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		review, _ := cmd.Flags().GetBool("review")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		noDedupe, _ := cmd.Flags().GetBool("no-dedupe")
		maxTasks, _ := cmd.Flags().GetInt("max")

		if noDedupe {
			cfg.Dedupe = false
		}
		if maxTasks > 0 {
			cfg.MaxTasks = maxTasks
		}

		extractor, err := extract.New(extract.Config{
			APIKey:   cfg.APIKey,
			Model:    cfg.Model,
			MaxTasks: cfg.MaxTasks,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		store := vault.New()

		if dryRun {
			if err := dryRunCapture(ctx, extractor, store, args); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			return
		}

		var log *history.Store
		if cfg.HistoryPath != "" {
			log, err = history.Open(cfg.HistoryPath)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: capture history unavailable: %v\n", err)
			} else {
				defer log.Close()
			}
		}

		var reviewer capture.Reviewer
		if review {
			reviewer = &capture.LineReviewer{}
		}

		session := capture.New(cfg, extractor, store, log, reviewer)

		failed := false
		for _, notePath := range args {
			outcome, err := session.CaptureNote(ctx, notePath)
			if err != nil {
				if errors.Is(err, capture.ErrReviewCancelled) {
					fmt.Println("Cancelled; nothing written.")
					return
				}
				fmt.Fprintf(os.Stderr, "Error: %s: %v\n", notePath, err)
				failed = true
				continue
			}
			printOutcome(notePath, outcome)
		}
		if failed {
			os.Exit(1)
		}
	},
}

// dryRunCapture runs extraction and the merge decision but writes nothing.
func dryRunCapture(ctx context.Context, extractor *extract.Extractor, store vault.Store, notePaths []string) error {
	yellow := color.New(color.FgYellow).SprintFunc()

	existing, err := store.ReadFile(cfg.MasterPath)
	if err != nil && !errors.Is(err, vault.ErrNotFound) {
		return err
	}

	for _, notePath := range notePaths {
		noteText, err := store.ReadFile(notePath)
		if err != nil {
			return fmt.Errorf("reading note %s: %w", notePath, err)
		}
		tasks, _, err := extractor.ExtractTasks(ctx, noteText)
		if err != nil {
			return fmt.Errorf("extracting tasks from %s: %w", notePath, err)
		}

		prov := task.Provenance{Value: todayValue(), Style: cfg.ProvenanceStyle}
		if prov.Style == task.StyleWikilink {
			base := filepath.Base(notePath)
			prov.Value = strings.TrimSuffix(base, filepath.Ext(base))
		}
		result := merge.Merge(existing, merge.Batch{Tasks: tasks, Provenance: prov},
			merge.Options{Dedupe: cfg.Dedupe})

		fmt.Printf("%s %s (dry run)\n", yellow("→"), notePath)
		if len(result.AppendedLines) == 0 {
			fmt.Println("  nothing new to add")
			continue
		}
		for _, line := range result.AppendedLines {
			fmt.Printf("  would append: %s\n", line)
		}
		if result.SkippedCount > 0 {
			fmt.Printf("  %d duplicate(s) skipped\n", result.SkippedCount)
		}
	}
	return nil
}

func printOutcome(notePath string, outcome *capture.Outcome) {
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	if outcome.NothingNew() {
		fmt.Printf("%s %s: nothing new to add", gray("○"), notePath)
		if outcome.Skipped > 0 {
			fmt.Printf(" (%d duplicate(s) skipped)", outcome.Skipped)
		}
		fmt.Println()
		return
	}

	fmt.Printf("%s %s: added %d task(s)", green("✓"), notePath, outcome.Added)
	if outcome.Skipped > 0 {
		fmt.Printf(", skipped %d duplicate(s)", outcome.Skipped)
	}
	fmt.Println()
	for _, line := range outcome.Lines {
		fmt.Printf("  %s\n", line)
	}
}

func init() {
	captureCmd.Flags().Bool("review", false, "Review each proposed task before committing")
	captureCmd.Flags().Bool("dry-run", false, "Show what would be appended without writing")
	captureCmd.Flags().Bool("no-dedupe", false, "Append every extracted task without duplicate suppression")
	captureCmd.Flags().IntP("max", "m", 0, "Maximum tasks to extract per note (overrides config)")
	rootCmd.AddCommand(captureCmd)
}
