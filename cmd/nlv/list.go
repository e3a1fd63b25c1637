package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noleftovers/nlv/internal/task"
	"github.com/noleftovers/nlv/internal/vault"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the master checklist",
	Run: func(cmd *cobra.Command, args []string) {
		openOnly, _ := cmd.Flags().GetBool("open")

		store := vault.New()
		text, err := store.ReadFile(cfg.MasterPath)
		if err != nil {
			if errors.Is(err, vault.ErrNotFound) {
				fmt.Printf("No master checklist at %s yet. Run 'nlv init' to create one.\n", cfg.MasterPath)
				return
			}
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		printChecklist(text, openOnly)
	},
}

func printChecklist(text string, openOnly bool) {
	yellow := color.New(color.FgYellow).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	for _, line := range strings.Split(text, "\n") {
		switch {
		case strings.HasPrefix(line, "#"):
			if !openOnly {
				fmt.Println(bold(line))
			}
		case task.IsChecked(line):
			if !openOnly {
				fmt.Println(green(line))
			}
		default:
			if _, ok := task.ParseLine(line); ok {
				fmt.Printf("%s\n", yellow(line))
			} else if !openOnly && strings.TrimSpace(line) != "" {
				fmt.Println(line)
			}
		}
	}

	open, done := countTasks(text)
	fmt.Println()
	fmt.Printf("%s\n", gray(fmt.Sprintf("%d open, %d done", open, done)))
}

// countTasks tallies open and completed checkbox lines in document text.
func countTasks(text string) (open, done int) {
	for _, line := range strings.Split(text, "\n") {
		if task.IsChecked(line) {
			done++
		} else if _, ok := task.ParseLine(line); ok {
			open++
		}
	}
	return open, done
}

func init() {
	listCmd.Flags().Bool("open", false, "Show only open tasks")
	rootCmd.AddCommand(listCmd)
}
