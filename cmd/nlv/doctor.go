package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noleftovers/nlv/internal/history"
	"github.com/noleftovers/nlv/internal/merge"
	"github.com/noleftovers/nlv/internal/vault"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check nlv configuration and environment health",
	Long: `Run health checks to diagnose common configuration problems.

This command checks for:
- A valid configuration
- An API key for extraction
- Master checklist existence and readability
- A stale lock file blocking captures
- Capture history database accessibility

Exit codes:
  0 - All checks passed
  1 - One or more checks failed`,
	Run: func(cmd *cobra.Command, args []string) {
		green := color.New(color.FgGreen).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()

		fmt.Printf("Running nlv health checks...\n\n")

		var failures []string
		var warnings []string

		// Configuration is already loaded and validated by the root
		// command's pre-run; reaching this point means it parsed.
		fmt.Printf("%s Configuration\n", cyan("→"))
		fmt.Printf("  %s Config valid (master: %s, dedupe: %v)\n", green("✓"), cfg.MasterPath, cfg.Dedupe)

		fmt.Printf("%s API key\n", cyan("→"))
		if cfg.APIKey == "" && os.Getenv("ANTHROPIC_API_KEY") == "" {
			warnings = append(warnings, "No API key configured; 'nlv capture' will fail ('nlv add' still works)")
			fmt.Printf("  %s No API key in config or ANTHROPIC_API_KEY\n", yellow("⚠"))
		} else {
			fmt.Printf("  %s API key present\n", green("✓"))
		}

		fmt.Printf("%s Master checklist\n", cyan("→"))
		store := vault.New()
		text, err := store.ReadFile(cfg.MasterPath)
		switch {
		case errors.Is(err, vault.ErrNotFound):
			warnings = append(warnings, fmt.Sprintf("%s does not exist yet; it will be created on first capture", cfg.MasterPath))
			fmt.Printf("  %s %s not created yet\n", yellow("⚠"), cfg.MasterPath)
		case err != nil:
			failures = append(failures, fmt.Sprintf("Cannot read %s: %v", cfg.MasterPath, err))
			fmt.Printf("  %s Cannot read %s\n", red("✗"), cfg.MasterPath)
		default:
			keys := merge.CollectKeys(text)
			fmt.Printf("  %s %s readable (%d open tasks)\n", green("✓"), cfg.MasterPath, len(keys))
			if !strings.HasPrefix(text, "#") {
				warnings = append(warnings, "Master checklist does not start with a header line")
				fmt.Printf("  %s Missing header line\n", yellow("⚠"))
			}
		}

		fmt.Printf("%s Lock file\n", cyan("→"))
		if _, err := os.Stat(cfg.MasterPath + ".lock"); err == nil {
			warnings = append(warnings, fmt.Sprintf("Lock file %s.lock exists; a capture may be running, or it is stale", cfg.MasterPath))
			fmt.Printf("  %s Lock file present\n", yellow("⚠"))
		} else {
			fmt.Printf("  %s No lock file\n", green("✓"))
		}

		fmt.Printf("%s Capture history\n", cyan("→"))
		if cfg.HistoryPath == "" {
			fmt.Printf("  %s History disabled\n", green("✓"))
		} else if log, err := history.Open(cfg.HistoryPath); err != nil {
			failures = append(failures, fmt.Sprintf("Cannot open history database: %v", err))
			fmt.Printf("  %s Cannot open %s\n", red("✗"), cfg.HistoryPath)
		} else {
			added, skipped, terr := log.Totals(context.Background())
			log.Close()
			if terr != nil {
				failures = append(failures, fmt.Sprintf("History database unreadable: %v", terr))
				fmt.Printf("  %s History database unreadable\n", red("✗"))
			} else {
				fmt.Printf("  %s History OK (%d added, %d skipped lifetime)\n", green("✓"), added, skipped)
			}
		}

		fmt.Println()
		for _, w := range warnings {
			fmt.Printf("%s %s\n", yellow("⚠"), w)
		}
		for _, f := range failures {
			fmt.Printf("%s %s\n", red("✗"), f)
		}
		if len(failures) > 0 {
			os.Exit(1)
		}
		fmt.Printf("%s All checks passed\n", green("✓"))
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}
