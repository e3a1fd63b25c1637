// Command nlv captures leftover action items from journal notes into a
// running master checklist, deduplicating as it goes.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/noleftovers/nlv/internal/config"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// cfg is loaded once in the persistent pre-run and shared by all commands.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "nlv",
	Short: "Capture leftover action items into a master checklist",
	Long: `nlv reads free-form journal notes, extracts the unresolved action items
with a language model, and merges them into a master checklist file
without producing duplicate entries.

Configuration lives in .nlv.yaml (working directory, falling back to the
home directory). Run 'nlv init' to create one.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")

		var err error
		if path != "" {
			cfg, err = config.LoadFile(path)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default: .nlv.yaml)")
	rootCmd.Version = Version
}

// todayValue renders today's date in the configured provenance format.
func todayValue() string {
	return time.Now().Format(cfg.DateFormat)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
