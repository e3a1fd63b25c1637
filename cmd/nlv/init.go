package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/noleftovers/nlv/internal/config"
	"github.com/noleftovers/nlv/internal/vault"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file and the master checklist",
	Long: `Write a default .nlv.yaml in the current directory (unless one exists)
and create the master checklist file with its header.`,
	Run: func(cmd *cobra.Command, args []string) {
		green := color.New(color.FgGreen).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		if _, err := os.Stat(config.ConfigFileName); os.IsNotExist(err) {
			if err := cfg.Save(config.ConfigFileName); err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			fmt.Printf("%s Wrote %s\n", green("✓"), config.ConfigFileName)
		} else {
			fmt.Printf("%s %s already exists, leaving it alone\n", gray("○"), config.ConfigFileName)
		}

		store := vault.New()
		exists, err := store.Exists(cfg.MasterPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if exists {
			fmt.Printf("%s %s already exists, leaving it alone\n", gray("○"), cfg.MasterPath)
			return
		}
		if err := vault.EnsureMaster(store, cfg.MasterPath, cfg.Header); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("%s Created %s\n", green("✓"), cfg.MasterPath)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
