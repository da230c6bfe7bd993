package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "capsule",
	Short: "Capsule - persistent memory store for conversational agents",
	Long: `Capsule stores long-term memory for conversational agents: free-text
notes with full-text search, and per-user relationship state with
merge-upsert semantics and a bounded intimacy score.

The storage file is protected by tiered automatic backups:
  - hourly, daily, weekly, and monthly age tiers, each keeping a
    configurable number of snapshots
  - on-demand snapshot, restore, and prune from the command line
  - an optional admin HTTP API over the same operations`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
