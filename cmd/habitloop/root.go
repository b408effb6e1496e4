package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the HabitLoop CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "habitloop",
		Short: "HabitLoop - habit and workout tracking server",
		Long: `HabitLoop is a habit and workout tracking backend with token
authentication, an idempotent completion ledger, and streak/XP stats
derived from that ledger.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewSeedCmd())
	cmd.AddCommand(NewPurgeHabitCmd())

	return cmd
}
