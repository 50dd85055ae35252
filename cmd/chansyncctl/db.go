package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// dbCmd groups the schema management subcommands
var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the synchronizer database",
	Long: `Manage the synchronizer database schema.

Covers the identity mapping, channel binding, deferred task, and LMS
read-model tables. Requires the DATABASE_URL environment variable.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(os.Stderr, "error: 'db' requires a subcommand (migrate)")
		fmt.Fprintln(os.Stderr)
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.AddCommand(dbCmd)
}
