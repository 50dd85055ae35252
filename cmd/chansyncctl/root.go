package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "chansyncctl",
	Short: "LMS to chat-server channel membership synchronizer",
	Long: `chansyncctl runs and manages the channel membership synchronizer.

The synchronizer keeps private channels on a remote chat server converged
with role-based enrollment state in a host LMS.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
