package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/edulinkhq/chansync/pkg/config"
	"github.com/edulinkhq/chansync/pkg/db"
	"github.com/edulinkhq/chansync/pkg/logger"
)

// resyncCmd represents the resync command
var resyncCmd = &cobra.Command{
	Use:   "resync [instance-id]",
	Short: "Run a full reconciliation pass",
	Long: `Run a full reconciliation pass.

Without arguments every bound channel is reconciled. With an instance id
only the channels of that module instance are reconciled.

Example:
  chansyncctl resync          # every bound channel
  chansyncctl resync 42       # one module instance`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		cfg := config.Get()
		logger.SetLevel(cfg.LogLevel)

		database, err := db.Connect(db.Config{})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		_, synchronizer, _, err := buildCore(cfg, database)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to build synchronizer:", err)
			os.Exit(1)
		}

		ctx := context.Background()
		if len(args) == 1 {
			err = synchronizer.SyncInstance(ctx, args[0], nil)
		} else {
			err = synchronizer.SyncAll(ctx)
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, "Resync failed:", err)
			os.Exit(1)
		}
		fmt.Println("Resync complete")
	},
}

func init() {
	rootCmd.AddCommand(resyncCmd)
}
