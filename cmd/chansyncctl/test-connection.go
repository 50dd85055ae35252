package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/edulinkhq/chansync/pkg/config"
	"github.com/edulinkhq/chansync/pkg/remote"
)

// testConnectionCmd represents the test-connection command
var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Verify connectivity and credentials against the remote server",
	Long: `Verify connectivity and credentials against the remote chat server.

Unlike the reconciliation paths, which only log remote failures, this
command surfaces the raw status code and error message.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()

		client, err := remote.NewClient(remote.Config{
			BaseURL:   cfg.RemoteBaseURL,
			APISecret: cfg.RemoteAPISecret,
			TeamSlug:  cfg.RemoteTeamSlug,
			Timeout:   time.Duration(cfg.RemoteTimeoutSeconds) * time.Second,
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Invalid remote configuration:", err)
			os.Exit(1)
		}

		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.RemoteTimeoutSeconds)*time.Second)
		defer cancel()

		if err := client.Ping(ctx); err != nil {
			var remoteErr *remote.Error
			if errors.As(err, &remoteErr) {
				fmt.Fprintf(os.Stderr, "Connection failed: status %d: %s\n", remoteErr.Status, remoteErr.Message)
			} else {
				fmt.Fprintln(os.Stderr, "Connection failed:", err)
			}
			os.Exit(1)
		}

		fmt.Printf("Connection to %s OK\n", cfg.RemoteBaseURL)
	},
}

func init() {
	rootCmd.AddCommand(testConnectionCmd)
}
