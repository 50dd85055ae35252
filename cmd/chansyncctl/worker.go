package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/edulinkhq/chansync/pkg/config"
	"github.com/edulinkhq/chansync/pkg/db"
	"github.com/edulinkhq/chansync/pkg/events"
	"github.com/edulinkhq/chansync/pkg/logger"
	gormstore "github.com/edulinkhq/chansync/pkg/store/gorm"
	"github.com/edulinkhq/chansync/pkg/tasks"
)

// workerCmd represents the worker command
var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the deferred task worker",
	Long: `Run the deferred task worker.

The worker polls the deferred task table and dispatches queued
synchronization events. Delivery is at-least-once; tasks that fail keep
their lease and are retried after it expires.

Multiple workers can run concurrently against the same database.`,
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

		_, synchronizer, provisioner, err := buildCore(cfg, database)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to build synchronizer:", err)
			os.Exit(1)
		}

		// The worker dispatches directly; never re-enqueue from here or a
		// deferred kind would loop forever.
		router := events.NewRouter(synchronizer, provisioner, nil, nil)
		taskStore := gormstore.NewTaskStore(database)
		runner := tasks.NewRunner(taskStore, func(ctx context.Context, taskType string, payload []byte) error {
			return dispatchTask(ctx, router, taskType, payload)
		})

		ctx, cancel := context.WithCancel(context.Background())
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigChan
			log.Println("Shutting down worker...")
			cancel()
		}()

		log.Println("Worker running...")
		if err := runner.Run(ctx); err != nil && err != context.Canceled {
			fmt.Fprintln(os.Stderr, "Worker stopped:", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}

func dispatchTask(ctx context.Context, router *events.Router, taskType string, payload []byte) error {
	if taskType != events.TaskTypeEvent {
		return fmt.Errorf("unknown task type %q", taskType)
	}
	var event events.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("malformed task payload: %w", err)
	}
	return router.Dispatch(ctx, event)
}
