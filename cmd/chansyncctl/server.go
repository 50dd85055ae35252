package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/edulinkhq/chansync/pkg/config"
	"github.com/edulinkhq/chansync/pkg/db"
	"github.com/edulinkhq/chansync/pkg/events"
	"github.com/edulinkhq/chansync/pkg/logger"
	"github.com/edulinkhq/chansync/pkg/remote"
	"github.com/edulinkhq/chansync/pkg/server"
	"github.com/edulinkhq/chansync/pkg/server/endpoints"
	"github.com/edulinkhq/chansync/pkg/service"
	gormstore "github.com/edulinkhq/chansync/pkg/store/gorm"
	"github.com/edulinkhq/chansync/pkg/sync"
	"github.com/edulinkhq/chansync/pkg/tasks"
)

func defaultBindAddress() string {
	if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
		return addr
	}
	return "0.0.0.0"
}

func defaultPort() string {
	if port := os.Getenv("PORT"); port != "" {
		return port
	}
	return "8000"
}

// serverCmd represents the server command
var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the webhook and admin HTTP server",
	Long: `Run the webhook and admin HTTP server.

Requires the DATABASE_URL environment variable. Remote credentials come
from the configuration file or CHANSYNC_* environment variables.

By default, database migrations are run on startup. Use --no-migrate to skip.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Validate required environment variables first (fail fast)
		if os.Getenv("DATABASE_URL") == "" {
			fmt.Fprintln(os.Stderr, "DATABASE_URL environment variable is required")
			os.Exit(1)
		}

		cfg := config.Get()
		logger.SetLevel(cfg.LogLevel)
		if err := cfg.Validate(); err != nil {
			fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
			os.Exit(1)
		}

		// Run migrations unless --no-migrate is set
		noMigrate, _ := cmd.Flags().GetBool("no-migrate")
		if !noMigrate {
			log.Println("Running database migrations...")
			if err := runMigrations(); err != nil {
				fmt.Fprintf(os.Stderr, "Migration failed: %v\n", err)
				os.Exit(1)
			}
		}

		database, err := db.Connect(db.Config{})
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to connect to DB:", err)
			os.Exit(1)
		}

		client, synchronizer, provisioner, err := buildCore(cfg, database)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to build synchronizer:", err)
			os.Exit(1)
		}

		queue := tasks.NewQueue(gormstore.NewTaskStore(database))
		router := events.NewRouter(synchronizer, provisioner, queue, cfg.IsDeferredSource)

		host, _ := cmd.Flags().GetString("bind-address")
		port, _ := cmd.Flags().GetString("port")
		s, err := server.NewServer(cfg, router, synchronizer, client, host, port)
		if err != nil {
			fmt.Fprintln(os.Stderr, "Unable to build server:", err)
			os.Exit(1)
		}

		endpoints.RegisterAll(s)

		go watchConfig(cfg.ConfigFilePath())

		log.Printf("Running server at http://%s:%s...\n", host, port)
		log.Fatal(s.Start())
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringP("port", "p", defaultPort(), "server listen port")
	serverCmd.Flags().StringP("bind-address", "b", defaultBindAddress(), "server bind address")
	serverCmd.Flags().Bool("no-migrate", false, "skip running database migrations on start")
}

// buildCore wires the remote client, service, synchronizer, and provisioner
// from configuration.
func buildCore(cfg *config.Config, database *gorm.DB) (*remote.Client, *sync.Synchronizer, *sync.Provisioner, error) {
	client, err := remote.NewClient(remote.Config{
		BaseURL:   cfg.RemoteBaseURL,
		APISecret: cfg.RemoteAPISecret,
		TeamSlug:  cfg.RemoteTeamSlug,
		Timeout:   time.Duration(cfg.RemoteTimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, nil, nil, err
	}

	svc, err := service.New(client, gormstore.NewIdentityStore(database), cfg.RemotePageSize)
	if err != nil {
		return nil, nil, nil, err
	}

	bindings := gormstore.NewBindingsStore(database)
	roster := gormstore.NewRosterStore(database)

	synchronizer := sync.New(svc, roster, bindings, cfg)
	provisioner := sync.NewProvisioner(svc, bindings, sync.NamingConfig{
		CourseTemplate: cfg.ChannelNameTemplate,
		GroupTemplate:  cfg.GroupChannelNameTemplate,
		InvalidPattern: cfg.InvalidCharsPattern,
	})
	return client, synchronizer, provisioner, nil
}

// watchConfig reloads configuration when the config file changes. Reload
// swaps values into the running Config, so role sets and the
// deferred-source list take effect on the next pass; remote credentials
// and naming templates are captured at build time and still require a
// restart.
func watchConfig(path string) {
	if _, err := os.Stat(path); err != nil {
		logger.Debug("config file %s not present, reload watch disabled", path)
		return
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("failed to create config watcher: %v", err)
		return
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		logger.Warn("failed to watch config file %s: %v", path, err)
		return
	}

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if err := config.Reload(); err != nil {
					logger.Warn("config reload failed: %v", err)
					continue
				}
				logger.SetLevel(config.Get().LogLevel)
				log.Printf("Configuration reloaded from %s\n", path)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("config watcher error: %v", err)
		}
	}
}
