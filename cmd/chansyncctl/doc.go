// Package main provides chansyncctl, the CLI for the channel membership
// synchronizer.
//
// The synchronizer keeps membership of private channels on a remote chat
// server converged with role-based group membership in a host LMS.
//
// # Architecture
//
//   - pkg/server: HTTP server and routing for LMS webhooks and the admin API
//   - pkg/sync: the reconciliation engine (snapshot diff, scope fan-out)
//   - pkg/service: remote-service semantics over the HTTP client
//   - pkg/remote: typed HTTP client for the chat server API
//   - pkg/events: event-to-synchronizer routing, immediate or deferred
//   - pkg/tasks: database-backed deferred task queue and worker
//   - pkg/store: storage interfaces with GORM implementations
//   - pkg/model: database models
//   - pkg/db: database connection utilities
//   - pkg/audit: audit logging
//   - pkg/config: configuration management
//
// # Quick Start
//
//	# Run database migrations
//	chansyncctl db migrate
//
//	# Verify remote connectivity and credentials
//	chansyncctl test-connection
//
//	# Start the webhook server
//	chansyncctl server
//
//	# Start the deferred task worker
//	chansyncctl worker
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - CHANSYNC_CONFIG_PATH: Directory holding chansync.yml
//   - CHANSYNC_REMOTE_API_SECRET: Shared secret for the remote chat API
//   - CHANSYNC_WEBHOOK_SECRET: Shared secret for inbound webhook tokens
//   - CHANSYNC_LOG_LEVEL: Log level (debug, info, warn, error)
//   - PORT: Server port (default: 8000)
package main
