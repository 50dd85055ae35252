package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/edulinkhq/chansync/pkg/config"
	"github.com/edulinkhq/chansync/pkg/events"
	"github.com/edulinkhq/chansync/pkg/server/middleware"
)

// EventRouter routes inbound LMS events. *events.Router satisfies it.
type EventRouter interface {
	Route(ctx context.Context, event events.Event) error
}

// Resyncer triggers full reconciliation passes. *sync.Synchronizer
// satisfies it.
type Resyncer interface {
	SyncInstance(ctx context.Context, instanceID string, forceSynchronousFor *string) error
	SyncAll(ctx context.Context) error
}

// ConnectionTester probes the remote server with the configured
// credentials. *remote.Client satisfies it.
type ConnectionTester interface {
	Ping(ctx context.Context) error
}

// Server is the inbound HTTP surface: LMS event webhooks plus a small
// admin API.
type Server struct {
	Router *mux.Router
	Config *config.Config

	Events EventRouter
	Sync   Resyncer
	Remote ConnectionTester

	Auth *middleware.TokenAuthenticator

	srv *http.Server
}

// NewServer fails fast on a missing webhook secret: an empty HMAC key
// would accept any token signed with an empty key.
func NewServer(
	cfg *config.Config,
	eventRouter EventRouter,
	resyncer Resyncer,
	remote ConnectionTester,
	host string,
	port string,
) (*Server, error) {
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("webhook secret is required")
	}

	router := mux.NewRouter().UseEncodedPath()
	srv := &http.Server{
		Handler: handlers.LoggingHandler(os.Stdout, router),
		Addr:    host + ":" + port,
		// Resync endpoints run full passes inline, hence the long write timeout.
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  15 * time.Second,
	}

	return &Server{
		Router: router,
		Config: cfg,
		Events: eventRouter,
		Sync:   resyncer,
		Remote: remote,
		Auth:   middleware.NewTokenAuthenticator(cfg.WebhookSecret),
		srv:    srv,
	}, nil
}

func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
