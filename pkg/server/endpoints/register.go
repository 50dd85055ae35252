package endpoints

import (
	"github.com/edulinkhq/chansync/pkg/server"
)

// RegisterAll registers all API endpoints on the server
func RegisterAll(srv *server.Server) {
	RegisterStatusEndpoint(srv)
	RegisterEventEndpoints(srv)
	RegisterAdminEndpoints(srv)
}
