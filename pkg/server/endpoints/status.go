package endpoints

import (
	"net/http"
	"os"

	"github.com/edulinkhq/chansync/pkg/server"
)

// StatusResponse represents the response from /status
type StatusResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// RegisterStatusEndpoint registers the status endpoint (no auth required)
func RegisterStatusEndpoint(s *server.Server) {
	s.Router.HandleFunc("/status", handleStatus()).Methods("GET")
}

func handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		version := os.Getenv("CHANSYNC_VERSION_DISPLAY")
		if version == "" {
			version = "0.1.0"
		}

		respondWithJSON(w, http.StatusOK, StatusResponse{
			Status:  "running",
			Version: version,
		})
	}
}
