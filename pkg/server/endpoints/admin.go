package endpoints

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/edulinkhq/chansync/pkg/remote"
	"github.com/edulinkhq/chansync/pkg/server"
)

// TestConnectionResponse represents the response from /admin/test-connection
type TestConnectionResponse struct {
	Ok      bool   `json:"ok"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

// ResyncResponse represents the response from the resync endpoints
type ResyncResponse struct {
	Started bool `json:"started"`
}

// RegisterAdminEndpoints registers the admin API
func RegisterAdminEndpoints(s *server.Server) {
	s.Router.Handle(
		"/admin/test-connection",
		s.Auth.Middleware(handleTestConnection(s.Remote)),
	).Methods("POST")
	s.Router.Handle(
		"/admin/resync",
		s.Auth.Middleware(handleResyncAll(s.Sync)),
	).Methods("POST")
	s.Router.Handle(
		"/admin/resync/{instanceID}",
		s.Auth.Middleware(handleResyncInstance(s.Sync)),
	).Methods("POST")
}

// handleTestConnection probes the remote server and surfaces the raw status
// code and message, unlike the reconciliation paths which only log failures.
func handleTestConnection(tester server.ConnectionTester) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := tester.Ping(r.Context())
		if err == nil {
			respondWithJSON(w, http.StatusOK, TestConnectionResponse{Ok: true})
			return
		}

		response := TestConnectionResponse{Ok: false, Message: err.Error()}
		var remoteErr *remote.Error
		if errors.As(err, &remoteErr) {
			response.Status = remoteErr.Status
			response.Message = remoteErr.Message
		}
		respondWithJSON(w, http.StatusBadGateway, response)
	}
}

func handleResyncAll(resyncer server.Resyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := resyncer.SyncAll(r.Context()); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, ResyncResponse{Started: true})
	}
}

func handleResyncInstance(resyncer server.Resyncer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		instanceID := mux.Vars(r)["instanceID"]
		if err := resyncer.SyncInstance(r.Context(), instanceID, nil); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		respondWithJSON(w, http.StatusOK, ResyncResponse{Started: true})
	}
}
