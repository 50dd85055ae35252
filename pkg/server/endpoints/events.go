package endpoints

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/edulinkhq/chansync/pkg/events"
	"github.com/edulinkhq/chansync/pkg/server"
)

// EventResponse represents the response from the webhook endpoint
type EventResponse struct {
	Accepted bool `json:"accepted"`
}

// RegisterEventEndpoints registers the LMS webhook endpoint. The event kind
// rides in the path; the body carries the kind's payload fields.
func RegisterEventEndpoints(s *server.Server) {
	s.Router.Handle(
		"/events/{kind}",
		s.Auth.Middleware(handleEvent(s.Events)),
	).Methods("POST")
}

func handleEvent(router server.EventRouter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		kind := events.Kind(mux.Vars(r)["kind"])
		if !events.KnownKind(kind) {
			respondWithError(w, http.StatusNotFound, "unknown event kind")
			return
		}

		var event events.Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil && !errors.Is(err, io.EOF) {
			respondWithError(w, http.StatusBadRequest, "malformed event payload")
			return
		}
		// The path is authoritative for the kind.
		event.Kind = kind

		if err := router.Route(r.Context(), event); err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		respondWithJSON(w, http.StatusAccepted, EventResponse{Accepted: true})
	}
}
