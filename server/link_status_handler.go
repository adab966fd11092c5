package server

import (
	"encoding/json"
	"net/http"
	"time"

	brokererrors "github.com/admuse/go-link-broker/internal/errors"
)

type linkStatusResponse struct {
	Completed bool      `json:"completed"`
	Error     *string   `json:"error"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LinkStatusHandler lets the initiating tab poll for the outcome of a
// link session, as a fallback when the popup's postMessage is missed.
// Read-only and safe to call repeatedly.
func (s *Server) LinkStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("linkSessionID")

		session, err := s.sessions.Get(id)
		if err != nil {
			jsonError(w, http.StatusNotFound, "not_found", brokererrors.ErrSessionNotFound)
			return
		}

		if session.Expired(time.Now()) {
			jsonError(w, http.StatusGone, "expired", brokererrors.ErrSessionExpired)
			return
		}

		resp := linkStatusResponse{
			Completed: session.Completed,
			ExpiresAt: session.ExpiresAt,
		}
		if session.Error != "" {
			resp.Error = &session.Error
		}

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
