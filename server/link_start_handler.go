package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	brokererrors "github.com/admuse/go-link-broker/internal/errors"
	"github.com/admuse/go-link-broker/statesign"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

type linkStartResponse struct {
	AuthURL       string    `json:"authUrl"`
	LinkSessionID string    `json:"linkSessionId"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

type jsonErrorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
}

// jsonError translates a sentinel error into the OAuth-style JSON error
// body the API endpoints answer with.
func jsonError(w http.ResponseWriter, status int, code string, err error) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(jsonErrorResponse{Error: code, Description: err.Error()})
}

// LinkStartHandler begins a link flow: it creates a link session, signs
// the state envelope, and hands the caller the provider authorization
// URL to open in a popup.
func (s *Server) LinkStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := userIDFromContext(r.Context())
		if userID == "" {
			jsonError(w, http.StatusUnauthorized, "unauthorized", brokererrors.ErrUnauthenticated)
			return
		}

		// Without a declared origin the eventual postMessage cannot be
		// scoped, so refuse to start the flow
		origin := requestOrigin(r)
		if origin == "" {
			jsonError(w, http.StatusBadRequest, "bad_request", brokererrors.ErrOriginRequired)
			return
		}

		providerName := r.URL.Query().Get("provider")
		if providerName == "" {
			providerName = s.config.GetDefaultProvider()
		}
		provider, err := s.registry.Get(providerName)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "bad_request", brokererrors.ErrProviderNotFound)
			return
		}

		session, err := s.sessions.Create(userID, provider.Name, origin)
		if err != nil {
			log.Err(err).Msg("Failed to create link session")
			jsonError(w, http.StatusInternalServerError, "internal_error", brokererrors.ErrInternal)
			return
		}

		state, err := s.signer.Encode(statesign.Payload{
			LinkSessionID: session.ID,
			Nonce:         session.Nonce,
		})
		if err != nil {
			log.Err(err).Msg("Failed to sign state envelope")
			jsonError(w, http.StatusInternalServerError, "internal_error", brokererrors.ErrInternal)
			return
		}

		// The redirect URI is the broker's fixed callback address, never
		// the caller's origin, so one registered URI serves every
		// frontend deployment
		authURL := provider.OAuthConfig(s.callbackURL(r)).AuthCodeURL(state)

		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(linkStartResponse{
			AuthURL:       authURL,
			LinkSessionID: session.ID,
			ExpiresAt:     session.ExpiresAt,
		})
	}
}

// requestOrigin determines the initiating tab's web origin from the
// Origin header, falling back to the Referer's scheme and host. Header
// derivation is best effort; non-browser callers can omit or fake it,
// which costs them only the postMessage delivery.
func requestOrigin(r *http.Request) string {
	if origin := r.Header.Get("Origin"); origin != "" && origin != "null" {
		return origin
	}
	if referer := r.Header.Get("Referer"); referer != "" {
		if u, err := url.Parse(referer); err == nil && u.Scheme != "" && u.Host != "" {
			return u.Scheme + "://" + u.Host
		}
	}
	return ""
}
