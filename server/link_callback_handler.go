package server

import (
	"crypto/subtle"
	"net/http"
	"time"

	brokererrors "github.com/admuse/go-link-broker/internal/errors"
	"github.com/admuse/go-link-broker/linkedaccounts"
	"github.com/rs/zerolog/log"
)

// LinkCallbackHandler completes a link flow when the provider redirects
// the popup back. Every outcome, success or failure, renders the popup
// result page with HTTP 200; the embedded script carries the real
// outcome to the opener tab.
func (s *Server) LinkCallbackHandler() http.HandlerFunc {
	tmpl, err := ParseTemplate("link_result.html")
	if err != nil {
		panic("Failed to parse link result template: " + err.Error())
	}

	return func(w http.ResponseWriter, r *http.Request) {
		// Parse form to support both GET (query params) and POST (form_post response mode)
		// r.FormValue works for both query params and POST form data
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")
		errorDesc := r.FormValue("error_description")

		// Check for authorization errors
		if errorParam != "" {
			log.Warn().Str("error", errorParam).Str("description", errorDesc).Msg("Provider returned an authorization error")
			s.renderLinkResult(w, tmpl, failurePage("authorization was not granted", "", "*"))
			return
		}

		if code == "" || state == "" {
			s.renderLinkResult(w, tmpl, failurePage(brokererrors.ErrMissingParameters.Error(), "", "*"))
			return
		}

		// Decode failures, malformed JSON and bad signatures are all the
		// same failure externally; only the log distinguishes them
		payload, err := s.signer.Decode(state)
		if err != nil {
			log.Warn().Msg("Rejected callback with unverifiable state")
			s.renderLinkResult(w, tmpl, failurePage(err.Error(), "", "*"))
			return
		}

		session, err := s.sessions.Get(payload.LinkSessionID)
		if err != nil {
			s.renderLinkResult(w, tmpl, failurePage("link session not found or expired", payload.LinkSessionID, "*"))
			return
		}

		// The postMessage target is the origin recorded at creation,
		// never anything taken from the callback request
		targetOrigin := session.Origin
		if targetOrigin == "" {
			targetOrigin = "*"
		}

		// A valid signed state replayed against a different session must
		// fail here even though its signature verifies
		if subtle.ConstantTimeCompare([]byte(session.Nonce), []byte(payload.Nonce)) != 1 {
			s.failSession(session.ID, brokererrors.ErrNonceMismatch.Error())
			s.renderLinkResult(w, tmpl, failurePage(brokererrors.ErrNonceMismatch.Error(), session.ID, targetOrigin))
			return
		}

		if session.Expired(time.Now()) {
			_ = s.sessions.Delete(session.ID)
			s.renderLinkResult(w, tmpl, failurePage(brokererrors.ErrSessionExpired.Error(), session.ID, targetOrigin))
			return
		}

		provider, err := s.registry.Get(session.Provider)
		if err != nil {
			log.Err(err).Str("provider", session.Provider).Msg("Link session references an unregistered provider")
			s.failSession(session.ID, brokererrors.ErrProviderNotFound.Error())
			s.renderLinkResult(w, tmpl, failurePage("could not complete linking", session.ID, targetOrigin))
			return
		}

		// No retry: on failure the user restarts the flow
		token, err := provider.Exchange(r.Context(), code, s.callbackURL(r))
		if err != nil {
			log.Err(err).Str("provider", provider.Name).Msg("Token exchange failed")
			s.failSession(session.ID, brokererrors.ErrExchangeFailed.Error())
			s.renderLinkResult(w, tmpl, failurePage("could not complete linking", session.ID, targetOrigin))
			return
		}

		accountID, err := provider.FetchAccountID(r.Context(), token)
		if err != nil {
			// The credential is still usable without the provider-side id
			log.Warn().Err(err).Str("provider", provider.Name).Msg("Failed to fetch provider account id")
		}

		// Persistence is the single last step; no failure branch above
		// ever writes a credential
		account := &linkedaccounts.Account{
			UserID:       session.UserID,
			Provider:     provider.Name,
			AccountID:    accountID,
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			TokenExpiry:  token.Expiry,
			LinkedAt:     time.Now(),
		}
		if err := s.accounts.Upsert(account); err != nil {
			log.Err(err).Str("user_id", session.UserID).Msg("Failed to persist linked account")
			s.failSession(session.ID, "failed to save credential")
			s.renderLinkResult(w, tmpl, failurePage("could not complete linking", session.ID, targetOrigin))
			return
		}

		if err := s.sessions.MarkCompleted(session.ID); err != nil {
			log.Err(err).Str("link_session_id", session.ID).Msg("Failed to mark link session completed")
		}

		s.renderLinkResult(w, tmpl, linkResultPage{
			Success:       true,
			Message:       "Your account has been connected.",
			LinkSessionID: session.ID,
			TargetOrigin:  targetOrigin,
		})
	}
}

func (s *Server) failSession(id, reason string) {
	if err := s.sessions.MarkError(id, reason); err != nil {
		log.Warn().Err(err).Str("link_session_id", id).Msg("Failed to record link session error")
	}
}
