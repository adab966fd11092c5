package server

import (
	"encoding/json"
	"net/http"
)

func (s *Server) initRoutes() {
	// Starting a link flow requires an authenticated application user
	s.RegisterRouteHandler("GET "+RouteLinkStart, ChainMiddleware(s.LinkStartHandler(), append(s.APIMiddleware(), s.RequireAuth())...))

	// The provider redirects the popup here; no app auth is possible
	s.RegisterRouteHandler("GET "+RouteLinkCallback, ChainMiddleware(s.LinkCallbackHandler(), s.HTMLMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteLinkCallback, ChainMiddleware(s.LinkCallbackHandler(), s.HTMLMiddleware()...)) // For form_post response mode

	// Outcome polling only needs knowledge of the session id
	s.RegisterRouteHandler("GET "+RouteLinkStatus, ChainMiddleware(s.LinkStatusHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
}

// HealthzHandler reports liveness for load balancers
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentTypeJSON)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"status": "ok",
			"app":    s.config.GetAppName(),
			"env":    s.env,
		})
	}
}
