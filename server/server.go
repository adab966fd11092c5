package server

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/admuse/go-link-broker/internal/config"
	"github.com/admuse/go-link-broker/linkedaccounts"
	"github.com/admuse/go-link-broker/linksession"
	"github.com/admuse/go-link-broker/providers"
	"github.com/admuse/go-link-broker/statesign"
)

type Server struct {
	env      string // Environment (e.g., "development", "production")
	mux      *http.ServeMux
	routes   []string
	config   config.Config
	signer   *statesign.Signer
	sessions linksession.Repo
	accounts linkedaccounts.Repo
	registry *providers.Registry
}

func New(cfg config.Config, sessionRepo linksession.Repo, accountRepo linkedaccounts.Repo, registry *providers.Registry) (*Server, error) {
	secret := cfg.GetStateSigningSecret()
	if secret == "" {
		return nil, fmt.Errorf("[Server New] STATE_SIGNING_SECRET is required")
	}
	signer, err := statesign.New([]byte(secret))
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create state signer: %w", err)
	}
	if cfg.GetAuthTokenSecret() == "" {
		return nil, fmt.Errorf("[Server New] AUTH_TOKEN_SECRET is required")
	}

	s := &Server{
		mux:      http.NewServeMux(),
		config:   cfg,
		signer:   signer,
		sessions: sessionRepo,
		accounts: accountRepo,
		registry: registry,
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	var displayMethod string
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		displayMethod = color + paddedMethod + resetColor
	} else {
		displayMethod = gray + paddedMethod + resetColor
	}
	log.Printf("[%-19s] %s\n", displayMethod, path)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}

// callbackURL returns the broker's fixed callback address. A configured
// base wins; otherwise it is derived from the incoming request so local
// setups work without configuration.
func (s *Server) callbackURL(r *http.Request) string {
	base := s.config.GetCallbackBaseURL()
	if base == "" {
		base = fmt.Sprintf("%s://%s", getScheme(r), r.Host)
	}
	return strings.TrimSuffix(base, "/") + RouteLinkCallback
}
