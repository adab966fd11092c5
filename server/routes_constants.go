package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Link flow routes
	RouteLinkStart    = "/link/start"
	RouteLinkCallback = "/link/callback"
	RouteLinkStatus   = "/link/status/{linkSessionID}"

	// Ops routes
	RouteHealthz = "/healthz"
)
