package config

import "time"

type SecurityConfig interface {
	GetStateSigningSecret() string
	GetAuthTokenSecret() string
	GetLinkSessionTTL() time.Duration
	GetSweepInterval() time.Duration
	GetTerminalGracePeriod() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetStateSigningSecret returns the server-held secret used to sign OAuth
// state envelopes. There is no default; the broker refuses to start
// without it.
func (Security) GetStateSigningSecret() string {
	return GetEnv("STATE_SIGNING_SECRET", "")
}

// GetAuthTokenSecret returns the HS256 secret used to verify bearer
// tokens on authenticated routes.
func (Security) GetAuthTokenSecret() string {
	return GetEnv("AUTH_TOKEN_SECRET", "")
}

func (Security) GetLinkSessionTTL() time.Duration {
	return 10 * time.Minute // Abandoned link attempts age out
}

func (Security) GetSweepInterval() time.Duration {
	return 5 * time.Minute
}

// GetTerminalGracePeriod is how long a completed or failed session stays
// around so a late status poll still observes the result.
func (Security) GetTerminalGracePeriod() time.Duration {
	return 30 * time.Second
}
