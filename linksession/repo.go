// Package linksession tracks in-flight and recently finished attempts to
// connect an external account to an application user.
package linksession

import "time"

// LinkSession is one attempt to link an external provider account. The
// session never carries credential material; tokens obtained during the
// callback are persisted directly against the user.
type LinkSession struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Provider  string    `json:"provider"`
	Origin    string    `json:"origin"`
	Nonce     string    `json:"nonce"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Completed bool      `json:"completed"`
	Error     string    `json:"error,omitempty"`
}

// Expired reports whether the session is past its deadline. Eviction is
// best-effort, so callers must check this even when Get succeeds.
func (s *LinkSession) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Terminal reports whether the session reached a final state.
func (s *LinkSession) Terminal() bool {
	return s.Completed || s.Error != ""
}

type Repo interface {
	Create(userID, provider, origin string) (*LinkSession, error)
	Get(id string) (*LinkSession, error)
	MarkCompleted(id string) error
	MarkError(id, reason string) error
	Delete(id string) error
	Close() error
}
