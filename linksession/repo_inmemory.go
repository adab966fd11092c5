package linksession

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"github.com/admuse/go-link-broker/internal/errors"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultTTL           = 10 * time.Minute
	defaultSweepInterval = 5 * time.Minute
	defaultGracePeriod   = 30 * time.Second
	nonceLength          = 32 // bytes, before base64 encoding
)

// InMemoryConfig tunes the in-memory repo. Zero values fall back to
// defaults; Now and AfterFunc are injectable so tests can control
// expiry and grace deletion without sleeping.
type InMemoryConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	GracePeriod   time.Duration
	Now           func() time.Time
	AfterFunc     func(d time.Duration, f func())
}

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface for single-instance deployments. A background sweeper evicts
// expired sessions so abandoned flows cannot grow memory unbounded.
type InMemoryRepo struct {
	mu       sync.RWMutex
	sessions map[string]*LinkSession

	ttl       time.Duration
	grace     time.Duration
	now       func() time.Time
	afterFunc func(d time.Duration, f func())

	stopSweep chan struct{}
	closeOnce sync.Once
}

// NewInMemoryRepo creates the repo and starts its sweeper. Callers own
// the lifecycle and must Close it on shutdown.
func NewInMemoryRepo(cfg InMemoryConfig) *InMemoryRepo {
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}
	if cfg.GracePeriod <= 0 {
		cfg.GracePeriod = defaultGracePeriod
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = func(d time.Duration, f func()) { time.AfterFunc(d, f) }
	}

	r := &InMemoryRepo{
		sessions:  make(map[string]*LinkSession),
		ttl:       cfg.TTL,
		grace:     cfg.GracePeriod,
		now:       cfg.Now,
		afterFunc: cfg.AfterFunc,
		stopSweep: make(chan struct{}),
	}
	go r.sweepLoop(cfg.SweepInterval)

	return r
}

// Create generates a fresh session with independent random id and nonce.
func (r *InMemoryRepo) Create(userID, provider, origin string) (*LinkSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is required")
	}

	now := r.now()
	session := &LinkSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Provider:  provider,
		Origin:    origin,
		Nonce:     generateNonce(),
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[session.ID] = copySession(session)

	return session, nil
}

// Get retrieves a session by id. Expired sessions are still returned;
// callers decide between "expired" and "not found" responses.
func (r *InMemoryRepo) Get(id string) (*LinkSession, error) {
	if id == "" {
		return nil, errors.ErrSessionNotFound
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, errors.ErrSessionNotFound
	}

	return copySession(session), nil
}

// MarkCompleted flags a successful link and schedules grace deletion.
func (r *InMemoryRepo) MarkCompleted(id string) error {
	return r.markTerminal(id, func(s *LinkSession) {
		s.Completed = true
		s.Error = ""
	})
}

// MarkError records a failure reason and schedules grace deletion.
func (r *InMemoryRepo) MarkError(id, reason string) error {
	return r.markTerminal(id, func(s *LinkSession) {
		s.Completed = false
		s.Error = reason
	})
}

func (r *InMemoryRepo) markTerminal(id string, mutate func(*LinkSession)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return errors.ErrSessionNotFound
	}
	mutate(session)

	// Leave the session readable for a short window so a status poll
	// issued just after completion still observes the result.
	r.afterFunc(r.grace, func() {
		_ = r.Delete(id)
	})

	return nil
}

// Delete removes a session. Deleting an absent session is not an error.
func (r *InMemoryRepo) Delete(id string) error {
	if id == "" {
		return errors.ErrSessionNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.sessions, id)
	return nil
}

// Close stops the background sweeper.
func (r *InMemoryRepo) Close() error {
	r.closeOnce.Do(func() {
		close(r.stopSweep)
	})
	return nil
}

func (r *InMemoryRepo) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopSweep:
			return
		case <-ticker.C:
			r.sweep()
		}
	}
}

func (r *InMemoryRepo) sweep() {
	now := r.now()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, session := range r.sessions {
		if session.Expired(now) {
			delete(r.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		log.Debug().Int("removed", removed).Msg("Swept expired link sessions")
	}
}

func copySession(s *LinkSession) *LinkSession {
	c := *s
	return &c
}

// generateNonce creates a random base64url string, independent of the
// session id so learning one value reveals nothing about the other.
func generateNonce() string {
	b := make([]byte, nonceLength)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

var _ Repo = (*InMemoryRepo)(nil)
