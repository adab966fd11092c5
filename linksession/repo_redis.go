package linksession

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/admuse/go-link-broker/internal/errors"
	"github.com/google/uuid"
	"github.com/joeshaw/envdecode"
	"github.com/redis/go-redis/v9"
)

// RedisConfig for the Redis-backed repo. Defaults can be loaded via
// envdecode.
type RedisConfig struct {
	// RedisAddr like "localhost:6379". ENV: REDIS_ADDR
	RedisAddr string `env:"REDIS_ADDR,default=localhost:6379"`
	// KeyPrefix for all session keys. ENV: LINK_SESSIONS_KEY_PREFIX
	KeyPrefix string `env:"LINK_SESSIONS_KEY_PREFIX,default=linkbroker:sessions:"`
}

// RedisRepo stores link sessions in Redis so the broker can run as more
// than one replica. Redis key TTLs replace the in-memory sweeper: the
// session TTL bounds abandoned flows and the grace TTL keeps terminal
// sessions readable for late status polls.
type RedisRepo struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	grace     time.Duration
}

func NewRedisRepo(cfg RedisConfig, ttl, grace time.Duration) (*RedisRepo, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if grace <= 0 {
		grace = defaultGracePeriod
	}

	addr := cfg.RedisAddr
	if addr == "" {
		addr = "localhost:6379"
	}
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(context.Background()).Err(); err != nil {
		return nil, errors.Wrapf(err, "redis ping")
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "linkbroker:sessions:"
	}

	return &RedisRepo{client: cl, keyPrefix: prefix, ttl: ttl, grace: grace}, nil
}

// NewRedisRepoFromEnv builds a RedisRepo using envdecode to populate
// RedisConfig.
func NewRedisRepoFromEnv(ttl, grace time.Duration) (*RedisRepo, error) {
	var cfg RedisConfig
	// Defaults are provided via struct tags
	_ = envdecode.Decode(&cfg)
	return NewRedisRepo(cfg, ttl, grace)
}

func (r *RedisRepo) key(id string) string { return r.keyPrefix + id }

func (r *RedisRepo) Create(userID, provider, origin string) (*LinkSession, error) {
	if userID == "" {
		return nil, fmt.Errorf("userID is required")
	}

	now := time.Now()
	session := &LinkSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Provider:  provider,
		Origin:    origin,
		Nonce:     generateNonce(),
		CreatedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}

	if err := r.set(session, r.ttl); err != nil {
		return nil, err
	}
	return session, nil
}

func (r *RedisRepo) Get(id string) (*LinkSession, error) {
	if id == "" {
		return nil, errors.ErrSessionNotFound
	}

	data, err := r.client.Get(context.Background(), r.key(id)).Bytes()
	if err == redis.Nil {
		return nil, errors.ErrSessionNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "redis get")
	}

	var session LinkSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, errors.Wrapf(err, "unmarshalling link session")
	}
	return &session, nil
}

func (r *RedisRepo) MarkCompleted(id string) error {
	return r.markTerminal(id, func(s *LinkSession) {
		s.Completed = true
		s.Error = ""
	})
}

func (r *RedisRepo) MarkError(id, reason string) error {
	return r.markTerminal(id, func(s *LinkSession) {
		s.Completed = false
		s.Error = reason
	})
}

func (r *RedisRepo) markTerminal(id string, mutate func(*LinkSession)) error {
	session, err := r.Get(id)
	if err != nil {
		return err
	}
	mutate(session)

	// Rewrite with the grace TTL; Redis expiry performs the deletion
	return r.set(session, r.grace)
}

func (r *RedisRepo) Delete(id string) error {
	if id == "" {
		return errors.ErrSessionNotFound
	}
	if err := r.client.Del(context.Background(), r.key(id)).Err(); err != nil {
		return errors.Wrapf(err, "redis del")
	}
	return nil
}

// Close closes the Redis client.
func (r *RedisRepo) Close() error { return r.client.Close() }

func (r *RedisRepo) set(session *LinkSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return errors.Wrapf(err, "marshalling link session")
	}
	if err := r.client.Set(context.Background(), r.key(session.ID), data, ttl).Err(); err != nil {
		return errors.Wrapf(err, "redis set")
	}
	return nil
}

var _ Repo = (*RedisRepo)(nil)
