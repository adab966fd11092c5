package linksession_test

import (
	"testing"
	"time"

	"github.com/admuse/go-link-broker/internal/errors"
	"github.com/admuse/go-link-broker/linksession"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newRedisRepo connects to the Redis named by the environment, skipping
// the test when none is reachable. Each test gets its own key prefix so
// concurrent runs cannot see each other's sessions.
func newRedisRepo(t *testing.T, ttl, grace time.Duration) *linksession.RedisRepo {
	t.Helper()
	t.Setenv("LINK_SESSIONS_KEY_PREFIX", "linkbroker:test:"+uuid.NewString()+":")

	repo, err := linksession.NewRedisRepoFromEnv(ttl, grace)
	if err != nil {
		t.Skipf("skipping redis link session tests: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestRedisRepo_CreateAndGet(t *testing.T) {
	repo := newRedisRepo(t, time.Minute, 30*time.Second)

	session, err := repo.Create("user-1", "meta", "https://app.example.com")
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)
	require.NotEmpty(t, session.Nonce)
	require.NotEqual(t, session.ID, session.Nonce)

	got, err := repo.Get(session.ID)
	require.NoError(t, err)
	require.Equal(t, session.ID, got.ID)
	require.Equal(t, session.Nonce, got.Nonce)
	require.Equal(t, "user-1", got.UserID)
	require.Equal(t, "meta", got.Provider)
	require.Equal(t, "https://app.example.com", got.Origin)
	require.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)
	require.False(t, got.Completed)
}

func TestRedisRepo_CreateRequiresUser(t *testing.T) {
	repo := newRedisRepo(t, time.Minute, 30*time.Second)

	_, err := repo.Create("", "meta", "https://app.example.com")
	require.Error(t, err)
}

func TestRedisRepo_GetUnknown(t *testing.T) {
	repo := newRedisRepo(t, time.Minute, 30*time.Second)

	_, err := repo.Get("nope")
	require.ErrorIs(t, err, errors.ErrSessionNotFound)
}

func TestRedisRepo_TTLEviction(t *testing.T) {
	repo := newRedisRepo(t, 100*time.Millisecond, 30*time.Second)

	session, err := repo.Create("user-1", "meta", "https://app.example.com")
	require.NoError(t, err)

	// Redis key expiry stands in for the in-memory sweeper
	require.Eventually(t, func() bool {
		_, err := repo.Get(session.ID)
		return errors.Is(err, errors.ErrSessionNotFound)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisRepo_TerminalGraceWindow(t *testing.T) {
	repo := newRedisRepo(t, time.Minute, 150*time.Millisecond)

	session, err := repo.Create("user-1", "meta", "https://app.example.com")
	require.NoError(t, err)
	require.NoError(t, repo.MarkCompleted(session.ID))

	// Still readable during the grace window so a late status poll
	// observes the outcome
	got, err := repo.Get(session.ID)
	require.NoError(t, err)
	require.True(t, got.Completed)
	require.Empty(t, got.Error)

	// Marking terminal rewrote the key with the grace TTL; expiry then
	// removes it
	require.Eventually(t, func() bool {
		_, err := repo.Get(session.ID)
		return errors.Is(err, errors.ErrSessionNotFound)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestRedisRepo_MarkError(t *testing.T) {
	repo := newRedisRepo(t, time.Minute, time.Minute)

	session, err := repo.Create("user-1", "meta", "https://app.example.com")
	require.NoError(t, err)
	require.NoError(t, repo.MarkError(session.ID, "token exchange failed"))

	got, err := repo.Get(session.ID)
	require.NoError(t, err)
	require.False(t, got.Completed)
	require.Equal(t, "token exchange failed", got.Error)
	require.True(t, got.Terminal())
}

func TestRedisRepo_MarkUnknown(t *testing.T) {
	repo := newRedisRepo(t, time.Minute, time.Minute)

	require.ErrorIs(t, repo.MarkCompleted("nope"), errors.ErrSessionNotFound)
	require.ErrorIs(t, repo.MarkError("nope", "x"), errors.ErrSessionNotFound)
}

func TestRedisRepo_Delete(t *testing.T) {
	repo := newRedisRepo(t, time.Minute, time.Minute)

	session, err := repo.Create("user-1", "meta", "https://app.example.com")
	require.NoError(t, err)

	require.NoError(t, repo.Delete(session.ID))
	_, err = repo.Get(session.ID)
	require.ErrorIs(t, err, errors.ErrSessionNotFound)

	// Deleting again is not an error
	require.NoError(t, repo.Delete(session.ID))
}
