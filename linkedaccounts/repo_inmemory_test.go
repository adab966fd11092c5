package linkedaccounts_test

import (
	"testing"
	"time"

	"github.com/admuse/go-link-broker/internal/errors"
	"github.com/admuse/go-link-broker/linkedaccounts"
	"github.com/stretchr/testify/require"
)

func testAccount(provider string) *linkedaccounts.Account {
	return &linkedaccounts.Account{
		UserID:      "user-1",
		Provider:    provider,
		AccountID:   "acct-1",
		AccessToken: "token-1",
		LinkedAt:    time.Now(),
	}
}

func TestInMemoryRepo_UpsertAndGet(t *testing.T) {
	repo := linkedaccounts.NewInMemoryRepo()

	require.NoError(t, repo.Upsert(testAccount("meta")))

	account, err := repo.Get("user-1", "meta")
	require.NoError(t, err)
	require.Equal(t, "token-1", account.AccessToken)
	require.Equal(t, "acct-1", account.AccountID)
}

func TestInMemoryRepo_UpsertReplaces(t *testing.T) {
	repo := linkedaccounts.NewInMemoryRepo()

	require.NoError(t, repo.Upsert(testAccount("meta")))

	relinked := testAccount("meta")
	relinked.AccessToken = "token-2"
	require.NoError(t, repo.Upsert(relinked))

	account, err := repo.Get("user-1", "meta")
	require.NoError(t, err)
	require.Equal(t, "token-2", account.AccessToken)
}

func TestInMemoryRepo_UpsertValidation(t *testing.T) {
	repo := linkedaccounts.NewInMemoryRepo()

	require.Error(t, repo.Upsert(nil))
	require.Error(t, repo.Upsert(&linkedaccounts.Account{Provider: "meta"}))
	require.Error(t, repo.Upsert(&linkedaccounts.Account{UserID: "user-1"}))
}

func TestInMemoryRepo_GetUnknown(t *testing.T) {
	repo := linkedaccounts.NewInMemoryRepo()

	_, err := repo.Get("user-1", "meta")
	require.ErrorIs(t, err, errors.ErrAccountNotFound)
}

func TestInMemoryRepo_ListByUser(t *testing.T) {
	repo := linkedaccounts.NewInMemoryRepo()

	require.NoError(t, repo.Upsert(testAccount("tiktok")))
	require.NoError(t, repo.Upsert(testAccount("meta")))

	accounts, err := repo.ListByUser("user-1")
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	require.Equal(t, "meta", accounts[0].Provider)
	require.Equal(t, "tiktok", accounts[1].Provider)

	accounts, err = repo.ListByUser("nobody")
	require.NoError(t, err)
	require.Empty(t, accounts)
}

func TestInMemoryRepo_Delete(t *testing.T) {
	repo := linkedaccounts.NewInMemoryRepo()

	require.NoError(t, repo.Upsert(testAccount("meta")))
	require.NoError(t, repo.Delete("user-1", "meta"))

	_, err := repo.Get("user-1", "meta")
	require.ErrorIs(t, err, errors.ErrAccountNotFound)

	// Deleting again is not an error
	require.NoError(t, repo.Delete("user-1", "meta"))
}

func TestInMemoryRepo_GetReturnsCopy(t *testing.T) {
	repo := linkedaccounts.NewInMemoryRepo()

	require.NoError(t, repo.Upsert(testAccount("meta")))

	account, err := repo.Get("user-1", "meta")
	require.NoError(t, err)
	account.AccessToken = "mutated"

	again, err := repo.Get("user-1", "meta")
	require.NoError(t, err)
	require.Equal(t, "token-1", again.AccessToken)
}
