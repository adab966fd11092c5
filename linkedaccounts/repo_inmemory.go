package linkedaccounts

import (
	"sort"
	"sync"

	"github.com/admuse/go-link-broker/internal/errors"
)

// InMemoryRepo is a thread-safe in-memory implementation of the Repo
// interface
type InMemoryRepo struct {
	mu       sync.RWMutex
	accounts map[string]map[string]*Account // userID -> provider -> Account
}

// NewInMemoryRepo creates a new in-memory linked account repository
func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		accounts: make(map[string]map[string]*Account),
	}
}

// Upsert stores or replaces a linked account credential
func (r *InMemoryRepo) Upsert(account *Account) error {
	if account == nil {
		return errors.Wrapf(errors.ErrInternal, "account cannot be nil")
	}
	if account.UserID == "" || account.Provider == "" {
		return errors.Wrapf(errors.ErrInternal, "userID and provider are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.UserID]; !ok {
		r.accounts[account.UserID] = make(map[string]*Account)
	}

	// Store a copy to prevent external modifications
	c := *account
	r.accounts[account.UserID][account.Provider] = &c

	return nil
}

// Get retrieves the linked account for a user and provider
func (r *InMemoryRepo) Get(userID, provider string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byProvider, ok := r.accounts[userID]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}
	account, ok := byProvider[provider]
	if !ok {
		return nil, errors.ErrAccountNotFound
	}

	c := *account
	return &c, nil
}

// ListByUser returns every linked account for a user, ordered by provider
func (r *InMemoryRepo) ListByUser(userID string) ([]*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byProvider, ok := r.accounts[userID]
	if !ok {
		return nil, nil
	}

	accounts := make([]*Account, 0, len(byProvider))
	for _, account := range byProvider {
		c := *account
		accounts = append(accounts, &c)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Provider < accounts[j].Provider
	})

	return accounts, nil
}

// Delete removes a linked account
func (r *InMemoryRepo) Delete(userID, provider string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	byProvider, ok := r.accounts[userID]
	if !ok {
		return nil // Already doesn't exist, no error
	}

	delete(byProvider, provider)

	if len(byProvider) == 0 {
		delete(r.accounts, userID)
	}

	return nil
}

var _ Repo = (*InMemoryRepo)(nil)
