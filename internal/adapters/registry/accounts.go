// Package registry provides the account and topic registries the ledger
// validates submissions against. Both are small in-memory authorities; the
// ledger only ever consults them through narrow read interfaces.
package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/okian/meritor/internal/domain/model"
)

// Accounts is the participant registry.
type Accounts struct {
	mu  sync.RWMutex
	ids map[model.AccountID]struct{}
}

// NewAccounts creates an empty account registry.
func NewAccounts() *Accounts {
	return &Accounts{ids: make(map[model.AccountID]struct{})}
}

// Register adds a new account.
func (a *Accounts) Register(ctx context.Context, id model.AccountID) error {
	if id == "" {
		return ErrEmptyID
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.ids[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateAccount, id)
	}
	a.ids[id] = struct{}{}
	return nil
}

// IsRegistered reports whether id is a known account.
func (a *Accounts) IsRegistered(ctx context.Context, id model.AccountID) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	_, ok := a.ids[id]
	return ok
}

// Count returns the number of registered accounts.
func (a *Accounts) Count(ctx context.Context) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.ids)
}

// List returns all registered accounts in lexical order.
func (a *Accounts) List(ctx context.Context) []model.AccountID {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]model.AccountID, 0, len(a.ids))
	for id := range a.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
