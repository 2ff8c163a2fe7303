// Package repository defines the per-topic expert ranking store.
package repository

import (
	"context"

	"github.com/okian/meritor/internal/domain/model"
)

// Entry represents one row of a topic's expert ranking.
type Entry struct {
	Rank    int
	Account model.AccountID
	Score   int64
}

// Store provides read/write access to the ranking state.
type Store interface {
	// Update sets the account's score under the topic, inserting it on
	// first sight. Returns true when the stored value changed.
	Update(ctx context.Context, topic model.TopicID, account model.AccountID, score int64) (bool, error)

	// Rank returns the current rank and score for an account under a topic.
	// Accounts with equal scores share a rank. Returns ErrNotFound when the
	// account holds no score under the topic.
	Rank(ctx context.Context, topic model.TopicID, account model.AccountID) (Entry, error)

	// TopN returns the top-N entries for a topic ordered by score desc,
	// account asc on ties.
	TopN(ctx context.Context, topic model.TopicID, n int) ([]Entry, error)

	// Count returns the number of ranked accounts under a topic.
	Count(ctx context.Context, topic model.TopicID) int

	// Topics lists every topic holding at least one ranked account.
	Topics(ctx context.Context) []model.TopicID
}
