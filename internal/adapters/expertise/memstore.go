package expertise

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/okian/meritor/internal/domain/model"
	"github.com/okian/meritor/pkg/metrics"
)

// keySep joins account and topic into one cache key. NUL cannot appear in
// either identifier coming through the API layer.
const keySep = "\x00"

// MemStore implements Store on an in-process cache with no expiry: records
// live as long as the process. go-cache gives atomic single-key access; the
// mutex covers the read-modify-write cycles.
type MemStore struct {
	mu    sync.Mutex
	items *gocache.Cache
}

// NewMemStore creates an empty store.
func NewMemStore() *MemStore {
	return &MemStore{
		items: gocache.New(gocache.NoExpiration, 0),
	}
}

func storeKey(account model.AccountID, topic model.TopicID) string {
	return string(account) + keySep + string(topic)
}

// Expertise implements Store.Expertise.
func (s *MemStore) Expertise(ctx context.Context, account model.AccountID, topic model.TopicID) (model.ExpertiseRecord, bool) {
	v, ok := s.items.Get(storeKey(account, topic))
	if !ok {
		return model.ExpertiseRecord{}, false
	}
	return v.(model.ExpertiseRecord), true
}

// UpdateScore implements Store.UpdateScore as an upsert.
func (s *MemStore) UpdateScore(ctx context.Context, account model.AccountID, topic model.TopicID, score int64) error {
	if score < 0 || score > model.MaxRatingScore {
		return fmt.Errorf("%w: %d", ErrInvalidScore, score)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _ := s.Expertise(ctx, account, topic)
	rec.Score = score
	s.items.Set(storeKey(account, topic), rec, gocache.NoExpiration)
	return nil
}

// RecordChallenge implements Store.RecordChallenge.
func (s *MemStore) RecordChallenge(ctx context.Context, account model.AccountID, topic model.TopicID, correct bool, at time.Time) (model.ExpertiseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, _ := s.Expertise(ctx, account, topic)
	rec.TotalChallenges++
	if correct {
		rec.CorrectChallenges++
	}
	rec.LastActivityTime = at
	s.items.Set(storeKey(account, topic), rec, gocache.NoExpiration)
	metrics.RecordChallengeAttempt(correct)
	return rec, nil
}

// Keys implements Store.Keys. Order is unspecified.
func (s *MemStore) Keys(ctx context.Context) []model.ExpertiseKey {
	items := s.items.Items()
	out := make([]model.ExpertiseKey, 0, len(items))
	for k := range items {
		account, topic, ok := strings.Cut(k, keySep)
		if !ok {
			continue
		}
		out = append(out, model.ExpertiseKey{
			Account: model.AccountID(account),
			Topic:   model.TopicID(topic),
		})
	}
	return out
}
