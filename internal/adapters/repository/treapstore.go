package repository

import (
	"context"
	"hash/fnv"
	"sort"
	"sync"
	"time"

	"github.com/okian/meritor/internal/domain/model"
	"github.com/okian/meritor/pkg/metrics"
)

// Treap-based, in-memory Store implementation, one treap per topic.
//
// Ordering: score DESC, then account ASC (deterministic). "less" means
// ranks earlier, so in-order traversal produces the ranking from best
// to worst. Subtree sizes give O(log n) expected rank queries.

// treap node
type node struct {
	id    model.AccountID
	score int64
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

// less returns true if (aScore, aID) ranks earlier than (bScore, bID).
func less(aScore int64, aID model.AccountID, bScore int64, bID model.AccountID) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

// priority hashes the account id so the treap stays balanced under the
// heavy score ties a 0..1000 range produces, while rebuilds stay
// deterministic.
func priority(id model.AccountID) uint64 {
	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64()
}

func rotateRight(y *node) *node {
	x := y.left
	t2 := x.right
	x.right = y
	y.left = t2
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	t2 := y.left
	y.left = x
	x.right = t2
	fix(x)
	fix(y)
	return y
}

func insert(n *node, id model.AccountID, score int64) *node {
	if n == nil {
		return &node{id: id, score: score, prio: priority(id), size: 1}
	}
	if less(score, id, n.score, n.id) {
		n.left = insert(n.left, id, score)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, id, score)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id model.AccountID, score int64) *node {
	if n == nil {
		return nil
	}
	if score == n.score && id == n.id {
		// Merge children by rotating the higher priority up until leaf.
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	} else if less(score, id, n.score, n.id) {
		n.left = deleteNode(n.left, id, score)
	} else {
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// countBefore returns the number of nodes ordered strictly before
// (score, id), using subtree sizes.
func countBefore(n *node, score int64, id model.AccountID) int {
	if n == nil {
		return 0
	}
	if less(n.score, n.id, score, id) {
		return nsize(n.left) + 1 + countBefore(n.right, score, id)
	}
	return countBefore(n.left, score, id)
}

// collectTopN appends up to limit entries in rank order.
func collectTopN(n *node, limit int, out *[]Entry) {
	if n == nil || len(*out) >= limit {
		return
	}
	collectTopN(n.left, limit, out)
	if len(*out) < limit {
		*out = append(*out, Entry{Account: n.id, Score: n.score})
	}
	if len(*out) < limit {
		collectTopN(n.right, limit, out)
	}
}

// assignRanks fills in competition ranks: equal scores share the rank of
// the first of their group, the next distinct score resumes at its
// position. Entries must already be in rank order starting at the top.
func assignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Score == entries[i-1].Score {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// board holds one topic's ranking.
type board struct {
	root      *node
	byAccount map[model.AccountID]int64
}

// TreapStore implements Store over per-topic treaps.
type TreapStore struct {
	mu     sync.RWMutex
	boards map[model.TopicID]*board
}

// NewTreapStore constructs an empty ranking store.
func NewTreapStore() *TreapStore {
	return &TreapStore{
		boards: make(map[model.TopicID]*board),
	}
}

// Update implements Store.Update with O(log n) expected time.
func (s *TreapStore) Update(ctx context.Context, topic model.TopicID, account model.AccountID, score int64) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	b, ok := s.boards[topic]
	if !ok {
		b = &board{byAccount: make(map[model.AccountID]int64)}
		s.boards[topic] = b
	}
	if old, ok := b.byAccount[account]; ok {
		if old == score {
			s.mu.Unlock()
			return false, nil
		}
		b.root = deleteNode(b.root, account, old)
	}
	b.byAccount[account] = score
	b.root = insert(b.root, account, score)
	total := 0
	for _, bb := range s.boards {
		total += len(bb.byAccount)
	}
	s.mu.Unlock()

	metrics.UpdateRankedAccounts(total)
	return true, nil
}

// Rank implements Store.Rank in O(log n) expected time.
func (s *TreapStore) Rank(ctx context.Context, topic model.TopicID, account model.AccountID) (Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[topic]
	if !ok {
		metrics.RecordErrorByComponent("rankstore", "not_found")
		return Entry{}, ErrNotFound
	}
	score, ok := b.byAccount[account]
	if !ok {
		metrics.RecordErrorByComponent("rankstore", "not_found")
		return Entry{}, ErrNotFound
	}

	// The empty id orders before any real account, so this counts exactly
	// the nodes with a strictly higher score. Ties then share the rank.
	rank := countBefore(b.root, score, "") + 1
	return Entry{Rank: rank, Account: account, Score: score}, nil
}

// TopN implements Store.TopN.
func (s *TreapStore) TopN(ctx context.Context, topic model.TopicID, n int) ([]Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordRankStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("rankstore", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.boards[topic]
	if !ok {
		return []Entry{}, nil
	}

	out := make([]Entry, 0, n)
	collectTopN(b.root, n, &out)
	assignRanks(out)
	return out, nil
}

// Count implements Store.Count.
func (s *TreapStore) Count(ctx context.Context, topic model.TopicID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if b, ok := s.boards[topic]; ok {
		return len(b.byAccount)
	}
	return 0
}

// Topics implements Store.Topics. Output is sorted for stable listings.
func (s *TreapStore) Topics(ctx context.Context) []model.TopicID {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.TopicID, 0, len(s.boards))
	for topic := range s.boards {
		out = append(out, topic)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
