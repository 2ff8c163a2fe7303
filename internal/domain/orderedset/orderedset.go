// Package orderedset provides an insertion-ordered string set with an
// existence index. The ledger uses it for per-key rater sets and per-ratee
// rated-topic sets, where membership checks sit on the submission hot path
// and iteration order must stay stable across recomputations.
package orderedset

// Set keeps values in insertion order and answers membership in O(1).
// It is not safe for concurrent use; callers serialize access.
type Set struct {
	index  map[string]struct{}
	values []string
}

// New creates an empty set.
func New() *Set {
	return &Set{index: make(map[string]struct{})}
}

// Add inserts v if absent. Returns true if v was newly added.
func (s *Set) Add(v string) bool {
	if _, ok := s.index[v]; ok {
		return false
	}
	s.index[v] = struct{}{}
	s.values = append(s.values, v)
	return true
}

// Contains reports whether v is a member.
func (s *Set) Contains(v string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[v]
	return ok
}

// Values returns the members in insertion order. The slice is a copy.
func (s *Set) Values() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}

// Len returns the number of members.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}
