// Package ledger implements the temporal peer-rating ledger: an append-only
// event store per (ratee, topic, rater) with cooldown-gated amendments, a
// derived aggregate cache, and point-in-time reconstruction of any aggregate
// or single rating as it existed at a past instant.
package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/okian/meritor/internal/domain/model"
	"github.com/okian/meritor/internal/domain/orderedset"
	"github.com/okian/meritor/pkg/metrics"
)

// DefaultCooldown is the minimum wait between two ratings from the same
// rater for the same (ratee, topic).
const DefaultCooldown = 182 * 24 * time.Hour

// AccountDirectory answers registration checks for submission validation.
type AccountDirectory interface {
	IsRegistered(ctx context.Context, id model.AccountID) bool
}

// TopicDirectory answers activation checks for submission validation.
type TopicDirectory interface {
	IsTopicActive(ctx context.Context, id model.TopicID) bool
}

// Authorizer is the narrow capability gating the cooldown bypass path.
// It is resolved at construction; there are no runtime role flags.
type Authorizer interface {
	CanBypassCooldown(ctx context.Context, caller model.AccountID) bool
}

// Notifier receives ledger change notifications. All methods are called
// outside the ledger lock and after the write has committed.
type Notifier interface {
	RatingSubmitted(ctx context.Context, e model.RatingEvent)
	RatingUpdated(ctx context.Context, e model.RatingEvent, oldScore int64)
	AggregateUpdated(ctx context.Context, key model.RatingKey, agg model.AggregateRating)
}

// timelineSet holds everything the ledger knows about one (ratee, topic):
// one ascending event timeline per rater, the insertion-ordered rater set,
// and the derived aggregate cache.
type timelineSet struct {
	timelines map[model.AccountID][]model.RatingEvent
	raters    *orderedset.Set
	agg       model.AggregateRating
}

// Ledger is the authoritative rating store. One RWMutex linearizes all
// mutations; submissions are read-modify-write cycles (validate, append,
// full aggregate recompute) that must not interleave for the same key.
type Ledger struct {
	mu   sync.RWMutex
	keys map[model.RatingKey]*timelineSet

	// ratedTopics tracks, per ratee, the topics that have ever received a
	// rating, in first-contact order.
	ratedTopics map[model.AccountID]*orderedset.Set

	events int64 // total appended events, for stats

	cooldown time.Duration
	clock    clock.Clock
	accounts AccountDirectory
	topics   TopicDirectory
	auth     Authorizer
	notifier Notifier
}

// New constructs a Ledger validating against the given directories.
func New(accounts AccountDirectory, topics TopicDirectory, opts ...Option) *Ledger {
	l := &Ledger{
		keys:        make(map[model.RatingKey]*timelineSet),
		ratedTopics: make(map[model.AccountID]*orderedset.Set),
		cooldown:    DefaultCooldown,
		clock:       clock.New(),
		accounts:    accounts,
		topics:      topics,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Cooldown returns the configured amendment cooldown.
func (l *Ledger) Cooldown() time.Duration {
	return l.cooldown
}

// SubmitRating validates and appends one rating event timestamped at the
// ledger clock's current instant. A failed submission leaves the ledger
// untouched.
func (l *Ledger) SubmitRating(ctx context.Context, rater, ratee model.AccountID, topic model.TopicID, score int64) (model.RatingEvent, error) {
	return l.submit(ctx, rater, ratee, topic, score, false)
}

// AdminSubmitRating is the privileged seeding path: identical validation
// minus the cooldown gate. caller is the principal invoking the bypass, not
// necessarily the rater; it must be authorized by the injected capability.
func (l *Ledger) AdminSubmitRating(ctx context.Context, caller, rater, ratee model.AccountID, topic model.TopicID, score int64) (model.RatingEvent, error) {
	if l.auth == nil || !l.auth.CanBypassCooldown(ctx, caller) {
		metrics.RecordRatingRejected("not_authorized")
		return model.RatingEvent{}, fmt.Errorf("caller %s: %w", caller, ErrNotAuthorized)
	}
	return l.submit(ctx, rater, ratee, topic, score, true)
}

func (l *Ledger) submit(ctx context.Context, rater, ratee model.AccountID, topic model.TopicID, score int64, bypassCooldown bool) (model.RatingEvent, error) {
	if err := l.validate(ctx, rater, ratee, topic, score); err != nil {
		return model.RatingEvent{}, err
	}

	now := l.clock.Now()
	key := model.RatingKey{Ratee: ratee, Topic: topic}

	l.mu.Lock()

	ts := l.keys[key]
	if ts == nil {
		ts = &timelineSet{
			timelines: make(map[model.AccountID][]model.RatingEvent),
			raters:    orderedset.New(),
		}
	}

	timeline := ts.timelines[rater]
	var prevScore int64
	amendment := len(timeline) > 0
	if amendment {
		prev := timeline[len(timeline)-1]
		prevScore = prev.Score
		if !bypassCooldown && now.Before(prev.Timestamp.Add(l.cooldown)) {
			l.mu.Unlock()
			metrics.RecordRatingRejected("cooldown")
			return model.RatingEvent{}, &RatedTooRecentlyError{
				Rater:    rater,
				Ratee:    ratee,
				Topic:    topic,
				Previous: prev.Timestamp,
				Cooldown: l.cooldown,
			}
		}
		// Timelines are strictly increasing even on the bypass path.
		if !now.After(prev.Timestamp) {
			l.mu.Unlock()
			metrics.RecordRatingRejected("stale_timestamp")
			return model.RatingEvent{}, fmt.Errorf("%w: previous %s", ErrTimestampNotAfter, prev.Timestamp.Format(time.RFC3339))
		}
	}

	e := model.RatingEvent{
		ID:        uuid.NewString(),
		Rater:     rater,
		Ratee:     ratee,
		Topic:     topic,
		Score:     score,
		Timestamp: now,
	}

	ts.timelines[rater] = append(timeline, e)
	ts.raters.Add(string(rater))
	l.keys[key] = ts
	l.events++

	topicsSet := l.ratedTopics[ratee]
	if topicsSet == nil {
		topicsSet = orderedset.New()
		l.ratedTopics[ratee] = topicsSet
	}
	topicsSet.Add(string(topic))

	start := time.Now()
	ts.agg = recomputeAggregate(ts, now)
	agg := ts.agg
	eventsTotal := l.events
	keysTotal := len(l.keys)

	l.mu.Unlock()

	metrics.RecordAggregateRecompute(float64(time.Since(start).Milliseconds()))
	if amendment {
		metrics.RecordRatingAmended()
	} else {
		metrics.RecordRatingSubmitted()
	}
	metrics.UpdateLedgerEvents(int(eventsTotal))
	metrics.UpdateLedgerKeys(keysTotal)

	if l.notifier != nil {
		if amendment {
			l.notifier.RatingUpdated(ctx, e, prevScore)
		} else {
			l.notifier.RatingSubmitted(ctx, e)
		}
		l.notifier.AggregateUpdated(ctx, key, agg)
	}

	return e, nil
}

// validate applies the submission preconditions. Order: registration, self
// rating, score range, topic activation.
func (l *Ledger) validate(ctx context.Context, rater, ratee model.AccountID, topic model.TopicID, score int64) error {
	if !l.accounts.IsRegistered(ctx, rater) {
		metrics.RecordRatingRejected("unregistered_rater")
		return fmt.Errorf("rater %s: %w", rater, ErrUnregisteredAccount)
	}
	if !l.accounts.IsRegistered(ctx, ratee) {
		metrics.RecordRatingRejected("unregistered_ratee")
		return fmt.Errorf("ratee %s: %w", ratee, ErrUnregisteredAccount)
	}
	if rater == ratee {
		metrics.RecordRatingRejected("self_rating")
		return fmt.Errorf("%w: %s", ErrSelfRating, rater)
	}
	if score < 0 || score > model.MaxRatingScore {
		metrics.RecordRatingRejected("score_out_of_range")
		return fmt.Errorf("%w: %d", ErrScoreOutOfRange, score)
	}
	if !l.topics.IsTopicActive(ctx, topic) {
		metrics.RecordRatingRejected("inactive_topic")
		return fmt.Errorf("%w: %s", ErrInactiveTopic, topic)
	}
	return nil
}

// Aggregate returns the current aggregate for (ratee, topic): the cached
// view maintained on every append. The zero aggregate means no ratings.
func (l *Ledger) Aggregate(ctx context.Context, ratee model.AccountID, topic model.TopicID) model.AggregateRating {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := l.keys[model.RatingKey{Ratee: ratee, Topic: topic}]
	if ts == nil {
		return model.AggregateRating{}
	}
	return ts.agg
}

// AggregateAtTime reconstructs the aggregate as it existed at instant at:
// for every rater ever seen, their latest event with timestamp <= at. The
// result is identical to what Aggregate returned live at that instant.
func (l *Ledger) AggregateAtTime(ctx context.Context, ratee model.AccountID, topic model.TopicID, at time.Time) model.AggregateRating {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := l.keys[model.RatingKey{Ratee: ratee, Topic: topic}]
	if ts == nil {
		return model.AggregateRating{}
	}
	return recomputeAggregate(ts, at)
}

// Rating returns the rater's current (latest) rating for (ratee, topic).
func (l *Ledger) Rating(ctx context.Context, ratee model.AccountID, topic model.TopicID, rater model.AccountID) (model.RatingEvent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tl := l.timeline(ratee, topic, rater)
	if len(tl) == 0 {
		return model.RatingEvent{}, false
	}
	return tl[len(tl)-1], true
}

// RatingAtTime returns the rater's latest rating with timestamp <= at.
// ok is false when the rater's first event postdates at, or the rater never
// rated: an absent rating is never confusable with a real zero-score one.
func (l *Ledger) RatingAtTime(ctx context.Context, ratee model.AccountID, topic model.TopicID, rater model.AccountID, at time.Time) (model.RatingEvent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return latestAtOrBefore(l.timeline(ratee, topic, rater), at)
}

// RatingAtTimestamp returns the event created at exactly ts, if any.
func (l *Ledger) RatingAtTimestamp(ctx context.Context, ratee model.AccountID, topic model.TopicID, rater model.AccountID, ts time.Time) (model.RatingEvent, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tl := l.timeline(ratee, topic, rater)
	i := sort.Search(len(tl), func(i int) bool { return !tl[i].Timestamp.Before(ts) })
	if i < len(tl) && tl[i].Timestamp.Equal(ts) {
		return tl[i], true
	}
	return model.RatingEvent{}, false
}

// RatingExists reports whether the rater has ever rated (ratee, topic).
func (l *Ledger) RatingExists(ctx context.Context, ratee model.AccountID, topic model.TopicID, rater model.AccountID) bool {
	_, ok := l.Rating(ctx, ratee, topic, rater)
	return ok
}

// RatingExistsAtTimestamp reports whether an event exists at exactly ts.
func (l *Ledger) RatingExistsAtTimestamp(ctx context.Context, ratee model.AccountID, topic model.TopicID, rater model.AccountID, ts time.Time) bool {
	_, ok := l.RatingAtTimestamp(ctx, ratee, topic, rater, ts)
	return ok
}

// RatingTimestamps returns the rater's full amendment history as timestamps
// in ascending order.
func (l *Ledger) RatingTimestamps(ctx context.Context, ratee model.AccountID, topic model.TopicID, rater model.AccountID) []time.Time {
	l.mu.RLock()
	defer l.mu.RUnlock()
	tl := l.timeline(ratee, topic, rater)
	out := make([]time.Time, len(tl))
	for i, e := range tl {
		out[i] = e.Timestamp
	}
	return out
}

// AverageScore returns the current aggregate average for (ratee, topic).
func (l *Ledger) AverageScore(ctx context.Context, ratee model.AccountID, topic model.TopicID) int64 {
	return l.Aggregate(ctx, ratee, topic).AverageScore
}

// RatingCount returns the number of distinct raters for (ratee, topic).
func (l *Ledger) RatingCount(ctx context.Context, ratee model.AccountID, topic model.TopicID) int64 {
	return l.Aggregate(ctx, ratee, topic).TotalRatings
}

// TopicRaters returns every rater ever seen for (ratee, topic) in
// first-contact order.
func (l *Ledger) TopicRaters(ctx context.Context, ratee model.AccountID, topic model.TopicID) []model.AccountID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := l.keys[model.RatingKey{Ratee: ratee, Topic: topic}]
	if ts == nil {
		return nil
	}
	vals := ts.raters.Values()
	out := make([]model.AccountID, len(vals))
	for i, v := range vals {
		out[i] = model.AccountID(v)
	}
	return out
}

// RatedTopics returns every topic the ratee has ever been rated on, in
// first-contact order.
func (l *Ledger) RatedTopics(ctx context.Context, ratee model.AccountID) []model.TopicID {
	l.mu.RLock()
	defer l.mu.RUnlock()
	set := l.ratedTopics[ratee]
	if set == nil {
		return nil
	}
	vals := set.Values()
	out := make([]model.TopicID, len(vals))
	for i, v := range vals {
		out[i] = model.TopicID(v)
	}
	return out
}

// Keys enumerates every (ratee, topic) pair that has ever received a rating.
func (l *Ledger) Keys(ctx context.Context) []model.RatingKey {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.RatingKey, 0, len(l.keys))
	for k := range l.keys {
		out = append(out, k)
	}
	return out
}

// EventCount returns the total number of events ever appended.
func (l *Ledger) EventCount(ctx context.Context) int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.events
}

// timeline fetches one rater's event sequence. Callers hold l.mu.
func (l *Ledger) timeline(ratee model.AccountID, topic model.TopicID, rater model.AccountID) []model.RatingEvent {
	ts := l.keys[model.RatingKey{Ratee: ratee, Topic: topic}]
	if ts == nil {
		return nil
	}
	return ts.timelines[rater]
}

// recomputeAggregate rebuilds the aggregate over the latest qualifying
// event of every rater. Full rescan, O(raters): acceptable for small
// fan-in; larger deployments would maintain the aggregate incrementally
// while keeping this as the point-in-time reconstruction rule.
func recomputeAggregate(ts *timelineSet, at time.Time) model.AggregateRating {
	var sum, count int64
	var last time.Time
	for _, r := range ts.raters.Values() {
		e, ok := latestAtOrBefore(ts.timelines[model.AccountID(r)], at)
		if !ok {
			continue
		}
		sum += e.Score
		count++
		if e.Timestamp.After(last) {
			last = e.Timestamp
		}
	}
	if count == 0 {
		return model.AggregateRating{}
	}
	return model.AggregateRating{
		AverageScore:   sum / count,
		TotalRatings:   count,
		LastRatingTime: last,
	}
}

// latestAtOrBefore finds the last event with timestamp <= at in an
// ascending timeline.
func latestAtOrBefore(tl []model.RatingEvent, at time.Time) (model.RatingEvent, bool) {
	i := sort.Search(len(tl), func(i int) bool { return tl[i].Timestamp.After(at) })
	if i == 0 {
		return model.RatingEvent{}, false
	}
	return tl[i-1], true
}
