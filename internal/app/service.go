// Package service wires the rating ledger, registries, expertise store,
// ranking store, and the recalculation pipeline behind one facade the
// HTTP API depends on.
package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/okian/meritor/internal/adapters/expertise"
	recalcqueue "github.com/okian/meritor/internal/adapters/mq/queue"
	workerpool "github.com/okian/meritor/internal/adapters/mq/worker"
	"github.com/okian/meritor/internal/adapters/notify"
	"github.com/okian/meritor/internal/adapters/registry"
	"github.com/okian/meritor/internal/adapters/repository"
	"github.com/okian/meritor/internal/domain/model"
	"github.com/okian/meritor/internal/domain/scoring"
	"github.com/okian/meritor/internal/ledger"
	"github.com/okian/meritor/pkg/logger"
	"github.com/okian/meritor/pkg/metrics"
)

// Service implements the API dependencies for the expertise system.
type Service struct {
	mu sync.RWMutex

	// Core components
	accounts *registry.Accounts
	topics   *registry.Topics
	ratings  *ledger.Ledger
	scores   expertise.Store
	ranks    repository.Store
	queue    recalcqueue.Queue
	pool     *workerpool.Pool
	bus      *notify.Bus

	// Configuration
	workerCount     int
	queueSize       int
	notifyBuffer    int
	cooldown        time.Duration
	recalcInterval  time.Duration
	maxExpertsLimit int
	adminAccounts   map[model.AccountID]struct{}
	clock           clock.Clock

	// State
	started bool
	stopCh  chan struct{}
	wg      sync.WaitGroup

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recalculation workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the capacity of the recalculation queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithNotifyBuffer sets the per-subscriber notification buffer.
func WithNotifyBuffer(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.notifyBuffer = size
		}
	}
}

// WithCooldown sets the rating amendment cooldown.
func WithCooldown(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.cooldown = d
		}
	}
}

// WithRecalcInterval sets the periodic full-recalculation sweep interval.
// Zero disables the sweep.
func WithRecalcInterval(d time.Duration) Option {
	return func(s *Service) {
		if d >= 0 {
			s.recalcInterval = d
		}
	}
}

// WithMaxExpertsLimit caps the limit accepted by TopExperts.
func WithMaxExpertsLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxExpertsLimit = n
		}
	}
}

// WithAdminAccounts sets the accounts allowed to bypass the cooldown.
func WithAdminAccounts(ids []model.AccountID) Option {
	return func(s *Service) {
		s.adminAccounts = make(map[model.AccountID]struct{}, len(ids))
		for _, id := range ids {
			s.adminAccounts[id] = struct{}{}
		}
	}
}

// WithClock sets the service clock. Tests drive a mock through this.
func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU() * 2,
		queueSize:       65536,
		notifyBuffer:    1024,
		cooldown:        ledger.DefaultCooldown,
		recalcInterval:  time.Minute,
		maxExpertsLimit: 100,
		adminAccounts:   map[model.AccountID]struct{}{},
		clock:           clock.New(),
		stopCh:          make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting expertise service...")

	s.accounts = registry.NewAccounts()
	s.topics = registry.NewTopics()
	s.bus = notify.NewBus(notify.WithBuffer(s.notifyBuffer))
	s.scores = expertise.NewMemStore()
	s.ranks = repository.NewTreapStore()
	s.ratings = ledger.New(
		s.accounts,
		s.topics,
		ledger.WithCooldown(s.cooldown),
		ledger.WithClock(s.clock),
		ledger.WithAuthorizer(s),
		ledger.WithNotifier(&busNotifier{bus: s.bus}),
	)

	s.queue = recalcqueue.NewInMemoryQueue(
		recalcqueue.WithCapacity(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s)
	s.pool.Start(ctx)

	if s.recalcInterval > 0 {
		s.wg.Add(1)
		go s.runSweep(ctx)
	}

	s.started = true
	s.logger.Info(ctx, "expertise service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Any("cooldown", s.cooldown),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping expertise service...")

	select {
	case <-s.stopCh:
	default:
		close(s.stopCh)
	}
	s.wg.Wait()

	if s.queue != nil {
		_ = s.queue.Close()
	}
	if s.pool != nil {
		s.pool.Stop()
	}
	if s.bus != nil {
		_ = s.bus.Close()
	}

	s.started = false
	s.logger.Info(ctx, "expertise service stopped")
}

// CanBypassCooldown implements ledger.Authorizer from the configured
// admin allowlist.
func (s *Service) CanBypassCooldown(ctx context.Context, caller model.AccountID) bool {
	_, ok := s.adminAccounts[caller]
	return ok
}

// runSweep periodically enqueues every known pair for recalculation so
// decay-bucket transitions surface without any new writes.
func (s *Service) runSweep(ctx context.Context) {
	defer s.wg.Done()

	ticker := s.clock.Ticker(s.recalcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			n := s.BatchRecalculate(ctx)
			s.logger.Debug(ctx, "recalculation sweep enqueued", logger.Int("pairs", n))
		}
	}
}

// --- Registration ---

// RegisterAccount adds an account to the registry.
func (s *Service) RegisterAccount(ctx context.Context, id model.AccountID) error {
	return s.accounts.Register(ctx, id)
}

// RegisterTopic adds a topic under an optional parent.
func (s *Service) RegisterTopic(ctx context.Context, id, parent model.TopicID) error {
	return s.topics.Register(ctx, id, parent)
}

// ActivateTopic re-enables ratings for a topic.
func (s *Service) ActivateTopic(ctx context.Context, id model.TopicID) error {
	return s.topics.Activate(ctx, id)
}

// DeactivateTopic disables ratings for a topic and its descendants.
func (s *Service) DeactivateTopic(ctx context.Context, id model.TopicID) error {
	return s.topics.Deactivate(ctx, id)
}

// Accounts exposes the account registry for read paths.
func (s *Service) Accounts(ctx context.Context) []model.AccountID {
	return s.accounts.List(ctx)
}

// Topics exposes the topic registry for read paths.
func (s *Service) Topics(ctx context.Context) []model.TopicID {
	return s.topics.List(ctx)
}

// --- Ratings ---

// SubmitRating appends a rating and queues the ratee's score refresh.
func (s *Service) SubmitRating(ctx context.Context, rater, ratee model.AccountID, topic model.TopicID, score int64) (model.RatingEvent, error) {
	e, err := s.ratings.SubmitRating(ctx, rater, ratee, topic, score)
	if err != nil {
		return model.RatingEvent{}, err
	}
	s.EnqueueRecalc(ctx, ratee, topic)
	return e, nil
}

// AdminSubmitRating appends a rating through the cooldown bypass.
func (s *Service) AdminSubmitRating(ctx context.Context, caller, rater, ratee model.AccountID, topic model.TopicID, score int64) (model.RatingEvent, error) {
	e, err := s.ratings.AdminSubmitRating(ctx, caller, rater, ratee, topic, score)
	if err != nil {
		return model.RatingEvent{}, err
	}
	s.EnqueueRecalc(ctx, ratee, topic)
	return e, nil
}

// Ledger exposes the rating ledger's query surface.
func (s *Service) Ledger() *ledger.Ledger {
	return s.ratings
}

// --- Challenges ---

// RecordChallenge stores one challenge outcome and queues the account's
// score refresh.
func (s *Service) RecordChallenge(ctx context.Context, account model.AccountID, topic model.TopicID, correct bool) (model.ExpertiseRecord, error) {
	if !s.accounts.IsRegistered(ctx, account) {
		return model.ExpertiseRecord{}, ledger.ErrUnregisteredAccount
	}
	if !s.topics.IsTopicActive(ctx, topic) {
		return model.ExpertiseRecord{}, ledger.ErrInactiveTopic
	}
	rec, err := s.scores.RecordChallenge(ctx, account, topic, correct, s.clock.Now())
	if err != nil {
		return model.ExpertiseRecord{}, err
	}
	s.EnqueueRecalc(ctx, account, topic)
	return rec, nil
}

// --- Scores ---

// ExpertiseScore blends the challenge and peer-rating paths as of now.
func (s *Service) ExpertiseScore(ctx context.Context, account model.AccountID, topic model.TopicID) int64 {
	return s.ExpertiseScoreAt(ctx, account, topic, s.clock.Now())
}

// ExpertiseScoreAt blends both paths as of an arbitrary instant, feeding
// the point-in-time aggregate into the peer path.
func (s *Service) ExpertiseScoreAt(ctx context.Context, account model.AccountID, topic model.TopicID, at time.Time) int64 {
	rec, _ := s.scores.Expertise(ctx, account, topic)
	agg := s.ratings.AggregateAtTime(ctx, account, topic, at)
	return scoring.ExpertiseScore(rec, agg, at)
}

// PreviewScoreChange answers "what would my score be if I attempted a
// challenge right now". Nothing is written.
func (s *Service) PreviewScoreChange(ctx context.Context, account model.AccountID, topic model.TopicID, wouldBeCorrect bool) int64 {
	now := s.clock.Now()
	rec, _ := s.scores.Expertise(ctx, account, topic)
	agg := s.ratings.AggregateAtTime(ctx, account, topic, now)
	return scoring.PreviewScore(rec, agg, wouldBeCorrect, now)
}

// VotingWeight returns the cached blended score as the caller's ballot
// weight. Pairs with no cached record weigh the evidence floor.
func (s *Service) VotingWeight(ctx context.Context, account model.AccountID, topic model.TopicID) uint64 {
	metrics.RecordVotingWeightRead()
	if rec, ok := s.scores.Expertise(ctx, account, topic); ok && rec.Score > 0 {
		return uint64(rec.Score)
	}
	return uint64(scoring.FloorScore)
}

// --- Recalculation ---

// Recalculate refreshes the cached score for one pair. It is idempotent:
// an unchanged score writes nothing and notifies nobody.
func (s *Service) Recalculate(ctx context.Context, account model.AccountID, topic model.TopicID) (bool, error) {
	metrics.RecordScoreRecalculation()

	now := s.clock.Now()
	rec, _ := s.scores.Expertise(ctx, account, topic)
	agg := s.ratings.Aggregate(ctx, account, topic)
	blended := scoring.ExpertiseScore(rec, agg, now)

	if blended == rec.Score {
		return false, nil
	}

	if err := s.scores.UpdateScore(ctx, account, topic, blended); err != nil {
		return false, err
	}
	if _, err := s.ranks.Update(ctx, topic, account, blended); err != nil {
		return false, err
	}

	metrics.RecordScoreChange()
	s.bus.Publish(ctx, notify.Event{
		Kind:    notify.KindScoreRecalculated,
		At:      now,
		Account: account,
		Topic:   topic,
		Old:     rec.Score,
		New:     blended,
	})
	return true, nil
}

// EnqueueRecalc queues one pair for asynchronous recalculation.
func (s *Service) EnqueueRecalc(ctx context.Context, account model.AccountID, topic model.TopicID) bool {
	return s.queue.Enqueue(ctx, recalcqueue.Job{Account: account, Topic: topic})
}

// BatchRecalculate queues every pair the system has evidence for: all
// rated (ratee, topic) keys plus all challenge-bearing pairs. Returns
// the number of pairs enqueued.
func (s *Service) BatchRecalculate(ctx context.Context) int {
	pairs := make(map[model.ExpertiseKey]struct{})
	for _, k := range s.ratings.Keys(ctx) {
		pairs[model.ExpertiseKey{Account: k.Ratee, Topic: k.Topic}] = struct{}{}
	}
	for _, k := range s.scores.Keys(ctx) {
		pairs[k] = struct{}{}
	}

	n := 0
	for k := range pairs {
		if s.EnqueueRecalc(ctx, k.Account, k.Topic) {
			n++
		}
	}
	return n
}

// --- Rankings ---

// TopExperts returns the topic's ranking, capped at the configured limit.
func (s *Service) TopExperts(ctx context.Context, topic model.TopicID, limit int) ([]repository.Entry, error) {
	if limit > s.maxExpertsLimit {
		limit = s.maxExpertsLimit
	}
	return s.ranks.TopN(ctx, topic, limit)
}

// ExpertRank returns one account's position in a topic's ranking.
func (s *Service) ExpertRank(ctx context.Context, topic model.TopicID, account model.AccountID) (repository.Entry, error) {
	return s.ranks.Rank(ctx, topic, account)
}

// --- Notifications ---

// Subscribe attaches a notification consumer.
func (s *Service) Subscribe() <-chan notify.Event {
	return s.bus.Subscribe()
}

// --- Stats ---

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.started {
		stats["queueLength"] = s.queue.Len(ctx)
		stats["accounts"] = s.accounts.Count(ctx)
		stats["topics"] = s.topics.Count(ctx)
		stats["ledgerEvents"] = s.ratings.EventCount(ctx)
		stats["ratedKeys"] = len(s.ratings.Keys(ctx))
		stats["rankedTopics"] = len(s.ranks.Topics(ctx))
	}

	return stats
}

// busNotifier forwards ledger notifications onto the bus.
type busNotifier struct {
	bus *notify.Bus
}

func (n *busNotifier) RatingSubmitted(ctx context.Context, e model.RatingEvent) {
	n.bus.Publish(ctx, notify.Event{
		Kind:    notify.KindRatingSubmitted,
		At:      e.Timestamp,
		Account: e.Ratee,
		Topic:   e.Topic,
		Rater:   e.Rater,
		New:     e.Score,
	})
}

func (n *busNotifier) RatingUpdated(ctx context.Context, e model.RatingEvent, oldScore int64) {
	n.bus.Publish(ctx, notify.Event{
		Kind:    notify.KindRatingUpdated,
		At:      e.Timestamp,
		Account: e.Ratee,
		Topic:   e.Topic,
		Rater:   e.Rater,
		Old:     oldScore,
		New:     e.Score,
	})
}

func (n *busNotifier) AggregateUpdated(ctx context.Context, key model.RatingKey, agg model.AggregateRating) {
	n.bus.Publish(ctx, notify.Event{
		Kind:    notify.KindAggregateUpdated,
		At:      agg.LastRatingTime,
		Account: key.Ratee,
		Topic:   key.Topic,
		Average: agg.AverageScore,
		Count:   agg.TotalRatings,
	})
}
