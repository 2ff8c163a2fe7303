// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/meritor/internal/adapters/notify"
	"github.com/okian/meritor/internal/adapters/repository"
	"github.com/okian/meritor/internal/domain/model"
)

// LedgerQueries is the rating ledger's read surface as the handlers use
// it. *ledger.Ledger satisfies it.
type LedgerQueries interface {
	Aggregate(ctx context.Context, ratee model.AccountID, topic model.TopicID) model.AggregateRating
	AggregateAtTime(ctx context.Context, ratee model.AccountID, topic model.TopicID, at time.Time) model.AggregateRating
	Rating(ctx context.Context, ratee model.AccountID, topic model.TopicID, rater model.AccountID) (model.RatingEvent, bool)
	RatingAtTime(ctx context.Context, ratee model.AccountID, topic model.TopicID, rater model.AccountID, at time.Time) (model.RatingEvent, bool)
	RatingTimestamps(ctx context.Context, ratee model.AccountID, topic model.TopicID, rater model.AccountID) []time.Time
	TopicRaters(ctx context.Context, ratee model.AccountID, topic model.TopicID) []model.AccountID
	RatedTopics(ctx context.Context, ratee model.AccountID) []model.TopicID
}

// Dependencies bundles everything the handler layer needs. The service
// in internal/app satisfies it.
type Dependencies interface {
	RegisterAccount(ctx context.Context, id model.AccountID) error
	RegisterTopic(ctx context.Context, id, parent model.TopicID) error
	ActivateTopic(ctx context.Context, id model.TopicID) error
	DeactivateTopic(ctx context.Context, id model.TopicID) error
	Accounts(ctx context.Context) []model.AccountID
	Topics(ctx context.Context) []model.TopicID

	SubmitRating(ctx context.Context, rater, ratee model.AccountID, topic model.TopicID, score int64) (model.RatingEvent, error)
	AdminSubmitRating(ctx context.Context, caller, rater, ratee model.AccountID, topic model.TopicID, score int64) (model.RatingEvent, error)

	RecordChallenge(ctx context.Context, account model.AccountID, topic model.TopicID, correct bool) (model.ExpertiseRecord, error)

	ExpertiseScoreAt(ctx context.Context, account model.AccountID, topic model.TopicID, at time.Time) int64
	PreviewScoreChange(ctx context.Context, account model.AccountID, topic model.TopicID, wouldBeCorrect bool) int64
	VotingWeight(ctx context.Context, account model.AccountID, topic model.TopicID) uint64
	EnqueueRecalc(ctx context.Context, account model.AccountID, topic model.TopicID) bool
	BatchRecalculate(ctx context.Context) int

	TopExperts(ctx context.Context, topic model.TopicID, limit int) ([]repository.Entry, error)
	ExpertRank(ctx context.Context, topic model.TopicID, account model.AccountID) (repository.Entry, error)

	Subscribe() <-chan notify.Event
	GetStats() map[string]interface{}
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler     *HealthHandler
	statsHandler      *StatsHandler
	ratingsHandler    *RatingsHandler
	ledgerHandler     *LedgerHandler
	scoresHandler     *ScoresHandler
	expertsHandler    *ExpertsHandler
	challengesHandler *ChallengesHandler
	registryHandler   *RegistryHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, queries LedgerQueries, maxExpertsLimit int) *Server {
	return &Server{
		healthHandler:     NewHealthHandler(),
		statsHandler:      NewStatsHandler(deps),
		ratingsHandler:    NewRatingsHandler(deps),
		ledgerHandler:     NewLedgerHandler(queries),
		scoresHandler:     NewScoresHandler(deps),
		expertsHandler:    NewExpertsHandler(deps, maxExpertsLimit),
		challengesHandler: NewChallengesHandler(deps),
		registryHandler:   NewRegistryHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(ctx context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/metrics", s.healthHandler.HandleMetrics)
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	mux.HandleFunc("/ratings", MetricsMiddleware(s.ratingsHandler.HandlePostRating, "ratings"))
	mux.HandleFunc("/admin/ratings", MetricsMiddleware(s.ratingsHandler.HandlePostAdminRating, "admin_ratings"))

	mux.HandleFunc("/aggregate/", MetricsMiddleware(s.ledgerHandler.HandleGetAggregate, "aggregate"))
	mux.HandleFunc("/ratings/", MetricsMiddleware(s.ledgerHandler.HandleGetRating, "rating_query"))
	mux.HandleFunc("/raters/", MetricsMiddleware(s.ledgerHandler.HandleGetRaters, "raters"))
	mux.HandleFunc("/rated-topics/", MetricsMiddleware(s.ledgerHandler.HandleGetRatedTopics, "rated_topics"))

	mux.HandleFunc("/scores/recalculate", MetricsMiddleware(s.scoresHandler.HandleRecalculate, "recalculate"))
	mux.HandleFunc("/scores/", MetricsMiddleware(s.scoresHandler.HandleGetScore, "scores"))
	mux.HandleFunc("/weights/", MetricsMiddleware(s.scoresHandler.HandleGetWeight, "weights"))
	mux.HandleFunc("/experts/", MetricsMiddleware(s.expertsHandler.HandleGetExperts, "experts"))

	mux.HandleFunc("/challenges", MetricsMiddleware(s.challengesHandler.HandlePostChallenge, "challenges"))

	mux.HandleFunc("/accounts", MetricsMiddleware(s.registryHandler.HandleAccounts, "accounts"))
	mux.HandleFunc("/topics", MetricsMiddleware(s.registryHandler.HandleTopics, "topics"))
	mux.HandleFunc("/topics/", MetricsMiddleware(s.registryHandler.HandleTopicState, "topic_state"))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// parseAt reads an optional ?at=RFC3339 query parameter, defaulting to
// the zero time with ok=true when absent.
func parseAt(r *http.Request) (time.Time, bool, error) {
	raw := r.URL.Query().Get("at")
	if raw == "" {
		return time.Time{}, false, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, err
	}
	return at, true, nil
}
