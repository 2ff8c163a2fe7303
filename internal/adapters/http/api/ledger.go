// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/okian/meritor/internal/domain/model"
)

// LedgerHandler serves the ledger's read-only query surface.
type LedgerHandler struct {
	queries LedgerQueries
}

// NewLedgerHandler creates a new ledger query handler.
func NewLedgerHandler(queries LedgerQueries) *LedgerHandler {
	return &LedgerHandler{queries: queries}
}

type aggregateResponse struct {
	Ratee          string     `json:"ratee"`
	Topic          string     `json:"topic"`
	AverageScore   int64      `json:"average_score"`
	TotalRatings   int64      `json:"total_ratings"`
	LastRatingTime *time.Time `json:"last_rating_time,omitempty"`
}

// HandleGetAggregate handles GET /aggregate/{ratee}/{topic}?at=RFC3339.
// An absent pair returns the zero aggregate, not 404: "no opinion yet"
// is an answer.
func (h *LedgerHandler) HandleGetAggregate(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_aggregate"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	parts := pathParts(r.URL.Path, "/aggregate/")
	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	ratee, topic := model.AccountID(parts[0]), model.TopicID(parts[1])

	at, hasAt, err := parseAt(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var agg model.AggregateRating
	if hasAt {
		agg = h.queries.AggregateAtTime(r.Context(), ratee, topic, at)
	} else {
		agg = h.queries.Aggregate(r.Context(), ratee, topic)
	}

	resp := aggregateResponse{
		Ratee:        string(ratee),
		Topic:        string(topic),
		AverageScore: agg.AverageScore,
		TotalRatings: agg.TotalRatings,
	}
	if !agg.LastRatingTime.IsZero() {
		t := agg.LastRatingTime
		resp.LastRatingTime = &t
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleGetRating handles:
//
//	GET /ratings/{ratee}/{topic}/{rater}?at=RFC3339
//	GET /ratings/{ratee}/{topic}/{rater}/timestamps
func (h *LedgerHandler) HandleGetRating(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rating"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	parts := pathParts(r.URL.Path, "/ratings/")
	switch {
	case len(parts) == 4 && parts[3] == "timestamps":
		ts := h.queries.RatingTimestamps(r.Context(),
			model.AccountID(parts[0]), model.TopicID(parts[1]), model.AccountID(parts[2]))
		if ts == nil {
			ts = []time.Time{}
		}
		writeJSON(w, http.StatusOK, ts)
	case len(parts) == 3:
		ratee, topic, rater := model.AccountID(parts[0]), model.TopicID(parts[1]), model.AccountID(parts[2])

		at, hasAt, err := parseAt(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}

		var e model.RatingEvent
		var ok bool
		if hasAt {
			e, ok = h.queries.RatingAtTime(r.Context(), ratee, topic, rater, at)
		} else {
			e, ok = h.queries.Rating(r.Context(), ratee, topic, rater)
		}
		if !ok {
			writeError(w, http.StatusNotFound, "not_found", nil)
			return
		}
		writeJSON(w, http.StatusOK, toRatingResponse(e))
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
	}
}

// HandleGetRaters handles GET /raters/{ratee}/{topic}, listing every
// rater ever seen for the pair in first-contact order.
func (h *LedgerHandler) HandleGetRaters(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_raters"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	parts := pathParts(r.URL.Path, "/raters/")
	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	raters := h.queries.TopicRaters(r.Context(), model.AccountID(parts[0]), model.TopicID(parts[1]))
	if raters == nil {
		raters = []model.AccountID{}
	}
	writeJSON(w, http.StatusOK, raters)
}

// HandleGetRatedTopics handles GET /rated-topics/{account}.
func (h *LedgerHandler) HandleGetRatedTopics(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rated_topics"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	parts := pathParts(r.URL.Path, "/rated-topics/")
	if len(parts) != 1 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	topics := h.queries.RatedTopics(r.Context(), model.AccountID(parts[0]))
	if topics == nil {
		topics = []model.TopicID{}
	}
	writeJSON(w, http.StatusOK, topics)
}

// pathParts splits the path remainder after prefix into non-empty
// segments.
func pathParts(path, prefix string) []string {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" {
		return nil
	}
	parts := strings.Split(rest, "/")
	for _, p := range parts {
		if p == "" {
			return nil
		}
	}
	return parts
}
