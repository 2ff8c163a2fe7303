// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/meritor/internal/domain/model"
)

// RatingsDependencies defines the interface for rating submissions.
type RatingsDependencies interface {
	SubmitRating(ctx context.Context, rater, ratee model.AccountID, topic model.TopicID, score int64) (model.RatingEvent, error)
	AdminSubmitRating(ctx context.Context, caller, rater, ratee model.AccountID, topic model.TopicID, score int64) (model.RatingEvent, error)
}

// RatingsHandler handles rating submissions.
type RatingsHandler struct {
	deps RatingsDependencies
}

// NewRatingsHandler creates a new ratings handler.
func NewRatingsHandler(deps RatingsDependencies) *RatingsHandler {
	return &RatingsHandler{deps: deps}
}

// ratingRequest mirrors the OpenAPI schema for POST /ratings.
type ratingRequest struct {
	Caller string `json:"caller,omitempty"`
	Rater  string `json:"rater"`
	Ratee  string `json:"ratee"`
	Topic  string `json:"topic"`
	Score  int64  `json:"score"`
}

func (req ratingRequest) validate(admin bool) error {
	switch {
	case admin && strings.TrimSpace(req.Caller) == "":
		return errors.New("missing caller")
	case strings.TrimSpace(req.Rater) == "":
		return errors.New("missing rater")
	case strings.TrimSpace(req.Ratee) == "":
		return errors.New("missing ratee")
	case strings.TrimSpace(req.Topic) == "":
		return errors.New("missing topic")
	}
	return nil
}

type ratingResponse struct {
	ID        string    `json:"id"`
	Rater     string    `json:"rater"`
	Ratee     string    `json:"ratee"`
	Topic     string    `json:"topic"`
	Score     int64     `json:"score"`
	Timestamp time.Time `json:"timestamp"`
}

type cooldownResponse struct {
	Code    string    `json:"code"`
	Message string    `json:"message"`
	RetryAt time.Time `json:"retry_at"`
}

// HandlePostRating handles POST /ratings requests.
func (h *RatingsHandler) HandlePostRating(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_rating"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(false); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	e, err := h.deps.SubmitRating(r.Context(),
		model.AccountID(req.Rater), model.AccountID(req.Ratee), model.TopicID(req.Topic), req.Score)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRatingResponse(e))
}

// HandlePostAdminRating handles POST /admin/ratings requests. The caller
// field names the principal exercising the cooldown bypass.
func (h *RatingsHandler) HandlePostAdminRating(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_admin_rating"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req ratingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(true); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	e, err := h.deps.AdminSubmitRating(r.Context(), model.AccountID(req.Caller),
		model.AccountID(req.Rater), model.AccountID(req.Ratee), model.TopicID(req.Topic), req.Score)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRatingResponse(e))
}

func toRatingResponse(e model.RatingEvent) ratingResponse {
	return ratingResponse{
		ID:        e.ID,
		Rater:     string(e.Rater),
		Ratee:     string(e.Ratee),
		Topic:     string(e.Topic),
		Score:     e.Score,
		Timestamp: e.Timestamp,
	}
}
