// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/meritor/internal/domain/model"
)

// ScoresDependencies defines the interface for score reads and refreshes.
type ScoresDependencies interface {
	ExpertiseScoreAt(ctx context.Context, account model.AccountID, topic model.TopicID, at time.Time) int64
	PreviewScoreChange(ctx context.Context, account model.AccountID, topic model.TopicID, wouldBeCorrect bool) int64
	VotingWeight(ctx context.Context, account model.AccountID, topic model.TopicID) uint64
	EnqueueRecalc(ctx context.Context, account model.AccountID, topic model.TopicID) bool
	BatchRecalculate(ctx context.Context) int
}

// ScoresHandler handles expertise score requests.
type ScoresHandler struct {
	deps ScoresDependencies
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(deps ScoresDependencies) *ScoresHandler {
	return &ScoresHandler{deps: deps}
}

type scoreResponse struct {
	Account string    `json:"account"`
	Topic   string    `json:"topic"`
	Score   int64     `json:"score"`
	At      time.Time `json:"at"`
}

type previewResponse struct {
	Account string `json:"account"`
	Topic   string `json:"topic"`
	Correct int64  `json:"if_correct"`
	Wrong   int64  `json:"if_wrong"`
}

// HandleGetScore handles:
//
//	GET /scores/{account}/{topic}?at=RFC3339
//	GET /scores/{account}/{topic}/preview
func (h *ScoresHandler) HandleGetScore(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_score"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	parts := pathParts(r.URL.Path, "/scores/")
	switch {
	case len(parts) == 3 && parts[2] == "preview":
		account, topic := model.AccountID(parts[0]), model.TopicID(parts[1])
		writeJSON(w, http.StatusOK, previewResponse{
			Account: string(account),
			Topic:   string(topic),
			Correct: h.deps.PreviewScoreChange(r.Context(), account, topic, true),
			Wrong:   h.deps.PreviewScoreChange(r.Context(), account, topic, false),
		})
	case len(parts) == 2:
		account, topic := model.AccountID(parts[0]), model.TopicID(parts[1])
		at, hasAt, err := parseAt(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if !hasAt {
			at = time.Now()
		}
		writeJSON(w, http.StatusOK, scoreResponse{
			Account: string(account),
			Topic:   string(topic),
			Score:   h.deps.ExpertiseScoreAt(r.Context(), account, topic, at),
			At:      at,
		})
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
	}
}

type weightResponse struct {
	Account string `json:"account"`
	Topic   string `json:"topic"`
	Weight  uint64 `json:"weight"`
}

// HandleGetWeight handles GET /weights/{account}/{topic}.
func (h *ScoresHandler) HandleGetWeight(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_weight"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	parts := pathParts(r.URL.Path, "/weights/")
	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	account, topic := model.AccountID(parts[0]), model.TopicID(parts[1])
	writeJSON(w, http.StatusOK, weightResponse{
		Account: string(account),
		Topic:   string(topic),
		Weight:  h.deps.VotingWeight(r.Context(), account, topic),
	})
}

// recalcRequest selects one pair; an empty body sweeps everything.
type recalcRequest struct {
	Account string `json:"account"`
	Topic   string `json:"topic"`
}

type recalcResponse struct {
	Status   string `json:"status"`
	Enqueued int    `json:"enqueued"`
}

// HandleRecalculate handles POST /scores/recalculate.
func (h *ScoresHandler) HandleRecalculate(w http.ResponseWriter, r *http.Request) {
	const op = "api.recalculate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req recalcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	if strings.TrimSpace(req.Account) == "" && strings.TrimSpace(req.Topic) == "" {
		n := h.deps.BatchRecalculate(r.Context())
		writeJSON(w, http.StatusAccepted, recalcResponse{Status: "accepted", Enqueued: n})
		return
	}
	if strings.TrimSpace(req.Account) == "" || strings.TrimSpace(req.Topic) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if !h.deps.EnqueueRecalc(r.Context(), model.AccountID(req.Account), model.TopicID(req.Topic)) {
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, recalcResponse{Status: "accepted", Enqueued: 1})
}
