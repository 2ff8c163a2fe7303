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

// ChallengesDependencies defines the interface for challenge ingestion.
type ChallengesDependencies interface {
	RecordChallenge(ctx context.Context, account model.AccountID, topic model.TopicID, correct bool) (model.ExpertiseRecord, error)
}

// ChallengesHandler handles challenge outcome submissions.
type ChallengesHandler struct {
	deps ChallengesDependencies
}

// NewChallengesHandler creates a new challenges handler.
func NewChallengesHandler(deps ChallengesDependencies) *ChallengesHandler {
	return &ChallengesHandler{deps: deps}
}

// challengeRequest mirrors the OpenAPI schema for POST /challenges.
type challengeRequest struct {
	Account string `json:"account"`
	Topic   string `json:"topic"`
	Correct bool   `json:"correct"`
}

func (req challengeRequest) validate() error {
	switch {
	case strings.TrimSpace(req.Account) == "":
		return errors.New("missing account")
	case strings.TrimSpace(req.Topic) == "":
		return errors.New("missing topic")
	}
	return nil
}

type challengeResponse struct {
	Account           string    `json:"account"`
	Topic             string    `json:"topic"`
	TotalChallenges   int64     `json:"total_challenges"`
	CorrectChallenges int64     `json:"correct_challenges"`
	LastActivityTime  time.Time `json:"last_activity_time"`
}

// HandlePostChallenge handles POST /challenges requests.
func (h *ChallengesHandler) HandlePostChallenge(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_challenge"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req challengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	rec, err := h.deps.RecordChallenge(r.Context(), model.AccountID(req.Account), model.TopicID(req.Topic), req.Correct)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, challengeResponse{
		Account:           req.Account,
		Topic:             req.Topic,
		TotalChallenges:   rec.TotalChallenges,
		CorrectChallenges: rec.CorrectChallenges,
		LastActivityTime:  rec.LastActivityTime,
	})
}
