// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/okian/meritor/internal/adapters/repository"
	"github.com/okian/meritor/internal/domain/model"
)

// ExpertsDependencies defines the interface for ranking reads.
type ExpertsDependencies interface {
	TopExperts(ctx context.Context, topic model.TopicID, limit int) ([]repository.Entry, error)
	ExpertRank(ctx context.Context, topic model.TopicID, account model.AccountID) (repository.Entry, error)
}

// ExpertsHandler handles expert ranking requests.
type ExpertsHandler struct {
	deps     ExpertsDependencies
	maxLimit int
}

// NewExpertsHandler creates a new experts handler.
func NewExpertsHandler(deps ExpertsDependencies, maxLimit int) *ExpertsHandler {
	return &ExpertsHandler{deps: deps, maxLimit: maxLimit}
}

type expertEntry struct {
	Rank    int    `json:"rank"`
	Account string `json:"account"`
	Score   int64  `json:"score"`
}

// HandleGetExperts handles:
//
//	GET /experts/{topic}?limit=N
//	GET /experts/{topic}/{account}
func (h *ExpertsHandler) HandleGetExperts(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_experts"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	parts := pathParts(r.URL.Path, "/experts/")
	switch {
	case len(parts) == 1:
		topic := model.TopicID(parts[0])

		n := h.maxLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			var err error
			n, err = strconv.Atoi(limitStr)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
				return
			}
			if n > h.maxLimit {
				writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
				return
			}
		}

		entries, err := h.deps.TopExperts(r.Context(), topic, n)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		out := make([]expertEntry, len(entries))
		for i, e := range entries {
			out[i] = expertEntry{Rank: e.Rank, Account: string(e.Account), Score: e.Score}
		}
		writeJSON(w, http.StatusOK, out)
	case len(parts) == 2:
		entry, err := h.deps.ExpertRank(r.Context(), model.TopicID(parts[0]), model.AccountID(parts[1]))
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				writeError(w, http.StatusNotFound, "not_found", err)
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err)
			return
		}
		writeJSON(w, http.StatusOK, expertEntry{Rank: entry.Rank, Account: string(entry.Account), Score: entry.Score})
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
	}
}
