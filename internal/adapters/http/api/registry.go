// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/okian/meritor/internal/domain/model"
)

// RegistryDependencies defines the interface for account and topic
// administration.
type RegistryDependencies interface {
	RegisterAccount(ctx context.Context, id model.AccountID) error
	RegisterTopic(ctx context.Context, id, parent model.TopicID) error
	ActivateTopic(ctx context.Context, id model.TopicID) error
	DeactivateTopic(ctx context.Context, id model.TopicID) error
	Accounts(ctx context.Context) []model.AccountID
	Topics(ctx context.Context) []model.TopicID
}

// RegistryHandler handles account and topic administration.
type RegistryHandler struct {
	deps RegistryDependencies
}

// NewRegistryHandler creates a new registry handler.
func NewRegistryHandler(deps RegistryDependencies) *RegistryHandler {
	return &RegistryHandler{deps: deps}
}

type accountRequest struct {
	ID string `json:"id"`
}

type topicRequest struct {
	ID     string `json:"id"`
	Parent string `json:"parent,omitempty"`
}

type createdResponse struct {
	Status string `json:"status"`
	ID     string `json:"id"`
}

// HandleAccounts handles POST /accounts and GET /accounts.
func (h *RegistryHandler) HandleAccounts(w http.ResponseWriter, r *http.Request) {
	const op = "api.accounts"
	switch r.Method {
	case http.MethodPost:
		var req accountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.deps.RegisterAccount(r.Context(), model.AccountID(req.ID)); err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, createdResponse{Status: "registered", ID: req.ID})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Accounts(r.Context()))
	default:
		http.NotFound(w, r)
	}
}

// HandleTopics handles POST /topics and GET /topics.
func (h *RegistryHandler) HandleTopics(w http.ResponseWriter, r *http.Request) {
	const op = "api.topics"
	switch r.Method {
	case http.MethodPost:
		var req topicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := h.deps.RegisterTopic(r.Context(), model.TopicID(req.ID), model.TopicID(req.Parent)); err != nil {
			writeRegistryError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, createdResponse{Status: "registered", ID: req.ID})
	case http.MethodGet:
		writeJSON(w, http.StatusOK, h.deps.Topics(r.Context()))
	default:
		http.NotFound(w, r)
	}
}

// HandleTopicState handles POST /topics/{id}/activate and
// POST /topics/{id}/deactivate.
func (h *RegistryHandler) HandleTopicState(w http.ResponseWriter, r *http.Request) {
	const op = "api.topic_state"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	parts := pathParts(r.URL.Path, "/topics/")
	if len(parts) != 2 {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	id := model.TopicID(parts[0])

	var err error
	switch strings.ToLower(parts[1]) {
	case "activate":
		err = h.deps.ActivateTopic(r.Context(), id)
	case "deactivate":
		err = h.deps.DeactivateTopic(r.Context(), id)
	default:
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	if err != nil {
		writeRegistryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{Status: parts[1] + "d", ID: string(id)})
}
