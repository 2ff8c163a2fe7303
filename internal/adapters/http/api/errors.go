package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/meritor/internal/adapters/registry"
	"github.com/okian/meritor/internal/ledger"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest   = errors.New("bad request")
	ErrBackpressure = errors.New("backpressure")
)

// NewKind tags a sentinel with the failing operation.
func NewKind(op string, kind error) error {
	return fmt.Errorf("%s: %w", op, kind)
}

// WrapKind tags a sentinel and the underlying cause.
func WrapKind(op string, kind, err error) error {
	return fmt.Errorf("%s: %w: %w", op, kind, err)
}

// writeLedgerError maps ledger submission errors onto HTTP statuses:
// cooldown conflicts get 409 with a retry hint, authorization failures
// 403, validation failures 400.
func writeLedgerError(w http.ResponseWriter, err error) {
	var tooSoon *ledger.RatedTooRecentlyError
	switch {
	case errors.As(err, &tooSoon):
		writeJSON(w, http.StatusConflict, cooldownResponse{
			Code:    "cooldown",
			Message: err.Error(),
			RetryAt: tooSoon.RetryAt(),
		})
	case errors.Is(err, ledger.ErrNotAuthorized):
		writeError(w, http.StatusForbidden, "not_authorized", err)
	case errors.Is(err, ledger.ErrTimestampNotAfter):
		writeError(w, http.StatusConflict, "timestamp_conflict", err)
	case errors.Is(err, ledger.ErrUnregisteredAccount):
		writeError(w, http.StatusBadRequest, "unregistered_account", err)
	case errors.Is(err, ledger.ErrSelfRating):
		writeError(w, http.StatusBadRequest, "self_rating", err)
	case errors.Is(err, ledger.ErrScoreOutOfRange):
		writeError(w, http.StatusBadRequest, "score_out_of_range", err)
	case errors.Is(err, ledger.ErrInactiveTopic):
		writeError(w, http.StatusBadRequest, "inactive_topic", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}

// writeRegistryError maps registry errors onto HTTP statuses.
func writeRegistryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, registry.ErrDuplicateAccount), errors.Is(err, registry.ErrDuplicateTopic):
		writeError(w, http.StatusConflict, "duplicate", err)
	case errors.Is(err, registry.ErrUnknownTopic):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, registry.ErrEmptyID), errors.Is(err, registry.ErrUnknownParent):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
