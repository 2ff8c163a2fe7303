package ledger

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/meritor/internal/domain/model"
)

// Sentinel kinds for submission validation. These allow errors.Is from
// callers; every one of them rejects the submission before anything is
// written.
var (
	ErrUnregisteredAccount = errors.New("account not registered")
	ErrSelfRating          = errors.New("self-rating not allowed")
	ErrScoreOutOfRange     = errors.New("rating score out of range")
	ErrInactiveTopic       = errors.New("topic not active")
	ErrNotAuthorized       = errors.New("cooldown bypass not authorized")
	ErrTimestampNotAfter   = errors.New("timestamp not after previous rating")

	// ErrRatedTooRecently is the errors.Is target for cooldown rejections.
	// The concrete error is always a *RatedTooRecentlyError.
	ErrRatedTooRecently = errors.New("rated too recently")
)

// RatedTooRecentlyError reports a submission inside the cooldown window.
// It carries the offending prior timestamp so the caller can compute the
// earliest retry time.
type RatedTooRecentlyError struct {
	Rater    model.AccountID
	Ratee    model.AccountID
	Topic    model.TopicID
	Previous time.Time
	Cooldown time.Duration
}

func (e *RatedTooRecentlyError) Error() string {
	return fmt.Sprintf("rated too recently: %s rated %s on %s at %s, retry at %s",
		e.Rater, e.Ratee, e.Topic, e.Previous.Format(time.RFC3339), e.RetryAt().Format(time.RFC3339))
}

// RetryAt returns the earliest instant at which the rater may amend again.
func (e *RatedTooRecentlyError) RetryAt() time.Time {
	return e.Previous.Add(e.Cooldown)
}

// Is lets errors.Is(err, ErrRatedTooRecently) match the typed error.
func (e *RatedTooRecentlyError) Is(target error) bool {
	return target == ErrRatedTooRecently
}
