// Package expertise implements the expertise store: per (account, topic)
// challenge tallies plus the cached blended score the voting consumer
// reads. The ledger never writes here; the score blender does, via its
// write-through refresh.
package expertise

import (
	"context"
	"time"

	"github.com/okian/meritor/internal/domain/model"
)

// Store provides read/write access to expertise records.
type Store interface {
	// Expertise returns the record for (account, topic). ok is false when
	// the pair has no record yet; callers treat that as the zero record.
	Expertise(ctx context.Context, account model.AccountID, topic model.TopicID) (model.ExpertiseRecord, bool)

	// UpdateScore writes the cached blended score, creating the record if
	// needed. Challenge tallies are untouched.
	UpdateScore(ctx context.Context, account model.AccountID, topic model.TopicID, score int64) error

	// RecordChallenge adds one challenge attempt and stamps the activity
	// time. Returns the updated record.
	RecordChallenge(ctx context.Context, account model.AccountID, topic model.TopicID, correct bool, at time.Time) (model.ExpertiseRecord, error)

	// Keys enumerates every (account, topic) pair holding a record.
	Keys(ctx context.Context) []model.ExpertiseKey
}
