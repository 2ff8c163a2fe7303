// Package model contains domain models passed between layers.
package model

import "time"

// MaxRatingScore is the inclusive upper bound of a rating score.
// Scores live on a 0..1000 scale (tenths of a percent).
const MaxRatingScore = 1000

// AccountID is an opaque participant identity.
type AccountID string

// TopicID is an opaque subject-matter category owned by the topic registry.
type TopicID string

// RatingEvent is one immutable, timestamped peer-rating observation.
// Events are created on submission and never mutated or deleted.
type RatingEvent struct {
	ID        string    // unique event id
	Rater     AccountID // who submitted the opinion
	Ratee     AccountID // who the opinion is about
	Topic     TopicID
	Score     int64 // 0..MaxRatingScore
	Timestamp time.Time
}

// RatingKey identifies the timeline set for one rated subject on one topic.
type RatingKey struct {
	Ratee AccountID
	Topic TopicID
}

// AggregateRating is the derived view over the latest event of every rater
// for a (ratee, topic) pair. TotalRatings counts distinct raters, not events.
type AggregateRating struct {
	AverageScore   int64
	TotalRatings   int64
	LastRatingTime time.Time
}

// IsZero reports whether the aggregate carries no evidence.
func (a AggregateRating) IsZero() bool {
	return a.TotalRatings == 0
}

// ExpertiseKey identifies one account's standing on one topic.
type ExpertiseKey struct {
	Account AccountID
	Topic   TopicID
}

// ExpertiseRecord mirrors one expertise store row: the cached blended score
// plus the challenge tallies the challenge path is computed from.
type ExpertiseRecord struct {
	Score             int64
	TotalChallenges   int64
	CorrectChallenges int64
	LastActivityTime  time.Time
}
