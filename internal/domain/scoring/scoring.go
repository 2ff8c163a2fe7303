// Package scoring implements the expertise score blend: two independent
// evidence paths (validation-challenge performance and peer ratings), each
// with a square-root volume bonus and bucketed time decay, combined into one
// bounded score. Every function here is pure; callers supply the evidence
// and the evaluation instant.
package scoring

import (
	"math"
	"time"

	"github.com/okian/meritor/internal/domain/model"
)

// Score bounds. Any account with evidence lands in [FloorScore, MaxScore];
// an account with no evidence at all scores FloorScore.
const (
	MaxScore   = model.MaxRatingScore
	FloorScore = 50
)

// Evidence weighting constants, all in percent.
const (
	challengeAccuracyWeight = 70
	challengeVolumeWeight   = 30
	ratingAverageWeight     = 80
	ratingVolumeWeight      = 20
	blendChallengeWeight    = 60
	blendPeerWeight         = 40

	maxChallengeVolumeBonus = 200
	maxRatingVolumeBonus    = 1000
)

// Decay buckets. Evidence younger than freshWindow keeps full weight,
// evidence younger than staleWindow keeps 75%, anything older keeps 50%.
const (
	freshWindow = 30 * 24 * time.Hour
	staleWindow = 60 * 24 * time.Hour

	fullWeight  = 100
	freshWeight = 75
	staleWeight = 50
)

// TimeDecay returns the decay percentage for evidence last updated at last,
// evaluated at instant at.
func TimeDecay(last, at time.Time) int64 {
	elapsed := at.Sub(last)
	switch {
	case elapsed < freshWindow:
		return fullWeight
	case elapsed < staleWindow:
		return freshWeight
	default:
		return staleWeight
	}
}

// ChallengeScore computes the challenge evidence path at instant at.
// Returns 0 when the record holds no attempts, or when its last activity
// postdates at (evidence from the future must not leak into historical
// queries).
func ChallengeScore(rec model.ExpertiseRecord, at time.Time) int64 {
	if rec.TotalChallenges == 0 || rec.LastActivityTime.After(at) {
		return 0
	}
	accuracy := rec.CorrectChallenges * MaxScore / rec.TotalChallenges
	bonus := volumeBonus(rec.TotalChallenges, 10, maxChallengeVolumeBonus)
	raw := (accuracy*challengeAccuracyWeight + bonus*challengeVolumeWeight) / 100
	raw = raw * TimeDecay(rec.LastActivityTime, at) / 100
	return clamp(raw)
}

// PeerRatingScore computes the peer-rating evidence path at instant at.
// The aggregate must already be evaluated at (or before) at; the ledger's
// point-in-time reconstruction guarantees LastRatingTime <= at.
func PeerRatingScore(agg model.AggregateRating, at time.Time) int64 {
	if agg.TotalRatings == 0 {
		return 0
	}
	bonus := volumeBonus(agg.TotalRatings, 100, maxRatingVolumeBonus)
	raw := (agg.AverageScore*ratingAverageWeight + bonus*ratingVolumeWeight) / 100
	raw = raw * TimeDecay(agg.LastRatingTime, at) / 100
	return clamp(raw)
}

// ExpertiseScore blends the two evidence paths. With no evidence the result
// is the floor; with one path the other passes through unchanged; with both,
// the result is the better of the weighted blend and either single path.
// The max-of-blend-or-either-source rule is intentional: the ceiling is
// reachable through one strong evidence path alone.
func ExpertiseScore(rec model.ExpertiseRecord, agg model.AggregateRating, at time.Time) int64 {
	return combine(ChallengeScore(rec, at), PeerRatingScore(agg, at))
}

// PreviewChallengeScore computes the challenge path as if one more attempt
// were recorded right now: the tallies gain a hypothetical attempt and the
// decay is full weight. No state is touched.
func PreviewChallengeScore(rec model.ExpertiseRecord, wouldBeCorrect bool) int64 {
	total := rec.TotalChallenges + 1
	correct := rec.CorrectChallenges
	if wouldBeCorrect {
		correct++
	}
	accuracy := correct * MaxScore / total
	bonus := volumeBonus(total, 10, maxChallengeVolumeBonus)
	raw := (accuracy*challengeAccuracyWeight + bonus*challengeVolumeWeight) / 100
	return clamp(raw)
}

// PreviewScore blends a hypothetical challenge path with the current peer
// aggregate, following the same combination rules as ExpertiseScore.
func PreviewScore(rec model.ExpertiseRecord, agg model.AggregateRating, wouldBeCorrect bool, at time.Time) int64 {
	return combine(PreviewChallengeScore(rec, wouldBeCorrect), PeerRatingScore(agg, at))
}

func combine(challenge, peer int64) int64 {
	switch {
	case challenge == 0 && peer == 0:
		return FloorScore
	case challenge == 0:
		return peer
	case peer == 0:
		return challenge
	}
	blend := (challenge*blendChallengeWeight + peer*blendPeerWeight) / 100
	final := max(blend, challenge, peer)
	return clamp(final)
}

// volumeBonus is the diminishing-returns reward for evidence volume:
// floor(sqrt(n)) * step, capped at limit.
func volumeBonus(n, step, limit int64) int64 {
	bonus := int64(math.Sqrt(float64(n))) * step
	if bonus > limit {
		return limit
	}
	return bonus
}

func clamp(v int64) int64 {
	if v < FloorScore {
		return FloorScore
	}
	if v > MaxScore {
		return MaxScore
	}
	return v
}
