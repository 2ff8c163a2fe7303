package loadtest

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"

	"github.com/okian/meritor/pkg/logger"
)

// Score distribution ranges, in ledger units (0..1000).
const (
	averageMin = 300
	averageMax = 700
	strongMin  = 700
	strongMax  = 900
	weakMin    = 50
	weakMax    = 300
	eliteMin   = 900
	eliteMax   = 1000
	wideMin    = 0
	wideMax    = 1000
)

// Rating profile cases.
const (
	caseAverage = 0
	caseStrong  = 1
	caseWeak    = 2
	caseElite   = 3
	caseWide    = 4
	profileDiv  = 5
)

// Challenge accuracy profiles, in correct answers per ten attempts.
var accuracyProfiles = []int64{9, 7, 5, 3}

const attemptsPerProfile = 10

// randomInt64 returns a uniform value in [0, max) using crypto/rand.
func randomInt64(max int64) int64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(max))
	return n.Int64()
}

// randomInRange returns a uniform value in [lo, hi].
func randomInRange(lo, hi int64) int64 {
	return lo + randomInt64(hi-lo+1)
}

// generateAccounts creates n unique account IDs.
func generateAccounts(ctx context.Context, n int, kind string) []string {
	logger.Get().Info(ctx, "generating accounts", logger.String("kind", kind), logger.Int("count", n))

	ids := make([]string, n)
	for i := range ids {
		ids[i] = kind + "-" + uuid.New().String()
	}
	return ids
}

// generateRatings pairs each subject with distinct raters so the first
// submission for every pair clears the cooldown. Each subject carries a
// rating profile so the resulting leaderboard has real spread.
func generateRatings(ctx context.Context, config *Config, raters, subjects []string) []ratingSubmission {
	logger.Get().Info(ctx, "generating ratings",
		logger.Int("subjects", len(subjects)),
		logger.Int("perSubject", config.RatingsPerSubject))

	ratings := make([]ratingSubmission, 0, len(subjects)*config.RatingsPerSubject)
	for si, subject := range subjects {
		profile := randomInt64(profileDiv)
		for k := 0; k < config.RatingsPerSubject; k++ {
			// Distinct raters per subject while the per-subject count
			// stays below the rater pool size; the subject index
			// rotates the window so rater sets differ across subjects.
			rater := raters[(si+k)%len(raters)]
			ratings = append(ratings, ratingSubmission{
				Rater: rater,
				Ratee: subject,
				Topic: config.Topic,
				Score: scoreForProfile(profile),
			})
		}
	}
	return ratings
}

// scoreForProfile draws a score from the profile's range.
func scoreForProfile(profile int64) int64 {
	switch profile {
	case caseAverage:
		return randomInRange(averageMin, averageMax)
	case caseStrong:
		return randomInRange(strongMin, strongMax)
	case caseWeak:
		return randomInRange(weakMin, weakMax)
	case caseElite:
		return randomInRange(eliteMin, eliteMax)
	case caseWide:
		return randomInRange(wideMin, wideMax)
	default:
		return randomInRange(wideMin, wideMax)
	}
}

// generateChallenges assigns each subject an accuracy profile and draws
// that many correct outcomes per ten attempts.
func generateChallenges(ctx context.Context, config *Config, subjects []string) []challengeSubmission {
	logger.Get().Info(ctx, "generating challenges",
		logger.Int("subjects", len(subjects)),
		logger.Int("perSubject", config.ChallengesPerSubject))

	challenges := make([]challengeSubmission, 0, len(subjects)*config.ChallengesPerSubject)
	for _, subject := range subjects {
		accuracy := accuracyProfiles[randomInt64(int64(len(accuracyProfiles)))]
		for k := 0; k < config.ChallengesPerSubject; k++ {
			challenges = append(challenges, challengeSubmission{
				Account: subject,
				Topic:   config.Topic,
				Correct: randomInt64(attemptsPerProfile) < accuracy,
			})
		}
	}
	return challenges
}
