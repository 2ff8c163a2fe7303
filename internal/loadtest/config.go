package loadtest

import "time"

// Config holds configuration for the load test.
type Config struct {
	BaseURL              string        // Base URL of the service
	Topic                string        // Topic every rating and challenge lands on
	NumSubjects          int           // Number of rated accounts
	NumRaters            int           // Number of rating accounts
	RatingsPerSubject    int           // Distinct raters per subject
	ChallengesPerSubject int           // Challenge attempts per subject
	TopN                 int           // Number of top entries to fetch
	Workers              int           // Number of concurrent workers
	Timeout              time.Duration // HTTP request timeout
	LogFile              string        // Log file for test output
	Verbose              bool          // Enable verbose logging
}

// ratingSubmission is one POST /ratings payload.
type ratingSubmission struct {
	Rater string `json:"rater"`
	Ratee string `json:"ratee"`
	Topic string `json:"topic"`
	Score int64  `json:"score"`
}

// challengeSubmission is one POST /challenges payload.
type challengeSubmission struct {
	Account string `json:"account"`
	Topic   string `json:"topic"`
	Correct bool   `json:"correct"`
}

// Entry mirrors one GET /experts ranking entry.
type Entry struct {
	Rank    int    `json:"rank"`
	Account string `json:"account"`
	Score   int64  `json:"score"`
}

// weightResponse mirrors GET /weights/{account}/{topic}.
type weightResponse struct {
	Account string `json:"account"`
	Topic   string `json:"topic"`
	Weight  uint64 `json:"weight"`
}

// Stats holds test statistics.
type Stats struct {
	AccountsRegistered  int
	RatingsSubmitted    int
	RatingsAccepted     int
	RatingsCooldown     int
	RatingsFailed       int
	ChallengesSubmitted int
	ChallengesAccepted  int
	ChallengesFailed    int
	WeightsRetrieved    int
	LeaderboardEntries  int
	StartTime           time.Time
	EndTime             time.Time
	Duration            time.Duration
}
