package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/meritor/internal/loadtest"
)

// Default configuration constants.
const (
	defaultSubjects    = 1000
	defaultRaters      = 200
	defaultRatings     = 5
	defaultChallenges  = 10
	defaultTopN        = 50
	defaultWorkers     = 2 // multiplier for runtime.NumCPU()
	defaultTimeout     = 30 * time.Second
	defaultTestTimeout = 10 * time.Minute
)

func main() {
	var (
		baseURL    = flag.String("url", "http://localhost:9080", "Base URL of the service")
		topic      = flag.String("topic", "merge-review", "Topic to rate on")
		subjects   = flag.Int("subjects", defaultSubjects, "Number of rated accounts")
		raters     = flag.Int("raters", defaultRaters, "Number of rating accounts")
		ratings    = flag.Int("ratings", defaultRatings, "Ratings per subject")
		challenges = flag.Int("challenges", defaultChallenges, "Challenge attempts per subject")
		topN       = flag.Int("top", defaultTopN, "Number of top entries to fetch from the leaderboard")
		workers    = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout    = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		logFile    = flag.String("log", "", "Log file for test output (default: loadtest_TIMESTAMP.log)")
		verbose    = flag.Bool("verbose", false, "Enable verbose logging")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		loadtest.ShowHelp()
		return
	}

	if err := loadtest.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	config := &loadtest.Config{
		BaseURL:              *baseURL,
		Topic:                *topic,
		NumSubjects:          *subjects,
		NumRaters:            *raters,
		RatingsPerSubject:    *ratings,
		ChallengesPerSubject: *challenges,
		TopN:                 *topN,
		Workers:              *workers,
		Timeout:              *timeout,
		LogFile:              *logFile,
		Verbose:              *verbose,
	}

	if err := loadtest.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Load test failed: " + err.Error() + "\n")
		return
	}
}
