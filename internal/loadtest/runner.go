package loadtest

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/meritor/pkg/logger"
)

// Run executes the complete load test against a running service.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{StartTime: time.Now()}

	logger.Get().Info(ctx, "starting meritor load test",
		logger.String("baseURL", config.BaseURL),
		logger.String("topic", config.Topic),
		logger.Int("subjects", config.NumSubjects),
		logger.Int("raters", config.NumRaters),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.Int("topN", config.TopN))

	if config.RatingsPerSubject > config.NumRaters {
		return fmt.Errorf("ratings per subject (%d) exceeds rater pool (%d); the cooldown would reject the surplus",
			config.RatingsPerSubject, config.NumRaters)
	}

	// Step 1: service health.
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: fixtures.
	raters := generateAccounts(ctx, config.NumRaters, "rater")
	subjects := generateAccounts(ctx, config.NumSubjects, "subject")
	if err := registerFixtures(ctx, config, append(append([]string{}, raters...), subjects...), stats); err != nil {
		return fmt.Errorf("fixture registration failed: %w", err)
	}

	// Step 3: ratings.
	ratings := generateRatings(ctx, config, raters, subjects)
	if err := submitRatings(ctx, config, ratings, stats); err != nil {
		return fmt.Errorf("rating submission failed: %w", err)
	}

	// Step 4: challenges.
	challenges := generateChallenges(ctx, config, subjects)
	if err := submitChallenges(ctx, config, challenges, stats); err != nil {
		return fmt.Errorf("challenge submission failed: %w", err)
	}

	// Step 5: sweep the score caches and let the workers drain.
	if err := triggerRecalculation(ctx, config); err != nil {
		return fmt.Errorf("recalculation trigger failed: %w", err)
	}
	logger.Get().Info(ctx, "waiting for recalculation to settle")
	time.Sleep(ProcessingWait)

	// Step 6: read back every subject's weight.
	weights, err := retrieveWeights(ctx, config, subjects, stats)
	if err != nil {
		return fmt.Errorf("weight retrieval failed: %w", err)
	}

	// Step 7: leaderboard.
	leaderboard, err := getExperts(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 8: verify.
	if err := verifyResults(ctx, config, weights, leaderboard); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)

	logger.Get().Info(ctx, "load test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	resp, err := client.Get(ctx, config.BaseURL+"/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_, _ = readResponseBody(resp)

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// registerFixtures registers the topic and every generated account.
func registerFixtures(ctx context.Context, config *Config, accounts []string, stats *Stats) error {
	log.Printf("registering %d accounts and topic %q", len(accounts), config.Topic)

	client := newHTTPClient(config.Timeout)

	status := submitOne(ctx, client, config.BaseURL+"/topics", map[string]string{"id": config.Topic})
	if status != StatusCreated && status != StatusConflict {
		return fmt.Errorf("topic registration failed with status: %d", status)
	}

	var registered int64
	accountChan := make(chan string, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for id := range accountChan {
				select {
				case <-ctx.Done():
					return
				default:
					if submitOne(ctx, client, config.BaseURL+"/accounts", map[string]string{"id": id}) == StatusCreated {
						atomic.AddInt64(&registered, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(accountChan)
		for _, id := range accounts {
			select {
			case <-ctx.Done():
				return
			case accountChan <- id:
			}
		}
	}()

	wg.Wait()

	stats.AccountsRegistered = int(atomic.LoadInt64(&registered))
	if stats.AccountsRegistered != len(accounts) {
		return fmt.Errorf("registered %d of %d accounts", stats.AccountsRegistered, len(accounts))
	}

	log.Printf("registered %d accounts", stats.AccountsRegistered)
	return nil
}

// triggerRecalculation asks the service for a full sweep.
func triggerRecalculation(ctx context.Context, config *Config) error {
	client := newHTTPClient(config.Timeout)
	status := submitOne(ctx, client, config.BaseURL+"/scores/recalculate", nil)
	if status != StatusAccepted {
		return fmt.Errorf("recalculation sweep failed with status: %d", status)
	}
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var successRate, ratingsPerSecond float64

	if stats.RatingsSubmitted > 0 {
		successRate = float64(stats.RatingsAccepted) / float64(stats.RatingsSubmitted) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		ratingsPerSecond = float64(stats.RatingsSubmitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("accountsRegistered", stats.AccountsRegistered),
		logger.Int("ratingsSubmitted", stats.RatingsSubmitted),
		logger.Int("ratingsAccepted", stats.RatingsAccepted),
		logger.Int("ratingsCooldown", stats.RatingsCooldown),
		logger.Int("ratingsFailed", stats.RatingsFailed),
		logger.Int("challengesSubmitted", stats.ChallengesSubmitted),
		logger.Int("challengesAccepted", stats.ChallengesAccepted),
		logger.Int("weightsRetrieved", stats.WeightsRetrieved),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("successRate", successRate),
		logger.Float64("ratingsPerSecond", ratingsPerSecond))
}
