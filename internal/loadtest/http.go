package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with a shared timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body. A nil body sends an
// empty request.
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	var payload io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitRatings submits ratings concurrently using a worker pool.
func submitRatings(ctx context.Context, config *Config, ratings []ratingSubmission, stats *Stats) error {
	log.Printf("submitting %d ratings with %d workers", len(ratings), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/ratings"

	var (
		accepted  int64
		cooldown  int64
		failed    int64
		submitted int64
	)

	ratingChan := make(chan ratingSubmission, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for rating := range ratingChan {
				select {
				case <-ctx.Done():
					return
				default:
					atomic.AddInt64(&submitted, 1)
					switch submitOne(ctx, client, url, rating) {
					case StatusCreated:
						atomic.AddInt64(&accepted, 1)
					case StatusConflict:
						atomic.AddInt64(&cooldown, 1)
					default:
						atomic.AddInt64(&failed, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(ratingChan)
		for _, rating := range ratings {
			select {
			case <-ctx.Done():
				return
			case ratingChan <- rating:
			}
		}
	}()

	wg.Wait()

	stats.RatingsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RatingsAccepted = int(atomic.LoadInt64(&accepted))
	stats.RatingsCooldown = int(atomic.LoadInt64(&cooldown))
	stats.RatingsFailed = int(atomic.LoadInt64(&failed))

	log.Printf("rating submission completed: accepted=%d cooldown=%d failed=%d",
		stats.RatingsAccepted, stats.RatingsCooldown, stats.RatingsFailed)
	return nil
}

// submitChallenges submits challenge outcomes concurrently.
func submitChallenges(ctx context.Context, config *Config, challenges []challengeSubmission, stats *Stats) error {
	log.Printf("submitting %d challenges with %d workers", len(challenges), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/challenges"

	var (
		accepted  int64
		failed    int64
		submitted int64
	)

	challengeChan := make(chan challengeSubmission, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for challenge := range challengeChan {
				select {
				case <-ctx.Done():
					return
				default:
					atomic.AddInt64(&submitted, 1)
					if submitOne(ctx, client, url, challenge) == StatusCreated {
						atomic.AddInt64(&accepted, 1)
					} else {
						atomic.AddInt64(&failed, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(challengeChan)
		for _, challenge := range challenges {
			select {
			case <-ctx.Done():
				return
			case challengeChan <- challenge:
			}
		}
	}()

	wg.Wait()

	stats.ChallengesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ChallengesAccepted = int(atomic.LoadInt64(&accepted))
	stats.ChallengesFailed = int(atomic.LoadInt64(&failed))

	log.Printf("challenge submission completed: accepted=%d failed=%d",
		stats.ChallengesAccepted, stats.ChallengesFailed)
	return nil
}

// submitOne posts a single payload and returns the HTTP status, or 0 on
// transport failure.
func submitOne(ctx context.Context, client *HTTPClient, url string, payload interface{}) int {
	resp, err := client.Post(ctx, url, payload)
	if err != nil {
		return 0
	}
	_, _ = readResponseBody(resp)
	return resp.StatusCode
}
