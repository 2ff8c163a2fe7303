package loadtest

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
)

// retrieveWeights reads every subject's voting weight concurrently.
func retrieveWeights(ctx context.Context, config *Config, subjects []string, stats *Stats) ([]weightResponse, error) {
	log.Printf("retrieving weights for %d subjects with %d workers", len(subjects), config.Workers)

	client := newHTTPClient(config.Timeout)

	weights := make([]weightResponse, len(subjects))
	var (
		retrieved int64
		failed    int64
	)

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					w, err := retrieveSingleWeight(ctx, client, config, subjects[index])
					if err != nil {
						atomic.AddInt64(&failed, 1)
						if config.Verbose {
							log.Printf("failed to get weight for %s: %v", subjects[index], err)
						}
					} else {
						weights[index] = w
						atomic.AddInt64(&retrieved, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range subjects {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	valid := make([]weightResponse, 0, len(weights))
	for _, w := range weights {
		if w.Account != "" {
			valid = append(valid, w)
		}
	}

	stats.WeightsRetrieved = len(valid)
	log.Printf("weight retrieval completed: retrieved=%d failed=%d", len(valid), int(atomic.LoadInt64(&failed)))
	return valid, nil
}

// retrieveSingleWeight reads one subject's voting weight.
func retrieveSingleWeight(ctx context.Context, client *HTTPClient, config *Config, account string) (weightResponse, error) {
	url := fmt.Sprintf("%s/weights/%s/%s", config.BaseURL, account, config.Topic)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return weightResponse{}, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return weightResponse{}, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return weightResponse{}, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var w weightResponse
	if err := json.Unmarshal(body, &w); err != nil {
		return weightResponse{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return w, nil
}

// getExperts retrieves the top N leaderboard entries for the topic.
func getExperts(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	log.Printf("getting top %d experts for topic %q", config.TopN, config.Topic)

	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/experts/%s?limit=%d", config.BaseURL, config.Topic, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}

	var leaderboard []Entry
	if err := json.Unmarshal(body, &leaderboard); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	stats.LeaderboardEntries = len(leaderboard)
	log.Printf("retrieved %d leaderboard entries", len(leaderboard))
	return leaderboard, nil
}
