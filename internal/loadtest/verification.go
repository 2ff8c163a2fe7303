package loadtest

import (
	"context"
	"fmt"
	"log"
	"sort"
)

// verifyResults cross-checks the leaderboard against the weights read
// back per subject.
func verifyResults(ctx context.Context, config *Config, weights []weightResponse, leaderboard []Entry) error {
	log.Println("verifying results")

	if len(weights) == 0 {
		return fmt.Errorf("no weights to verify")
	}

	sorted := make([]weightResponse, len(weights))
	copy(sorted, weights)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Weight > sorted[j].Weight
	})

	if len(leaderboard) > 0 {
		if err := verifyLeaderboardConsistency(sorted, leaderboard); err != nil {
			log.Printf("leaderboard consistency warning: %v", err)
		} else {
			log.Println("leaderboard consistency verified")
		}
	}

	displayTopSubjects(sorted, leaderboard, config.Verbose)

	log.Println("result verification completed")
	return nil
}

// verifyLeaderboardConsistency checks ordering and the top entry.
func verifyLeaderboardConsistency(sorted []weightResponse, leaderboard []Entry) error {
	if len(leaderboard) == 0 {
		return fmt.Errorf("empty leaderboard")
	}

	top := leaderboard[0]
	if top.Rank != 1 {
		return fmt.Errorf("top leaderboard entry carries rank %d", top.Rank)
	}

	// The best weight must match the best leaderboard score. Accounts
	// may differ when scores tie.
	if uint64(top.Score) != sorted[0].Weight {
		return fmt.Errorf("top leaderboard score (%d) does not match best weight (%d) for %s",
			top.Score, sorted[0].Weight, sorted[0].Account)
	}

	for i := 1; i < len(leaderboard); i++ {
		if leaderboard[i].Score > leaderboard[i-1].Score {
			return fmt.Errorf("leaderboard not sorted: entry %d outscores entry %d", i, i-1)
		}
		if leaderboard[i].Rank < leaderboard[i-1].Rank {
			return fmt.Errorf("leaderboard ranks not monotone at entry %d", i)
		}
	}
	return nil
}

// displayTopSubjects shows the best subjects from both views.
func displayTopSubjects(sorted []weightResponse, leaderboard []Entry, verbose bool) {
	topN := 10
	if len(sorted) < topN {
		topN = len(sorted)
	}

	log.Printf("top %d subjects by weight:", topN)
	for i := 0; i < topN; i++ {
		log.Printf("   %d. %s - weight: %d", i+1, sorted[i].Account, sorted[i].Weight)
	}

	if len(leaderboard) > 0 {
		n := topN
		if len(leaderboard) < n {
			n = len(leaderboard)
		}
		log.Printf("top %d leaderboard entries:", n)
		for i := 0; i < n; i++ {
			log.Printf("   %d. %s - score: %d", leaderboard[i].Rank, leaderboard[i].Account, leaderboard[i].Score)
		}
	}

	if verbose && len(sorted) > 0 {
		var sum uint64
		for _, w := range sorted {
			sum += w.Weight
		}
		log.Printf("weight statistics: avg=%.1f max=%d min=%d",
			float64(sum)/float64(len(sorted)), sorted[0].Weight, sorted[len(sorted)-1].Weight)
	}
}
