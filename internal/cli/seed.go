package cli

import (
	"context"
	"log"

	"explainit-service/internal/app"
	"explainit-service/internal/domain"
)

type demoResult struct {
	player       domain.Profile
	score, total int
}

var demoResults = []demoResult{
	{domain.Profile{ID: "demo-ada", Name: "Ada Park", Username: "ada"}, 5, 5},
	{domain.Profile{ID: "demo-ben", Name: "Ben Ortiz", Username: "benny"}, 4, 5},
	{domain.Profile{ID: "demo-chloe", Name: "Chloe Nakamura", Username: "chloe"}, 3, 5},
	{domain.Profile{ID: "demo-dev", Name: "Dev Raman", Username: "devr"}, 2, 4},
	{domain.Profile{ID: "demo-eli", Name: "Eli Novak", Username: "eli"}, 1, 3},
}

func seedLeaderboard(ctx context.Context, leaderboard *app.LeaderboardService) error {
	for _, r := range demoResults {
		if _, err := leaderboard.RecordQuizResult(ctx, r.player, r.score, r.total); err != nil {
			return err
		}
	}
	log.Printf("seeded leaderboard with %d demo results", len(demoResults))
	return nil
}
