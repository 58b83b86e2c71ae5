package cli

import (
	"fmt"

	"quiznufi-service/internal/domain"

	"github.com/spf13/cobra"
)

// NewSeedLeaderboardCmd inserts sample entries identified by email only.
func NewSeedLeaderboardCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-leaderboard",
		Short: "Insert sample leaderboard entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			b, err := openBackends(ctx, cfg)
			if err != nil {
				return err
			}
			defer b.Close()

			for _, entry := range sampleLeaderboard() {
				stored, err := b.leaderboard.Insert(ctx, entry)
				if err != nil {
					return fmt.Errorf("seed %s: %w", entry.Email, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added: %s\n", stored)
			}
			return nil
		},
	}
}

func sampleLeaderboard() []domain.LeaderboardEntry {
	entry := func(n, score int) domain.LeaderboardEntry {
		return domain.LeaderboardEntry{
			UserID:         fmt.Sprintf("user%d", n),
			Email:          fmt.Sprintf("user%d@example.com", n),
			Score:          score,
			TotalQuestions: 10,
			Percentage:     domain.Percentage(score, 10),
		}
	}
	return []domain.LeaderboardEntry{entry(1, 10), entry(2, 8), entry(3, 7)}
}
