package cli

import (
	"github.com/spf13/cobra"

	"quiz-master/internal/app"
	"quiz-master/internal/config"
	"quiz-master/internal/transport/terminal"
)

// NewLeaderboardCmd prints the stored top results of a profile.
func NewLeaderboardCmd(configPath, profile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the leaderboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			store, closeStore, err := openStore(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			board, err := app.NewStorage(store, *profile).LoadLeaderboard(cmd.Context())
			if err != nil {
				return err
			}
			terminal.PrintLeaderboard(cmd.OutOrStdout(), board)
			return nil
		},
	}
}
