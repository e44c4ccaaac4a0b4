package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"quiz-master/internal/app"
	"quiz-master/internal/config"
)

// NewResetCmd discards the stored session, or everything of the profile with --all.
func NewResetCmd(configPath, profile *string) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Discard the unfinished quiz",
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

			storage := app.NewStorage(store, *profile)
			if all {
				err = storage.Clear(cmd.Context())
			} else {
				err = storage.DeleteSnapshot(cmd.Context())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "profile %q reset\n", *profile)
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "also forget the player and the leaderboard")
	return cmd
}
