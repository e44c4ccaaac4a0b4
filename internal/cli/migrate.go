package cli

import (
	"github.com/spf13/cobra"

	"quiz-master/internal/config"
	"quiz-master/internal/infra/postgres"
)

// NewMigrateCmd applies database migrations.
func NewMigrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run Postgres migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			return postgres.Migrate(cmd.Context(), cfg.Postgres.URL)
		},
	}
}
