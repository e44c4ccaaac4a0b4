package cli

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"quiz-master/internal/app"
	"quiz-master/internal/config"
	"quiz-master/internal/domain"
	"quiz-master/internal/sound"
	"quiz-master/internal/transport/terminal"
)

// NewPlayCmd plays the quiz in the terminal.
func NewPlayCmd(configPath, profile *string) *cobra.Command {
	var (
		name   string
		avatar string
		mute   bool
	)
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, closeStore, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			var player sound.Player = sound.NewBell(cmd.OutOrStdout())
			if mute || cfg.Sound.Mute {
				player = sound.Mute{}
			}

			game := app.NewGame(gameConfig(cfg, store, newSource(cfg), *profile, player))
			defer game.Close()

			err = terminal.New(cmd.InOrStdin(), cmd.OutOrStdout(), game).
				Run(ctx, domain.Player{DisplayName: name, AvatarRef: avatar})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (prompted when empty)")
	cmd.Flags().StringVar(&avatar, "avatar", "", "avatar reference")
	cmd.Flags().BoolVar(&mute, "mute", false, "disable sound cues")
	return cmd
}
