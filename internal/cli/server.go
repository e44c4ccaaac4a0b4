package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"quiz-master/internal/app"
	"quiz-master/internal/config"
	"quiz-master/internal/sound"
	transport "quiz-master/internal/transport/http"
)

// NewServeCmd builds the CLI subcommand to start the WebSocket server.
func NewServeCmd(configPath *string) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start"},
		Short:   "Serve the quiz over WebSocket for a browser UI",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, port)
		},
	}
	cmd.Flags().StringVar(&port, "port", os.Getenv("PORT"), "port to listen on")
	return cmd
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	source := newSource(cfg)
	registry := app.NewRegistry(func(profile string) *app.Game {
		return app.NewGame(gameConfig(cfg, store, source, profile, sound.Mute{}))
	})

	gin.SetMode(gin.ReleaseMode)
	server := &http.Server{
		Addr:              ":" + finalPort,
		Handler:           transport.NewRouter(transport.RouterConfig{Registry: registry, Store: store}),
		ReadHeaderTimeout: 15 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		slog.InfoContext(ctx, "server: HTTP listening", "port", finalPort, "store", cfg.Store.Driver)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		slog.InfoContext(ctx, "server: shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := server.Shutdown(shutdownCtx)
		registry.Close()
		return err
	})

	err = eg.Wait()
	if err != nil {
		slog.ErrorContext(ctx, "server: shutdown with error", "error", err)
	}
	return err
}
