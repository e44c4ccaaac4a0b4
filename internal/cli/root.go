package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	configPath string
	profile    string
	logLevel   string
)

// Execute runs the CLI.
func Execute() error {
	return newRootCmd().ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}
	envProfile := os.Getenv("QUIZ_PROFILE")
	if envProfile == "" {
		envProfile = "default"
	}

	cmd := &cobra.Command{
		Use:           "quiz-master",
		Short:         "Timed trivia quiz for the terminal and the browser",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(logLevel)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.PersistentFlags().StringVar(&profile, "profile", envProfile, "storage profile to play under")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	cmd.AddCommand(NewPlayCmd(&configPath, &profile))
	cmd.AddCommand(NewServeCmd(&configPath))
	cmd.AddCommand(NewLeaderboardCmd(&configPath, &profile))
	cmd.AddCommand(NewResetCmd(&configPath, &profile))
	cmd.AddCommand(NewMigrateCmd(&configPath))
	return cmd
}

func setupLogging(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q", level)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
	return nil
}
