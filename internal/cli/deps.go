package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"

	"quiz-master/internal/app"
	"quiz-master/internal/config"
	"quiz-master/internal/infra/memory"
	"quiz-master/internal/infra/opentdb"
	"quiz-master/internal/infra/postgres"
	redisstore "quiz-master/internal/infra/redis"
	"quiz-master/internal/infra/sqlite"
	"quiz-master/internal/sound"
	"quiz-master/internal/telemetry"
)

const connectTimeout = 10 * time.Second

// openStore connects the configured backend. The returned func releases it.
func openStore(ctx context.Context, cfg config.Config) (app.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.DriverMemory:
		return memory.NewStore(), func() {}, nil

	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("sqlite: %w", err)
		}
		return s, func() {
			if err := s.Close(); err != nil {
				slog.Error("cli: close sqlite failed", "error", err)
			}
		}, nil

	case config.DriverRedis:
		r := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.Redis.Addr},
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := telemetry.MonitorRedis(r); err != nil {
			r.Close()
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := r.Ping(pingCtx).Err(); err != nil {
			r.Close()
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		ttl := config.TTLDuration(cfg.Redis.TTL, 0)
		return redisstore.NewStore(r, cfg.Redis.Prefix, ttl), func() { r.Close() }, nil

	case config.DriverPostgres:
		if err := postgres.Migrate(ctx, cfg.Postgres.URL); err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		connCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		pool, err := pgxpool.Connect(connCtx, cfg.Postgres.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		return postgres.NewStore(pool), pool.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func newSource(cfg config.Config) app.QuestionSource {
	if cfg.Trivia.Source == config.SourceStatic {
		return memory.NewStaticSource(memory.SampleQuestions())
	}
	return opentdb.NewClient(opentdb.Config{
		BaseURL:    cfg.Trivia.BaseURL,
		Timeout:    config.TTLDuration(cfg.Trivia.Timeout, 10*time.Second),
		Category:   cfg.Trivia.Category,
		Difficulty: cfg.Trivia.Difficulty,
	})
}

func gameConfig(cfg config.Config, store app.Store, source app.QuestionSource, profile string, player sound.Player) app.GameConfig {
	return app.GameConfig{
		Profile:       profile,
		Store:         store,
		Source:        source,
		Sound:         player,
		QuestionCount: cfg.Quiz.Questions,
		Duration:      config.TTLDuration(cfg.Quiz.Duration, app.DefaultDuration),
	}
}
