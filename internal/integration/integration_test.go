package integration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"quiz-master/internal/app"
	"quiz-master/internal/domain"
	"quiz-master/internal/infra/memory"
	"quiz-master/internal/infra/postgres"
	infraredis "quiz-master/internal/infra/redis"
)

type stoppedTicker struct{}

func (stoppedTicker) C() <-chan time.Time { return nil }
func (stoppedTicker) Stop()               {}

func TestGameAgainstPostgres(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()

	if err := postgres.Migrate(ctx, pgURL); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	// A second run must be a no-op.
	if err := postgres.Migrate(ctx, pgURL); err != nil {
		t.Fatalf("migrate again: %v", err)
	}

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	exerciseGame(t, ctx, postgres.NewStore(pool))
}

func TestGameAgainstRedis(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	defer redisClient.Close()

	exerciseGame(t, ctx, infraredis.NewStore(redisClient, "quiz-it", time.Hour))
}

// exerciseGame plays part of a quiz, resumes it from store in a fresh game,
// finishes it and checks what remains stored.
func exerciseGame(t *testing.T, ctx context.Context, store app.Store) {
	t.Helper()
	newGame := func() *app.Game {
		return app.NewGame(app.GameConfig{
			Profile:       "it",
			Store:         store,
			Source:        memory.NewStaticSource(memory.SampleQuestions()),
			QuestionCount: 3,
			NewTickerFunc: func(time.Duration) app.Ticker { return stoppedTicker{} },
		})
	}

	first := newGame()
	if err := first.Resume(ctx); err != nil {
		t.Fatalf("resume empty: %v", err)
	}
	if err := first.Start(ctx, domain.Player{DisplayName: "Alice", AvatarRef: "owl"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	q := first.State().Question
	if _, _, err := first.Answer(ctx, q.Index, "Canberra"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	want := first.State()
	first.Close()

	second := newGame()
	defer second.Close()
	if err := second.Resume(ctx); err != nil {
		t.Fatalf("resume: %v", err)
	}
	got := second.State()
	if got.Phase != domain.PhaseAnswering || got.CurrentIndex != want.CurrentIndex || got.Score != 1 {
		t.Fatalf("resumed state mismatch: got %+v want %+v", got, want)
	}

	for got.Phase == domain.PhaseAnswering {
		if _, _, err := second.Answer(ctx, got.Question.Index, "wrong"); err != nil {
			t.Fatalf("answer %d: %v", got.Question.Index, err)
		}
		got = second.State()
	}
	if got.Result == nil || got.Result.Correct != 1 || got.Result.Total != 3 {
		t.Fatalf("unexpected result: %+v", got.Result)
	}

	if _, err := store.Get(ctx, "it:"+app.KeySessionSnapshot); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected snapshot to be deleted, got %v", err)
	}
	board, err := app.NewStorage(store, "it").LoadLeaderboard(ctx)
	if err != nil {
		t.Fatalf("load leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].Name != "Alice" || board[0].Score != 1 {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
