package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"quiz-master/internal/domain"
)

// Store abstracts the key-value backend (memory, SQLite, Redis, Postgres).
// Get returns domain.ErrNotFound for a missing key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// Keys of the persistence contract.
const (
	KeyPlayerIdentity  = "player_identity"
	KeySessionSnapshot = "session_snapshot"
	KeyLeaderboard     = "leaderboard"
)

type snapshot struct {
	Questions        []domain.Question     `json:"questions"`
	CurrentIndex     int                   `json:"currentIndex"`
	Score            int                   `json:"score"`
	RemainingSeconds int                   `json:"remainingSeconds"`
	AnswerLog        []domain.AnswerRecord `json:"answerLog"`
}

// Storage gives typed, profile-scoped access to a Store.
type Storage struct {
	store   Store
	profile string
}

func NewStorage(store Store, profile string) *Storage {
	return &Storage{store: store, profile: profile}
}

func (s *Storage) key(name string) string {
	return s.profile + ":" + name
}

// LoadPlayer returns nil when no valid identity is stored.
func (s *Storage) LoadPlayer(ctx context.Context) (*domain.Player, error) {
	var p domain.Player
	ok, err := s.load(ctx, KeyPlayerIdentity, &p)
	if err != nil || !ok {
		return nil, err
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		slog.WarnContext(ctx, "storage: discarding player identity without a name", "profile", s.profile)
		return nil, nil
	}
	return &p, nil
}

func (s *Storage) SavePlayer(ctx context.Context, p domain.Player) error {
	return s.save(ctx, KeyPlayerIdentity, p)
}

// LoadSnapshot returns the stored in-progress session. A malformed or
// inconsistent snapshot is deleted and reported as absent.
func (s *Storage) LoadSnapshot(ctx context.Context) (Session, bool, error) {
	var snap snapshot
	ok, err := s.load(ctx, KeySessionSnapshot, &snap)
	if err != nil || !ok {
		return IdleSession(), false, err
	}

	ss := Session{
		Questions:        snap.Questions,
		CurrentIndex:     snap.CurrentIndex,
		Score:            snap.Score,
		RemainingSeconds: snap.RemainingSeconds,
		AnswerLog:        snap.AnswerLog,
		Phase:            domain.PhaseAnswering,
	}
	if ss.AnswerLog == nil {
		ss.AnswerLog = []domain.AnswerRecord{}
	}
	if err := ss.validateResumable(); err != nil {
		slog.WarnContext(ctx, "storage: discarding invalid session snapshot", "profile", s.profile, "error", err)
		return IdleSession(), false, s.DeleteSnapshot(ctx)
	}
	return ss, true, nil
}

func (s *Storage) SaveSnapshot(ctx context.Context, ss Session) error {
	return s.save(ctx, KeySessionSnapshot, snapshot{
		Questions:        ss.Questions,
		CurrentIndex:     ss.CurrentIndex,
		Score:            ss.Score,
		RemainingSeconds: ss.RemainingSeconds,
		AnswerLog:        ss.AnswerLog,
	})
}

func (s *Storage) DeleteSnapshot(ctx context.Context) error {
	return s.delete(ctx, KeySessionSnapshot)
}

// LoadLeaderboard returns the stored leaderboard, ranked and capped.
func (s *Storage) LoadLeaderboard(ctx context.Context) ([]domain.LeaderboardEntry, error) {
	var entries []domain.LeaderboardEntry
	ok, err := s.load(ctx, KeyLeaderboard, &entries)
	if err != nil || !ok {
		return []domain.LeaderboardEntry{}, err
	}
	return rankLeaderboard(entries), nil
}

func (s *Storage) SaveLeaderboard(ctx context.Context, entries []domain.LeaderboardEntry) error {
	return s.save(ctx, KeyLeaderboard, entries)
}

// Clear removes every key of the profile.
func (s *Storage) Clear(ctx context.Context) error {
	return errors.Join(
		s.delete(ctx, KeySessionSnapshot),
		s.delete(ctx, KeyPlayerIdentity),
		s.delete(ctx, KeyLeaderboard),
	)
}

// load decodes the key into v. It reports false for a missing key and for
// undecodable JSON, which is treated as absent.
func (s *Storage) load(ctx context.Context, name string, v any) (bool, error) {
	raw, err := s.store.Get(ctx, s.key(name))
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: get %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		slog.WarnContext(ctx, "storage: discarding malformed value", "key", name, "profile", s.profile, "error", err)
		return false, nil
	}
	return true, nil
}

func (s *Storage) save(ctx context.Context, name string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("storage: marshal %s: %w", name, err)
	}
	if err := s.store.Set(ctx, s.key(name), raw); err != nil {
		return fmt.Errorf("storage: set %s: %w", name, err)
	}
	return nil
}

func (s *Storage) delete(ctx context.Context, name string) error {
	if err := s.store.Delete(ctx, s.key(name)); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("storage: delete %s: %w", name, err)
	}
	return nil
}
