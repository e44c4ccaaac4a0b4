package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"quiz-master/internal/domain"
	"quiz-master/internal/sound"
	"quiz-master/internal/telemetry"
)

const (
	DefaultQuestionCount = 10
	DefaultDuration      = 60 * time.Second

	// NoticeFetchFailed is shown when a batch of questions cannot be loaded.
	NoticeFetchFailed = "Connection problem. Make sure you are online and try again."

	dateLayout = "2006-01-02"
)

// QuestionSource fetches a batch of questions.
type QuestionSource interface {
	FetchBatch(ctx context.Context, count int) ([]domain.Question, error)
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type GameConfig struct {
	Profile       string
	Store         Store
	Source        QuestionSource
	Sound         sound.Player
	QuestionCount int
	Duration      time.Duration
	TickInterval  time.Duration
	NewTickerFunc func(d time.Duration) Ticker
	Clock         func() time.Time
}

// Game runs the quiz of one profile. All transitions are serialized by mu,
// and the store is only touched while mu is held.
type Game struct {
	profile  string
	storage  *Storage
	source   QuestionSource
	sound    sound.Player
	count    int
	seconds  int
	interval time.Duration
	ticker   func(d time.Duration) Ticker
	now      func() time.Time

	mu          sync.Mutex
	closed      bool
	player      *domain.Player
	session     Session
	leaderboard []domain.LeaderboardEntry
	notice      string
	loadGen     uint64
	cancelLoad  context.CancelFunc
	timerGen    uint64
	stopTimer   func()
	subscribers map[chan domain.State]struct{}
}

func NewGame(c GameConfig) *Game {
	g := &Game{
		profile:     c.Profile,
		storage:     NewStorage(c.Store, c.Profile),
		source:      c.Source,
		sound:       c.Sound,
		count:       c.QuestionCount,
		seconds:     int(c.Duration / time.Second),
		interval:    c.TickInterval,
		ticker:      c.NewTickerFunc,
		now:         c.Clock,
		session:     IdleSession(),
		leaderboard: []domain.LeaderboardEntry{},
		subscribers: make(map[chan domain.State]struct{}),
	}
	if g.sound == nil {
		g.sound = sound.Mute{}
	}
	if g.count <= 0 {
		g.count = DefaultQuestionCount
	}
	if g.seconds <= 0 {
		g.seconds = int(DefaultDuration / time.Second)
	}
	if g.interval <= 0 {
		g.interval = time.Second
	}
	if g.ticker == nil {
		g.ticker = newTimeTicker
	}
	if g.now == nil {
		g.now = time.Now
	}
	return g
}

// Resume loads the stored identity and leaderboard, and continues a stored
// session straight into the answering phase when both identity and snapshot exist.
func (g *Game) Resume(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return domain.ErrGameClosed
	}

	player, err := g.storage.LoadPlayer(ctx)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	board, err := g.storage.LoadLeaderboard(ctx)
	if err != nil {
		return fmt.Errorf("resume: %w", err)
	}
	g.player = player
	g.leaderboard = board

	if player != nil && g.session.Phase == domain.PhaseIdle {
		ss, ok, err := g.storage.LoadSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		if ok && ss.RemainingSeconds > g.seconds {
			slog.WarnContext(ctx, "game: discarding snapshot longer than the quiz duration",
				"profile", g.profile, "remaining", ss.RemainingSeconds, "duration", g.seconds)
			if err := g.storage.DeleteSnapshot(ctx); err != nil {
				return fmt.Errorf("resume: %w", err)
			}
			ok = false
		}
		if ok {
			g.session = ss
			g.startTimerLocked()
			telemetry.SessionsResumed.Inc()
			slog.InfoContext(ctx, "game: resumed session",
				"profile", g.profile,
				"index", ss.CurrentIndex,
				"remaining", ss.RemainingSeconds,
			)
		}
	}

	g.broadcastLocked()
	return nil
}

// Start stores the player identity and loads a new batch of questions.
// On a failed or empty fetch the game returns to idle with a notice and
// nothing is written for the session.
func (g *Game) Start(ctx context.Context, player domain.Player) error {
	player.DisplayName = strings.TrimSpace(player.DisplayName)
	player.AvatarRef = strings.TrimSpace(player.AvatarRef)
	if player.DisplayName == "" {
		return domain.ErrInvalidPlayer
	}

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return domain.ErrGameClosed
	}
	if g.session.Phase != domain.PhaseIdle {
		g.mu.Unlock()
		return domain.ErrNotIdle
	}
	if err := g.storage.SavePlayer(ctx, player); err != nil {
		g.mu.Unlock()
		return fmt.Errorf("start: %w", err)
	}
	g.player = &player
	if board, err := g.storage.LoadLeaderboard(ctx); err == nil {
		g.leaderboard = board
	} else {
		slog.WarnContext(ctx, "game: load leaderboard failed", "profile", g.profile, "error", err)
	}
	g.notice = ""
	g.session = Session{Phase: domain.PhaseLoading}
	g.loadGen++
	gen := g.loadGen
	loadCtx, cancel := context.WithCancel(ctx)
	g.cancelLoad = cancel
	g.broadcastLocked()
	g.mu.Unlock()

	questions, err := g.source.FetchBatch(loadCtx, g.count)
	cancel()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || gen != g.loadGen || g.session.Phase != domain.PhaseLoading {
		return fmt.Errorf("start: load abandoned: %w", context.Canceled)
	}
	g.cancelLoad = nil

	ss, err := g.begin(questions, err)
	if err != nil {
		telemetry.FetchFailures.Inc()
		slog.WarnContext(ctx, "game: question fetch failed", "profile", g.profile, "error", err)
		g.session = IdleSession()
		g.notice = NoticeFetchFailed
		g.broadcastLocked()
		return fmt.Errorf("start: %w", err)
	}

	g.session = ss
	if err := g.storage.SaveSnapshot(ctx, ss); err != nil {
		slog.ErrorContext(ctx, "game: save snapshot failed", "profile", g.profile, "error", err)
	}
	g.startTimerLocked()
	g.playLocked(ctx, sound.CueStart)
	telemetry.SessionsStarted.Inc()
	slog.InfoContext(ctx, "game: session started", "profile", g.profile, "questions", len(ss.Questions))
	g.broadcastLocked()
	return nil
}

func (g *Game) begin(questions []domain.Question, fetchErr error) (Session, error) {
	if fetchErr != nil {
		if !errors.Is(fetchErr, domain.ErrFetchFailed) {
			fetchErr = fmt.Errorf("%w: %w", domain.ErrFetchFailed, fetchErr)
		}
		return IdleSession(), fetchErr
	}
	return Begin(questions, g.seconds)
}

// Answer records the selected answer for the question at index and returns
// the state the answer produced.
func (g *Game) Answer(ctx context.Context, index int, selected string) (domain.AnswerRecord, domain.State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return domain.AnswerRecord{}, domain.State{}, domain.ErrGameClosed
	}

	next, rec, err := g.session.Answer(index, selected)
	if err != nil {
		return domain.AnswerRecord{}, domain.State{}, err
	}
	g.session = next
	telemetry.Answers.WithLabelValues(fmt.Sprint(rec.WasCorrect)).Inc()

	if rec.WasCorrect {
		g.playLocked(ctx, sound.CueCorrect)
	} else {
		g.playLocked(ctx, sound.CueWrong)
	}

	if next.Phase == domain.PhaseFinished {
		g.finishLocked(ctx, telemetry.ReasonCompleted)
	} else if err := g.storage.SaveSnapshot(ctx, next); err != nil {
		slog.ErrorContext(ctx, "game: save snapshot failed", "profile", g.profile, "error", err)
	}

	g.broadcastLocked()
	return rec, g.stateLocked(), nil
}

func (g *Game) tick(gen uint64) {
	ctx := context.Background()

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed || gen != g.timerGen || g.session.Phase != domain.PhaseAnswering {
		return
	}

	g.session = g.session.Tick()
	if g.session.Phase == domain.PhaseFinished {
		g.finishLocked(ctx, telemetry.ReasonTimeout)
	} else if err := g.storage.SaveSnapshot(ctx, g.session); err != nil {
		slog.ErrorContext(ctx, "game: save snapshot failed", "profile", g.profile, "error", err)
	}
	g.broadcastLocked()
}

func (g *Game) finishLocked(ctx context.Context, reason string) {
	g.stopTimerLocked()

	if err := g.storage.DeleteSnapshot(ctx); err != nil {
		slog.ErrorContext(ctx, "game: delete snapshot failed", "profile", g.profile, "error", err)
	}

	if g.player != nil {
		board, err := g.storage.LoadLeaderboard(ctx)
		if err != nil {
			slog.ErrorContext(ctx, "game: load leaderboard failed", "profile", g.profile, "error", err)
			board = g.leaderboard
		}
		g.leaderboard = InsertLeaderboard(board, domain.LeaderboardEntry{
			Name:          g.player.DisplayName,
			AvatarRef:     g.player.AvatarRef,
			Score:         g.session.Score,
			TimeRemaining: g.session.RemainingSeconds,
			Date:          g.now().Format(dateLayout),
		})
		if err := g.storage.SaveLeaderboard(ctx, g.leaderboard); err != nil {
			slog.ErrorContext(ctx, "game: save leaderboard failed", "profile", g.profile, "error", err)
		}
	}

	g.playLocked(ctx, sound.CueFinish)
	telemetry.SessionsFinished.WithLabelValues(reason).Inc()
	slog.InfoContext(ctx, "game: session finished",
		"profile", g.profile,
		"reason", reason,
		"score", g.session.Score,
		"answered", g.session.CurrentIndex,
	)
}

// Reset returns the game to idle and clears the in-progress snapshot.
// Identity and leaderboard are kept unless forget is set.
func (g *Game) Reset(ctx context.Context, forget bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return domain.ErrGameClosed
	}

	g.abortLocked()
	g.session = IdleSession()
	g.notice = ""

	var err error
	if forget {
		err = g.storage.Clear(ctx)
		g.player = nil
		g.leaderboard = []domain.LeaderboardEntry{}
	} else {
		err = g.storage.DeleteSnapshot(ctx)
	}

	g.broadcastLocked()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

// Close stops the timer and any pending load and closes all subscriptions.
// A stored snapshot is kept so the session can be resumed later.
func (g *Game) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.closed {
		return
	}
	g.closed = true
	g.abortLocked()
	for ch := range g.subscribers {
		delete(g.subscribers, ch)
		close(ch)
	}
}

func (g *Game) abortLocked() {
	g.stopTimerLocked()
	if g.cancelLoad != nil {
		g.cancelLoad()
		g.cancelLoad = nil
	}
	g.loadGen++
}

// State returns the current view of the game.
func (g *Game) State() domain.State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stateLocked()
}

// Subscribe returns a channel that receives the state after every change.
// Slow readers only miss intermediate states, never the latest one.
// The caller must invoke the returned cancel function to avoid leaks.
func (g *Game) Subscribe() (<-chan domain.State, func()) {
	ch := make(chan domain.State, 8)

	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	g.subscribers[ch] = struct{}{}
	ch <- g.stateLocked()
	g.mu.Unlock()

	cancel := func() {
		g.mu.Lock()
		if _, ok := g.subscribers[ch]; ok {
			delete(g.subscribers, ch)
			close(ch)
		}
		g.mu.Unlock()
	}
	return ch, cancel
}

func (g *Game) broadcastLocked() {
	st := g.stateLocked()
	for ch := range g.subscribers {
		select {
		case ch <- st:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- st
		}
	}
}

func (g *Game) stateLocked() domain.State {
	ss := g.session
	st := domain.State{
		Phase:            ss.Phase,
		Total:            len(ss.Questions),
		CurrentIndex:     ss.CurrentIndex,
		Score:            ss.Score,
		RemainingSeconds: ss.RemainingSeconds,
		AnswerLog:        slices.Clone(ss.AnswerLog),
		Leaderboard:      slices.Clone(g.leaderboard),
		Notice:           g.notice,
	}
	if st.AnswerLog == nil {
		st.AnswerLog = []domain.AnswerRecord{}
	}
	if g.player != nil {
		p := *g.player
		st.Player = &p
	}
	if q, ok := ss.Current(); ok {
		st.Question = &q
	}
	if ss.Phase == domain.PhaseFinished {
		r := ss.Result()
		st.Result = &r
	}
	return st
}

func (g *Game) playLocked(ctx context.Context, cue sound.Cue) {
	if err := g.sound.Play(ctx, cue); err != nil {
		slog.DebugContext(ctx, "game: sound cue not played", "cue", cue, "error", err)
	}
}

func (g *Game) startTimerLocked() {
	g.stopTimerLocked()

	gen := g.timerGen
	t := g.ticker(g.interval)
	done := make(chan struct{})
	g.stopTimer = func() {
		close(done)
		t.Stop()
	}

	go func() {
		for {
			select {
			case <-done:
				return
			case <-t.C():
				g.tick(gen)
			}
		}
	}()
}

func (g *Game) stopTimerLocked() {
	g.timerGen++
	if g.stopTimer != nil {
		g.stopTimer()
		g.stopTimer = nil
	}
}

type timeTicker struct {
	t *time.Ticker
}

func newTimeTicker(d time.Duration) Ticker {
	return timeTicker{t: time.NewTicker(d)}
}

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }
