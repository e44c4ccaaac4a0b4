package terminal

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"quiz-master/internal/app"
	"quiz-master/internal/domain"
	"quiz-master/internal/infra/memory"
)

type stoppedTicker struct{}

func (stoppedTicker) C() <-chan time.Time { return nil }
func (stoppedTicker) Stop()               {}

type sourceFunc func(ctx context.Context, count int) ([]domain.Question, error)

func (f sourceFunc) FetchBatch(ctx context.Context, count int) ([]domain.Question, error) {
	return f(ctx, count)
}

func testQuestions() []domain.Question {
	return []domain.Question{
		{Prompt: "What is 2 &amp; 2?", CorrectAnswer: "4", IncorrectAnswers: []string{"3", "5", "22"}},
		{Prompt: "Capital of <i>France</i>?", CorrectAnswer: "Paris", IncorrectAnswers: []string{"Rome", "Lyon", "Nice"}},
	}
}

func newTestGame(t *testing.T, store app.Store, source app.QuestionSource) *app.Game {
	t.Helper()
	g := app.NewGame(app.GameConfig{
		Profile:       "p1",
		Store:         store,
		Source:        source,
		NewTickerFunc: func(time.Duration) app.Ticker { return stoppedTicker{} },
	})
	t.Cleanup(g.Close)
	return g
}

func TestConsolePlaysFullQuiz(t *testing.T) {
	store := memory.NewStore()
	game := newTestGame(t, store, memory.NewStaticSource(testQuestions()))
	var out bytes.Buffer

	in := strings.NewReader("Ann\ncat\nx\nC\nb\nn\n")
	if err := New(in, &out, game).Run(context.Background(), domain.Player{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	for _, want := range []string{
		"What is 2 & 2?",
		"C) 4",
		"Pick 1-4 or A-D.",
		"Correct!",
		"Capital of France?",
		"Wrong, the answer was Paris.",
		"Quiz finished: 50%",
		"Answered 2 of 2, 1 correct.",
		"Ann",
		"Bye!",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}

	board, err := app.NewStorage(store, "p1").LoadLeaderboard(context.Background())
	if err != nil {
		t.Fatalf("load leaderboard: %v", err)
	}
	if len(board) != 1 || board[0].Name != "Ann" || board[0].AvatarRef != "cat" || board[0].Score != 1 {
		t.Fatalf("unexpected leaderboard: %+v", board)
	}
}

func TestConsoleRetriesAfterFetchFailure(t *testing.T) {
	calls := 0
	source := sourceFunc(func(context.Context, int) ([]domain.Question, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("offline")
		}
		return testQuestions(), nil
	})
	store := memory.NewStore()
	game := newTestGame(t, store, source)
	var out bytes.Buffer

	// Input ends mid-quiz: the session must stay stored.
	in := strings.NewReader("Ann\n\n\nA\n")
	if err := New(in, &out, game).Run(context.Background(), domain.Player{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(out.String(), app.NoticeFetchFailed) {
		t.Fatalf("expected fetch notice:\n%s", out.String())
	}
	if calls != 2 {
		t.Fatalf("expected 2 fetches, got %d", calls)
	}
	st := game.State()
	if st.Phase != domain.PhaseAnswering || st.CurrentIndex != 1 {
		t.Fatalf("unexpected state: %+v", st)
	}
	if _, ok, _ := app.NewStorage(store, "p1").LoadSnapshot(context.Background()); !ok {
		t.Fatal("expected a stored snapshot")
	}
}

func TestConsoleDeclinesRetry(t *testing.T) {
	source := sourceFunc(func(context.Context, int) ([]domain.Question, error) {
		return nil, domain.ErrEmptyBatch
	})
	game := newTestGame(t, memory.NewStore(), source)
	var out bytes.Buffer

	in := strings.NewReader("n\n")
	if err := New(in, &out, game).Run(context.Background(), domain.Player{DisplayName: "Ann"}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if game.State().Phase != domain.PhaseIdle {
		t.Fatalf("expected idle, got %s", game.State().Phase)
	}
}

func TestConsoleResumesStoredSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	storage := app.NewStorage(store, "p1")
	if err := storage.SavePlayer(ctx, domain.Player{DisplayName: "Ann"}); err != nil {
		t.Fatalf("save player: %v", err)
	}
	ss, err := app.Begin(testQuestions(), 42)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if ss, _, err = ss.Answer(0, "4"); err != nil {
		t.Fatalf("answer: %v", err)
	}
	if err := storage.SaveSnapshot(ctx, ss); err != nil {
		t.Fatalf("save snapshot: %v", err)
	}

	game := newTestGame(t, store, sourceFunc(func(context.Context, int) ([]domain.Question, error) {
		return nil, errors.New("resume must not fetch")
	}))
	var out bytes.Buffer
	if err := New(strings.NewReader("3\n"), &out, game).Run(ctx, domain.Player{}); err != nil {
		t.Fatalf("run: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "Welcome back, Ann! Resuming at question 2 with 42s left.") {
		t.Fatalf("expected resume greeting:\n%s", got)
	}
	if !strings.Contains(got, "Quiz finished: 100%") {
		t.Fatalf("expected finished quiz:\n%s", got)
	}
}

func TestParseChoice(t *testing.T) {
	cases := []struct {
		in   string
		want int
		ok   bool
	}{
		{"1", 0, true},
		{" 4 ", 3, true},
		{"a", 0, true},
		{"D", 3, true},
		{"5", 0, false},
		{"0", 0, false},
		{"e", 0, false},
		{"", 0, false},
		{"ab", 0, false},
	}
	for _, c := range cases {
		got, ok := parseChoice(c.in, 4)
		if ok != c.ok || (ok && got != c.want) {
			t.Fatalf("parseChoice(%q) = %d, %v; want %d, %v", c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestPlain(t *testing.T) {
	cases := map[string]string{
		"Who wrote &quot;Hamlet&quot;?": `Who wrote "Hamlet"?`,
		"Rock &amp; Roll":               "Rock & Roll",
		"It&#039;s <b>bold</b>":         "It's bold",
		"line<br>break":                 "line break",
		"Caf&eacute; &lt;3":             "Café <3",
		"  extra   spaces  ":            "extra spaces",
	}
	for in, want := range cases {
		if got := plain(in); got != want {
			t.Fatalf("plain(%q) = %q, want %q", in, got, want)
		}
	}
}
