package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"quiz-master/internal/app"
	"quiz-master/internal/domain"
)

var errQuit = errors.New("player quit")

// Console plays one profile's game on a line-oriented terminal.
type Console struct {
	in   io.Reader
	out  io.Writer
	game *app.Game
}

func New(in io.Reader, out io.Writer, game *app.Game) *Console {
	return &Console{in: in, out: out, game: game}
}

// Run resumes the stored session if there is one and otherwise asks for the
// player and starts a quiz. It returns nil when the input ends or the player
// declines another round; an unfinished session stays stored for later.
func (c *Console) Run(ctx context.Context, player domain.Player) error {
	if err := c.game.Resume(ctx); err != nil {
		return err
	}

	if st := c.game.State(); st.Phase == domain.PhaseAnswering {
		fmt.Fprintf(c.out, "Welcome back, %s! Resuming at question %d with %ds left.\n",
			playerName(st), st.CurrentIndex+1, st.RemainingSeconds)
	}

	updates, cancel := c.game.Subscribe()
	defer cancel()
	done := make(chan struct{})
	defer close(done)
	lines := c.readLines(done)

	err := c.loop(ctx, lines, updates, player)
	if errors.Is(err, io.EOF) || errors.Is(err, errQuit) {
		fmt.Fprintln(c.out, "Bye!")
		return nil
	}
	return err
}

func (c *Console) loop(ctx context.Context, lines <-chan string, updates <-chan domain.State, player domain.Player) error {
	for {
		st := c.game.State()
		switch st.Phase {
		case domain.PhaseIdle:
			if err := c.start(ctx, lines, st, &player); err != nil {
				return err
			}
		case domain.PhaseAnswering:
			if err := c.play(ctx, lines, updates); err != nil {
				return err
			}
		case domain.PhaseFinished:
			c.printResult(st)
			again, err := c.confirm(ctx, lines, "Play again? [y/N] ", false)
			if err != nil {
				return err
			}
			if !again {
				return errQuit
			}
			if err := c.game.Reset(ctx, false); err != nil {
				return err
			}
		default:
			return fmt.Errorf("terminal: unexpected phase %q", st.Phase)
		}
	}
}

func (c *Console) start(ctx context.Context, lines <-chan string, st domain.State, player *domain.Player) error {
	if player.DisplayName == "" && st.Player != nil {
		*player = *st.Player
		fmt.Fprintf(c.out, "Welcome back, %s!\n", player.DisplayName)
	}

	for {
		for strings.TrimSpace(player.DisplayName) == "" {
			name, err := c.prompt(ctx, lines, "Your name: ")
			if err != nil {
				return err
			}
			player.DisplayName = name
			if player.AvatarRef == "" && name != "" {
				if player.AvatarRef, err = c.prompt(ctx, lines, "Avatar (optional): "); err != nil {
					return err
				}
			}
		}

		fmt.Fprintln(c.out, "Loading questions...")
		err := c.game.Start(ctx, *player)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, domain.ErrInvalidPlayer):
			player.DisplayName = ""
		case errors.Is(err, domain.ErrFetchFailed):
			fmt.Fprintln(c.out, c.game.State().Notice)
			retry, err := c.confirm(ctx, lines, "Try again? [Y/n] ", true)
			if err != nil {
				return err
			}
			if !retry {
				return errQuit
			}
		default:
			return err
		}
	}
}

func (c *Console) play(ctx context.Context, lines <-chan string, updates <-chan domain.State) error {
	shown := -1
	warned := 0
	for {
		st := c.game.State()
		if st.Phase != domain.PhaseAnswering {
			if st.Phase == domain.PhaseFinished && st.RemainingSeconds == 0 {
				fmt.Fprintln(c.out, "Time's up!")
			}
			return nil
		}
		q := st.Question
		if q != nil && q.Index != shown {
			c.printQuestion(st)
			shown = q.Index
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case _, ok := <-updates:
			if !ok {
				return domain.ErrGameClosed
			}
			if rem := c.game.State().RemainingSeconds; isWarning(rem) && rem != warned {
				warned = rem
				fmt.Fprintf(c.out, "%ds left!\n", rem)
			}
		case line, ok := <-lines:
			if !ok {
				return io.EOF
			}
			if q == nil {
				continue
			}
			choice, ok := parseChoice(line, len(q.Options))
			if !ok {
				fmt.Fprintf(c.out, "Pick 1-%d or A-%c.\n", len(q.Options), 'A'+len(q.Options)-1)
				continue
			}
			rec, _, err := c.game.Answer(ctx, q.Index, q.Options[choice])
			switch {
			case errors.Is(err, domain.ErrNotAnswering), errors.Is(err, domain.ErrStaleAnswer):
				continue
			case err != nil:
				return err
			case rec.WasCorrect:
				fmt.Fprintln(c.out, "Correct!")
			default:
				fmt.Fprintf(c.out, "Wrong, the answer was %s.\n", plain(rec.Correct))
			}
		}
	}
}

func (c *Console) printQuestion(st domain.State) {
	q := st.Question
	fmt.Fprintf(c.out, "\nQuestion %d/%d  (score %d, %ds left)\n%s\n",
		q.Index+1, st.Total, st.Score, st.RemainingSeconds, plain(q.Prompt))
	for i, opt := range q.Options {
		fmt.Fprintf(c.out, "  %c) %s\n", 'A'+i, plain(opt))
	}
	fmt.Fprint(c.out, "> ")
}

func (c *Console) printResult(st domain.State) {
	if r := st.Result; r != nil {
		fmt.Fprintf(c.out, "\nQuiz finished: %d%%\nAnswered %d of %d, %d correct.\n",
			r.Percent, r.Answered, r.Total, r.Correct)
	}
	PrintLeaderboard(c.out, st.Leaderboard)
}

// PrintLeaderboard writes the leaderboard as an aligned table.
func PrintLeaderboard(w io.Writer, entries []domain.LeaderboardEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No results yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tNAME\tAVATAR\tSCORE\tTIME LEFT\tDATE")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%ds\t%s\n", i+1, e.Name, e.AvatarRef, e.Score, e.TimeRemaining, e.Date)
	}
	tw.Flush()
}

func (c *Console) prompt(ctx context.Context, lines <-chan string, msg string) (string, error) {
	fmt.Fprint(c.out, msg)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case line, ok := <-lines:
		if !ok {
			return "", io.EOF
		}
		return strings.TrimSpace(line), nil
	}
}

func (c *Console) confirm(ctx context.Context, lines <-chan string, msg string, def bool) (bool, error) {
	answer, err := c.prompt(ctx, lines, msg)
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// readLines feeds input lines to a channel that is closed at EOF.
func (c *Console) readLines(done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}

// parseChoice accepts 1-based numbers and letters.
func parseChoice(line string, n int) (int, bool) {
	line = strings.ToLower(strings.TrimSpace(line))
	if line == "" {
		return 0, false
	}
	if i, err := strconv.Atoi(line); err == nil {
		return i - 1, i >= 1 && i <= n
	}
	if len(line) == 1 && line[0] >= 'a' && int(line[0]-'a') < n {
		return int(line[0] - 'a'), true
	}
	return 0, false
}

func isWarning(remaining int) bool {
	return remaining == 30 || remaining == 10 || remaining == 5
}

func playerName(st domain.State) string {
	if st.Player == nil {
		return "player"
	}
	return st.Player.DisplayName
}
