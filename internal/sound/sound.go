package sound

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"quiz-master/internal/domain"
)

// Cue names a short sound effect.
type Cue string

const (
	CueStart   Cue = "start"
	CueCorrect Cue = "correct"
	CueWrong   Cue = "wrong"
	CueFinish  Cue = "finish"
)

// Player plays cues. Playback is best-effort: callers log failures and move on.
type Player interface {
	Play(ctx context.Context, cue Cue) error
}

var bells = map[Cue]int{
	CueStart:   1,
	CueCorrect: 1,
	CueWrong:   2,
	CueFinish:  3,
}

// Bell rings the terminal bell, a different number of times per cue.
type Bell struct {
	mu sync.Mutex
	w  io.Writer
}

func NewBell(w io.Writer) *Bell {
	return &Bell{w: w}
}

func (b *Bell) Play(ctx context.Context, cue Cue) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPlaybackFailed, err)
	}
	n, ok := bells[cue]
	if !ok {
		return fmt.Errorf("%w: unknown cue %q", domain.ErrPlaybackFailed, cue)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, err := io.WriteString(b.w, strings.Repeat("\a", n)); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPlaybackFailed, err)
	}
	return nil
}

// Mute discards every cue.
type Mute struct{}

func (Mute) Play(context.Context, Cue) error { return nil }
