package app

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Registry keeps one live Game per profile while clients are attached to it.
type Registry struct {
	newGame func(profile string) *Game
	sf      singleflight.Group

	mu    sync.Mutex
	games map[string]*registryEntry
}

type registryEntry struct {
	game    *Game
	clients int
}

func NewRegistry(newGame func(profile string) *Game) *Registry {
	return &Registry{
		newGame: newGame,
		games:   make(map[string]*registryEntry),
	}
}

// Join attaches a client to the profile's game, creating and resuming it from
// storage on first use. Concurrent first joins share one resume.
func (r *Registry) Join(ctx context.Context, profile string) (*Game, error) {
	r.mu.Lock()
	if e, ok := r.games[profile]; ok {
		e.clients++
		r.mu.Unlock()
		return e.game, nil
	}
	r.mu.Unlock()

	v, err, _ := r.sf.Do(profile, func() (interface{}, error) {
		r.mu.Lock()
		if e, ok := r.games[profile]; ok {
			r.mu.Unlock()
			return e.game, nil
		}
		r.mu.Unlock()

		g := r.newGame(profile)
		if err := g.Resume(ctx); err != nil {
			g.Close()
			return nil, err
		}

		r.mu.Lock()
		r.games[profile] = &registryEntry{game: g}
		r.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	g := v.(*Game)

	r.mu.Lock()
	e, ok := r.games[profile]
	if !ok || e.game != g {
		// Released by another client between creation and attach.
		r.mu.Unlock()
		return r.Join(ctx, profile)
	}
	e.clients++
	r.mu.Unlock()
	return g, nil
}

// Get returns the live game of a profile.
func (r *Registry) Get(profile string) (*Game, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.games[profile]
	if !ok {
		return nil, false
	}
	return e.game, true
}

// Leave detaches a client. The last client to leave closes the game, which
// stops its timer; the stored snapshot lets a later Join resume it.
func (r *Registry) Leave(profile string) {
	r.mu.Lock()
	e, ok := r.games[profile]
	if !ok {
		r.mu.Unlock()
		return
	}
	e.clients--
	if e.clients > 0 {
		r.mu.Unlock()
		return
	}
	delete(r.games, profile)
	r.mu.Unlock()

	e.game.Close()
}

// Close closes every live game.
func (r *Registry) Close() {
	r.mu.Lock()
	games := r.games
	r.games = make(map[string]*registryEntry)
	r.mu.Unlock()

	for _, e := range games {
		e.game.Close()
	}
}
