package agent

import (
	"fmt"
	"slices"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

// Playback replays the action trace of a recorded session, one action per
// step. After the last recorded action it keeps returning that action.
type Playback struct {
	actions []int
	next    int
}

// NewPlayback follows r on catalog c. The replay must have been recorded
// with the same catalog.
func NewPlayback(r *env.Replay, c env.Catalog) (*Playback, error) {
	if !slices.Equal(r.Config.Catalog, c.Names()) {
		return nil, fmt.Errorf("playback: replay catalog %v, configured catalog %v", r.Config.Catalog, c.Names())
	}
	if len(r.Actions) == 0 {
		return nil, fmt.Errorf("playback: replay has no actions")
	}
	for i, a := range r.Actions {
		if a < 0 || a >= c.Len() {
			return nil, fmt.Errorf("playback: step %d action %d out of range", i, a)
		}
	}
	return &Playback{actions: r.Actions}, nil
}

// Len returns the number of recorded steps
func (p *Playback) Len() int {
	return len(p.actions)
}

// Select returns the next recorded action
func (p *Playback) Select(_ env.State, _ env.Facts) int {
	a := p.actions[min(p.next, len(p.actions)-1)]
	p.next++
	return a
}
