package agent

import (
	"math/rand"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/qtable"
)

// Policy picks the next action index
type Policy interface {
	Select(s env.State, f env.Facts) int
}

// Explorer is a policy with a decaying exploration rate
type Explorer interface {
	Policy
	Epsilon() float64
	Decay()
}

// EpsilonGreedy explores uniformly with probability epsilon and otherwise
// picks uniformly among the actions tied for the best known value
type EpsilonGreedy struct {
	table *qtable.Table
	rng   *rand.Rand

	epsilon float64
	min     float64
	decay   float64
}

// NewEpsilonGreedy creates an epsilon-greedy policy. epsilon is clamped to
// [min, 1].
func NewEpsilonGreedy(table *qtable.Table, rng *rand.Rand, epsilon, min, decay float64) *EpsilonGreedy {
	p := &EpsilonGreedy{
		table: table,
		rng:   rng,
		min:   min,
		decay: decay,
	}
	p.epsilon = p.clamp(epsilon)
	return p
}

// NewGreedy creates a policy that never explores
func NewGreedy(table *qtable.Table, rng *rand.Rand) *EpsilonGreedy {
	return NewEpsilonGreedy(table, rng, 0, 0, 1)
}

func (p *EpsilonGreedy) clamp(e float64) float64 {
	if e < p.min {
		return p.min
	}
	if e > 1 {
		return 1
	}
	return e
}

// Select returns an action for s
func (p *EpsilonGreedy) Select(s env.State, _ env.Facts) int {
	if p.epsilon > 0 && p.rng.Float64() < p.epsilon {
		return p.rng.Intn(p.table.NumActions())
	}
	best := p.table.BestActions(s)
	return best[p.rng.Intn(len(best))]
}

// Epsilon returns the current exploration rate
func (p *EpsilonGreedy) Epsilon() float64 {
	return p.epsilon
}

// Decay shrinks epsilon geometrically toward its floor
func (p *EpsilonGreedy) Decay() {
	p.epsilon = p.clamp(p.epsilon * p.decay)
}
