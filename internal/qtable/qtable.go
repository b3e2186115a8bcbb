// Package qtable is the tabular action-value store shared by every training
// worker.
//
// All access goes through one table-wide mutex held inside the Table. The
// read-modify-write of an update (read the old value, read the next state's
// best value, write the new value) happens under a single acquisition, so
// concurrent updates are linearizable and never lost. The mutex itself is
// not exposed.
package qtable

import (
	"sync"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

// Key identifies one table entry
type Key struct {
	State  env.State
	Action int
}

// Table maps (state, action) to an estimated return. Entries are created on
// first write and never removed. Unknown entries read as 0.0.
type Table struct {
	mu         sync.Mutex
	values     map[Key]float64
	numActions int
}

// New creates an empty table for a catalog of numActions actions
func New(numActions int) *Table {
	return &Table{
		values:     make(map[Key]float64),
		numActions: numActions,
	}
}

// NumActions returns the size of the action catalog the table was built for
func (t *Table) NumActions() int {
	return t.numActions
}

// Get returns the value of (s, a), or 0.0 if it has never been set
func (t *Table) Get(s env.State, a int) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.values[Key{State: s, Action: a}]
}

// Set creates or overwrites the value of (s, a)
func (t *Table) Set(s env.State, a int, v float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.values[Key{State: s, Action: a}] = v
}

// Max returns the best action value for s. A state never seen has a max of
// 0.0.
func (t *Table) Max(s env.State) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.maxLocked(s)
}

func (t *Table) maxLocked(s env.State) float64 {
	if t.numActions == 0 {
		return 0
	}
	best := t.values[Key{State: s, Action: 0}]
	for a := 1; a < t.numActions; a++ {
		if v := t.values[Key{State: s, Action: a}]; v > best {
			best = v
		}
	}
	return best
}

// BestActions returns every action tied for the maximum value in s, in
// catalog order. For a state never seen that is every action.
func (t *Table) BestActions(s env.State) []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	best := t.maxLocked(s)
	var out []int
	for a := 0; a < t.numActions; a++ {
		if t.values[Key{State: s, Action: a}] == best {
			out = append(out, a)
		}
	}
	return out
}

// Target is the one-step tabular Q-learning update:
// old + alpha*(reward + gamma*nextMax - old)
func Target(old, reward, nextMax, alpha, gamma float64) float64 {
	return old + alpha*(reward+gamma*nextMax-old)
}

// Update applies the Q-learning update to (s, a) for a transition to next
// that earned reward, and returns the new value
func (t *Table) Update(s env.State, a int, reward float64, next env.State, alpha, gamma float64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()

	k := Key{State: s, Action: a}
	v := Target(t.values[k], reward, t.maxLocked(next), alpha, gamma)
	t.values[k] = v
	return v
}

// Len returns the number of entries
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.values)
}

// States returns the number of distinct states with at least one entry
func (t *Table) States() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	seen := make(map[env.State]struct{}, len(t.values)/max(t.numActions, 1))
	for k := range t.values {
		seen[k.State] = struct{}{}
	}
	return len(seen)
}

// Snapshot returns a copy of every entry
func (t *Table) Snapshot() map[Key]float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[Key]float64, len(t.values))
	for k, v := range t.values {
		out[k] = v
	}
	return out
}
