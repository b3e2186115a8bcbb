package agent

import (
	"fmt"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

// Heuristic is a hand-written reactive policy. It runs right for as long
// as level progress keeps increasing. When progress stalls for stallSteps
// steps in a row, something is in the way, so it holds the jump
// combination for jumpSteps steps.
type Heuristic struct {
	run  int
	jump int

	stallSteps int
	jumpSteps  int

	lastProgress int
	stalled      int
	jumping      int
}

// NewHeuristic builds the heuristic on top of a catalog. The catalog must
// contain a run-right action and a run-right-and-jump action, with or
// without B.
func NewHeuristic(c env.Catalog, stallSteps, jumpSteps int) (*Heuristic, error) {
	run := c.Find(env.ButtonRight, env.ButtonB)
	if run < 0 {
		run = c.Find(env.ButtonRight)
	}
	jump := c.Find(env.ButtonRight, env.ButtonB, env.ButtonA)
	if jump < 0 {
		jump = c.Find(env.ButtonRight, env.ButtonA)
	}
	if run < 0 || jump < 0 {
		return nil, fmt.Errorf("heuristic: catalog %v has no run or jump action", c.Names())
	}
	if stallSteps < 1 {
		stallSteps = 1
	}
	if jumpSteps < 1 {
		jumpSteps = 1
	}
	return &Heuristic{run: run, jump: jump, stallSteps: stallSteps, jumpSteps: jumpSteps}, nil
}

// Select returns the next action
func (h *Heuristic) Select(_ env.State, f env.Facts) int {
	progressed := f.LevelProgress > h.lastProgress
	h.lastProgress = f.LevelProgress

	if h.jumping > 0 {
		h.jumping--
		return h.jump
	}

	if progressed {
		h.stalled = 0
		return h.run
	}

	h.stalled++
	if h.stalled >= h.stallSteps {
		h.stalled = 0
		h.jumping = h.jumpSteps - 1
		return h.jump
	}
	return h.run
}
