package env

import (
	"errors"
	"fmt"
	"math"
)

// LevelsPerWorld is the number of stages in each Super Mario Land world
const LevelsPerWorld = 3

// Fitness holds the reward shaping weights. Step reward is the difference
// of two consecutive fitness values.
type Fitness struct {
	ProgressW  float64 // per unit of level progress
	TimeW      float64 // per unit of time left; sign is a tuning choice
	WorldBonus float64 // per world major
	LevelBonus float64 // per world minor
	LivesW     float64 // per life left
	ScoreW     float64
	CoinW      float64

	// Bounds of the terms that restart with every level
	MaxProgress int
	MaxTime     int
}

// stageLoss is the most fitness a level change can take away: progress
// drops back to the start and the clock restarts. Lives, score and coins
// never fall on a clear.
func (w Fitness) stageLoss() float64 {
	return w.ProgressW*float64(w.MaxProgress) + math.Abs(w.TimeW)*float64(w.MaxTime)
}

// Validate checks that completing a level always earns a positive reward.
// Moving to the next level within a world adds LevelBonus and moving on to
// the next world adds WorldBonus - (LevelsPerWorld-1)*LevelBonus; both must
// exceed the largest loss of the per-level terms.
func (w Fitness) Validate() error {
	if w.ProgressW < 0 {
		return fmt.Errorf("fitness: progress weight must not be negative, got %v", w.ProgressW)
	}
	if w.LivesW < 0 || w.ScoreW < 0 || w.CoinW < 0 {
		return errors.New("fitness: lives, score and coin weights must not be negative")
	}
	if w.MaxProgress <= 0 {
		return errors.New("fitness: max progress must be positive")
	}
	if w.MaxTime < 0 {
		return errors.New("fitness: max time must not be negative")
	}
	if w.LevelBonus <= 0 {
		return errors.New("fitness: level bonus must be positive")
	}

	loss := w.stageLoss()
	if w.LevelBonus <= loss {
		return fmt.Errorf("fitness: level bonus %v must exceed %v, the most a level change can lose (progress_w x max_progress + |time_w| x max_time)",
			w.LevelBonus, loss)
	}
	if gain := w.WorldBonus - float64(LevelsPerWorld-1)*w.LevelBonus; gain <= loss {
		return fmt.Errorf("fitness: world bonus %v must exceed %d x level bonus %v plus %v",
			w.WorldBonus, LevelsPerWorld-1, w.LevelBonus, loss)
	}
	return nil
}

// Score computes the fitness of the given facts
func (w Fitness) Score(f Facts) float64 {
	score := w.ProgressW * float64(f.LevelProgress)
	score += w.TimeW * float64(f.TimeLeft)
	score += w.WorldBonus * float64(f.World.Major)
	score += w.LevelBonus * float64(f.World.Minor)
	score += w.LivesW * float64(f.LivesLeft)
	score += w.ScoreW * float64(f.Score)
	score += w.CoinW * float64(f.Coins)
	return score
}
