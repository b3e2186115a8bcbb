package agent

import (
	"math/rand"
	"testing"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/qtable"
)

func TestGreedyPicksOnlyTiedBest(t *testing.T) {
	table := qtable.New(6)
	s := env.State{Progress: 25, Lives: 2, Major: 1, Minor: 1}
	table.Set(s, 0, 1)
	table.Set(s, 2, 7)
	table.Set(s, 4, 7)
	table.Set(s, 5, 3)

	p := NewGreedy(table, rand.New(rand.NewSource(1)))
	seen := map[int]int{}
	for i := 0; i < 1000; i++ {
		seen[p.Select(s, env.Facts{})]++
	}
	for a := range seen {
		if a != 2 && a != 4 {
			t.Errorf("greedy picked action %d", a)
		}
	}
	if seen[2] < 300 || seen[4] < 300 {
		t.Errorf("ties not broken uniformly: %v", seen)
	}
}

func TestGreedyUnseenStateUsesEveryAction(t *testing.T) {
	p := NewGreedy(qtable.New(4), rand.New(rand.NewSource(1)))
	seen := map[int]bool{}
	for i := 0; i < 200; i++ {
		seen[p.Select(env.State{Progress: 99}, env.Facts{})] = true
	}
	if len(seen) != 4 {
		t.Errorf("picked %v, want all 4 actions", seen)
	}
}

func TestEpsilonGreedyExplores(t *testing.T) {
	table := qtable.New(6)
	s := env.State{Progress: 1}
	table.Set(s, 3, 10)

	p := NewEpsilonGreedy(table, rand.New(rand.NewSource(1)), 1, 0.05, 1)
	seen := map[int]bool{}
	for i := 0; i < 500; i++ {
		seen[p.Select(s, env.Facts{})] = true
	}
	if len(seen) != 6 {
		t.Errorf("epsilon 1 picked only %v", seen)
	}
}

func TestEpsilonDecay(t *testing.T) {
	p := NewEpsilonGreedy(qtable.New(2), rand.New(rand.NewSource(1)), 1, 0.1, 0.5)
	p.Decay()
	if p.Epsilon() != 0.5 {
		t.Errorf("epsilon = %v, want 0.5", p.Epsilon())
	}
	for i := 0; i < 10; i++ {
		p.Decay()
	}
	if p.Epsilon() != 0.1 {
		t.Errorf("epsilon = %v, want the floor 0.1", p.Epsilon())
	}
}

func TestEpsilonClamped(t *testing.T) {
	tests := []struct {
		epsilon, min, want float64
	}{
		{2, 0.05, 1},
		{0.01, 0.05, 0.05},
		{0.3, 0.05, 0.3},
	}
	for _, tt := range tests {
		p := NewEpsilonGreedy(qtable.New(2), rand.New(rand.NewSource(1)), tt.epsilon, tt.min, 0.99)
		if p.Epsilon() != tt.want {
			t.Errorf("NewEpsilonGreedy(%v, min %v) epsilon = %v, want %v", tt.epsilon, tt.min, p.Epsilon(), tt.want)
		}
	}
}

func TestDecayOnlyWhileLearning(t *testing.T) {
	table := qtable.New(6)
	p := NewEpsilonGreedy(table, rand.New(rand.NewSource(1)), 0.5, 0.05, 0.5)
	a := newTestAgent(t, newScripted(walkRight), p, table, Settings{FramesPerAction: 1})
	a.Begin()
	for i := 0; i < 3; i++ {
		a.Step()
	}
	if p.Epsilon() != 0.5 {
		t.Errorf("epsilon decayed to %v outside training", p.Epsilon())
	}

	a.cfg.Settings.Learn = true
	a.Step()
	if p.Epsilon() != 0.25 {
		t.Errorf("epsilon = %v after one training step, want 0.25", p.Epsilon())
	}
}
