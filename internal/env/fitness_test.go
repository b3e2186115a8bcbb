package env

import "testing"

func defaultFitness() Fitness {
	return Fitness{
		ProgressW: 1, WorldBonus: 20000, LevelBonus: 5000, LivesW: 100, ScoreW: 0.01, CoinW: 1,
		MaxProgress: 4000, MaxTime: 400,
	}
}

func TestFitnessScore(t *testing.T) {
	w := Fitness{ProgressW: 1, TimeW: 0.5, WorldBonus: 10000, LevelBonus: 1000, LivesW: 100, ScoreW: 0.01, CoinW: 2}
	f := Facts{LevelProgress: 300, LivesLeft: 2, World: World{1, 2}, Score: 1000, Coins: 3, TimeLeft: 200}
	want := 300 + 0.5*200 + 10000 + 2000 + 200 + 10 + 6.0
	if got := w.Score(f); got != want {
		t.Errorf("Score = %v, want %v", got, want)
	}
}

func TestFitnessLevelCompletionDominates(t *testing.T) {
	stages := []World{{1, 1}, {1, 2}, {1, 3}, {2, 1}, {2, 2}, {2, 3}, {3, 1}, {4, 3}}

	for _, timeW := range []float64{-1, 0, 1} {
		w := defaultFitness()
		w.TimeW = timeW
		if err := w.Validate(); err != nil {
			t.Fatalf("time_w %v: Validate: %v", timeW, err)
		}

		// last step of a level at the progress bound against the first step
		// of the next, for both ends of the clock
		for _, clock := range [][2]int{{0, w.MaxTime}, {w.MaxTime, 0}} {
			end := Facts{LevelProgress: w.MaxProgress, LivesLeft: 2, Score: 50000, Coins: 99, TimeLeft: clock[0]}
			next := Facts{LevelProgress: 0, LivesLeft: 2, Score: 50000, Coins: 99, TimeLeft: clock[1]}
			for i := 1; i < len(stages); i++ {
				e, n := end, next
				e.World, n.World = stages[i-1], stages[i]
				if w.Score(n) <= w.Score(e) {
					t.Errorf("time_w %v: %s scored %v, not above the end of %s at %v",
						timeW, stages[i], w.Score(n), stages[i-1], w.Score(e))
				}
			}
		}
	}
}

func TestFitnessValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Fitness)
		wantErr bool
	}{
		{"defaults", func(*Fitness) {}, false},
		{"negative time weight", func(w *Fitness) { w.TimeW = -2 }, false},
		{"negative progress weight", func(w *Fitness) { w.ProgressW = -1 }, true},
		{"zero level bonus", func(w *Fitness) { w.LevelBonus = 0 }, true},
		{"world bonus too small", func(w *Fitness) { w.WorldBonus = 14000 }, true},
		{"level bonus below progress range", func(w *Fitness) { w.LevelBonus = 1000 }, true},
		{"time term eats the level bonus", func(w *Fitness) { w.TimeW = -3 }, true},
		{"zero lives weight", func(w *Fitness) { w.LivesW = 0 }, false},
		{"negative coin weight", func(w *Fitness) { w.CoinW = -1 }, true},
		{"no progress bound", func(w *Fitness) { w.MaxProgress = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := defaultFitness()
			tt.mutate(&w)
			err := w.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
