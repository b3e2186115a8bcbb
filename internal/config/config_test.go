package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults do not validate: %v", err)
	}
	if cfg.Emulator.Backend != BackendBridge || cfg.Emulator.FramesPerAction != 5 {
		t.Errorf("emulator defaults = %+v", cfg.Emulator)
	}
	if cfg.Learning.Alpha != 0.1 || cfg.Learning.Gamma != 0.9 || cfg.Learning.Epsilon != 1.0 {
		t.Errorf("learning defaults = %+v", cfg.Learning)
	}
	if cfg.State.Variant != env.StateProgressLivesWorld || cfg.Actions.Catalog != env.CatalogFull {
		t.Errorf("state %q, catalog %q", cfg.State.Variant, cfg.Actions.Catalog)
	}
	if cfg.Fitness.TimeW != 0 {
		t.Errorf("time weight defaults to %v, want 0", cfg.Fitness.TimeW)
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
seed: 7
emulator:
  backend: sim
  frames_per_action: 8
  handshake_timeout: 3s
state:
  variant: progress_world
actions:
  catalog: right_only
fitness:
  time_w: -0.5
learning:
  alpha: 0.25
train:
  workers: 3
  checkpoint_every: 2m
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Seed != 7 || cfg.Emulator.Backend != BackendSim || cfg.Emulator.FramesPerAction != 8 {
		t.Errorf("loaded %+v", cfg)
	}
	if cfg.Emulator.HandshakeTimeout != 3*time.Second || cfg.Train.CheckpointEvery != 2*time.Minute {
		t.Errorf("durations = %v, %v", cfg.Emulator.HandshakeTimeout, cfg.Train.CheckpointEvery)
	}
	if cfg.Learning.Alpha != 0.25 || cfg.Learning.Gamma != 0.9 {
		t.Errorf("learning = %+v", cfg.Learning)
	}
	if cfg.FitnessWeights().TimeW != -0.5 {
		t.Errorf("TimeW = %v", cfg.FitnessWeights().TimeW)
	}

	enc, err := cfg.StateEncoder()
	if err != nil || enc.Variant() != env.StateProgressWorld {
		t.Errorf("StateEncoder = %v, %v", enc, err)
	}
	cat, err := cfg.Catalog()
	if err != nil || cat.Len() != 4 {
		t.Errorf("Catalog = %v, %v", cat, err)
	}
}

func TestLoadRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"backend", "emulator:\n  backend: gameboy\n", "backend"},
		{"variant", "state:\n  variant: pixels\n", "state variant"},
		{"catalog", "actions:\n  catalog: all\n", "catalog"},
		{"alpha", "learning:\n  alpha: 1.5\n", "alpha"},
		{"world bonus", "fitness:\n  world_bonus: 2000\n", "world bonus"},
		{"level bonus", "fitness:\n  level_bonus: 1000\n", "level bonus"},
		{"progress bound", "fitness:\n  max_progress: 0\n", "max progress"},
		{"checkpoint", "train:\n  checkpoint: \"\"\n", "checkpoint"},
		{"policy", "play:\n  policy: random\n", "policy"},
		{"replay without trace", "play:\n  policy: replay\n", "follow_path"},
		{"yaml", "seed: [\n", "parse"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected an error")
	}
}

func TestShippedConfigsLoad(t *testing.T) {
	for _, name := range []string{"train.yaml", "sim.yaml"} {
		if _, err := Load(filepath.Join("..", "..", "configs", name)); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
}

func TestLoadKeepsExplicitZeros(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
fitness:
  lives_w: 0
  score_w: 0
  coin_w: 0
learning:
  gamma: 0
  epsilon_min: 0
`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Learning.Gamma != 0 || cfg.Learning.EpsilonMin != 0 {
		t.Errorf("learning = %+v, want gamma and epsilon_min 0", cfg.Learning)
	}
	f := cfg.Fitness
	if f.LivesW != 0 || f.ScoreW != 0 || f.CoinW != 0 {
		t.Errorf("fitness = %+v, want lives, score and coin weights 0", f)
	}
	// untouched keys keep their defaults
	if cfg.Learning.Alpha != 0.1 || f.LevelBonus != 5000 {
		t.Errorf("alpha %v, level bonus %v", cfg.Learning.Alpha, f.LevelBonus)
	}
}

func TestDefaultWeightsRewardLevelClear(t *testing.T) {
	w := Default().FitnessWeights()
	for _, tc := range []struct{ from, to env.World }{
		{env.World{Major: 1, Minor: 1}, env.World{Major: 1, Minor: 2}},
		{env.World{Major: 1, Minor: 3}, env.World{Major: 2, Minor: 1}},
	} {
		end := env.Facts{LevelProgress: w.MaxProgress, LivesLeft: 2, World: tc.from, Score: 3000, Coins: 12, TimeLeft: 80}
		next := env.Facts{LevelProgress: 0, LivesLeft: 2, World: tc.to, Score: 3000, Coins: 12, TimeLeft: w.MaxTime}
		if reward := w.Score(next) - w.Score(end); reward <= 0 {
			t.Errorf("%s -> %s reward %.2f, want it positive", tc.from, tc.to, reward)
		}
	}
}
