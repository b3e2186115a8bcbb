package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

// Config is the root configuration structure
type Config struct {
	Seed     int64          `yaml:"seed"`
	Emulator EmulatorConfig `yaml:"emulator"`
	State    StateConfig    `yaml:"state"`
	Actions  ActionsConfig  `yaml:"actions"`
	Fitness  FitnessConfig  `yaml:"fitness"`
	Learning LearningConfig `yaml:"learning"`
	Train    TrainConfig    `yaml:"train"`
	Play     PlayConfig     `yaml:"play"`
	Logging  LogConfig      `yaml:"logging"`
}

// EmulatorConfig defines how to reach the emulator collaborator
type EmulatorConfig struct {
	Backend          string        `yaml:"backend"` // bridge|sim
	URL              string        `yaml:"url"`     // websocket URL of the emulator bridge
	ROM              string        `yaml:"rom"`
	Speed            int           `yaml:"speed"` // 0 = unlimited; play mode forces 1
	FramesPerAction  int           `yaml:"frames_per_action"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	SimCourseLength  int           `yaml:"sim_course_length"`
}

// StateConfig defines the state abstraction
type StateConfig struct {
	Variant     string `yaml:"variant"` // progress_lives_world|progress_world
	BucketWidth int    `yaml:"bucket_width"`
}

// ActionsConfig defines the action catalog
type ActionsConfig struct {
	Catalog string `yaml:"catalog"` // full|basic|right_only
}

// FitnessConfig defines reward shaping weights
type FitnessConfig struct {
	ProgressW  float64 `yaml:"progress_w"`
	TimeW      float64 `yaml:"time_w"` // signed; 0 disables the time term
	WorldBonus float64 `yaml:"world_bonus"`
	LevelBonus float64 `yaml:"level_bonus"`
	LivesW     float64 `yaml:"lives_w"`
	ScoreW     float64 `yaml:"score_w"`
	CoinW      float64 `yaml:"coin_w"`

	// Bounds of the per-level terms, used to check that clearing a level
	// always pays
	MaxProgress int `yaml:"max_progress"`
	MaxTime     int `yaml:"max_time"`
}

// LearningConfig defines Q-learning hyperparameters
type LearningConfig struct {
	Alpha        float64 `yaml:"alpha"`
	Gamma        float64 `yaml:"gamma"`
	Epsilon      float64 `yaml:"epsilon"`
	EpsilonMin   float64 `yaml:"epsilon_min"`
	EpsilonDecay float64 `yaml:"epsilon_decay"`
}

// TrainConfig defines orchestrator parameters
type TrainConfig struct {
	Workers         int           `yaml:"workers"` // 0 = one per CPU
	Steps           int           `yaml:"steps"`   // per worker; 0 = until interrupted
	Checkpoint      string        `yaml:"checkpoint"`
	CheckpointEvery time.Duration `yaml:"checkpoint_every"` // 0 disables periodic checkpoints
}

// PlayConfig defines play mode parameters
type PlayConfig struct {
	Policy     string `yaml:"policy"` // qtable|heuristic|replay
	StallSteps int    `yaml:"stall_steps"`
	JumpSteps  int    `yaml:"jump_steps"`
	ReplayPath string `yaml:"replay_path"` // where to record the session
	FollowPath string `yaml:"follow_path"` // recorded session the replay policy follows
}

// LogConfig defines logging parameters
type LogConfig struct {
	Level    string `yaml:"level"`  // debug|info|warn|error
	Format   string `yaml:"format"` // text|json
	File     string `yaml:"file"`   // empty = stderr
	CSVPath  string `yaml:"csv_path"`
	JSONPath string `yaml:"json_path"`

	StatsviewAddr string `yaml:"statsview_addr"` // runtime charts, statsview builds only
}

// Backends
const (
	BackendBridge = "bridge"
	BackendSim    = "sim"
)

// Policies
const (
	PolicyQTable    = "qtable"
	PolicyHeuristic = "heuristic"
	PolicyReplay    = "replay"
)

// Load reads a YAML config file and returns a Config. The file is decoded
// over Default(), so keys it leaves out keep their defaults and keys it sets,
// zero included, are taken as written.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Seed: 1337,
		Emulator: EmulatorConfig{
			Backend:          BackendBridge,
			URL:              "ws://127.0.0.1:8765/emulator",
			ROM:              "roms/Super Mario Land (World) (Rev A).gb",
			FramesPerAction:  5,
			HandshakeTimeout: 10 * time.Second,
			SimCourseLength:  1200,
		},
		State: StateConfig{
			Variant:     env.StateProgressLivesWorld,
			BucketWidth: env.DefaultBucketWidth,
		},
		Actions: ActionsConfig{
			Catalog: env.CatalogFull,
		},
		Fitness: FitnessConfig{
			ProgressW:   1.0,
			WorldBonus:  20000,
			LevelBonus:  5000,
			LivesW:      100,
			ScoreW:      0.01,
			CoinW:       1,
			MaxProgress: 4000,
			MaxTime:     400,
		},
		Learning: LearningConfig{
			Alpha:        0.1,
			Gamma:        0.9,
			Epsilon:      1.0,
			EpsilonMin:   0.05,
			EpsilonDecay: 0.9995,
		},
		Train: TrainConfig{
			Checkpoint: "artifacts/qtable.parquet",
		},
		Play: PlayConfig{
			Policy:     PolicyQTable,
			StallSteps: 3,
			JumpSteps:  4,
		},
		Logging: LogConfig{
			Level:         "info",
			Format:        "text",
			CSVPath:       "runs/episodes.csv",
			JSONPath:      "runs/episodes.jsonl",
			StatsviewAddr: "localhost:12600",
		},
	}
}

// Validate checks values that defaults cannot repair
func (c *Config) Validate() error {
	switch c.Emulator.Backend {
	case BackendBridge, BackendSim:
	default:
		return fmt.Errorf("emulator: unknown backend %q", c.Emulator.Backend)
	}
	if c.Emulator.FramesPerAction < 1 {
		return errors.New("emulator: frames_per_action must be at least 1")
	}
	if c.Emulator.Speed < 0 {
		return errors.New("emulator: speed must not be negative")
	}
	if _, err := c.StateEncoder(); err != nil {
		return err
	}
	if _, err := c.Catalog(); err != nil {
		return err
	}
	if err := c.FitnessWeights().Validate(); err != nil {
		return err
	}
	l := c.Learning
	if l.Alpha < 0 || l.Alpha > 1 {
		return fmt.Errorf("learning: alpha must be in [0, 1], got %v", l.Alpha)
	}
	if l.Gamma < 0 || l.Gamma > 1 {
		return fmt.Errorf("learning: gamma must be in [0, 1], got %v", l.Gamma)
	}
	if l.EpsilonMin < 0 || l.EpsilonMin > 1 {
		return fmt.Errorf("learning: epsilon_min must be in [0, 1], got %v", l.EpsilonMin)
	}
	if l.EpsilonDecay <= 0 || l.EpsilonDecay > 1 {
		return fmt.Errorf("learning: epsilon_decay must be in (0, 1], got %v", l.EpsilonDecay)
	}
	if c.Emulator.Backend == BackendSim && c.Emulator.SimCourseLength < 1 {
		return errors.New("emulator: sim_course_length must be at least 1")
	}
	if c.Train.Workers < 0 {
		return errors.New("train: workers must not be negative")
	}
	if c.Train.Checkpoint == "" {
		return errors.New("train: checkpoint path is required")
	}
	switch c.Play.Policy {
	case PolicyQTable, PolicyHeuristic:
	case PolicyReplay:
		if c.Play.FollowPath == "" {
			return errors.New("play: the replay policy needs follow_path")
		}
	default:
		return fmt.Errorf("play: unknown policy %q", c.Play.Policy)
	}
	return nil
}

// StateEncoder returns the configured state abstraction
func (c *Config) StateEncoder() (*env.StateEncoder, error) {
	return env.NewStateEncoder(c.State.Variant, c.State.BucketWidth)
}

// Catalog returns the configured action catalog
func (c *Config) Catalog() (env.Catalog, error) {
	return env.NewCatalog(c.Actions.Catalog)
}

// FitnessWeights returns the configured reward shaping weights
func (c *Config) FitnessWeights() env.Fitness {
	f := c.Fitness
	return env.Fitness{
		ProgressW:  f.ProgressW,
		TimeW:      f.TimeW,
		WorldBonus: f.WorldBonus,
		LevelBonus: f.LevelBonus,
		LivesW:     f.LivesW,
		ScoreW:     f.ScoreW,
		CoinW:      f.CoinW,

		MaxProgress: f.MaxProgress,
		MaxTime:     f.MaxTime,
	}
}
