// Package agent runs the per-worker control loop: select an action, hold
// its buttons for a fixed number of frames, score the result, update the
// shared Q-table and restart the game when the last life is lost.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/emulator"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/qtable"
)

// Phase is the loop's state machine position
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseRunning
	PhaseResetting
	PhaseTerminated
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseRunning:
		return "running"
	case PhaseResetting:
		return "resetting"
	case PhaseTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Settings holds the loop parameters shared by every worker
type Settings struct {
	FramesPerAction int
	Alpha           float64
	Gamma           float64
	Learn           bool // false in play mode: no table updates, no epsilon decay
	MaxSteps        int  // 0 = until stopped
}

// Config wires an agent to its collaborators
type Config struct {
	Emulator emulator.Emulator
	Policy   Policy
	Table    *qtable.Table // required when Settings.Learn is set
	Encoder  *env.StateEncoder
	Fitness  env.Fitness
	Catalog  env.Catalog
	Settings Settings
	Log      *slog.Logger

	// OnStep is called after every step with the chosen action
	OnStep func(action int)
	// OnEpisode is called whenever an episode ends, including the last,
	// unfinished one when the loop stops
	OnEpisode func(env.EpisodeStats)
}

// Agent is one worker's control loop. It owns its emulator for the
// duration of Run but never closes it.
type Agent struct {
	ID  int
	cfg Config
	log *slog.Logger

	phase       Phase
	facts       env.Facts
	state       env.State
	prevFitness float64
	steps       int
	episodes    int
	episode     env.EpisodeStats
}

// New creates an agent
func New(id int, cfg Config) (*Agent, error) {
	if cfg.Emulator == nil || cfg.Policy == nil || cfg.Encoder == nil {
		return nil, errors.New("agent: emulator, policy and encoder are required")
	}
	if cfg.Settings.Learn && cfg.Table == nil {
		return nil, errors.New("agent: learning requires a table")
	}
	if cfg.Catalog.Len() == 0 {
		return nil, errors.New("agent: empty action catalog")
	}
	if cfg.Settings.FramesPerAction < 1 {
		cfg.Settings.FramesPerAction = 1
	}
	log := cfg.Log
	if log == nil {
		log = slog.Default()
	}
	return &Agent{
		ID:  id,
		cfg: cfg,
		log: log.With("worker", id),
	}, nil
}

// Phase returns the current phase
func (a *Agent) Phase() Phase { return a.phase }

// State returns the current state
func (a *Agent) State() env.State { return a.state }

// Facts returns the most recently read facts
func (a *Agent) Facts() env.Facts { return a.facts }

// PreviousFitness returns the fitness the next reward is measured against
func (a *Agent) PreviousFitness() float64 { return a.prevFitness }

// Steps returns the number of steps taken
func (a *Agent) Steps() int { return a.steps }

// Episodes returns the number of completed episodes
func (a *Agent) Episodes() int { return a.episodes }

// Begin reads the starting facts and enters the running phase
func (a *Agent) Begin() error {
	if err := a.observeStart(); err != nil {
		return err
	}
	a.phase = PhaseRunning
	return nil
}

func (a *Agent) observeStart() error {
	f, err := a.cfg.Emulator.Facts()
	if err != nil {
		return fmt.Errorf("read facts: %w", err)
	}
	a.facts = f
	a.state = a.cfg.Encoder.Encode(f)
	a.prevFitness = a.cfg.Fitness.Score(f)
	a.episode = env.EpisodeStats{Worker: a.ID, Episode: a.episodes + 1}
	return nil
}

// Step performs one transition. It returns false once the emulator session
// has ended.
func (a *Agent) Step() (bool, error) {
	if a.phase != PhaseRunning {
		return false, fmt.Errorf("agent: step in phase %s", a.phase)
	}

	action := a.cfg.Policy.Select(a.state, a.facts)
	if action < 0 || action >= a.cfg.Catalog.Len() {
		return false, fmt.Errorf("agent: policy chose action %d of %d", action, a.cfg.Catalog.Len())
	}
	buttons := a.cfg.Catalog[action].Buttons

	emu := a.cfg.Emulator
	if err := emu.Press(buttons...); err != nil {
		return false, fmt.Errorf("press %s: %w", a.cfg.Catalog[action], err)
	}
	alive, err := emu.Tick(a.cfg.Settings.FramesPerAction)
	if err != nil {
		return false, fmt.Errorf("tick: %w", err)
	}
	if err := emu.Release(buttons...); err != nil {
		return false, fmt.Errorf("release %s: %w", a.cfg.Catalog[action], err)
	}

	facts, err := emu.Facts()
	if err != nil {
		return false, fmt.Errorf("read facts: %w", err)
	}
	next := a.cfg.Encoder.Encode(facts)
	fitness := a.cfg.Fitness.Score(facts)
	reward := fitness - a.prevFitness

	s := a.cfg.Settings
	if s.Learn {
		a.cfg.Table.Update(a.state, action, reward, next, s.Alpha, s.Gamma)
	}

	a.episode.Observe(facts, reward, fitness)
	a.facts, a.state, a.prevFitness = facts, next, fitness
	a.steps++

	if s.Learn {
		if e, ok := a.cfg.Policy.(Explorer); ok {
			e.Decay()
		}
	}
	if a.cfg.OnStep != nil {
		a.cfg.OnStep(action)
	}

	if facts.GameOver() {
		if err := a.reset(); err != nil {
			return false, err
		}
	}
	return alive, nil
}

func (a *Agent) reset() error {
	a.phase = PhaseResetting
	a.endEpisode(env.EndGameOver)
	a.log.Debug("game over, resetting", "steps", a.steps, "episodes", a.episodes)

	if err := a.cfg.Emulator.Reset(); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	if err := a.observeStart(); err != nil {
		return err
	}
	a.phase = PhaseRunning
	return nil
}

func (a *Agent) endEpisode(reason env.EndReason) {
	a.episode.End = reason
	if e, ok := a.cfg.Policy.(Explorer); ok {
		a.episode.Epsilon = e.Epsilon()
	}
	a.episodes++
	if a.cfg.OnEpisode != nil {
		a.cfg.OnEpisode(a.episode)
	}
}

// Run steps until ctx is cancelled, the step budget is spent, the emulator
// session ends or an error occurs. A panic inside the loop is recovered and
// returned as an error so it never reaches sibling workers.
func (a *Agent) Run(ctx context.Context) (err error) {
	reason := env.EndStopped
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("worker %d panic: %v", a.ID, r)
		}
		if err != nil {
			reason = env.EndError
		}
		if a.phase == PhaseRunning {
			a.endEpisode(reason)
		}
		a.phase = PhaseTerminated
	}()

	if a.phase == PhaseIdle {
		if err := a.Begin(); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		if a.cfg.Settings.MaxSteps > 0 && a.steps >= a.cfg.Settings.MaxSteps {
			return nil
		}

		alive, err := a.Step()
		if err != nil {
			return err
		}
		if !alive {
			reason = env.EndSession
			return nil
		}
	}
}
