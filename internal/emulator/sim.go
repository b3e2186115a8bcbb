package emulator

import (
	"math/rand"
	"time"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

// Starting values reported by the game wrapper right after start_game
const (
	StartProgress = 251
	StartLives    = 2
	StartTime     = 400
)

const (
	framesPerTimeUnit = 40
	jumpFrames        = 12
	coinEvery         = 100
	lastWorld         = 4

	// FrameRate is the Game Boy frame rate the sim paces itself to
	FrameRate = 60
)

// SimConfig configures a simulated course
type SimConfig struct {
	CourseLength int   // progress units from level start to level end
	Seed         int64 // obstacle layout seed; every worker sees the same course for the same seed
	MaxFrames    int   // session length in frames; 0 = unlimited
	Speed        int   // 0 = as fast as possible, n = n times real time
}

// Sim is a deterministic, in-process stand-in for the emulator game
// wrapper. Mario runs right while RIGHT is held (twice as fast with B) and
// jumps when A is pressed on the ground. Obstacles alternate between pipes,
// which stop Mario unless he jumps over them, and enemies, which cost a life
// when met on the ground. Running out of time also costs a life. Losing a
// life restarts the level.
type Sim struct {
	cfg   SimConfig
	sleep func(time.Duration)

	held      map[env.Button]bool
	jumpLatch bool
	airborne  int

	x         int
	obstacles []obstacle
	facts     env.Facts
	frame     int
	levelTime int
	finished  bool
	closed    bool
}

// NewSim creates a simulated course positioned at the start of world 1-1
func NewSim(cfg SimConfig) *Sim {
	if cfg.CourseLength <= 0 {
		cfg.CourseLength = 1200
	}
	s := &Sim{cfg: cfg, sleep: time.Sleep, held: make(map[env.Button]bool)}
	s.newGame()
	return s
}

func (s *Sim) newGame() {
	s.facts = env.Facts{
		LivesLeft: StartLives,
		World:     env.World{Major: 1, Minor: 1},
		TimeLeft:  StartTime,
	}
	s.finished = false
	s.startLevel()
}

func (s *Sim) startLevel() {
	s.x = 0
	s.airborne = 0
	s.levelTime = 0
	s.facts.TimeLeft = StartTime
	s.facts.LevelProgress = StartProgress
	s.obstacles = layout(s.cfg.CourseLength, s.cfg.Seed, s.facts.World)
}

type obstacle struct {
	pos   int
	enemy bool
}

// layout places obstacles at least two jumps apart, deterministically for
// the seed and world
func layout(length int, seed int64, w env.World) []obstacle {
	rng := rand.New(rand.NewSource(seed*31 + int64(w.Major*10+w.Minor)))
	var obstacles []obstacle
	pos := 60
	for i := 0; pos < length-20; i++ {
		obstacles = append(obstacles, obstacle{pos: pos, enemy: i%2 == 1})
		pos += 4*jumpFrames + rng.Intn(120)
	}
	return obstacles
}

// Obstacles returns the obstacle positions of the current level, relative to
// the level start
func (s *Sim) Obstacles() []int {
	out := make([]int, len(s.obstacles))
	for i, o := range s.obstacles {
		out[i] = o.pos
	}
	return out
}

// Tick advances the course by frames. With a positive Speed it takes as long
// as the frames would take on the console divided by Speed.
func (s *Sim) Tick(frames int) (bool, error) {
	if s.closed {
		return false, ErrClosed
	}
	if s.cfg.Speed > 0 && frames > 0 {
		s.sleep(time.Duration(frames) * time.Second / time.Duration(FrameRate*s.cfg.Speed))
	}
	for i := 0; i < frames; i++ {
		if s.cfg.MaxFrames > 0 && s.frame >= s.cfg.MaxFrames {
			return false, nil
		}
		if s.finished {
			return false, nil
		}
		s.frame++
		if !s.facts.GameOver() {
			s.stepFrame()
		}
	}
	return !(s.finished || (s.cfg.MaxFrames > 0 && s.frame >= s.cfg.MaxFrames)), nil
}

func (s *Sim) stepFrame() {
	if s.held[env.ButtonA] {
		if s.airborne == 0 && !s.jumpLatch {
			s.airborne = jumpFrames
		}
		s.jumpLatch = true
	} else {
		s.jumpLatch = false
	}

	prev := s.x
	if s.held[env.ButtonRight] {
		s.x++
		if s.held[env.ButtonB] {
			s.x++
		}
	}

	for _, o := range s.obstacles {
		if prev >= o.pos || o.pos > s.x {
			continue
		}
		switch {
		case s.airborne > 0:
			s.facts.Score += 100
		case o.enemy:
			s.loseLife()
			return
		default:
			s.x = o.pos - 1
		}
	}
	if s.airborne > 0 {
		s.airborne--
	}

	if s.x/coinEvery > prev/coinEvery {
		s.facts.Coins++
		s.facts.Score += 200
	}

	s.levelTime++
	if s.levelTime%framesPerTimeUnit == 0 {
		s.facts.TimeLeft--
		if s.facts.TimeLeft <= 0 {
			s.loseLife()
			return
		}
	}

	if s.x >= s.cfg.CourseLength {
		s.clearLevel()
		return
	}
	s.facts.LevelProgress = StartProgress + s.x
}

func (s *Sim) loseLife() {
	s.facts.LivesLeft--
	if s.facts.GameOver() {
		return
	}
	s.startLevel()
}

func (s *Sim) clearLevel() {
	s.facts.Score += s.facts.TimeLeft * 10
	w := s.facts.World
	w.Minor++
	if w.Minor > env.LevelsPerWorld {
		w.Major++
		w.Minor = 1
	}
	if w.Major > lastWorld {
		s.finished = true
		return
	}
	s.facts.World = w
	s.startLevel()
}

// Press holds the given buttons
func (s *Sim) Press(buttons ...env.Button) error {
	if s.closed {
		return ErrClosed
	}
	for _, b := range buttons {
		s.held[b] = true
	}
	return nil
}

// Release lets go of the given buttons
func (s *Sim) Release(buttons ...env.Button) error {
	if s.closed {
		return ErrClosed
	}
	for _, b := range buttons {
		delete(s.held, b)
	}
	return nil
}

// Facts returns the current facts
func (s *Sim) Facts() (env.Facts, error) {
	if s.closed {
		return env.Facts{}, ErrClosed
	}
	return s.facts, nil
}

// Reset restarts from the beginning of world 1-1 with full lives
func (s *Sim) Reset() error {
	if s.closed {
		return ErrClosed
	}
	s.held = make(map[env.Button]bool)
	s.jumpLatch = false
	s.newGame()
	return nil
}

// Close releases the course
func (s *Sim) Close() error {
	s.closed = true
	return nil
}
