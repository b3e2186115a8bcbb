// Package trainer runs N agent loops against one shared Q-table and owns
// the table's persistence. Workers never write the checkpoint; the trainer
// saves it once after every worker has stopped, then releases the
// emulators.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/agent"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/config"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/emulator"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/logging"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/qtable"
)

// Update is sent for every finished episode when an updates channel is set
type Update struct {
	Episode      env.EpisodeStats
	TableEntries int
	TotalSteps   int64
}

// WorkerResult describes how one worker ended
type WorkerResult struct {
	Worker   int
	Steps    int
	Episodes int
	Err      error
}

// Summary describes a finished training run
type Summary struct {
	Workers      []WorkerResult
	Episodes     env.AggregatedStats
	TotalSteps   int64
	TableEntries int
	TableStates  int
	Saved        bool
	Interrupted  bool // ctx was cancelled
	Elapsed      time.Duration
}

// Trainer spawns agent loops sharing one table
type Trainer struct {
	cfg      *config.Config
	table    *qtable.Table
	meta     qtable.Meta
	dial     emulator.Dialer
	encoder  *env.StateEncoder
	catalog  env.Catalog
	fitness  env.Fitness
	workers  int
	log      *slog.Logger
	runLog   *logging.RunLog
	updates  chan<- Update
	saveMu   sync.Mutex
	steps    atomic.Int64
	episodes []env.EpisodeStats
	epMu     sync.Mutex
}

// Option configures a Trainer
type Option func(*Trainer)

// WithLogger sets the logger
func WithLogger(log *slog.Logger) Option {
	return func(t *Trainer) { t.log = log }
}

// WithRunLog records every finished episode to l
func WithRunLog(l *logging.RunLog) Option {
	return func(t *Trainer) { t.runLog = l }
}

// WithUpdates sends an Update for every finished episode. Sends never
// block; updates are dropped when the channel is full.
func WithUpdates(ch chan<- Update) Option {
	return func(t *Trainer) { t.updates = ch }
}

// New creates a trainer for cfg sharing table between workers
func New(cfg *config.Config, table *qtable.Table, dial emulator.Dialer, opts ...Option) (*Trainer, error) {
	encoder, err := cfg.StateEncoder()
	if err != nil {
		return nil, err
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, err
	}
	if table.NumActions() != catalog.Len() {
		return nil, fmt.Errorf("trainer: table has %d actions, catalog %q has %d",
			table.NumActions(), cfg.Actions.Catalog, catalog.Len())
	}
	fitness := cfg.FitnessWeights()
	if cfg.Emulator.Backend == config.BackendSim {
		if top := emulator.StartProgress + cfg.Emulator.SimCourseLength; top > fitness.MaxProgress {
			return nil, fmt.Errorf("trainer: sim course reaches progress %d, past fitness max_progress %d",
				top, fitness.MaxProgress)
		}
	}

	workers := cfg.Train.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	t := &Trainer{
		cfg:     cfg,
		table:   table,
		meta:    Meta(cfg, catalog),
		dial:    dial,
		encoder: encoder,
		catalog: catalog,
		fitness: fitness,
		workers: workers,
		log:     slog.Default(),
	}
	for _, o := range opts {
		o(t)
	}
	return t, nil
}

// Meta returns the checkpoint metadata for cfg
func Meta(cfg *config.Config, catalog env.Catalog) qtable.Meta {
	return qtable.Meta{
		StateVariant: cfg.State.Variant,
		Catalog:      cfg.Actions.Catalog,
		NumActions:   catalog.Len(),
	}
}

// Workers returns the number of workers Run will start
func (t *Trainer) Workers() int {
	return t.workers
}

// Run trains until every worker has stopped. Cancelling ctx asks every
// worker to stop after its current step. Whatever the reason the workers
// stopped, the table is then saved exactly once and every emulator is
// closed, in that order.
func (t *Trainer) Run(ctx context.Context) (Summary, error) {
	start := time.Now()
	t.log.Info("training started", "workers", t.workers, "entries", t.table.Len(),
		"checkpoint", t.cfg.Train.Checkpoint)

	emus := make([]emulator.Emulator, t.workers)
	results := make([]WorkerResult, t.workers)

	var workerWG sync.WaitGroup
	for i := 0; i < t.workers; i++ {
		workerWG.Add(1)
		go func(id int) {
			defer workerWG.Done()
			results[id] = t.runWorker(ctx, id, &emus[id])
		}(i)
	}

	stopCheckpoints := make(chan struct{})
	var checkpointWG sync.WaitGroup
	if every := t.cfg.Train.CheckpointEvery; every > 0 {
		checkpointWG.Add(1)
		go func() {
			defer checkpointWG.Done()
			t.checkpointLoop(every, stopCheckpoints)
		}()
	}

	workerWG.Wait()
	close(stopCheckpoints)
	checkpointWG.Wait()

	interrupted := ctx.Err() != nil
	if interrupted {
		t.log.Warn("training interrupted, saving checkpoint", "path", t.cfg.Train.Checkpoint)
	}
	saveErr := t.shutdown(emus)

	summary := Summary{
		Workers:      results,
		Episodes:     env.Aggregate(t.finishedEpisodes()),
		TotalSteps:   t.steps.Load(),
		TableEntries: t.table.Len(),
		TableStates:  t.table.States(),
		Saved:        saveErr == nil,
		Interrupted:  interrupted,
		Elapsed:      time.Since(start),
	}
	return summary, saveErr
}

// runWorker is the worker boundary: any error or panic stops this worker
// only
func (t *Trainer) runWorker(ctx context.Context, id int, slot *emulator.Emulator) (res WorkerResult) {
	res.Worker = id
	log := t.log.With("worker", id)
	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("worker %d panic: %v", id, r)
		}
		if res.Err != nil {
			log.Error("worker failed", "steps", res.Steps, "err", res.Err)
		} else {
			log.Info("worker stopped", "steps", res.Steps, "episodes", res.Episodes)
		}
	}()

	emu, err := t.dial(ctx, id)
	if err != nil {
		res.Err = fmt.Errorf("dial emulator: %w", err)
		return res
	}
	*slot = emu

	l := t.cfg.Learning
	rng := rand.New(rand.NewSource(t.cfg.Seed + int64(id)))
	a, err := agent.New(id, agent.Config{
		Emulator: emu,
		Policy:   agent.NewEpsilonGreedy(t.table, rng, l.Epsilon, l.EpsilonMin, l.EpsilonDecay),
		Table:    t.table,
		Encoder:  t.encoder,
		Fitness:  t.fitness,
		Catalog:  t.catalog,
		Settings: agent.Settings{
			FramesPerAction: t.cfg.Emulator.FramesPerAction,
			Alpha:           l.Alpha,
			Gamma:           l.Gamma,
			Learn:           true,
			MaxSteps:        t.cfg.Train.Steps,
		},
		Log:       t.log,
		OnStep:    func(int) { t.steps.Add(1) },
		OnEpisode: t.onEpisode,
	})
	if err != nil {
		res.Err = err
		return res
	}

	log.Debug("worker started")
	res.Err = a.Run(ctx)
	res.Steps = a.Steps()
	res.Episodes = a.Episodes()
	return res
}

func (t *Trainer) onEpisode(s env.EpisodeStats) {
	t.epMu.Lock()
	t.episodes = append(t.episodes, s)
	t.epMu.Unlock()

	if t.runLog != nil {
		if err := t.runLog.LogEpisode(s); err != nil {
			t.log.Warn("run log write failed", "err", err)
		}
	}
	t.log.Debug("episode finished", "worker", s.Worker, "episode", s.Episode,
		"steps", s.Steps, "reward", s.TotalReward, "world", s.BestWorld.String(),
		"progress", s.MaxProgress, "end", s.End.String())

	if t.updates != nil {
		u := Update{Episode: s, TableEntries: t.table.Len(), TotalSteps: t.steps.Load()}
		select {
		case t.updates <- u:
		default:
		}
	}
}

func (t *Trainer) finishedEpisodes() []env.EpisodeStats {
	t.epMu.Lock()
	defer t.epMu.Unlock()
	out := make([]env.EpisodeStats, len(t.episodes))
	copy(out, t.episodes)
	return out
}

func (t *Trainer) checkpointLoop(every time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := t.Save(); err != nil {
				t.log.Warn("periodic checkpoint failed", "err", err)
			}
		}
	}
}

// Save writes the table to the configured checkpoint path
func (t *Trainer) Save() error {
	t.saveMu.Lock()
	defer t.saveMu.Unlock()

	path := t.cfg.Train.Checkpoint
	if err := t.table.Save(path, t.meta); err != nil {
		return fmt.Errorf("save checkpoint %s: %w", path, err)
	}
	t.log.Info("checkpoint saved", "path", path, "entries", t.table.Len())
	return nil
}

// shutdown is the single exit path: persist, then release every emulator
func (t *Trainer) shutdown(emus []emulator.Emulator) error {
	saveErr := t.Save()
	if saveErr != nil {
		t.log.Error("final checkpoint failed", "err", saveErr)
	}

	var closeErrs []error
	for id, emu := range emus {
		if emu == nil {
			continue
		}
		if err := emu.Close(); err != nil {
			t.log.Warn("emulator close failed", "worker", id, "err", err)
			closeErrs = append(closeErrs, err)
		}
	}
	if saveErr != nil {
		return saveErr
	}
	if len(closeErrs) > 0 {
		t.log.Debug("emulators closed with errors", "count", len(closeErrs), "err", errors.Join(closeErrs...))
	}
	return nil
}
