package trainer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/config"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/emulator"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/qtable"
)

// Dialer returns the emulator factory for the configured backend. speed
// overrides the configured emulation speed.
func Dialer(cfg *config.Config, speed int) emulator.Dialer {
	e := cfg.Emulator
	opts := emulator.Options{ROM: e.ROM, Speed: speed}

	if e.Backend == config.BackendSim {
		return func(_ context.Context, _ int) (emulator.Emulator, error) {
			return emulator.NewSim(emulator.SimConfig{
				CourseLength: e.SimCourseLength,
				Seed:         cfg.Seed,
				Speed:        speed,
			}), nil
		}
	}
	return func(ctx context.Context, _ int) (emulator.Emulator, error) {
		b, err := emulator.DialBridge(ctx, e.URL, opts, e.HandshakeTimeout)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// LoadOrEmpty loads the training checkpoint at path. A missing checkpoint
// starts training from an empty table. An unreadable one is moved aside to
// path+".bak" first so the next save cannot destroy it. A checkpoint written
// for another state variant or catalog is returned as an error wrapping
// qtable.ErrSchema and left untouched.
func LoadOrEmpty(path string, meta qtable.Meta, log *slog.Logger) (*qtable.Table, error) {
	t, err := qtable.Load(path, meta)
	switch {
	case err == nil:
		log.Info("resuming from checkpoint", "path", path, "entries", t.Len(), "states", t.States())
		return t, nil
	case errors.Is(err, qtable.ErrNoCheckpoint):
		log.Info("no checkpoint, starting with an empty table", "path", path)
	case errors.Is(err, qtable.ErrSchema):
		return nil, fmt.Errorf("checkpoint %s does not match the config: %w", path, err)
	default:
		backup := path + ".bak"
		if rerr := os.Rename(path, backup); rerr != nil {
			return nil, fmt.Errorf("checkpoint %s unusable (%v) and could not be moved aside: %w", path, err, rerr)
		}
		log.Warn("checkpoint unusable, moved aside and starting with an empty table",
			"path", path, "backup", backup, "err", err)
	}
	return qtable.New(meta.NumActions), nil
}
