// Package emulator defines the contract the agent loop needs from the game
// wrapper of an external Game Boy emulator, and two implementations of it:
// a websocket client for an emulator-side bridge process and an in-process
// simulated course.
//
// An Emulator is owned by exactly one worker and is never shared, so
// implementations need not be safe for concurrent use.
package emulator

import (
	"context"
	"errors"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

// ErrClosed is returned by calls made after Close
var ErrClosed = errors.New("emulator: closed")

// Emulator is the collaborator contract consumed by the agent loop
type Emulator interface {
	// Tick advances emulation by the given number of frames. It returns
	// false once the emulator session has ended.
	Tick(frames int) (bool, error)

	// Press and Release hold or let go of a set of buttons
	Press(buttons ...env.Button) error
	Release(buttons ...env.Button) error

	// Facts reads the game wrapper's current facts
	Facts() (env.Facts, error)

	// Reset restarts the game at the start of the level
	Reset() error

	// Close releases the emulator
	Close() error
}

// Options configure a new emulator session
type Options struct {
	ROM   string
	Speed int // 0 = as fast as possible, 1 = real time
}

// Dialer creates an emulator for the given worker
type Dialer func(ctx context.Context, worker int) (Emulator, error)
