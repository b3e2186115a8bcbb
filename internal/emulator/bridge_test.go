package emulator

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

func startBridge(t *testing.T, cfg SimConfig) (string, *atomic.Int32) {
	t.Helper()
	var sessions atomic.Int32
	open := func(opts Options) (Emulator, error) {
		if opts.ROM == "" {
			return nil, errors.New("no rom")
		}
		sessions.Add(1)
		return NewSim(cfg), nil
	}
	srv := httptest.NewServer(NewBridgeHandler(open, nil))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http"), &sessions
}

func TestBridgeDrivesSim(t *testing.T) {
	url, sessions := startBridge(t, SimConfig{Seed: 1})

	b, err := DialBridge(context.Background(), url, Options{ROM: "mario.gb", Speed: 0}, time.Second)
	if err != nil {
		t.Fatalf("DialBridge: %v", err)
	}
	defer b.Close()
	if sessions.Load() != 1 {
		t.Errorf("sessions = %d, want 1", sessions.Load())
	}

	if f := mustFacts(t, b); f.LevelProgress != StartProgress || f.LivesLeft != StartLives {
		t.Errorf("start facts = %v", f)
	}
	if alive := hold(t, b, 10, env.ButtonRight, env.ButtonB); !alive {
		t.Error("session ended")
	}
	if f := mustFacts(t, b); f.LevelProgress != StartProgress+20 {
		t.Errorf("progress = %d, want %d", f.LevelProgress, StartProgress+20)
	}

	if err := b.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	if f := mustFacts(t, b); f.LevelProgress != StartProgress {
		t.Errorf("after reset: %v", f)
	}
}

func TestBridgeSessionEnd(t *testing.T) {
	url, _ := startBridge(t, SimConfig{Seed: 1, MaxFrames: 10})
	b, err := DialBridge(context.Background(), url, Options{ROM: "mario.gb"}, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Close()

	alive, err := b.Tick(20)
	if err != nil {
		t.Fatal(err)
	}
	if alive {
		t.Error("alive past the session length")
	}
}

func TestBridgeClose(t *testing.T) {
	url, _ := startBridge(t, SimConfig{})
	b, err := DialBridge(context.Background(), url, Options{ROM: "mario.gb"}, time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
	if _, err := b.Facts(); !errors.Is(err, ErrClosed) {
		t.Errorf("Facts after Close: %v", err)
	}
}

func TestBridgeStartFailure(t *testing.T) {
	url, _ := startBridge(t, SimConfig{})
	_, err := DialBridge(context.Background(), url, Options{}, time.Second)
	if err == nil || !strings.Contains(err.Error(), "no rom") {
		t.Errorf("err = %v, want the open error", err)
	}
}

func TestBridgeDialFailure(t *testing.T) {
	_, err := DialBridge(context.Background(), "ws://127.0.0.1:1/emulator", Options{ROM: "x"}, 200*time.Millisecond)
	if err == nil {
		t.Error("expected a connection error")
	}
}
