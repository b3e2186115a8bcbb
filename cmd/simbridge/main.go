package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/config"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/emulator"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/logging"
)

// simbridge serves the simulated course over the bridge protocol so the
// bridge backend can be exercised without an emulator.
func main() {
	configPath := flag.String("config", "configs/train.yaml", "path to config file")
	addr := flag.String("addr", "127.0.0.1:8765", "listen address")
	route := flag.String("path", "/emulator", "websocket path")
	maxFrames := flag.Int("max-frames", 0, "end every session after this many frames, 0 = never")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	log, closeLog, err := logging.Setup(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	open := func(opts emulator.Options) (emulator.Emulator, error) {
		log.Info("session started", "rom", opts.ROM, "speed", opts.Speed)
		return emulator.NewSim(emulator.SimConfig{
			CourseLength: cfg.Emulator.SimCourseLength,
			Seed:         cfg.Seed,
			MaxFrames:    *maxFrames,
			Speed:        opts.Speed,
		}), nil
	}

	mux := http.NewServeMux()
	mux.Handle(*route, emulator.NewBridgeHandler(open, log))
	srv := &http.Server{Addr: *addr, Handler: mux}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Info("sim bridge listening", "addr", *addr, "path", *route)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
