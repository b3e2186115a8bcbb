package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/agent"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/config"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/logging"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/qtable"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/trainer"
)

// Play mode always runs the emulator in real time
const playSpeed = 1

func main() {
	// Parse flags
	configPath := flag.String("config", "configs/train.yaml", "path to config file")
	checkpoint := flag.String("checkpoint", "", "Q-table checkpoint path (overrides config)")
	policy := flag.String("policy", "", "qtable, heuristic or replay (overrides config)")
	follow := flag.String("follow", "", "replay the action trace in this JSON file, implies -policy replay")
	steps := flag.Int("steps", 0, "stop after this many steps, 0 = until interrupted")
	replayPath := flag.String("replay", "", "write the action trace to this JSON file (overrides config)")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *checkpoint != "" {
		cfg.Train.Checkpoint = *checkpoint
	}
	if *policy != "" {
		cfg.Play.Policy = *policy
	}
	if *replayPath != "" {
		cfg.Play.ReplayPath = *replayPath
	}
	if *follow != "" {
		cfg.Play.Policy = config.PolicyReplay
		cfg.Play.FollowPath = *follow
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, closeLog, err := logging.Setup(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	catalog, err := cfg.Catalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	encoder, err := cfg.StateEncoder()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The policy is ready before any emulator is started
	var p agent.Policy
	var table *qtable.Table
	framesPerAction, maxSteps := cfg.Emulator.FramesPerAction, *steps
	switch cfg.Play.Policy {
	case config.PolicyReplay:
		trace, err := env.LoadReplay(cfg.Play.FollowPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading replay: %v\n", err)
			os.Exit(1)
		}
		pb, err := agent.NewPlayback(trace, catalog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		p = pb
		if trace.Config.FramesPerAction > 0 {
			framesPerAction = trace.Config.FramesPerAction
		}
		if maxSteps == 0 || maxSteps > pb.Len() {
			maxSteps = pb.Len()
		}
		fmt.Printf("Following %d recorded steps of the %s policy from %s\n", pb.Len(), trace.Policy, cfg.Play.FollowPath)
	case config.PolicyHeuristic:
		p, err = agent.NewHeuristic(catalog, cfg.Play.StallSteps, cfg.Play.JumpSteps)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	default:
		table, err = qtable.Load(cfg.Train.Checkpoint, trainer.Meta(cfg, catalog))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading checkpoint: %v\n", err)
			os.Exit(1)
		}
		p = agent.NewGreedy(table, rand.New(rand.NewSource(cfg.Seed)))
		fmt.Printf("Loaded %d entries over %d states from %s\n", table.Len(), table.States(), cfg.Train.Checkpoint)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	emu, err := trainer.Dialer(cfg, playSpeed)(ctx, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting emulator: %v\n", err)
		os.Exit(1)
	}
	defer emu.Close()

	replay := env.NewReplay(cfg.Play.Policy, env.ReplayConfig{
		Catalog:         catalog.Names(),
		FramesPerAction: framesPerAction,
	})

	a, err := agent.New(0, agent.Config{
		Emulator: emu,
		Policy:   p,
		Table:    table,
		Encoder:  encoder,
		Fitness:  cfg.FitnessWeights(),
		Catalog:  catalog,
		Settings: agent.Settings{
			FramesPerAction: framesPerAction,
			MaxSteps:        maxSteps,
		},
		Log:    log,
		OnStep: replay.Record,
		OnEpisode: func(s env.EpisodeStats) {
			replay.AddEpisode(s)
			if s.End == env.EndGameOver {
				replay.MarkReset()
			}
			fmt.Printf("Episode %d: world %s, progress %d, score %d, reward %.1f (%s)\n",
				s.Episode, s.BestWorld, s.MaxProgress, s.Score, s.TotalReward, s.End)
		},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Playing with the %s policy, backend: %s\n", cfg.Play.Policy, cfg.Emulator.Backend)
	fmt.Println("Press Ctrl+C to exit")
	fmt.Println()

	runErr := a.Run(ctx)
	if ctx.Err() != nil {
		fmt.Println("\nInterrupted, stopping.")
	}

	replay.SetFinalFacts(a.Facts())
	if cfg.Play.ReplayPath != "" {
		if err := replay.Save(cfg.Play.ReplayPath); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to save replay: %v\n", err)
		} else {
			fmt.Printf("Replay saved to %s\n", cfg.Play.ReplayPath)
		}
	}

	f := a.Facts()
	fmt.Println()
	fmt.Println("═══════════════════════════════════")
	fmt.Printf("  Steps: %d, Episodes: %d\n", a.Steps(), a.Episodes())
	fmt.Printf("  Last: %s\n", f)
	fmt.Println("═══════════════════════════════════")

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", runErr)
		emu.Close()
		os.Exit(1)
	}
}
