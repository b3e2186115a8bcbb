package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/config"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/dashboard"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/logging"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/statsview"
	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/trainer"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "configs/train.yaml", "path to config file")
	checkpoint := flag.String("checkpoint", "", "Q-table checkpoint path (overrides config)")
	workers := flag.Int("workers", -1, "number of parallel workers, 0 = one per CPU (overrides config)")
	steps := flag.Int("steps", -1, "steps per worker, 0 = until interrupted (overrides config)")
	tui := flag.Bool("tui", false, "show the live training dashboard")
	stats := flag.Bool("statsview", false, "serve runtime charts (needs the statsview build tag)")
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
	if *workers >= 0 {
		cfg.Train.Workers = *workers
	}
	if *steps >= 0 {
		cfg.Train.Steps = *steps
	}

	// The dashboard owns the terminal
	if *tui && cfg.Logging.File == "" {
		cfg.Logging.File = "runs/train.log"
	}
	log, closeLog, err := logging.Setup(cfg.Logging.File, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if *stats {
		if statsview.Available() {
			stopStats, err := statsview.Launch(cfg.Logging.StatsviewAddr, os.Stdout)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Warning: runtime charts unavailable: %v\n", err)
			} else {
				defer stopStats()
			}
		} else {
			fmt.Fprintln(os.Stderr, "Warning: built without the statsview tag, -statsview ignored")
		}
	}

	runLog, err := logging.NewRunLog(cfg.Logging.CSVPath, cfg.Logging.JSONPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating run log: %v\n", err)
		os.Exit(1)
	}
	if err := runLog.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing run log: %v\n", err)
		os.Exit(1)
	}
	defer runLog.Close()

	catalog, err := cfg.Catalog()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	meta := trainer.Meta(cfg, catalog)
	table, err := trainer.LoadOrEmpty(cfg.Train.Checkpoint, meta, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Use another -checkpoint or match the state variant and catalog it was trained with")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []trainer.Option{trainer.WithLogger(log), trainer.WithRunLog(runLog)}
	var updates chan trainer.Update
	if *tui {
		updates = make(chan trainer.Update, 64)
		opts = append(opts, trainer.WithUpdates(updates))
	}

	t, err := trainer.New(cfg, table, trainer.Dialer(cfg, cfg.Emulator.Speed), opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating trainer: %v\n", err)
		os.Exit(1)
	}

	if !*tui {
		fmt.Printf("Super Mario Land Q-learning - backend: %s\n", cfg.Emulator.Backend)
		fmt.Printf("Config: %s, Checkpoint: %s\n", *configPath, cfg.Train.Checkpoint)
		fmt.Printf("Workers: %d, State: %s, Actions: %s (%d)\n",
			t.Workers(), cfg.State.Variant, cfg.Actions.Catalog, catalog.Len())
		fmt.Println("Press Ctrl+C to stop and save")
		fmt.Println("---")
	}

	type result struct {
		summary trainer.Summary
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := t.Run(ctx)
		if updates != nil {
			close(updates)
		}
		done <- result{s, err}
	}()

	if *tui {
		if err := dashboard.Run(t.Workers(), updates, stop); err != nil {
			log.Error("dashboard failed", "err", err)
			stop()
		}
	}
	res := <-done

	printSummary(res.summary)
	if res.err != nil {
		fmt.Fprintf(os.Stderr, "Error saving checkpoint: %v\n", res.err)
		os.Exit(1)
	}
}

func printSummary(s trainer.Summary) {
	fmt.Println("---")
	if s.Interrupted {
		fmt.Println("Training interrupted")
	}
	fmt.Printf("Training stopped after %v\n", s.Elapsed.Round(time.Millisecond))
	fmt.Printf("Steps: %d, Episodes: %d\n", s.TotalSteps, s.Episodes.NumEpisodes)
	fmt.Printf("Table: %d entries over %d states (saved: %v)\n", s.TableEntries, s.TableStates, s.Saved)
	if s.Episodes.NumEpisodes > 0 {
		fmt.Printf("Reward: %.1f ± %.1f, Progress: %.1f, Best world: %s\n",
			s.Episodes.RewardMean, s.Episodes.RewardStd, s.Episodes.ProgressMean, s.Episodes.BestWorld)
	}
	for _, w := range s.Workers {
		if w.Err != nil {
			fmt.Printf("  worker %d failed after %d steps: %v\n", w.Worker, w.Steps, w.Err)
		}
	}
}
