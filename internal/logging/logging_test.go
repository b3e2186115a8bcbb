package logging

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

func TestRunLog(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "runs", "episodes.csv")
	jsonPath := filepath.Join(dir, "runs", "episodes.jsonl")

	l, err := NewRunLog(csvPath, jsonPath)
	if err != nil {
		t.Fatal(err)
	}

	// ignored before Init
	if err := l.LogEpisode(env.EpisodeStats{}); err != nil {
		t.Fatal(err)
	}
	if err := l.Init(); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for ep := 1; ep <= 5; ep++ {
				s := env.EpisodeStats{
					Worker: w, Episode: ep, Steps: 10 * ep, TotalReward: 12.5,
					BestWorld: env.World{Major: 1, Minor: 2}, End: env.EndGameOver,
				}
				if err := l.LogEpisode(s); err != nil {
					t.Error(err)
				}
			}
		}(w)
	}
	wg.Wait()
	l.Close()

	if l.Episodes() != 20 {
		t.Errorf("Episodes = %d, want 20", l.Episodes())
	}

	f, err := os.Open(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 21 {
		t.Fatalf("csv rows = %d, want header + 20", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][6] != "1-2" || rows[1][10] != "game_over" {
		t.Errorf("row = %v", rows[1])
	}

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	lines := 0
	for sc.Scan() {
		var rec EpisodeRecord
		if err := json.Unmarshal(sc.Bytes(), &rec); err != nil {
			t.Fatalf("line %d: %v", lines+1, err)
		}
		if rec.TotalReward != 12.5 || rec.End != "game_over" {
			t.Errorf("record = %+v", rec)
		}
		lines++
	}
	if lines != 20 {
		t.Errorf("jsonl lines = %d, want 20", lines)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLogger(&buf, "warn", "json")
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hidden")
	log.Warn("shown", "worker", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info logged at warn level")
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &rec); err != nil {
		t.Fatalf("not json: %q", out)
	}
	if rec["msg"] != "shown" || rec["worker"] != float64(2) {
		t.Errorf("record = %v", rec)
	}

	if _, err := NewLogger(&buf, "loud", "text"); err == nil {
		t.Error("expected an error for an unknown level")
	}
	if _, err := NewLogger(&buf, "info", "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

func TestSetupFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "train.log")
	log, closeLog, err := Setup(path, "debug", "text")
	if err != nil {
		t.Fatal(err)
	}
	log.Debug("checkpoint saved", "entries", 3)
	closeLog()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "checkpoint saved") {
		t.Errorf("log file = %q", data)
	}
}
