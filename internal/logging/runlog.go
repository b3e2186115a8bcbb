package logging

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/LemonBreezes/super-mario-land-ai-experiment/internal/env"
)

// RunLog records one row per finished episode to a CSV file and a JSONL
// file. Workers report concurrently, so every method is safe for concurrent
// use.
type RunLog struct {
	csvPath     string
	jsonPath    string
	mu          sync.Mutex
	csvFile     *os.File
	csvWriter   *csv.Writer
	jsonFile    *os.File
	initialized bool
	episodes    int
}

// NewRunLog creates a run log
func NewRunLog(csvPath, jsonPath string) (*RunLog, error) {
	l := &RunLog{
		csvPath:  csvPath,
		jsonPath: jsonPath,
	}

	// Ensure directories exist
	if err := os.MkdirAll(filepath.Dir(csvPath), 0o755); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(jsonPath), 0o755); err != nil {
		return nil, err
	}

	return l, nil
}

var csvHeader = []string{
	"worker", "episode", "steps", "total_reward", "final_fitness",
	"max_progress", "best_world", "score", "coins", "epsilon", "end",
}

// Init creates the log files, truncating earlier runs
func (l *RunLog) Init() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	var err error
	l.csvFile, err = os.Create(l.csvPath)
	if err != nil {
		return err
	}
	l.csvWriter = csv.NewWriter(l.csvFile)
	if err := l.csvWriter.Write(csvHeader); err != nil {
		return err
	}
	l.csvWriter.Flush()

	l.jsonFile, err = os.OpenFile(l.jsonPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}

	l.initialized = true
	return nil
}

// Close flushes and closes all log files
func (l *RunLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.csvWriter != nil {
		l.csvWriter.Flush()
	}
	if l.csvFile != nil {
		l.csvFile.Close()
	}
	if l.jsonFile != nil {
		l.jsonFile.Close()
	}
	l.initialized = false
}

// EpisodeRecord is the JSONL form of one episode
type EpisodeRecord struct {
	Worker       int     `json:"worker"`
	Episode      int     `json:"episode"`
	Steps        int     `json:"steps"`
	TotalReward  float64 `json:"total_reward"`
	FinalFitness float64 `json:"final_fitness"`
	MaxProgress  int     `json:"max_progress"`
	BestWorld    string  `json:"best_world"`
	Score        int     `json:"score"`
	Coins        int     `json:"coins"`
	Epsilon      float64 `json:"epsilon"`
	End          string  `json:"end"`
}

// NewEpisodeRecord converts episode stats to a record
func NewEpisodeRecord(s env.EpisodeStats) EpisodeRecord {
	return EpisodeRecord{
		Worker:       s.Worker,
		Episode:      s.Episode,
		Steps:        s.Steps,
		TotalReward:  s.TotalReward,
		FinalFitness: s.FinalFitness,
		MaxProgress:  s.MaxProgress,
		BestWorld:    s.BestWorld.String(),
		Score:        s.Score,
		Coins:        s.Coins,
		Epsilon:      s.Epsilon,
		End:          s.End.String(),
	}
}

// LogEpisode appends one episode to both files
func (l *RunLog) LogEpisode(s env.EpisodeStats) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.initialized {
		return nil
	}
	l.episodes++

	rec := NewEpisodeRecord(s)
	row := []string{
		strconv.Itoa(rec.Worker),
		strconv.Itoa(rec.Episode),
		strconv.Itoa(rec.Steps),
		fmt.Sprintf("%.2f", rec.TotalReward),
		fmt.Sprintf("%.2f", rec.FinalFitness),
		strconv.Itoa(rec.MaxProgress),
		rec.BestWorld,
		strconv.Itoa(rec.Score),
		strconv.Itoa(rec.Coins),
		fmt.Sprintf("%.4f", rec.Epsilon),
		rec.End,
	}
	if err := l.csvWriter.Write(row); err != nil {
		return err
	}
	l.csvWriter.Flush()
	if err := l.csvWriter.Error(); err != nil {
		return err
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	_, err = l.jsonFile.Write(append(line, '\n'))
	return err
}

// Episodes returns the number of episodes logged
func (l *RunLog) Episodes() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.episodes
}
