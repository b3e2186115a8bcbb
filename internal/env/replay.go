package env

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Replay stores the action trace of a play session
type Replay struct {
	Policy     string         `json:"policy"`
	Actions    []int          `json:"actions"`
	Resets     []int          `json:"resets"` // step indices at which the game was reset
	FinalFacts Facts          `json:"final_facts"`
	Episodes   []EpisodeStats `json:"episodes"`
	Config     ReplayConfig   `json:"config"`
}

// ReplayConfig stores what is needed to interpret the action indices
type ReplayConfig struct {
	Catalog         []string `json:"catalog"`
	FramesPerAction int      `json:"frames_per_action"`
}

// NewReplay creates a new replay recorder
func NewReplay(policy string, config ReplayConfig) *Replay {
	return &Replay{
		Policy:  policy,
		Actions: make([]int, 0, 1024),
		Config:  config,
	}
}

// Record adds an action to the replay
func (r *Replay) Record(action int) {
	r.Actions = append(r.Actions, action)
}

// MarkReset notes that the game was reset after the current step
func (r *Replay) MarkReset() {
	r.Resets = append(r.Resets, len(r.Actions))
}

// AddEpisode appends a finished episode
func (r *Replay) AddEpisode(stats EpisodeStats) {
	r.Episodes = append(r.Episodes, stats)
}

// SetFinalFacts sets the facts observed at the end of the session
func (r *Replay) SetFinalFacts(f Facts) {
	r.FinalFacts = f
}

// Save writes the replay to a file
func (r *Replay) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadReplay loads a replay from a file
func LoadReplay(path string) (*Replay, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Replay
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, err
	}
	return &r, nil
}
