package env

import "math"

// EndReason indicates why an episode stopped
type EndReason int

const (
	EndNone      EndReason = iota
	EndGameOver            // lives_left dropped below zero
	EndStopped             // context cancelled or step budget reached
	EndSession             // emulator session ended
	EndError               // worker failed mid-episode
)

func (r EndReason) String() string {
	switch r {
	case EndNone:
		return "none"
	case EndGameOver:
		return "game_over"
	case EndStopped:
		return "stopped"
	case EndSession:
		return "session"
	case EndError:
		return "error"
	default:
		return "unknown"
	}
}

// EpisodeStats captures all metrics from a single episode
type EpisodeStats struct {
	Worker       int       // worker that played the episode
	Episode      int       // per-worker episode counter, starting at 1
	Steps        int       // actions taken
	TotalReward  float64   // sum of step rewards
	FinalFitness float64   // fitness at the last step
	MaxProgress  int       // furthest level progress seen
	BestWorld    World     // furthest world reached
	Score        int       // score at the last step
	Coins        int       // coins at the last step
	Epsilon      float64   // exploration rate when the episode ended
	End          EndReason // how the episode ended
}

// Observe folds one step's facts into the stats
func (s *EpisodeStats) Observe(f Facts, reward, fitness float64) {
	s.Steps++
	s.TotalReward += reward
	s.FinalFitness = fitness
	s.Score = f.Score
	s.Coins = f.Coins
	if s.BestWorld.Less(f.World) {
		s.BestWorld = f.World
		s.MaxProgress = 0
	}
	if f.World == s.BestWorld && f.LevelProgress > s.MaxProgress {
		s.MaxProgress = f.LevelProgress
	}
}

// AggregatedStats holds statistics across multiple episodes
type AggregatedStats struct {
	RewardMean   float64
	RewardStd    float64
	ProgressMean float64
	StepsMean    float64
	BestWorld    World
	EndCounts    map[EndReason]int
	NumEpisodes  int
}

// Aggregate computes statistics from multiple episode stats
func Aggregate(episodes []EpisodeStats) AggregatedStats {
	n := len(episodes)
	if n == 0 {
		return AggregatedStats{EndCounts: make(map[EndReason]int)}
	}

	agg := AggregatedStats{
		EndCounts:   make(map[EndReason]int),
		NumEpisodes: n,
	}

	var rewardSum, progressSum, stepsSum float64
	for _, ep := range episodes {
		rewardSum += ep.TotalReward
		progressSum += float64(ep.MaxProgress)
		stepsSum += float64(ep.Steps)
		agg.EndCounts[ep.End]++
		if agg.BestWorld.Less(ep.BestWorld) {
			agg.BestWorld = ep.BestWorld
		}
	}

	nf := float64(n)
	agg.RewardMean = rewardSum / nf
	agg.ProgressMean = progressSum / nf
	agg.StepsMean = stepsSum / nf

	var variance float64
	for _, ep := range episodes {
		diff := ep.TotalReward - agg.RewardMean
		variance += diff * diff
	}
	agg.RewardStd = math.Sqrt(variance / nf)

	return agg
}
