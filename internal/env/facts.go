package env

import "fmt"

// World identifies a stage as shown in the HUD, e.g. 1-2
type World struct {
	Major int `json:"major"`
	Minor int `json:"minor"`
}

func (w World) String() string {
	return fmt.Sprintf("%d-%d", w.Major, w.Minor)
}

// Less reports whether w comes before o in course order
func (w World) Less(o World) bool {
	if w.Major != o.Major {
		return w.Major < o.Major
	}
	return w.Minor < o.Minor
}

// Facts is a read-only snapshot of the game wrapper at one point in time.
// All fields come from the emulator side; nothing here is derived.
type Facts struct {
	LevelProgress int   `json:"level_progress"`
	LivesLeft     int   `json:"lives_left"`
	World         World `json:"world"`
	Score         int   `json:"score"`
	Coins         int   `json:"coins"`
	TimeLeft      int   `json:"time_left"`
}

// GameOver reports whether the last life has been lost
func (f Facts) GameOver() bool {
	return f.LivesLeft < 0
}

func (f Facts) String() string {
	return fmt.Sprintf("World %s | Progress: %d | Lives: %d | Score: %d | Coins: %d | Time: %d",
		f.World, f.LevelProgress, f.LivesLeft, f.Score, f.Coins, f.TimeLeft)
}
