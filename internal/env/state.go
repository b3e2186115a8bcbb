package env

import "fmt"

// State is the discrete key the Q-table is indexed by. It is a plain
// comparable value so it can be used directly as part of a map key.
type State struct {
	Progress int // level progress bucket
	Lives    int // always 0 for the progress_world variant
	Major    int
	Minor    int
}

func (s State) String() string {
	return fmt.Sprintf("(%d, %d, %d, %d)", s.Progress, s.Lives, s.Major, s.Minor)
}

// State variants
const (
	StateProgressLivesWorld = "progress_lives_world"
	StateProgressWorld      = "progress_world"
)

// DefaultBucketWidth is the level progress covered by one state bucket
const DefaultBucketWidth = 10

// StateEncoder maps game facts to a State for one abstraction variant
type StateEncoder struct {
	variant     string
	bucketWidth int
}

// NewStateEncoder creates an encoder for the given variant. A bucket width
// of zero or less selects DefaultBucketWidth.
func NewStateEncoder(variant string, bucketWidth int) (*StateEncoder, error) {
	switch variant {
	case "":
		variant = StateProgressLivesWorld
	case StateProgressLivesWorld, StateProgressWorld:
	default:
		return nil, fmt.Errorf("unknown state variant %q", variant)
	}
	if bucketWidth <= 0 {
		bucketWidth = DefaultBucketWidth
	}
	return &StateEncoder{variant: variant, bucketWidth: bucketWidth}, nil
}

// Variant returns the variant name
func (e *StateEncoder) Variant() string {
	return e.variant
}

// Encode builds the state for the given facts
func (e *StateEncoder) Encode(f Facts) State {
	s := State{
		Progress: f.LevelProgress / e.bucketWidth,
		Major:    f.World.Major,
		Minor:    f.World.Minor,
	}
	if e.variant == StateProgressLivesWorld {
		s.Lives = f.LivesLeft
	}
	return s
}
