package env

import "testing"

func TestStateEncoder(t *testing.T) {
	f := Facts{LevelProgress: 251, LivesLeft: 2, World: World{Major: 1, Minor: 1}, TimeLeft: 400}

	tests := []struct {
		variant string
		width   int
		want    State
	}{
		{StateProgressLivesWorld, 10, State{Progress: 25, Lives: 2, Major: 1, Minor: 1}},
		{StateProgressWorld, 10, State{Progress: 25, Lives: 0, Major: 1, Minor: 1}},
		{StateProgressLivesWorld, 0, State{Progress: 25, Lives: 2, Major: 1, Minor: 1}},
		{StateProgressLivesWorld, 50, State{Progress: 5, Lives: 2, Major: 1, Minor: 1}},
		{"", 1, State{Progress: 251, Lives: 2, Major: 1, Minor: 1}},
	}
	for _, tt := range tests {
		e, err := NewStateEncoder(tt.variant, tt.width)
		if err != nil {
			t.Fatalf("NewStateEncoder(%q, %d): %v", tt.variant, tt.width, err)
		}
		if got := e.Encode(f); got != tt.want {
			t.Errorf("%s/%d: Encode = %v, want %v", tt.variant, tt.width, got, tt.want)
		}
	}
}

func TestStateEncoderBuckets(t *testing.T) {
	e, _ := NewStateEncoder(StateProgressLivesWorld, 10)
	a := e.Encode(Facts{LevelProgress: 250, LivesLeft: 2, World: World{1, 1}})
	b := e.Encode(Facts{LevelProgress: 259, LivesLeft: 2, World: World{1, 1}})
	c := e.Encode(Facts{LevelProgress: 260, LivesLeft: 2, World: World{1, 1}})
	if a != b {
		t.Errorf("250 and 259 should share a bucket: %v vs %v", a, b)
	}
	if a == c {
		t.Errorf("250 and 260 should not share a bucket")
	}
}

func TestStateEncoderUnknownVariant(t *testing.T) {
	if _, err := NewStateEncoder("pixels", 10); err == nil {
		t.Error("expected an error for an unknown variant")
	}
}

func TestStateString(t *testing.T) {
	s := State{Progress: 25, Lives: 2, Major: 1, Minor: 1}
	if got := s.String(); got != "(25, 2, 1, 1)" {
		t.Errorf("String = %q", got)
	}
}

func TestGameOver(t *testing.T) {
	if (Facts{LivesLeft: 0}).GameOver() {
		t.Error("0 lives left is not game over")
	}
	if !(Facts{LivesLeft: -1}).GameOver() {
		t.Error("-1 lives left is game over")
	}
}

func TestWorldLess(t *testing.T) {
	tests := []struct {
		a, b World
		want bool
	}{
		{World{1, 1}, World{1, 2}, true},
		{World{1, 3}, World{2, 1}, true},
		{World{2, 1}, World{1, 3}, false},
		{World{1, 1}, World{1, 1}, false},
	}
	for _, tt := range tests {
		if got := tt.a.Less(tt.b); got != tt.want {
			t.Errorf("%s.Less(%s) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
