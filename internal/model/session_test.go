package model

import (
	"testing"
	"time"
)

func startedAt(t time.Time) *Session {
	return &Session{Status: SessionStatusStarted, StartTime: &t}
}

func TestSessionStatusPredicates(t *testing.T) {
	open := []SessionStatus{SessionStatusCreated, SessionStatusStarted}
	terminal := []SessionStatus{SessionStatusSubmitted, SessionStatusTimeout}

	for _, s := range open {
		if !s.Open() || s.Terminal() {
			t.Errorf("%s: want open and not terminal", s)
		}
	}
	for _, s := range terminal {
		if s.Open() || !s.Terminal() {
			t.Errorf("%s: want terminal and not open", s)
		}
	}
}

func TestSessionDeadlineAndExpiry(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sess := startedAt(start)
	duration := 30 * time.Minute
	deadline := start.Add(duration)

	if got := sess.Deadline(duration); !got.Equal(deadline) {
		t.Errorf("Deadline = %v, want %v", got, deadline)
	}
	if sess.Expired(duration, deadline.Add(-time.Second)) {
		t.Error("one second before the deadline must not be expired")
	}
	if !sess.Expired(duration, deadline) {
		t.Error("the deadline instant itself must count as expired")
	}
	if !sess.Expired(duration, deadline.Add(time.Hour)) {
		t.Error("past the deadline must be expired")
	}

	unstarted := &Session{Status: SessionStatusCreated}
	if unstarted.Expired(duration, deadline.Add(time.Hour)) {
		t.Error("a session without a start time never expires")
	}
}

func TestSessionRemainingSeconds(t *testing.T) {
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	sess := startedAt(start)
	duration := 30 * time.Minute

	if got := sess.RemainingSeconds(duration, start.Add(10*time.Minute)); got != 1200 {
		t.Errorf("remaining = %d, want 1200", got)
	}
	if got := sess.RemainingSeconds(duration, start.Add(time.Hour)); got != 0 {
		t.Errorf("remaining past deadline = %d, want clamped to 0", got)
	}

	sess.Status = SessionStatusSubmitted
	if got := sess.RemainingSeconds(duration, start); got != 0 {
		t.Errorf("remaining on terminal session = %d, want 0", got)
	}
}

func TestSessionHasQuestion(t *testing.T) {
	sess := &Session{Questions: []int64{3, 1, 2}}
	if !sess.HasQuestion(1) {
		t.Error("HasQuestion(1) = false, want true")
	}
	if sess.HasQuestion(4) {
		t.Error("HasQuestion(4) = true, want false")
	}
}

func TestParseDifficulty(t *testing.T) {
	tests := []struct {
		raw  string
		want Difficulty
	}{
		{"easy", DifficultyEasy},
		{"E", DifficultyEasy},
		{"1", DifficultyEasy},
		{"简单", DifficultyEasy},
		{"Mid", DifficultyMedium},
		{"2", DifficultyMedium},
		{"HARD", DifficultyHard},
		{" hard ", DifficultyHard},
	}
	for _, tt := range tests {
		got, err := ParseDifficulty(tt.raw)
		if err != nil {
			t.Errorf("ParseDifficulty(%q): %v", tt.raw, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseDifficulty(%q) = %s, want %s", tt.raw, got, tt.want)
		}
	}

	if _, err := ParseDifficulty("impossible"); err == nil {
		t.Error("unknown spelling must error")
	}
}
