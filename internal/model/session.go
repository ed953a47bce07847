package model

import (
	"encoding/json"
	"time"
)

// SessionStatus enumerates exam session states. created and started are the
// open states; submitted and timeout are terminal.
type SessionStatus string

const (
	SessionStatusCreated   SessionStatus = "created"
	SessionStatusStarted   SessionStatus = "started"
	SessionStatusSubmitted SessionStatus = "submitted"
	SessionStatusTimeout   SessionStatus = "timeout"
)

// Terminal reports whether no further mutations are permitted.
func (s SessionStatus) Terminal() bool {
	return s == SessionStatusSubmitted || s == SessionStatusTimeout
}

// Open reports whether the session still counts against the one-open-session
// per (paper, user) rule.
func (s SessionStatus) Open() bool {
	return s == SessionStatusCreated || s == SessionStatusStarted
}

// BehaviorType tags client-reported integrity signals.
type BehaviorType string

const (
	BehaviorTabSwitch      BehaviorType = "tab_switch"
	BehaviorCopyAttempt    BehaviorType = "copy_attempt"
	BehaviorRightClick     BehaviorType = "right_click"
	BehaviorKeyCombination BehaviorType = "key_combination"
)

// Valid reports whether b is a known behavior type.
func (b BehaviorType) Valid() bool {
	switch b {
	case BehaviorTabSwitch, BehaviorCopyAttempt, BehaviorRightClick, BehaviorKeyCombination:
		return true
	}
	return false
}

// IntegrityEvent is one client-reported signal stored verbatim on the
// session for audit. Events never abort a session.
type IntegrityEvent struct {
	Type      BehaviorType    `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Count     int             `json:"count,omitempty"`
	Payload   json.RawMessage `json:"data,omitempty"`
}

// Session is one user's attempt at one paper. It exclusively owns its
// answers, integrity events and counters; the question list is frozen at
// creation.
type Session struct {
	ID      int64         `json:"id"`
	PaperID int64         `json:"paper_id"`
	UserID  int64         `json:"user_id"`
	Status  SessionStatus `json:"status"`

	Questions []int64          `json:"questions"`
	Answers   map[int64]Answer `json:"answers"`

	StartTime  *time.Time `json:"start_time,omitempty"`
	SubmitTime *time.Time `json:"submit_time,omitempty"`
	EndTime    *time.Time `json:"end_time,omitempty"`

	Score        *int `json:"score,omitempty"`
	CorrectCount int  `json:"correct_count"`
	TotalCount   int  `json:"total_count"`

	TabSwitches     int              `json:"tab_switches"`
	CopyAttempts    int              `json:"copy_attempts"`
	IntegrityEvents []IntegrityEvent `json:"integrity_events"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasQuestion reports whether qid is part of the frozen question list.
func (s *Session) HasQuestion(qid int64) bool {
	for _, id := range s.Questions {
		if id == qid {
			return true
		}
	}
	return false
}

// Deadline returns the instant the session times out, given the paper
// duration. The zero time is returned for sessions that have not started.
func (s *Session) Deadline(duration time.Duration) time.Time {
	if s.StartTime == nil {
		return time.Time{}
	}
	return s.StartTime.Add(duration)
}

// Expired reports whether now is at or past the deadline.
func (s *Session) Expired(duration time.Duration, now time.Time) bool {
	if s.StartTime == nil {
		return false
	}
	return !now.Before(s.Deadline(duration))
}

// RemainingSeconds returns the whole seconds left on a started session's
// clock, clamped at zero.
func (s *Session) RemainingSeconds(duration time.Duration, now time.Time) int {
	if s.Status != SessionStatusStarted || s.StartTime == nil {
		return 0
	}
	remaining := s.Deadline(duration).Sub(now)
	if remaining < 0 {
		return 0
	}
	return int(remaining.Seconds())
}

// SubmitAnswerRequest is the payload for submitting one answer.
type SubmitAnswerRequest struct {
	QuestionID int64  `json:"question_id" binding:"required"`
	Answer     Answer `json:"answer"`
}

// AutosaveRequest is the payload for merging an answers delta.
type AutosaveRequest struct {
	Answers map[int64]Answer `json:"answers" binding:"required"`
}

// RecordBehaviorRequest is the payload for reporting an integrity event.
type RecordBehaviorRequest struct {
	Type    string          `json:"type" binding:"required,oneof=tab_switch copy_attempt right_click key_combination"`
	Payload json.RawMessage `json:"data" binding:"omitempty"`
}

// CreateSessionRequest is the payload for creating a session.
type CreateSessionRequest struct {
	PaperID int64 `json:"paper_id" binding:"required"`
}
