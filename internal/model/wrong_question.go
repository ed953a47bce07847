package model

import "time"

// ErrorType classifies why a question was answered incorrectly. Set by the
// user while reviewing; defaults to other.
type ErrorType string

const (
	ErrorTypeCareless      ErrorType = "careless"
	ErrorTypeKnowledge     ErrorType = "knowledge"
	ErrorTypeComprehension ErrorType = "comprehension"
	ErrorTypeCalculation   ErrorType = "calculation"
	ErrorTypeOther         ErrorType = "other"
)

// Valid reports whether e is a known error type.
func (e ErrorType) Valid() bool {
	switch e {
	case ErrorTypeCareless, ErrorTypeKnowledge, ErrorTypeComprehension,
		ErrorTypeCalculation, ErrorTypeOther:
		return true
	}
	return false
}

// WrongQuestion is the per-(user, question) notebook entry driving review
// practice. It is upserted on every terminal session where the user answered
// the question incorrectly.
type WrongQuestion struct {
	ID              int64      `json:"id"`
	UserID          int64      `json:"user_id"`
	QuestionID      int64      `json:"question_id"`
	WrongCount      int        `json:"wrong_count"`
	FirstWrongTime  time.Time  `json:"first_wrong_time"`
	LastWrongTime   time.Time  `json:"last_wrong_time"`
	LastWrongAnswer string     `json:"last_wrong_answer"`
	ErrorType       ErrorType  `json:"error_type"`
	IsMastered      bool       `json:"is_mastered"`
	MasteredTime    *time.Time `json:"mastered_time,omitempty"`
	Note            string     `json:"note,omitempty"`
}

// UpdateWrongQuestionRequest is the payload for editing a notebook entry.
type UpdateWrongQuestionRequest struct {
	ErrorType string  `json:"error_type" binding:"omitempty,oneof=careless knowledge comprehension calculation other"`
	Note      *string `json:"note" binding:"omitempty,max=2000"`
}
