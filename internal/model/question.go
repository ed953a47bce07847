package model

import (
	"strings"
	"time"
)

// QuestionType distinguishes single-choice from multi-choice questions.
type QuestionType string

const (
	QuestionTypeSingle   QuestionType = "single"
	QuestionTypeMultiple QuestionType = "multiple"
)

// Option is one selectable choice of a question. Keys are drawn from A, B,
// C, ... in option order.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Question represents a multiple-choice question. The exam core treats
// questions as read-only.
type Question struct {
	ID        int64        `json:"id"`
	DisplayID string       `json:"display_id"`
	Title     string       `json:"title"`
	Body      string       `json:"body,omitempty"`
	Type      QuestionType `json:"question_type"`
	Options   []Option     `json:"options"`
	// CorrectAnswer holds the correct key for single-choice questions
	// ("A") or a comma-joined key set for multi-choice ("A,C").
	CorrectAnswer string     `json:"correct_answer,omitempty"`
	Explanation   string     `json:"explanation,omitempty"`
	Difficulty    Difficulty `json:"difficulty"`
	Score         int        `json:"score"`
	CategoryID    *int64     `json:"category_id,omitempty"`
	TagIDs        []int64    `json:"tag_ids,omitempty"`
	Visible       bool       `json:"visible"`
	IsPublic      bool       `json:"is_public"`
	CreatedBy     int64      `json:"created_by"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// CorrectKeys returns the correct answer as a sorted key set.
func (q *Question) CorrectKeys() []string {
	return MultiAnswer(strings.Split(q.CorrectAnswer, ",")...).KeySet()
}

// CorrectKey returns the sole correct key of a single-choice question.
func (q *Question) CorrectKey() string {
	return strings.TrimSpace(q.CorrectAnswer)
}

// CreateQuestionRequest is the payload for creating a question.
type CreateQuestionRequest struct {
	DisplayID     string   `json:"display_id" binding:"omitempty,max=32"`
	Title         string   `json:"title" binding:"required,min=1,max=2000"`
	Body          string   `json:"body" binding:"omitempty"`
	QuestionType  string   `json:"question_type" binding:"required,oneof=single multiple"`
	Options       []Option `json:"options" binding:"required,min=2,dive"`
	CorrectAnswer string   `json:"correct_answer" binding:"required,max=30"`
	Explanation   string   `json:"explanation" binding:"omitempty"`
	Difficulty    string   `json:"difficulty" binding:"required"`
	Score         int      `json:"score" binding:"omitempty,min=1,max=100"`
	CategoryID    *int64   `json:"category_id" binding:"omitempty"`
	TagIDs        []int64  `json:"tag_ids" binding:"omitempty"`
	Visible       *bool    `json:"visible" binding:"omitempty"`
	IsPublic      *bool    `json:"is_public" binding:"omitempty"`
}

// UpdateQuestionRequest is the payload for updating a question.
type UpdateQuestionRequest struct {
	Title         string   `json:"title" binding:"omitempty,min=1,max=2000"`
	Body          *string  `json:"body" binding:"omitempty"`
	QuestionType  string   `json:"question_type" binding:"omitempty,oneof=single multiple"`
	Options       []Option `json:"options" binding:"omitempty,min=2,dive"`
	CorrectAnswer string   `json:"correct_answer" binding:"omitempty,max=30"`
	Explanation   *string  `json:"explanation" binding:"omitempty"`
	Difficulty    string   `json:"difficulty" binding:"omitempty"`
	Score         *int     `json:"score" binding:"omitempty,min=1,max=100"`
	CategoryID    *int64   `json:"category_id" binding:"omitempty"`
	TagIDs        []int64  `json:"tag_ids" binding:"omitempty"`
	Visible       *bool    `json:"visible" binding:"omitempty"`
	IsPublic      *bool    `json:"is_public" binding:"omitempty"`
}

// QuestionForExam is a question as sent to an exam taker: no correct answer,
// no explanation.
type QuestionForExam struct {
	ID         int64        `json:"id"`
	DisplayID  string       `json:"display_id"`
	Title      string       `json:"title"`
	Body       string       `json:"body,omitempty"`
	Type       QuestionType `json:"question_type"`
	Options    []Option     `json:"options"`
	Difficulty Difficulty   `json:"difficulty"`
	Score      int          `json:"score"`
}

// ForExam strips grading fields from a question.
func (q *Question) ForExam() QuestionForExam {
	return QuestionForExam{
		ID:         q.ID,
		DisplayID:  q.DisplayID,
		Title:      q.Title,
		Body:       q.Body,
		Type:       q.Type,
		Options:    q.Options,
		Difficulty: q.Difficulty,
		Score:      q.Score,
	}
}
