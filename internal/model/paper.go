package model

import "time"

// PaperType selects how a paper's question list is produced.
type PaperType string

const (
	// PaperTypeGenerated papers sample questions per the difficulty
	// distribution and filters at session creation.
	PaperTypeGenerated PaperType = "generated"
	// PaperTypeFixed papers carry an explicit question list.
	PaperTypeFixed PaperType = "fixed"
)

// DifficultyDistribution maps a difficulty to the minimum desired count of
// questions at that level in a generated paper. The mapping may be partial
// and counts may be zero; the sum must not exceed the paper's question count.
type DifficultyDistribution map[Difficulty]int

// Total returns the sum of all requested counts.
func (d DifficultyDistribution) Total() int {
	total := 0
	for _, n := range d {
		total += n
	}
	return total
}

// Paper is the template describing how to assemble a question list for an
// exam attempt.
type Paper struct {
	ID              int64                  `json:"id"`
	Title           string                 `json:"title"`
	Description     string                 `json:"description,omitempty"`
	DurationMinutes int                    `json:"duration_minutes"`
	TotalScore      int                    `json:"total_score"`
	QuestionCount   int                    `json:"question_count"`
	PaperType       PaperType              `json:"paper_type"`
	Distribution    DifficultyDistribution `json:"difficulty_distribution,omitempty"`
	CategoryIDs     []int64                `json:"filter_categories,omitempty"`
	TagIDs          []int64                `json:"filter_tags,omitempty"`
	// FixedQuestionIDs is the ordered question list of a fixed paper.
	FixedQuestionIDs []int64   `json:"fixed_questions,omitempty"`
	UseImportOrder   bool      `json:"use_import_order"`
	IsActive         bool      `json:"is_active"`
	CreatedBy        int64     `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Duration returns the exam duration as a time.Duration.
func (p *Paper) Duration() time.Duration {
	return time.Duration(p.DurationMinutes) * time.Minute
}

// CreatePaperRequest is the payload for creating a paper.
type CreatePaperRequest struct {
	Title            string         `json:"title" binding:"required,min=1,max=200"`
	Description      string         `json:"description" binding:"omitempty"`
	DurationMinutes  int            `json:"duration_minutes" binding:"required,min=1,max=480"`
	TotalScore       int            `json:"total_score" binding:"required,min=1"`
	QuestionCount    int            `json:"question_count" binding:"required,min=1,max=200"`
	PaperType        string         `json:"paper_type" binding:"omitempty,oneof=generated fixed"`
	Distribution     map[string]int `json:"difficulty_distribution" binding:"omitempty"`
	CategoryIDs      []int64        `json:"filter_categories" binding:"omitempty"`
	TagIDs           []int64        `json:"filter_tags" binding:"omitempty"`
	FixedQuestionIDs []int64        `json:"fixed_questions" binding:"omitempty"`
	UseImportOrder   *bool          `json:"use_import_order" binding:"omitempty"`
	IsActive         *bool          `json:"is_active" binding:"omitempty"`
}

// UpdatePaperRequest is the payload for updating a paper. Edits are
// non-retroactive: existing sessions keep their frozen question lists.
type UpdatePaperRequest struct {
	Title            string         `json:"title" binding:"omitempty,min=1,max=200"`
	Description      *string        `json:"description" binding:"omitempty"`
	DurationMinutes  *int           `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	TotalScore       *int           `json:"total_score" binding:"omitempty,min=1"`
	QuestionCount    *int           `json:"question_count" binding:"omitempty,min=1,max=200"`
	Distribution     map[string]int `json:"difficulty_distribution" binding:"omitempty"`
	CategoryIDs      []int64        `json:"filter_categories" binding:"omitempty"`
	TagIDs           []int64        `json:"filter_tags" binding:"omitempty"`
	FixedQuestionIDs []int64        `json:"fixed_questions" binding:"omitempty"`
	UseImportOrder   *bool          `json:"use_import_order" binding:"omitempty"`
	IsActive         *bool          `json:"is_active" binding:"omitempty"`
}
