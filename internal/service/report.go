package service

import (
	"fmt"
	"time"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/scoring"
)

// Report is the post-exam result breakdown. It is a pure projection of the
// finalized session and its question list; building it twice yields the
// same report.
type Report struct {
	BasicInfo          ReportBasicInfo                          `json:"basic_info"`
	DetailAnalysis     []ReportQuestionDetail                   `json:"detail_analysis"`
	DifficultyAnalysis map[model.Difficulty]ReportDifficultyRow `json:"difficulty_analysis"`
	IntegrityCheck     ReportIntegrityCheck                     `json:"integrity_check"`
}

// ReportBasicInfo summarises the attempt.
type ReportBasicInfo struct {
	SessionID    int64               `json:"session_id"`
	UserID       int64               `json:"user_id"`
	PaperID      int64               `json:"paper_id"`
	PaperTitle   string              `json:"paper_title"`
	Status       model.SessionStatus `json:"status"`
	Score        int                 `json:"score"`
	TotalScore   int                 `json:"total_score"`
	CorrectCount int                 `json:"correct_count"`
	TotalCount   int                 `json:"total_count"`
	CorrectRate  string              `json:"correct_rate"`
	StartTime    *time.Time          `json:"start_time,omitempty"`
	EndTime      *time.Time          `json:"end_time,omitempty"`
	UsedSeconds  int                 `json:"used_seconds"`
}

// ReportQuestionDetail is the per-question row. The explanation is included
// only for questions answered incorrectly.
type ReportQuestionDetail struct {
	QuestionID    int64            `json:"question_id"`
	Title         string           `json:"title"`
	Difficulty    model.Difficulty `json:"difficulty"`
	YourAnswer    string           `json:"your_answer"`
	CorrectAnswer string           `json:"correct_answer"`
	IsCorrect     bool             `json:"is_correct"`
	Explanation   string           `json:"explanation,omitempty"`
}

// ReportDifficultyRow counts outcomes per difficulty bucket.
type ReportDifficultyRow struct {
	Total   int `json:"total"`
	Correct int `json:"correct"`
}

// ReportIntegrityCheck surfaces the session's integrity telemetry.
type ReportIntegrityCheck struct {
	TabSwitches  int      `json:"tab_switches"`
	CopyAttempts int      `json:"copy_attempts"`
	EventCount   int      `json:"event_count"`
	Warnings     []string `json:"warnings"`
}

// BuildReport assembles the report for a terminal session.
func BuildReport(sess *model.Session, paper *model.Paper, questions []model.Question) *Report {
	report := &Report{
		BasicInfo: ReportBasicInfo{
			SessionID:    sess.ID,
			UserID:       sess.UserID,
			PaperID:      paper.ID,
			PaperTitle:   paper.Title,
			Status:       sess.Status,
			TotalScore:   paper.TotalScore,
			CorrectCount: sess.CorrectCount,
			TotalCount:   sess.TotalCount,
			CorrectRate:  fmt.Sprintf("%d/%d", sess.CorrectCount, sess.TotalCount),
			StartTime:    sess.StartTime,
			EndTime:      sess.EndTime,
		},
		DifficultyAnalysis: make(map[model.Difficulty]ReportDifficultyRow),
	}
	if sess.Score != nil {
		report.BasicInfo.Score = *sess.Score
	}
	if sess.StartTime != nil && sess.EndTime != nil {
		report.BasicInfo.UsedSeconds = int(sess.EndTime.Sub(*sess.StartTime).Seconds())
	}

	for i := range questions {
		q := &questions[i]
		answer := sess.Answers[q.ID]
		correct := scoring.IsCorrect(q, answer)

		detail := ReportQuestionDetail{
			QuestionID:    q.ID,
			Title:         q.Title,
			Difficulty:    q.Difficulty,
			YourAnswer:    answer.String(),
			CorrectAnswer: q.CorrectAnswer,
			IsCorrect:     correct,
		}
		if !correct {
			detail.Explanation = q.Explanation
		}
		report.DetailAnalysis = append(report.DetailAnalysis, detail)

		row := report.DifficultyAnalysis[q.Difficulty]
		row.Total++
		if correct {
			row.Correct++
		}
		report.DifficultyAnalysis[q.Difficulty] = row
	}

	report.IntegrityCheck = ReportIntegrityCheck{
		TabSwitches:  sess.TabSwitches,
		CopyAttempts: sess.CopyAttempts,
		EventCount:   len(sess.IntegrityEvents),
		Warnings:     integrityWarnings(sess),
	}
	return report
}

// integrityWarnings lists every advisory message applicable to the session.
func integrityWarnings(sess *model.Session) []string {
	warnings := []string{}
	if sess.TabSwitches > tabSwitchWarnThreshold {
		warnings = append(warnings, fmt.Sprintf("tab switched %d times during the exam", sess.TabSwitches))
	}
	if sess.CopyAttempts > copyAttemptWarnThreshold {
		warnings = append(warnings, fmt.Sprintf("copy attempted %d times during the exam", sess.CopyAttempts))
	}
	return warnings
}
