// Package scoring grades exam sessions. Grading is a pure function of the
// question list and the recorded answers, so repeated invocations over the
// same persisted state always yield the same result.
package scoring

import (
	"github.com/codearena/mcq-backend/internal/model"
)

// Result holds the outcome of grading one session.
type Result struct {
	CorrectCount int
	TotalCount   int
	Score        int
	// Correct maps question ID to per-question correctness.
	Correct map[int64]bool
}

// IsCorrect applies the all-or-nothing rule: a single-choice answer must
// equal the sole correct key (exact after trimming), a multi-choice answer
// must equal the correct key set regardless of order. Missing, empty or
// wrong-shaped answers are incorrect.
func IsCorrect(q *model.Question, a model.Answer) bool {
	if a.IsEmpty() {
		return false
	}

	switch q.Type {
	case model.QuestionTypeSingle:
		if a.Kind != model.AnswerSingle {
			return false
		}
		return a.Key == q.CorrectKey()

	case model.QuestionTypeMultiple:
		if a.Kind != model.AnswerMulti {
			return false
		}
		got, want := a.KeySet(), q.CorrectKeys()
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}

	return false
}

// Grade computes correct_count, total_count and the session score
// floor(correct/total * totalScore). An empty question list scores zero.
func Grade(questions []model.Question, answers map[int64]model.Answer, totalScore int) Result {
	res := Result{
		TotalCount: len(questions),
		Correct:    make(map[int64]bool, len(questions)),
	}

	for i := range questions {
		q := &questions[i]
		ok := IsCorrect(q, answers[q.ID])
		res.Correct[q.ID] = ok
		if ok {
			res.CorrectCount++
		}
	}

	if res.TotalCount > 0 {
		res.Score = res.CorrectCount * totalScore / res.TotalCount
	}
	return res
}
