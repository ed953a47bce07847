package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

// WrongQuestionService handles the per-user wrong-question notebook.
type WrongQuestionService struct {
	wrongRepo    *repository.WrongQuestionRepository
	questionRepo *repository.QuestionRepository

	now func() time.Time
}

// NewWrongQuestionService creates a new WrongQuestionService.
func NewWrongQuestionService(wrongRepo *repository.WrongQuestionRepository, questionRepo *repository.QuestionRepository) *WrongQuestionService {
	return &WrongQuestionService{
		wrongRepo:    wrongRepo,
		questionRepo: questionRepo,
		now:          time.Now,
	}
}

// NotebookEntry pairs a notebook entry with its question for review pages.
type NotebookEntry struct {
	model.WrongQuestion
	Question *model.Question `json:"question,omitempty"`
}

// List retrieves a user's notebook page with questions attached.
func (s *WrongQuestionService) List(ctx context.Context, userID int64, filter repository.WrongQuestionFilter, page, perPage int) ([]NotebookEntry, int64, error) {
	entries, total, err := s.wrongRepo.ListByUser(ctx, userID, filter, page, perPage)
	if err != nil {
		return nil, 0, fmt.Errorf("list wrong questions: %w", err)
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.QuestionID)
	}
	questions, err := s.questionRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, 0, fmt.Errorf("load questions: %w", err)
	}
	byID := make(map[int64]*model.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID] = &questions[i]
	}

	out := make([]NotebookEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, NotebookEntry{WrongQuestion: e, Question: byID[e.QuestionID]})
	}
	return out, total, nil
}

// Update edits the user-owned fields of a notebook entry.
func (s *WrongQuestionService) Update(ctx context.Context, userID, id int64, req *model.UpdateWrongQuestionRequest) (*model.WrongQuestion, error) {
	w, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	if req.ErrorType != "" {
		errorType := model.ErrorType(req.ErrorType)
		if !errorType.Valid() {
			return nil, fmt.Errorf("unknown error type %q", req.ErrorType)
		}
		w.ErrorType = errorType
	}
	if req.Note != nil {
		w.Note = *req.Note
	}

	if err := s.wrongRepo.Update(ctx, w); err != nil {
		return nil, fmt.Errorf("update wrong question: %w", err)
	}
	return w, nil
}

// SetMastered flags or unflags an entry as mastered. A later wrong answer
// to the same question clears the flag again.
func (s *WrongQuestionService) SetMastered(ctx context.Context, userID, id int64, mastered bool) (*model.WrongQuestion, error) {
	w, err := s.getOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	w.IsMastered = mastered
	if mastered {
		now := s.now()
		w.MasteredTime = &now
	} else {
		w.MasteredTime = nil
	}

	if err := s.wrongRepo.Update(ctx, w); err != nil {
		return nil, fmt.Errorf("update wrong question: %w", err)
	}
	return w, nil
}

// Delete removes an entry from the user's notebook.
func (s *WrongQuestionService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.getOwned(ctx, userID, id); err != nil {
		return err
	}
	return s.wrongRepo.Delete(ctx, id)
}

// PracticeFeed returns the user's unmastered questions for re-practice,
// answers stripped.
func (s *WrongQuestionService) PracticeFeed(ctx context.Context, userID int64, limit int) ([]model.QuestionForExam, error) {
	mastered := false
	entries, _, err := s.wrongRepo.ListByUser(ctx, userID,
		repository.WrongQuestionFilter{IsMastered: &mastered}, 1, limit)
	if err != nil {
		return nil, fmt.Errorf("list wrong questions: %w", err)
	}

	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.QuestionID)
	}
	questions, err := s.questionRepo.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}

	feed := make([]model.QuestionForExam, 0, len(questions))
	for i := range questions {
		feed = append(feed, questions[i].ForExam())
	}
	return feed, nil
}

func (s *WrongQuestionService) getOwned(ctx context.Context, userID, id int64) (*model.WrongQuestion, error) {
	w, err := s.wrongRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get wrong question: %w", err)
	}
	if w.UserID != userID {
		return nil, ErrForbidden
	}
	return w, nil
}
