package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

// QuestionService handles question bank management.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	categoryRepo *repository.CategoryRepository
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, categoryRepo *repository.CategoryRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo, categoryRepo: categoryRepo}
}

// Get retrieves one question.
func (s *QuestionService) Get(ctx context.Context, id int64) (*model.Question, error) {
	q, err := s.questionRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get question: %w", err)
	}
	return q, nil
}

// List retrieves a filtered question page.
func (s *QuestionService) List(ctx context.Context, filter repository.QuestionFilter, page, perPage int) ([]model.Question, int64, error) {
	return s.questionRepo.List(ctx, filter, page, perPage)
}

// Create validates and stores a new question.
func (s *QuestionService) Create(ctx context.Context, req *model.CreateQuestionRequest, createdBy int64) (*model.Question, error) {
	difficulty, err := model.ParseDifficulty(req.Difficulty)
	if err != nil {
		return nil, err
	}

	qType := model.QuestionType(req.QuestionType)
	if err := validateCorrectAnswer(qType, req.Options, req.CorrectAnswer); err != nil {
		return nil, err
	}

	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
	}

	q := &model.Question{
		DisplayID:     req.DisplayID,
		Title:         req.Title,
		Body:          req.Body,
		Type:          qType,
		Options:       req.Options,
		CorrectAnswer: normalizeCorrectAnswer(req.CorrectAnswer),
		Explanation:   req.Explanation,
		Difficulty:    difficulty,
		Score:         req.Score,
		CategoryID:    req.CategoryID,
		TagIDs:        req.TagIDs,
		Visible:       true,
		IsPublic:      true,
		CreatedBy:     createdBy,
	}
	if q.Score == 0 {
		q.Score = 1
	}
	if req.Visible != nil {
		q.Visible = *req.Visible
	}
	if req.IsPublic != nil {
		q.IsPublic = *req.IsPublic
	}

	if err := s.questionRepo.Create(ctx, q); err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return q, nil
}

// Update applies a partial update to a question.
func (s *QuestionService) Update(ctx context.Context, id int64, req *model.UpdateQuestionRequest) (*model.Question, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		q.Title = req.Title
	}
	if req.Body != nil {
		q.Body = *req.Body
	}
	if req.QuestionType != "" {
		q.Type = model.QuestionType(req.QuestionType)
	}
	if len(req.Options) > 0 {
		q.Options = req.Options
	}
	if req.CorrectAnswer != "" {
		q.CorrectAnswer = normalizeCorrectAnswer(req.CorrectAnswer)
	}
	if req.Explanation != nil {
		q.Explanation = *req.Explanation
	}
	if req.Difficulty != "" {
		difficulty, err := model.ParseDifficulty(req.Difficulty)
		if err != nil {
			return nil, err
		}
		q.Difficulty = difficulty
	}
	if req.Score != nil {
		q.Score = *req.Score
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		q.CategoryID = req.CategoryID
	}
	if req.TagIDs != nil {
		q.TagIDs = req.TagIDs
	}
	if req.Visible != nil {
		q.Visible = *req.Visible
	}
	if req.IsPublic != nil {
		q.IsPublic = *req.IsPublic
	}

	if err := validateCorrectAnswer(q.Type, q.Options, q.CorrectAnswer); err != nil {
		return nil, err
	}

	if err := s.questionRepo.Update(ctx, q); err != nil {
		return nil, fmt.Errorf("update question: %w", err)
	}
	return q, nil
}

// Delete removes a question. Sessions keep their frozen question ID lists;
// deleted questions simply stop appearing in new papers.
func (s *QuestionService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.questionRepo.Delete(ctx, id)
}

func (s *QuestionService) checkCategory(ctx context.Context, categoryID int64) error {
	if _, err := s.categoryRepo.GetByID(ctx, categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("category %d does not exist", categoryID)
		}
		return fmt.Errorf("check category: %w", err)
	}
	return nil
}

// validateCorrectAnswer checks that every key of the correct answer exists
// among the options and that the key count matches the question type.
func validateCorrectAnswer(qType model.QuestionType, options []model.Option, correct string) error {
	keys := model.MultiAnswer(strings.Split(correct, ",")...).KeySet()
	if len(keys) == 0 {
		return errors.New("correct answer must name at least one option key")
	}
	if qType == model.QuestionTypeSingle && len(keys) != 1 {
		return errors.New("single-choice questions take exactly one correct key")
	}
	if qType == model.QuestionTypeMultiple && len(keys) < 2 {
		return errors.New("multi-choice questions take at least two correct keys")
	}

	known := make(map[string]struct{}, len(options))
	for _, opt := range options {
		known[opt.Key] = struct{}{}
	}
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			return fmt.Errorf("correct answer references unknown option key %q", key)
		}
	}
	return nil
}

// normalizeCorrectAnswer rewrites the stored form as trimmed, sorted,
// comma-joined keys.
func normalizeCorrectAnswer(correct string) string {
	return strings.Join(model.MultiAnswer(strings.Split(correct, ",")...).KeySet(), ",")
}
