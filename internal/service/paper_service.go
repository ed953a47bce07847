package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/repository"
	"github.com/codearena/mcq-backend/internal/sampler"
	"github.com/jackc/pgx/v5"
)

// PaperService handles exam paper management.
type PaperService struct {
	paperRepo    *repository.PaperRepository
	questionRepo *repository.QuestionRepository
	categoryRepo *repository.CategoryRepository
}

// NewPaperService creates a new PaperService.
func NewPaperService(
	paperRepo *repository.PaperRepository,
	questionRepo *repository.QuestionRepository,
	categoryRepo *repository.CategoryRepository,
) *PaperService {
	return &PaperService{
		paperRepo:    paperRepo,
		questionRepo: questionRepo,
		categoryRepo: categoryRepo,
	}
}

// Get retrieves one paper.
func (s *PaperService) Get(ctx context.Context, id int64) (*model.Paper, error) {
	p, err := s.paperRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}
	return p, nil
}

// List retrieves a paginated paper page. Non-admin callers only see active
// papers.
func (s *PaperService) List(ctx context.Context, activeOnly bool, page, perPage int) ([]model.Paper, int64, error) {
	return s.paperRepo.List(ctx, activeOnly, page, perPage)
}

// Create validates and stores a new paper.
func (s *PaperService) Create(ctx context.Context, req *model.CreatePaperRequest, createdBy int64) (*model.Paper, error) {
	paperType := model.PaperTypeGenerated
	if req.PaperType != "" {
		paperType = model.PaperType(req.PaperType)
	}

	distribution, err := parseDistribution(req.Distribution)
	if err != nil {
		return nil, err
	}

	p := &model.Paper{
		Title:            req.Title,
		Description:      req.Description,
		DurationMinutes:  req.DurationMinutes,
		TotalScore:       req.TotalScore,
		QuestionCount:    req.QuestionCount,
		PaperType:        paperType,
		Distribution:     distribution,
		CategoryIDs:      req.CategoryIDs,
		TagIDs:           req.TagIDs,
		FixedQuestionIDs: req.FixedQuestionIDs,
		IsActive:         true,
		CreatedBy:        createdBy,
	}
	if req.UseImportOrder != nil {
		p.UseImportOrder = *req.UseImportOrder
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.validate(p); err != nil {
		return nil, err
	}
	if err := s.paperRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create paper: %w", err)
	}
	return p, nil
}

// Update applies a partial update to a paper. Edits never touch existing
// sessions; they only shape sessions created afterwards.
func (s *PaperService) Update(ctx context.Context, id int64, req *model.UpdatePaperRequest) (*model.Paper, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != "" {
		p.Title = req.Title
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.DurationMinutes != nil {
		p.DurationMinutes = *req.DurationMinutes
	}
	if req.TotalScore != nil {
		p.TotalScore = *req.TotalScore
	}
	if req.QuestionCount != nil {
		p.QuestionCount = *req.QuestionCount
	}
	if req.Distribution != nil {
		distribution, err := parseDistribution(req.Distribution)
		if err != nil {
			return nil, err
		}
		p.Distribution = distribution
	}
	if req.CategoryIDs != nil {
		p.CategoryIDs = req.CategoryIDs
	}
	if req.TagIDs != nil {
		p.TagIDs = req.TagIDs
	}
	if req.FixedQuestionIDs != nil {
		p.FixedQuestionIDs = req.FixedQuestionIDs
	}
	if req.UseImportOrder != nil {
		p.UseImportOrder = *req.UseImportOrder
	}
	if req.IsActive != nil {
		p.IsActive = *req.IsActive
	}

	if err := s.validate(p); err != nil {
		return nil, err
	}
	if err := s.paperRepo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update paper: %w", err)
	}
	return p, nil
}

// Delete removes a paper.
func (s *PaperService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.paperRepo.Delete(ctx, id)
}

// Preview performs a dry-run assembly of the paper so admins can check the
// pool supports the configuration. The sampled questions are returned in
// full, including answers; nothing is persisted.
func (s *PaperService) Preview(ctx context.Context, id int64, seed int64) ([]model.Question, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	assembler := sampler.New(s.questionRepo, s.categoryRepo)
	ids, err := assembler.Assemble(ctx, p, sampler.SeededRNG(seed))
	if err != nil {
		if errors.Is(err, sampler.ErrInsufficientQuestions) {
			return nil, ErrInsufficientQuestions
		}
		return nil, fmt.Errorf("assemble paper: %w", err)
	}
	return s.questionRepo.ListByIDs(ctx, ids)
}

// validate applies the cross-field paper rules.
func (s *PaperService) validate(p *model.Paper) error {
	switch p.PaperType {
	case model.PaperTypeFixed:
		if len(p.FixedQuestionIDs) == 0 {
			return errors.New("fixed papers require a question list")
		}
	case model.PaperTypeGenerated:
		if p.Distribution.Total() > p.QuestionCount {
			return errors.New("difficulty distribution exceeds question count")
		}
	default:
		return fmt.Errorf("unknown paper type %q", p.PaperType)
	}
	return nil
}

// parseDistribution coerces the wire distribution (free-form difficulty
// spellings) into the canonical enum-keyed map.
func parseDistribution(raw map[string]int) (model.DifficultyDistribution, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	out := make(model.DifficultyDistribution, len(raw))
	for key, count := range raw {
		difficulty, err := model.ParseDifficulty(key)
		if err != nil {
			return nil, err
		}
		if count < 0 {
			return nil, fmt.Errorf("negative count for difficulty %q", key)
		}
		out[difficulty] += count
	}
	return out, nil
}
