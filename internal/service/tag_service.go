package service

import (
	"context"
	"fmt"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/repository"
)

// TagService handles question tags.
type TagService struct {
	tagRepo *repository.TagRepository
}

// NewTagService creates a new TagService.
func NewTagService(tagRepo *repository.TagRepository) *TagService {
	return &TagService{tagRepo: tagRepo}
}

// List retrieves all tags.
func (s *TagService) List(ctx context.Context) ([]model.Tag, error) {
	return s.tagRepo.ListAll(ctx)
}

// Create stores a new tag.
func (s *TagService) Create(ctx context.Context, req *model.CreateTagRequest) (*model.Tag, error) {
	t := &model.Tag{Name: req.Name, Color: req.Color}
	if err := s.tagRepo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return t, nil
}

// Delete removes a tag and its question links.
func (s *TagService) Delete(ctx context.Context, id int64) error {
	return s.tagRepo.Delete(ctx, id)
}
