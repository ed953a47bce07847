package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/repository"
	"github.com/jackc/pgx/v5"
)

// CategoryService handles the question category tree.
type CategoryService struct {
	categoryRepo *repository.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(categoryRepo *repository.CategoryRepository) *CategoryService {
	return &CategoryService{categoryRepo: categoryRepo}
}

// CategoryNode is a category with its children, for tree responses.
type CategoryNode struct {
	model.Category
	Children []CategoryNode `json:"children,omitempty"`
}

// Tree returns the full category forest as nested nodes.
func (s *CategoryService) Tree(ctx context.Context) ([]CategoryNode, error) {
	categories, err := s.categoryRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	tree := model.NewCategoryTree(categories)

	byID := make(map[int64]model.Category, len(categories))
	var roots []int64
	for _, c := range categories {
		byID[c.ID] = c
		if c.ParentID == nil {
			roots = append(roots, c.ID)
		}
	}

	var build func(id int64) CategoryNode
	build = func(id int64) CategoryNode {
		node := CategoryNode{Category: byID[id]}
		for _, child := range tree.DescendantIDs(id) {
			if child == id {
				continue
			}
			c := byID[child]
			if c.ParentID != nil && *c.ParentID == id {
				node.Children = append(node.Children, build(child))
			}
		}
		return node
	}

	nodes := make([]CategoryNode, 0, len(roots))
	for _, root := range roots {
		nodes = append(nodes, build(root))
	}
	return nodes, nil
}

// Get retrieves one category.
func (s *CategoryService) Get(ctx context.Context, id int64) (*model.Category, error) {
	c, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// Create validates and stores a new category.
func (s *CategoryService) Create(ctx context.Context, req *model.CreateCategoryRequest) (*model.Category, error) {
	if req.ParentID != nil {
		if _, err := s.Get(ctx, *req.ParentID); err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("parent category %d does not exist", *req.ParentID)
			}
			return nil, err
		}
	}

	c := &model.Category{
		Name:        req.Name,
		ParentID:    req.ParentID,
		Description: req.Description,
		Order:       req.Order,
		IsActive:    true,
	}
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

// Update applies a partial update to a category. Reparenting under the
// node's own subtree is rejected to keep the forest acyclic.
func (s *CategoryService) Update(ctx context.Context, id int64, req *model.UpdateCategoryRequest) (*model.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		categories, err := s.categoryRepo.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("list categories: %w", err)
		}
		tree := model.NewCategoryTree(categories)
		if !tree.Contains(*req.ParentID) {
			return nil, fmt.Errorf("parent category %d does not exist", *req.ParentID)
		}
		for _, d := range tree.DescendantIDs(id) {
			if d == *req.ParentID {
				return nil, errors.New("cannot move a category under its own subtree")
			}
		}
		c.ParentID = req.ParentID
	}
	if req.Name != "" {
		c.Name = req.Name
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Order != nil {
		c.Order = *req.Order
	}
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}

	if err := s.categoryRepo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Delete removes a category. Categories with child categories or questions
// attached are refused.
func (s *CategoryService) Delete(ctx context.Context, id int64) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	hasDeps, err := s.categoryRepo.HasDependents(ctx, id)
	if err != nil {
		return fmt.Errorf("check dependents: %w", err)
	}
	if hasDeps {
		return ErrDependencyExists
	}
	return s.categoryRepo.Delete(ctx, id)
}
