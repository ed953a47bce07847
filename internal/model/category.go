package model

import (
	"sort"
	"time"
)

// Category is a node of the question category tree.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ParentID    *int64    `json:"parent_id,omitempty"`
	Description string    `json:"description,omitempty"`
	Order       int       `json:"order"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateCategoryRequest is the payload for creating a category.
type CreateCategoryRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=100"`
	ParentID    *int64 `json:"parent_id" binding:"omitempty"`
	Description string `json:"description" binding:"omitempty,max=1000"`
	Order       int    `json:"order" binding:"omitempty,min=0"`
}

// UpdateCategoryRequest is the payload for updating a category.
type UpdateCategoryRequest struct {
	Name        string  `json:"name" binding:"omitempty,min=1,max=100"`
	ParentID    *int64  `json:"parent_id" binding:"omitempty"`
	Description *string `json:"description" binding:"omitempty,max=1000"`
	Order       *int    `json:"order" binding:"omitempty,min=0"`
	IsActive    *bool   `json:"is_active" binding:"omitempty"`
}

// CategoryTree is an in-memory view of the category forest supporting
// ancestor/descendant queries. The sampler uses it for transitive category
// filters instead of recursive SQL.
type CategoryTree struct {
	nodes    map[int64]*Category
	children map[int64][]int64
}

// NewCategoryTree builds a tree from a flat category list. Children are
// ordered by (order, name) so traversal is deterministic.
func NewCategoryTree(categories []Category) *CategoryTree {
	t := &CategoryTree{
		nodes:    make(map[int64]*Category, len(categories)),
		children: make(map[int64][]int64),
	}
	for i := range categories {
		c := &categories[i]
		t.nodes[c.ID] = c
		if c.ParentID != nil {
			t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
		}
	}
	for parent, ids := range t.children {
		sort.Slice(ids, func(i, j int) bool {
			a, b := t.nodes[ids[i]], t.nodes[ids[j]]
			if a.Order != b.Order {
				return a.Order < b.Order
			}
			return a.Name < b.Name
		})
		t.children[parent] = ids
	}
	return t
}

// Contains reports whether the tree has a node with the given ID.
func (t *CategoryTree) Contains(id int64) bool {
	_, ok := t.nodes[id]
	return ok
}

// DescendantIDs returns the IDs of the subtree rooted at id (inclusive) in
// depth-first order. Unknown IDs yield nil.
func (t *CategoryTree) DescendantIDs(id int64) []int64 {
	if !t.Contains(id) {
		return nil
	}
	var out []int64
	var walk func(int64)
	walk = func(n int64) {
		out = append(out, n)
		for _, child := range t.children[n] {
			walk(child)
		}
	}
	walk(id)
	return out
}

// DescendantSet expands a list of category IDs into the union of their
// subtrees.
func (t *CategoryTree) DescendantSet(ids []int64) map[int64]struct{} {
	set := make(map[int64]struct{})
	for _, id := range ids {
		for _, d := range t.DescendantIDs(id) {
			set[d] = struct{}{}
		}
	}
	return set
}
