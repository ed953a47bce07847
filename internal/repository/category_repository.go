package repository

import (
	"context"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// CategoryRepository handles category data access.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// ListAll retrieves every category ordered by (order, name). The sampler
// builds its in-memory tree from this list.
func (r *CategoryRepository) ListAll(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, parent_id, description, ord, is_active, created_at
		 FROM categories
		 ORDER BY ord, name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.ParentID, &c.Description, &c.Order, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetByID retrieves a single category.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*model.Category, error) {
	c := &model.Category{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, parent_id, description, ord, is_active, created_at
		 FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.ParentID, &c.Description, &c.Order, &c.IsActive, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new category.
func (r *CategoryRepository) Create(ctx context.Context, c *model.Category) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO categories (name, parent_id, description, ord, is_active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at`,
		c.Name, c.ParentID, c.Description, c.Order, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt)
}

// Update persists mutable category fields.
func (r *CategoryRepository) Update(ctx context.Context, c *model.Category) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE categories
		 SET name = $1, parent_id = $2, description = $3, ord = $4, is_active = $5
		 WHERE id = $6`,
		c.Name, c.ParentID, c.Description, c.Order, c.IsActive, c.ID)
	return err
}

// HasDependents reports whether the category has child categories or
// questions attached.
func (r *CategoryRepository) HasDependents(ctx context.Context, id int64) (bool, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT (SELECT COUNT(*) FROM categories WHERE parent_id = $1)
		      + (SELECT COUNT(*) FROM questions WHERE category_id = $1)`, id,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Delete removes a category.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	return err
}
