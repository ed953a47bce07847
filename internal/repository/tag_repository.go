package repository

import (
	"context"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TagRepository handles tag data access.
type TagRepository struct {
	pool *pgxpool.Pool
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(pool *pgxpool.Pool) *TagRepository {
	return &TagRepository{pool: pool}
}

// ListAll retrieves every tag ordered by name.
func (r *TagRepository) ListAll(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, color, created_at FROM question_tags ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Color, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Create inserts a new tag.
func (r *TagRepository) Create(ctx context.Context, t *model.Tag) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_tags (name, color)
		 VALUES ($1, $2)
		 RETURNING id, created_at`,
		t.Name, t.Color,
	).Scan(&t.ID, &t.CreatedAt)
}

// Delete removes a tag and its question links.
func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM question_tags WHERE id = $1`, id)
	return err
}
