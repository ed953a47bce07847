package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PaperRepository handles exam paper data access.
type PaperRepository struct {
	pool *pgxpool.Pool
}

// NewPaperRepository creates a new PaperRepository.
func NewPaperRepository(pool *pgxpool.Pool) *PaperRepository {
	return &PaperRepository{pool: pool}
}

const paperColumns = `id, title, description, duration_minutes, total_score, question_count,
	paper_type, difficulty_distribution, filter_categories, filter_tags, fixed_questions,
	use_import_order, is_active, created_by, created_at, updated_at`

func scanPaper(row pgx.Row) (*model.Paper, error) {
	p := &model.Paper{}
	var distribution []byte
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.DurationMinutes, &p.TotalScore,
		&p.QuestionCount, &p.PaperType, &distribution, &p.CategoryIDs, &p.TagIDs,
		&p.FixedQuestionIDs, &p.UseImportOrder, &p.IsActive, &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(distribution) > 0 {
		if err := json.Unmarshal(distribution, &p.Distribution); err != nil {
			return nil, fmt.Errorf("decode difficulty distribution: %w", err)
		}
	}
	return p, nil
}

// GetByID retrieves a single paper.
func (r *PaperRepository) GetByID(ctx context.Context, id int64) (*model.Paper, error) {
	return scanPaper(r.pool.QueryRow(ctx,
		`SELECT `+paperColumns+` FROM papers WHERE id = $1`, id))
}

// List retrieves a paginated paper page plus the total count. When
// activeOnly is set, inactive papers are excluded.
func (r *PaperRepository) List(ctx context.Context, activeOnly bool, page, perPage int) ([]model.Paper, int64, error) {
	base := ` FROM papers WHERE TRUE`
	var args []any
	if activeOnly {
		base += " AND is_active"
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	query := "SELECT " + paperColumns + base +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var papers []model.Paper
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, 0, err
		}
		papers = append(papers, *p)
	}
	return papers, total, rows.Err()
}

// Create inserts a new paper.
func (r *PaperRepository) Create(ctx context.Context, p *model.Paper) error {
	distribution, err := json.Marshal(p.Distribution)
	if err != nil {
		return fmt.Errorf("encode difficulty distribution: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO papers (title, description, duration_minutes, total_score, question_count,
		                     paper_type, difficulty_distribution, filter_categories, filter_tags,
		                     fixed_questions, use_import_order, is_active, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at, updated_at`,
		p.Title, p.Description, p.DurationMinutes, p.TotalScore, p.QuestionCount,
		p.PaperType, distribution, p.CategoryIDs, p.TagIDs,
		p.FixedQuestionIDs, p.UseImportOrder, p.IsActive, p.CreatedBy,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Update persists mutable paper fields. Existing sessions keep their frozen
// question lists; edits only affect future sessions.
func (r *PaperRepository) Update(ctx context.Context, p *model.Paper) error {
	distribution, err := json.Marshal(p.Distribution)
	if err != nil {
		return fmt.Errorf("encode difficulty distribution: %w", err)
	}
	_, err = r.pool.Exec(ctx,
		`UPDATE papers
		 SET title = $1, description = $2, duration_minutes = $3, total_score = $4,
		     question_count = $5, difficulty_distribution = $6, filter_categories = $7,
		     filter_tags = $8, fixed_questions = $9, use_import_order = $10,
		     is_active = $11, updated_at = NOW()
		 WHERE id = $12`,
		p.Title, p.Description, p.DurationMinutes, p.TotalScore,
		p.QuestionCount, distribution, p.CategoryIDs,
		p.TagIDs, p.FixedQuestionIDs, p.UseImportOrder,
		p.IsActive, p.ID)
	return err
}

// Delete removes a paper.
func (r *PaperRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM papers WHERE id = $1`, id)
	return err
}
