package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionFilter narrows admin question listings.
type QuestionFilter struct {
	CategoryID *int64
	TagID      *int64
	Difficulty *model.Difficulty
	Type       *model.QuestionType
	Keyword    string
	Visible    *bool
}

// QuestionRepository handles question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, display_id, title, body, question_type, options, correct_answer,
	explanation, difficulty, score, category_id, visible, is_public, created_by, created_at, updated_at`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	q := &model.Question{}
	var options []byte
	err := row.Scan(&q.ID, &q.DisplayID, &q.Title, &q.Body, &q.Type, &options, &q.CorrectAnswer,
		&q.Explanation, &q.Difficulty, &q.Score, &q.CategoryID, &q.Visible, &q.IsPublic,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("decode options: %w", err)
	}
	return q, nil
}

// GetByID retrieves a single question with its tag IDs.
func (r *QuestionRepository) GetByID(ctx context.Context, id int64) (*model.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT tag_id FROM question_tag_links WHERE question_id = $1 ORDER BY tag_id`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var tagID int64
		if err := rows.Scan(&tagID); err != nil {
			return nil, err
		}
		q.TagIDs = append(q.TagIDs, tagID)
	}
	return q, rows.Err()
}

// ListByIDs retrieves questions by ID. Missing IDs are silently skipped;
// result order follows the input order.
func (r *QuestionRepository) ListByIDs(ctx context.Context, ids []int64) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[int64]model.Question, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		byID[q.ID] = *q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]model.Question, 0, len(byID))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			ordered = append(ordered, q)
		}
	}
	return ordered, nil
}

// ListCandidates retrieves the sampler's candidate pool: visible, public
// questions restricted to the given categories and tags. Empty filter
// slices mean no restriction on that axis.
func (r *QuestionRepository) ListCandidates(ctx context.Context, categoryIDs, tagIDs []int64) ([]model.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE visible AND is_public`
	var args []any

	if len(categoryIDs) > 0 {
		args = append(args, categoryIDs)
		query += fmt.Sprintf(" AND category_id = ANY($%d)", len(args))
	}
	if len(tagIDs) > 0 {
		args = append(args, tagIDs)
		query += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM question_tag_links l
			WHERE l.question_id = questions.id AND l.tag_id = ANY($%d))`, len(args))
	}
	query += " ORDER BY id"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// List retrieves a filtered, paginated question page plus the total count.
func (r *QuestionRepository) List(ctx context.Context, filter QuestionFilter, page, perPage int) ([]model.Question, int64, error) {
	base := ` FROM questions WHERE TRUE`
	var args []any

	if filter.CategoryID != nil {
		args = append(args, *filter.CategoryID)
		base += fmt.Sprintf(" AND category_id = $%d", len(args))
	}
	if filter.TagID != nil {
		args = append(args, *filter.TagID)
		base += fmt.Sprintf(` AND EXISTS (
			SELECT 1 FROM question_tag_links l
			WHERE l.question_id = questions.id AND l.tag_id = $%d)`, len(args))
	}
	if filter.Difficulty != nil {
		args = append(args, *filter.Difficulty)
		base += fmt.Sprintf(" AND difficulty = $%d", len(args))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		base += fmt.Sprintf(" AND question_type = $%d", len(args))
	}
	if filter.Visible != nil {
		args = append(args, *filter.Visible)
		base += fmt.Sprintf(" AND visible = $%d", len(args))
	}
	if filter.Keyword != "" {
		args = append(args, "%"+filter.Keyword+"%")
		base += fmt.Sprintf(" AND (title ILIKE $%d OR display_id ILIKE $%d)", len(args), len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	query := "SELECT " + questionColumns + base +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		questions = append(questions, *q)
	}
	return questions, total, rows.Err()
}

// Create inserts a new question and its tag links.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO questions (display_id, title, body, question_type, options, correct_answer,
		                        explanation, difficulty, score, category_id, visible, is_public, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at, updated_at`,
		q.DisplayID, q.Title, q.Body, q.Type, options, q.CorrectAnswer,
		q.Explanation, q.Difficulty, q.Score, q.CategoryID, q.Visible, q.IsPublic, q.CreatedBy,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return err
	}

	if err := replaceTagLinks(ctx, tx, q.ID, q.TagIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Update persists mutable question fields and replaces tag links.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) error {
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("encode options: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE questions
		 SET title = $1, body = $2, question_type = $3, options = $4, correct_answer = $5,
		     explanation = $6, difficulty = $7, score = $8, category_id = $9,
		     visible = $10, is_public = $11, updated_at = NOW()
		 WHERE id = $12`,
		q.Title, q.Body, q.Type, options, q.CorrectAnswer,
		q.Explanation, q.Difficulty, q.Score, q.CategoryID,
		q.Visible, q.IsPublic, q.ID)
	if err != nil {
		return err
	}

	if err := replaceTagLinks(ctx, tx, q.ID, q.TagIDs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// Delete removes a question.
func (r *QuestionRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	return err
}

func replaceTagLinks(ctx context.Context, tx pgx.Tx, questionID int64, tagIDs []int64) error {
	if _, err := tx.Exec(ctx,
		`DELETE FROM question_tag_links WHERE question_id = $1`, questionID); err != nil {
		return err
	}
	for _, tagID := range tagIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO question_tag_links (question_id, tag_id) VALUES ($1, $2)
			 ON CONFLICT DO NOTHING`, questionID, tagID); err != nil {
			return err
		}
	}
	return nil
}
