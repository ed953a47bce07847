package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WrongQuestionFilter narrows notebook listings.
type WrongQuestionFilter struct {
	ErrorType  *model.ErrorType
	IsMastered *bool
}

// WrongQuestionRepository handles wrong-question notebook data access.
type WrongQuestionRepository struct {
	pool *pgxpool.Pool
}

// NewWrongQuestionRepository creates a new WrongQuestionRepository.
func NewWrongQuestionRepository(pool *pgxpool.Pool) *WrongQuestionRepository {
	return &WrongQuestionRepository{pool: pool}
}

const wrongQuestionColumns = `id, user_id, question_id, wrong_count, first_wrong_time,
	last_wrong_time, last_wrong_answer, error_type, is_mastered, mastered_time, note`

func scanWrongQuestion(row pgx.Row) (*model.WrongQuestion, error) {
	w := &model.WrongQuestion{}
	err := row.Scan(&w.ID, &w.UserID, &w.QuestionID, &w.WrongCount, &w.FirstWrongTime,
		&w.LastWrongTime, &w.LastWrongAnswer, &w.ErrorType, &w.IsMastered, &w.MasteredTime, &w.Note)
	if err != nil {
		return nil, err
	}
	return w, nil
}

// Upsert records one wrong answer: creates the per-(user, question) entry
// with wrong_count 1, or bumps the existing one and clears mastery. The
// entry's error_type is preserved across updates.
func (r *WrongQuestionRepository) Upsert(ctx context.Context, userID, questionID int64, wrongAnswer string, now time.Time) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wrong_questions
		   (user_id, question_id, wrong_count, first_wrong_time, last_wrong_time,
		    last_wrong_answer, error_type, is_mastered)
		 VALUES ($1, $2, 1, $3, $3, $4, $5, FALSE)
		 ON CONFLICT (user_id, question_id) DO UPDATE
		 SET wrong_count = wrong_questions.wrong_count + 1,
		     last_wrong_time = EXCLUDED.last_wrong_time,
		     last_wrong_answer = EXCLUDED.last_wrong_answer,
		     is_mastered = FALSE,
		     mastered_time = NULL`,
		userID, questionID, now, wrongAnswer, model.ErrorTypeOther)
	return err
}

// GetByID retrieves one notebook entry.
func (r *WrongQuestionRepository) GetByID(ctx context.Context, id int64) (*model.WrongQuestion, error) {
	return scanWrongQuestion(r.pool.QueryRow(ctx,
		`SELECT `+wrongQuestionColumns+` FROM wrong_questions WHERE id = $1`, id))
}

// GetByUserAndQuestion retrieves the entry for a (user, question) pair.
func (r *WrongQuestionRepository) GetByUserAndQuestion(ctx context.Context, userID, questionID int64) (*model.WrongQuestion, error) {
	return scanWrongQuestion(r.pool.QueryRow(ctx,
		`SELECT `+wrongQuestionColumns+` FROM wrong_questions
		 WHERE user_id = $1 AND question_id = $2`, userID, questionID))
}

// ListByUser retrieves a user's notebook page, most recently wrong first.
func (r *WrongQuestionRepository) ListByUser(ctx context.Context, userID int64, filter WrongQuestionFilter, page, perPage int) ([]model.WrongQuestion, int64, error) {
	base := ` FROM wrong_questions WHERE user_id = $1`
	args := []any{userID}

	if filter.ErrorType != nil {
		args = append(args, *filter.ErrorType)
		base += fmt.Sprintf(" AND error_type = $%d", len(args))
	}
	if filter.IsMastered != nil {
		args = append(args, *filter.IsMastered)
		base += fmt.Sprintf(" AND is_mastered = $%d", len(args))
	}

	var total int64
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*)"+base, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, perPage, (page-1)*perPage)
	query := "SELECT " + wrongQuestionColumns + base +
		fmt.Sprintf(" ORDER BY last_wrong_time DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []model.WrongQuestion
	for rows.Next() {
		w, err := scanWrongQuestion(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, *w)
	}
	return entries, total, rows.Err()
}

// Update persists the user-editable fields of an entry.
func (r *WrongQuestionRepository) Update(ctx context.Context, w *model.WrongQuestion) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE wrong_questions
		 SET error_type = $1, is_mastered = $2, mastered_time = $3, note = $4
		 WHERE id = $5`,
		w.ErrorType, w.IsMastered, w.MasteredTime, w.Note, w.ID)
	return err
}

// Delete removes an entry.
func (r *WrongQuestionRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM wrong_questions WHERE id = $1`, id)
	return err
}
