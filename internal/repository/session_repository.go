package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SessionRepository handles exam session data access. All mutations of an
// existing session go through Mutate, which serialises concurrent writers
// on a row-level lock.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

const sessionColumns = `id, paper_id, user_id, status, questions, answers,
	start_time, submit_time, end_time, score, correct_count, total_count,
	tab_switches, copy_attempts, integrity_events, created_at, updated_at`

func scanSession(row pgx.Row) (*model.Session, error) {
	s := &model.Session{}
	var answers, events []byte
	err := row.Scan(&s.ID, &s.PaperID, &s.UserID, &s.Status, &s.Questions, &answers,
		&s.StartTime, &s.SubmitTime, &s.EndTime, &s.Score, &s.CorrectCount, &s.TotalCount,
		&s.TabSwitches, &s.CopyAttempts, &events, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(answers) > 0 {
		if err := json.Unmarshal(answers, &s.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
	}
	if s.Answers == nil {
		s.Answers = make(map[int64]model.Answer)
	}
	if len(events) > 0 {
		if err := json.Unmarshal(events, &s.IntegrityEvents); err != nil {
			return nil, fmt.Errorf("decode integrity events: %w", err)
		}
	}
	return s, nil
}

// Create inserts a new session. If an open session already exists for the
// same (paper, user), the insert is a no-op and pgx.ErrNoRows is returned;
// callers resume the existing session instead.
func (r *SessionRepository) Create(ctx context.Context, s *model.Session) error {
	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO exam_sessions (paper_id, user_id, status, questions, answers, total_count, integrity_events)
		 VALUES ($1, $2, $3, $4, $5, $6, '[]'::jsonb)
		 ON CONFLICT (paper_id, user_id) WHERE status IN ('created', 'started') DO NOTHING
		 RETURNING id, created_at, updated_at`,
		s.PaperID, s.UserID, s.Status, s.Questions, answers, s.TotalCount,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

// GetByID retrieves a session.
func (r *SessionRepository) GetByID(ctx context.Context, id int64) (*model.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1`, id))
}

// GetOpenByPaperAndUser retrieves the open (created or started) session for
// a (paper, user) pair, if any.
func (r *SessionRepository) GetOpenByPaperAndUser(ctx context.Context, paperID, userID int64) (*model.Session, error) {
	return scanSession(r.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE paper_id = $1 AND user_id = $2 AND status IN ('created', 'started')`,
		paperID, userID))
}

// ListByUser retrieves all sessions of a user, newest first.
func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]model.Session, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions
		 WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// Mutate loads the session under SELECT ... FOR UPDATE, applies fn and
// persists the result in the same transaction. If fn returns an error the
// transaction rolls back and nothing is written. This is the per-session
// exclusive write guard: concurrent mutations of one session apply in some
// serial order, mutations of different sessions proceed independently.
func (r *SessionRepository) Mutate(ctx context.Context, id int64, fn func(*model.Session) error) (*model.Session, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	s, err := scanSession(tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM exam_sessions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
	}

	if err := fn(s); err != nil {
		return nil, err
	}

	answers, err := json.Marshal(s.Answers)
	if err != nil {
		return nil, fmt.Errorf("encode answers: %w", err)
	}
	events, err := json.Marshal(s.IntegrityEvents)
	if err != nil {
		return nil, fmt.Errorf("encode integrity events: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE exam_sessions
		 SET status = $1, answers = $2, start_time = $3, submit_time = $4, end_time = $5,
		     score = $6, correct_count = $7, total_count = $8,
		     tab_switches = $9, copy_attempts = $10, integrity_events = $11, updated_at = NOW()
		 WHERE id = $12`,
		s.Status, answers, s.StartTime, s.SubmitTime, s.EndTime,
		s.Score, s.CorrectCount, s.TotalCount,
		s.TabSwitches, s.CopyAttempts, events, s.ID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return s, nil
}
