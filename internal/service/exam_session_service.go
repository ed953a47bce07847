package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/codearena/mcq-backend/internal/config"
	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/sampler"
	"github.com/codearena/mcq-backend/internal/scoring"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// SessionStore is the persistence surface the session engine drives. Mutate
// must apply fn under an exclusive per-session lock and persist the result
// only when fn returns nil.
type SessionStore interface {
	Create(ctx context.Context, s *model.Session) error
	GetByID(ctx context.Context, id int64) (*model.Session, error)
	GetOpenByPaperAndUser(ctx context.Context, paperID, userID int64) (*model.Session, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Session, error)
	Mutate(ctx context.Context, id int64, fn func(*model.Session) error) (*model.Session, error)
}

// PaperStore provides paper definitions to the engine.
type PaperStore interface {
	GetByID(ctx context.Context, id int64) (*model.Paper, error)
}

// WrongAnswerRecorder receives one entry per incorrectly answered question
// at session finalization.
type WrongAnswerRecorder interface {
	Upsert(ctx context.Context, userID, questionID int64, wrongAnswer string, now time.Time) error
}

// DuplicateGuard suppresses rapid-fire duplicates of one gateway action.
type DuplicateGuard interface {
	Allow(ctx context.Context, sessionID, userID int64, action string) bool
}

// Advisory thresholds for integrity warnings. Crossing them never aborts a
// session; the report surfaces them for human review.
const (
	tabSwitchWarnThreshold   = 5
	copyAttemptWarnThreshold = 3
)

// ExamSessionService is the exam session engine: it owns the session state
// machine, answer capture, deadline enforcement, integrity telemetry and
// finalization. All writes to one session are serialised through the store's
// Mutate lock.
type ExamSessionService struct {
	sessions  SessionStore
	papers    PaperStore
	questions sampler.QuestionSource
	assembler *sampler.Sampler
	wrongs    WrongAnswerRecorder
	guard     DuplicateGuard
	rdb       *redis.Client
	log       zerolog.Logger

	now    func() time.Time
	newRNG func() *rand.Rand
}

// NewExamSessionService creates a new ExamSessionService. guard and rdb may
// be nil, which disables duplicate suppression and queue fan-out.
func NewExamSessionService(
	sessions SessionStore,
	papers PaperStore,
	questions sampler.QuestionSource,
	assembler *sampler.Sampler,
	wrongs WrongAnswerRecorder,
	guard DuplicateGuard,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamSessionService {
	return &ExamSessionService{
		sessions:  sessions,
		papers:    papers,
		questions: questions,
		assembler: assembler,
		wrongs:    wrongs,
		guard:     guard,
		rdb:       rdb,
		log:       log.With().Str("component", "exam_session_service").Logger(),
		now:       time.Now,
		newRNG: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
}

// CreateSession assembles a paper attempt for the user. If an open session
// already exists for the (paper, user) pair it is returned as-is instead of
// creating a second one, so retries and double-clicks resume rather than
// fork.
func (s *ExamSessionService) CreateSession(ctx context.Context, userID, paperID int64) (*model.Session, error) {
	paper, err := s.papers.GetByID(ctx, paperID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaperNotFound
		}
		return nil, fmt.Errorf("get paper: %w", err)
	}
	if !paper.IsActive {
		return nil, ErrPaperInactive
	}

	existing, err := s.sessions.GetOpenByPaperAndUser(ctx, paperID, userID)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check existing session: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	questionIDs, err := s.assembler.Assemble(ctx, paper, s.newRNG())
	if err != nil {
		if errors.Is(err, sampler.ErrInsufficientQuestions) {
			return nil, ErrInsufficientQuestions
		}
		return nil, fmt.Errorf("assemble paper: %w", err)
	}

	session := &model.Session{
		PaperID:    paperID,
		UserID:     userID,
		Status:     model.SessionStatusCreated,
		Questions:  questionIDs,
		Answers:    make(map[int64]model.Answer),
		TotalCount: len(questionIDs),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Lost a concurrent-create race; resume the winner's session.
			winner, fetchErr := s.sessions.GetOpenByPaperAndUser(ctx, paperID, userID)
			if fetchErr != nil {
				return nil, fmt.Errorf("concurrent create detected, but fetch failed: %w", fetchErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// StartSession moves a created session to started and arms its deadline
// clock.
func (s *ExamSessionService) StartSession(ctx context.Context, sessionID, userID int64) (*model.Session, error) {
	if !s.allow(ctx, sessionID, userID, "start") {
		return nil, ErrDuplicateRequest
	}

	return s.mutate(ctx, sessionID, func(sess *model.Session) error {
		if sess.UserID != userID {
			return ErrForbidden
		}
		if sess.Status != model.SessionStatusCreated {
			return ErrInvalidState
		}
		now := s.now()
		sess.Status = model.SessionStatusStarted
		sess.StartTime = &now
		return nil
	})
}

// SubmitAnswer records the answer for one question of a started session.
// Answers overwrite any previous answer to the same question. If the
// deadline has passed the session is finalized as timeout instead and
// ErrSessionTimeout is returned.
func (s *ExamSessionService) SubmitAnswer(ctx context.Context, sessionID, userID, questionID int64, answer model.Answer) (*model.Session, error) {
	if !s.allow(ctx, sessionID, userID, fmt.Sprintf("answer:%d", questionID)) {
		return nil, ErrDuplicateRequest
	}

	var timedOut bool
	sess, err := s.mutate(ctx, sessionID, func(sess *model.Session) error {
		if sess.UserID != userID {
			return ErrForbidden
		}
		if sess.Status != model.SessionStatusStarted {
			return ErrInvalidState
		}
		if s.expireIfDue(ctx, sess) {
			timedOut = true
			return nil
		}
		if !sess.HasQuestion(questionID) {
			return ErrUnknownQuestion
		}
		sess.Answers[questionID] = answer
		return nil
	})
	if err != nil {
		return nil, err
	}
	if timedOut {
		return sess, ErrSessionTimeout
	}

	s.enqueueSnapshot(ctx, sess)
	return sess, nil
}

// Autosave merges an answers delta into a started session. Question IDs
// outside the frozen list are skipped; autosave is best-effort capture, not
// validation.
func (s *ExamSessionService) Autosave(ctx context.Context, sessionID, userID int64, answers map[int64]model.Answer) (*model.Session, error) {
	if !s.allow(ctx, sessionID, userID, "autosave") {
		return nil, ErrDuplicateRequest
	}

	var timedOut bool
	sess, err := s.mutate(ctx, sessionID, func(sess *model.Session) error {
		if sess.UserID != userID {
			return ErrForbidden
		}
		if sess.Status != model.SessionStatusStarted {
			return ErrInvalidState
		}
		if s.expireIfDue(ctx, sess) {
			timedOut = true
			return nil
		}
		for qid, answer := range answers {
			if sess.HasQuestion(qid) {
				sess.Answers[qid] = answer
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if timedOut {
		return sess, ErrSessionTimeout
	}

	s.enqueueSnapshot(ctx, sess)
	return sess, nil
}

// RecordBehavior appends one integrity event to a started session, bumps
// the matching counter and returns an advisory warning once a threshold is
// crossed. Events are telemetry only and never abort the session.
func (s *ExamSessionService) RecordBehavior(ctx context.Context, sessionID, userID int64, behavior model.BehaviorType, payload json.RawMessage) (*model.Session, string, error) {
	if !behavior.Valid() {
		return nil, "", fmt.Errorf("unknown behavior type %q", behavior)
	}
	if !s.allow(ctx, sessionID, userID, "behavior:"+string(behavior)) {
		return nil, "", ErrDuplicateRequest
	}

	var timedOut bool
	sess, err := s.mutate(ctx, sessionID, func(sess *model.Session) error {
		if sess.UserID != userID {
			return ErrForbidden
		}
		if sess.Status != model.SessionStatusStarted {
			return ErrInvalidState
		}
		if s.expireIfDue(ctx, sess) {
			timedOut = true
			return nil
		}

		event := model.IntegrityEvent{
			Type:      behavior,
			Timestamp: s.now(),
			Payload:   payload,
		}
		switch behavior {
		case model.BehaviorTabSwitch:
			sess.TabSwitches++
			event.Count = sess.TabSwitches
		case model.BehaviorCopyAttempt:
			sess.CopyAttempts++
			event.Count = sess.CopyAttempts
		}
		sess.IntegrityEvents = append(sess.IntegrityEvents, event)
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	if timedOut {
		return sess, "", ErrSessionTimeout
	}

	s.enqueueIntegrity(ctx, sess, behavior, payload)
	return sess, integrityWarning(sess), nil
}

// Submit finalizes a started session with a submitted status and a score.
// A submit arriving past the deadline finalizes the session as timeout and
// returns ErrSessionTimeout alongside the finalized session.
func (s *ExamSessionService) Submit(ctx context.Context, sessionID, userID int64) (*model.Session, error) {
	if !s.allow(ctx, sessionID, userID, "submit") {
		return nil, ErrDuplicateRequest
	}

	var timedOut bool
	sess, err := s.mutate(ctx, sessionID, func(sess *model.Session) error {
		if sess.UserID != userID {
			return ErrForbidden
		}
		if sess.Status != model.SessionStatusStarted {
			return ErrInvalidState
		}
		if s.expireIfDue(ctx, sess) {
			timedOut = true
			return nil
		}
		return s.finalize(ctx, sess, model.SessionStatusSubmitted)
	})
	if err != nil {
		return nil, err
	}
	if timedOut {
		return sess, ErrSessionTimeout
	}
	return sess, nil
}

// GetSession retrieves a session for its owner, enforcing the deadline
// lazily: a started session found past its deadline is finalized as
// timeout before being returned. remaining is the seconds left on a
// started session's clock, zero otherwise.
func (s *ExamSessionService) GetSession(ctx context.Context, sessionID, userID int64) (sess *model.Session, remaining int, err error) {
	sess, err = s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("get session: %w", err)
	}
	if sess.UserID != userID {
		return nil, 0, ErrForbidden
	}

	paper, err := s.papers.GetByID(ctx, sess.PaperID)
	if err != nil {
		return nil, 0, fmt.Errorf("get paper: %w", err)
	}

	if sess.Status == model.SessionStatusStarted && sess.Expired(paper.Duration(), s.now()) {
		sess, err = s.mutate(ctx, sessionID, func(sess *model.Session) error {
			// Re-check under the lock: a concurrent writer may have
			// finalized already.
			s.expireIfDue(ctx, sess)
			return nil
		})
		if err != nil {
			return nil, 0, err
		}
		return sess, 0, nil
	}

	return sess, sess.RemainingSeconds(paper.Duration(), s.now()), nil
}

// SessionQuestions returns the frozen question list of a session in
// presentation order.
func (s *ExamSessionService) SessionQuestions(ctx context.Context, sess *model.Session) ([]model.Question, error) {
	return s.questions.ListByIDs(ctx, sess.Questions)
}

// ListSessions returns the user's sessions, newest first.
func (s *ExamSessionService) ListSessions(ctx context.Context, userID int64) ([]model.Session, error) {
	return s.sessions.ListByUser(ctx, userID)
}

// Report builds the result report for a finished session.
func (s *ExamSessionService) Report(ctx context.Context, sessionID, userID int64) (*Report, error) {
	sess, _, err := s.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if !sess.Status.Terminal() {
		return nil, ErrNotTerminal
	}

	paper, err := s.papers.GetByID(ctx, sess.PaperID)
	if err != nil {
		return nil, fmt.Errorf("get paper: %w", err)
	}
	questions, err := s.questions.ListByIDs(ctx, sess.Questions)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return BuildReport(sess, paper, questions), nil
}

// expireIfDue finalizes a started session as timeout when its deadline has
// passed, reporting whether it did so. Called with the session lock held.
func (s *ExamSessionService) expireIfDue(ctx context.Context, sess *model.Session) bool {
	if sess.Status != model.SessionStatusStarted {
		return false
	}
	paper, err := s.papers.GetByID(ctx, sess.PaperID)
	if err != nil {
		s.log.Error().Err(err).Int64("session_id", sess.ID).Msg("Deadline check failed, skipping")
		return false
	}
	if !sess.Expired(paper.Duration(), s.now()) {
		return false
	}
	if err := s.finalize(ctx, sess, model.SessionStatusTimeout); err != nil {
		s.log.Error().Err(err).Int64("session_id", sess.ID).Msg("Timeout finalization failed")
		return false
	}
	return true
}

// finalize grades the session and moves it to the given terminal status.
// Wrong answers are pushed to the notebook first; notebook failures are
// logged and swallowed so they can never block finalization.
func (s *ExamSessionService) finalize(ctx context.Context, sess *model.Session, status model.SessionStatus) error {
	paper, err := s.papers.GetByID(ctx, sess.PaperID)
	if err != nil {
		return fmt.Errorf("get paper: %w", err)
	}
	questions, err := s.questions.ListByIDs(ctx, sess.Questions)
	if err != nil {
		return fmt.Errorf("load questions: %w", err)
	}

	res := scoring.Grade(questions, sess.Answers, paper.TotalScore)

	now := s.now()
	if s.wrongs != nil {
		for i := range questions {
			q := &questions[i]
			if res.Correct[q.ID] {
				continue
			}
			answer := sess.Answers[q.ID]
			// Unanswered questions are wrong for scoring but do not enter
			// the notebook.
			if answer.IsEmpty() {
				continue
			}
			if err := s.wrongs.Upsert(ctx, sess.UserID, q.ID, answer.String(), now); err != nil {
				s.log.Warn().Err(err).
					Int64("session_id", sess.ID).
					Int64("question_id", q.ID).
					Msg("Wrong-question upsert failed, continuing")
			}
		}
	}

	// Timeouts end at the deadline, not at whenever the lazy check ran.
	end := now
	if status == model.SessionStatusTimeout {
		end = sess.Deadline(paper.Duration())
	}

	sess.Status = status
	sess.Score = &res.Score
	sess.CorrectCount = res.CorrectCount
	sess.TotalCount = res.TotalCount
	sess.EndTime = &end
	sess.SubmitTime = &end
	return nil
}

// mutate wraps the store call, translating a missing row to ErrNotFound.
func (s *ExamSessionService) mutate(ctx context.Context, sessionID int64, fn func(*model.Session) error) (*model.Session, error) {
	sess, err := s.sessions.Mutate(ctx, sessionID, fn)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

func (s *ExamSessionService) allow(ctx context.Context, sessionID, userID int64, action string) bool {
	if s.guard == nil {
		return true
	}
	return s.guard.Allow(ctx, sessionID, userID, action)
}

// integrityWarning returns the advisory message for a session whose
// counters crossed a threshold, or "".
func integrityWarning(sess *model.Session) string {
	if sess.TabSwitches > tabSwitchWarnThreshold {
		return fmt.Sprintf("tab switched %d times, behavior is being recorded", sess.TabSwitches)
	}
	if sess.CopyAttempts > copyAttemptWarnThreshold {
		return fmt.Sprintf("copy attempted %d times, behavior is being recorded", sess.CopyAttempts)
	}
	return ""
}

type integrityQueuePayload struct {
	SessionID int64           `json:"session_id"`
	UserID    int64           `json:"user_id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

type submissionQueuePayload struct {
	SessionID int64                  `json:"session_id"`
	UserID    int64                  `json:"user_id"`
	Answers   map[int64]model.Answer `json:"answers"`
	Timestamp int64                  `json:"timestamp"`
}

// enqueueIntegrity pushes an integrity event to the audit queue. Fan-out is
// best-effort: the event is already persisted on the session row.
func (s *ExamSessionService) enqueueIntegrity(ctx context.Context, sess *model.Session, behavior model.BehaviorType, payload json.RawMessage) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(integrityQueuePayload{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Type:      string(behavior),
		Payload:   payload,
		Timestamp: s.now().Unix(),
	})
	if err != nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistIntegrityQueue, data).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Integrity queue push failed")
	}
}

// enqueueSnapshot pushes an answers snapshot to the submission history
// queue.
func (s *ExamSessionService) enqueueSnapshot(ctx context.Context, sess *model.Session) {
	if s.rdb == nil {
		return
	}
	data, err := json.Marshal(submissionQueuePayload{
		SessionID: sess.ID,
		UserID:    sess.UserID,
		Answers:   sess.Answers,
		Timestamp: s.now().Unix(),
	})
	if err != nil {
		return
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistSubmissionsQueue, data).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Submission queue push failed")
	}
}
