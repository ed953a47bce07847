package service

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/sampler"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

// ─── Fakes ─────────────────────────────────────────────────────────────

type fakeSessionStore struct {
	sessions map[int64]*model.Session
	nextID   int64
	// hideOpenOnce makes the next GetOpenByPaperAndUser miss, simulating
	// the window between the existence check and the insert.
	hideOpenOnce bool
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[int64]*model.Session), nextID: 1}
}

func cloneSession(s *model.Session) *model.Session {
	c := *s
	c.Questions = append([]int64(nil), s.Questions...)
	c.Answers = make(map[int64]model.Answer, len(s.Answers))
	for k, v := range s.Answers {
		c.Answers[k] = v
	}
	c.IntegrityEvents = append([]model.IntegrityEvent(nil), s.IntegrityEvents...)
	return &c
}

func (f *fakeSessionStore) Create(_ context.Context, s *model.Session) error {
	for _, existing := range f.sessions {
		if existing.PaperID == s.PaperID && existing.UserID == s.UserID && existing.Status.Open() {
			return pgx.ErrNoRows
		}
	}
	s.ID = f.nextID
	f.nextID++
	f.sessions[s.ID] = cloneSession(s)
	return nil
}

func (f *fakeSessionStore) GetByID(_ context.Context, id int64) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return cloneSession(s), nil
}

func (f *fakeSessionStore) GetOpenByPaperAndUser(_ context.Context, paperID, userID int64) (*model.Session, error) {
	if f.hideOpenOnce {
		f.hideOpenOnce = false
		return nil, pgx.ErrNoRows
	}
	for _, s := range f.sessions {
		if s.PaperID == paperID && s.UserID == userID && s.Status.Open() {
			return cloneSession(s), nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeSessionStore) ListByUser(_ context.Context, userID int64) ([]model.Session, error) {
	var out []model.Session
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, *cloneSession(s))
		}
	}
	return out, nil
}

func (f *fakeSessionStore) Mutate(_ context.Context, id int64, fn func(*model.Session) error) (*model.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	working := cloneSession(s)
	if err := fn(working); err != nil {
		return nil, err
	}
	f.sessions[id] = cloneSession(working)
	return working, nil
}

type fakePaperStore struct {
	papers map[int64]*model.Paper
}

func (f *fakePaperStore) GetByID(_ context.Context, id int64) (*model.Paper, error) {
	p, ok := f.papers[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return p, nil
}

type fakeQuestionSource struct {
	questions map[int64]model.Question
}

func (f *fakeQuestionSource) ListCandidates(context.Context, []int64, []int64) ([]model.Question, error) {
	var out []model.Question
	for _, q := range f.questions {
		out = append(out, q)
	}
	return out, nil
}

func (f *fakeQuestionSource) ListByIDs(_ context.Context, ids []int64) ([]model.Question, error) {
	var out []model.Question
	for _, id := range ids {
		if q, ok := f.questions[id]; ok {
			out = append(out, q)
		}
	}
	return out, nil
}

type fakeCategorySource struct{}

func (fakeCategorySource) ListAll(context.Context) ([]model.Category, error) { return nil, nil }

type upsertCall struct {
	userID     int64
	questionID int64
	answer     string
}

type fakeWrongRecorder struct {
	calls []upsertCall
	err   error
}

func (f *fakeWrongRecorder) Upsert(_ context.Context, userID, questionID int64, answer string, _ time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.calls = append(f.calls, upsertCall{userID, questionID, answer})
	return nil
}

type denyGuard struct{}

func (denyGuard) Allow(context.Context, int64, int64, string) bool { return false }

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time { return c.t }

// ─── Fixture ───────────────────────────────────────────────────────────

type engineFixture struct {
	svc      *ExamSessionService
	sessions *fakeSessionStore
	papers   *fakePaperStore
	wrongs   *fakeWrongRecorder
	clock    *testClock
}

// newEngineFixture wires the engine over a fixed paper (ID 1, 30 min, 100
// points) with three questions: q1 single A, q2 single B, q3 multi A,C.
func newEngineFixture() *engineFixture {
	questions := &fakeQuestionSource{questions: map[int64]model.Question{
		1: {ID: 1, Title: "first", Type: model.QuestionTypeSingle, CorrectAnswer: "A", Difficulty: model.DifficultyEasy, Explanation: "pick A"},
		2: {ID: 2, Title: "second", Type: model.QuestionTypeSingle, CorrectAnswer: "B", Difficulty: model.DifficultyMedium, Explanation: "pick B"},
		3: {ID: 3, Title: "third", Type: model.QuestionTypeMultiple, CorrectAnswer: "A,C", Difficulty: model.DifficultyHard, Explanation: "pick A and C"},
	}}
	papers := &fakePaperStore{papers: map[int64]*model.Paper{
		1: {
			ID:               1,
			Title:            "Fixture Paper",
			DurationMinutes:  30,
			TotalScore:       100,
			QuestionCount:    3,
			PaperType:        model.PaperTypeFixed,
			FixedQuestionIDs: []int64{1, 2, 3},
			UseImportOrder:   true,
			IsActive:         true,
		},
	}}
	sessions := newFakeSessionStore()
	wrongs := &fakeWrongRecorder{}
	clock := &testClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}

	svc := NewExamSessionService(
		sessions, papers, questions,
		sampler.New(questions, fakeCategorySource{}),
		wrongs, nil, nil, zerolog.Nop(),
	)
	svc.now = clock.Now
	svc.newRNG = func() *rand.Rand { return rand.New(rand.NewSource(1)) }

	return &engineFixture{svc: svc, sessions: sessions, papers: papers, wrongs: wrongs, clock: clock}
}

func (f *engineFixture) startedSession(t *testing.T, userID int64) *model.Session {
	t.Helper()
	ctx := context.Background()
	sess, err := f.svc.CreateSession(ctx, userID, 1)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	sess, err = f.svc.StartSession(ctx, sess.ID, userID)
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return sess
}

// ─── Tests ─────────────────────────────────────────────────────────────

func TestCreateSessionFreezesQuestions(t *testing.T) {
	f := newEngineFixture()
	sess, err := f.svc.CreateSession(context.Background(), 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	if sess.Status != model.SessionStatusCreated {
		t.Errorf("status = %s, want created", sess.Status)
	}
	if len(sess.Questions) != 3 || sess.TotalCount != 3 {
		t.Errorf("questions = %v total = %d, want the 3 fixed questions", sess.Questions, sess.TotalCount)
	}
	if sess.StartTime != nil {
		t.Error("StartTime must stay nil until the session is started")
	}
	if len(sess.Answers) != 0 {
		t.Errorf("answers = %v, want empty", sess.Answers)
	}
}

func TestCreateSessionResumesOpenAttempt(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	first, err := f.svc.CreateSession(ctx, 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.CreateSession(ctx, 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	if second.ID != first.ID {
		t.Errorf("second create returned session %d, want resumed %d", second.ID, first.ID)
	}
}

func TestCreateSessionAfterTerminalStartsFresh(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	sess := f.startedSession(t, 7)
	if _, err := f.svc.Submit(ctx, sess.ID, 7); err != nil {
		t.Fatal(err)
	}
	fresh, err := f.svc.CreateSession(ctx, 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.ID == sess.ID {
		t.Error("submitted session must not block a new attempt")
	}
}

func TestCreateSessionPaperErrors(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	if _, err := f.svc.CreateSession(ctx, 7, 99); !errors.Is(err, ErrPaperNotFound) {
		t.Errorf("missing paper: err = %v, want ErrPaperNotFound", err)
	}

	f.papers.papers[1].IsActive = false
	if _, err := f.svc.CreateSession(ctx, 7, 1); !errors.Is(err, ErrPaperInactive) {
		t.Errorf("inactive paper: err = %v, want ErrPaperInactive", err)
	}
}

func TestCreateSessionLostRaceResumesWinner(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	// Seed the winner, then hide it from the pre-insert existence check so
	// Create runs into the unique-open-session conflict.
	winner := &model.Session{
		PaperID: 1, UserID: 7,
		Status:    model.SessionStatusCreated,
		Questions: []int64{1, 2, 3},
		Answers:   map[int64]model.Answer{},
	}
	if err := f.sessions.Create(ctx, winner); err != nil {
		t.Fatal(err)
	}
	f.sessions.hideOpenOnce = true

	got, err := f.svc.CreateSession(ctx, 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != winner.ID {
		t.Errorf("got session %d, want winner %d", got.ID, winner.ID)
	}
}

func TestStartSessionTransitions(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	sess, err := f.svc.CreateSession(ctx, 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	started, err := f.svc.StartSession(ctx, sess.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if started.Status != model.SessionStatusStarted {
		t.Errorf("status = %s, want started", started.Status)
	}
	if started.StartTime == nil || !started.StartTime.Equal(f.clock.t) {
		t.Errorf("StartTime = %v, want the clock instant", started.StartTime)
	}

	if _, err := f.svc.StartSession(ctx, sess.ID, 7); !errors.Is(err, ErrInvalidState) {
		t.Errorf("double start: err = %v, want ErrInvalidState", err)
	}
}

func TestStartSessionForbiddenForOtherUser(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	sess, err := f.svc.CreateSession(ctx, 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.StartSession(ctx, sess.ID, 8); !errors.Is(err, ErrForbidden) {
		t.Errorf("err = %v, want ErrForbidden", err)
	}
}

func TestSubmitAnswerStoresAndOverwrites(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	sess := f.startedSession(t, 7)

	updated, err := f.svc.SubmitAnswer(ctx, sess.ID, 7, 1, model.SingleAnswer("C"))
	if err != nil {
		t.Fatal(err)
	}
	if got := updated.Answers[1]; got.Key != "C" {
		t.Errorf("answer = %+v, want C", got)
	}

	updated, err = f.svc.SubmitAnswer(ctx, sess.ID, 7, 1, model.SingleAnswer("A"))
	if err != nil {
		t.Fatal(err)
	}
	if got := updated.Answers[1]; got.Key != "A" {
		t.Errorf("answer = %+v, want overwrite to A", got)
	}
}

func TestSubmitAnswerUnknownQuestion(t *testing.T) {
	f := newEngineFixture()
	sess := f.startedSession(t, 7)

	_, err := f.svc.SubmitAnswer(context.Background(), sess.ID, 7, 42, model.SingleAnswer("A"))
	if !errors.Is(err, ErrUnknownQuestion) {
		t.Errorf("err = %v, want ErrUnknownQuestion", err)
	}
}

func TestSubmitAnswerBeforeStart(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()

	sess, err := f.svc.CreateSession(ctx, 7, 1)
	if err != nil {
		t.Fatal(err)
	}
	_, err = f.svc.SubmitAnswer(ctx, sess.ID, 7, 1, model.SingleAnswer("A"))
	if !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestSubmitAnswerPastDeadlineFinalizesTimeout(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	sess := f.startedSession(t, 7)
	deadline := sess.StartTime.Add(30 * time.Minute)

	f.clock.t = f.clock.t.Add(31 * time.Minute)

	got, err := f.svc.SubmitAnswer(ctx, sess.ID, 7, 1, model.SingleAnswer("A"))
	if !errors.Is(err, ErrSessionTimeout) {
		t.Fatalf("err = %v, want ErrSessionTimeout", err)
	}
	if got.Status != model.SessionStatusTimeout {
		t.Errorf("status = %s, want timeout", got.Status)
	}
	if _, stored := got.Answers[1]; stored {
		t.Error("late answer must not be recorded")
	}
	if got.EndTime == nil || !got.EndTime.Equal(deadline) {
		t.Errorf("EndTime = %v, want the deadline %v", got.EndTime, deadline)
	}
	if got.SubmitTime == nil || !got.SubmitTime.Equal(deadline) {
		t.Errorf("SubmitTime = %v, want the deadline %v", got.SubmitTime, deadline)
	}
}

func TestAutosaveMergesDelta(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	sess := f.startedSession(t, 7)

	if _, err := f.svc.SubmitAnswer(ctx, sess.ID, 7, 1, model.SingleAnswer("A")); err != nil {
		t.Fatal(err)
	}

	updated, err := f.svc.Autosave(ctx, sess.ID, 7, map[int64]model.Answer{
		2:  model.SingleAnswer("B"),
		42: model.SingleAnswer("D"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got := updated.Answers[1]; got.Key != "A" {
		t.Errorf("untouched answer = %+v, want A preserved", got)
	}
	if got := updated.Answers[2]; got.Key != "B" {
		t.Errorf("merged answer = %+v, want B", got)
	}
	if _, stored := updated.Answers[42]; stored {
		t.Error("unknown question ID must be skipped, not stored")
	}
}

func TestRecordBehaviorCountersAndWarning(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	sess := f.startedSession(t, 7)

	var warning string
	var got *model.Session
	var err error
	for i := 0; i < 6; i++ {
		// Step the clock so the dedup-free path is exercised realistically.
		f.clock.t = f.clock.t.Add(time.Second)
		got, warning, err = f.svc.RecordBehavior(ctx, sess.ID, 7, model.BehaviorTabSwitch, nil)
		if err != nil {
			t.Fatal(err)
		}
		if i < 5 && warning != "" {
			t.Errorf("warning at count %d: %q, want none until threshold crossed", i+1, warning)
		}
	}
	if got.TabSwitches != 6 {
		t.Errorf("TabSwitches = %d, want 6", got.TabSwitches)
	}
	if warning == "" {
		t.Error("sixth tab switch must produce a warning")
	}
	if len(got.IntegrityEvents) != 6 {
		t.Errorf("events = %d, want 6", len(got.IntegrityEvents))
	}
	if got.IntegrityEvents[5].Count != 6 {
		t.Errorf("event count = %d, want running counter", got.IntegrityEvents[5].Count)
	}
}

func TestRecordBehaviorPayloadKeptVerbatim(t *testing.T) {
	f := newEngineFixture()
	sess := f.startedSession(t, 7)

	payload := json.RawMessage(`{"keys":"ctrl+c"}`)
	got, _, err := f.svc.RecordBehavior(context.Background(), sess.ID, 7, model.BehaviorKeyCombination, payload)
	if err != nil {
		t.Fatal(err)
	}
	if got.TabSwitches != 0 || got.CopyAttempts != 0 {
		t.Error("key_combination must not bump tab or copy counters")
	}
	if string(got.IntegrityEvents[0].Payload) != string(payload) {
		t.Errorf("payload = %s, want stored verbatim", got.IntegrityEvents[0].Payload)
	}
}

func TestRecordBehaviorRejectsUnknownType(t *testing.T) {
	f := newEngineFixture()
	sess := f.startedSession(t, 7)

	_, _, err := f.svc.RecordBehavior(context.Background(), sess.ID, 7, "telepathy", nil)
	if err == nil {
		t.Error("unknown behavior type must be rejected")
	}
}

func TestSubmitGradesAndRecordsWrongQuestions(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	sess := f.startedSession(t, 7)

	// q1 right, q2 wrong, q3 unanswered.
	if _, err := f.svc.SubmitAnswer(ctx, sess.ID, 7, 1, model.SingleAnswer("A")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, sess.ID, 7, 2, model.SingleAnswer("C")); err != nil {
		t.Fatal(err)
	}

	f.clock.t = f.clock.t.Add(10 * time.Minute)
	got, err := f.svc.Submit(ctx, sess.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.SessionStatusSubmitted {
		t.Errorf("status = %s, want submitted", got.Status)
	}
	if got.Score == nil || *got.Score != 33 {
		t.Errorf("score = %v, want 33 (1/3 of 100, floored)", got.Score)
	}
	if got.CorrectCount != 1 || got.TotalCount != 3 {
		t.Errorf("counts = %d/%d, want 1/3", got.CorrectCount, got.TotalCount)
	}
	if got.SubmitTime == nil || !got.SubmitTime.Equal(f.clock.t) {
		t.Errorf("SubmitTime = %v, want submit instant", got.SubmitTime)
	}

	// Only the answered-and-wrong q2 enters the notebook; the unanswered
	// q3 counts against the score but is not recorded.
	if len(f.wrongs.calls) != 1 {
		t.Fatalf("wrong-question upserts = %v, want only q2", f.wrongs.calls)
	}
	if c := f.wrongs.calls[0]; c.questionID != 2 || c.answer != "C" {
		t.Errorf("upsert = %+v, want q2 with wrong answer C", c)
	}
}

func TestSubmitSwallowsNotebookFailures(t *testing.T) {
	f := newEngineFixture()
	f.wrongs.err = errors.New("notebook down")
	sess := f.startedSession(t, 7)

	got, err := f.svc.Submit(context.Background(), sess.ID, 7)
	if err != nil {
		t.Fatalf("submit must not fail on notebook errors: %v", err)
	}
	if got.Status != model.SessionStatusSubmitted {
		t.Errorf("status = %s, want submitted", got.Status)
	}
}

func TestSubmitTwiceIsInvalidState(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	sess := f.startedSession(t, 7)

	if _, err := f.svc.Submit(ctx, sess.ID, 7); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.Submit(ctx, sess.ID, 7); !errors.Is(err, ErrInvalidState) {
		t.Errorf("second submit: err = %v, want ErrInvalidState", err)
	}
}

func TestDuplicateGuardBlocksGatewayActions(t *testing.T) {
	f := newEngineFixture()
	f.svc.guard = denyGuard{}
	ctx := context.Background()

	if _, err := f.svc.StartSession(ctx, 1, 7); !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("start: err = %v, want ErrDuplicateRequest", err)
	}
	if _, err := f.svc.Submit(ctx, 1, 7); !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("submit: err = %v, want ErrDuplicateRequest", err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, 1, 7, 1, model.SingleAnswer("A")); !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("answer: err = %v, want ErrDuplicateRequest", err)
	}
	if _, err := f.svc.Autosave(ctx, 1, 7, nil); !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("autosave: err = %v, want ErrDuplicateRequest", err)
	}
	if _, _, err := f.svc.RecordBehavior(ctx, 1, 7, model.BehaviorTabSwitch, nil); !errors.Is(err, ErrDuplicateRequest) {
		t.Errorf("behavior: err = %v, want ErrDuplicateRequest", err)
	}
}

func TestGetSessionRemainingSeconds(t *testing.T) {
	f := newEngineFixture()
	sess := f.startedSession(t, 7)

	f.clock.t = f.clock.t.Add(10 * time.Minute)
	got, remaining, err := f.svc.GetSession(context.Background(), sess.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.SessionStatusStarted {
		t.Errorf("status = %s, want started", got.Status)
	}
	if remaining != 20*60 {
		t.Errorf("remaining = %d, want 1200", remaining)
	}
}

func TestGetSessionLazyTimeout(t *testing.T) {
	f := newEngineFixture()
	sess := f.startedSession(t, 7)

	f.clock.t = f.clock.t.Add(31 * time.Minute)
	got, remaining, err := f.svc.GetSession(context.Background(), sess.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != model.SessionStatusTimeout {
		t.Errorf("status = %s, want timeout", got.Status)
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}
	if got.Score == nil {
		t.Error("timed-out session must be graded")
	}
	if got.SubmitTime == nil || got.EndTime == nil || !got.SubmitTime.Equal(*got.EndTime) {
		t.Errorf("SubmitTime = %v EndTime = %v, want both set to the deadline", got.SubmitTime, got.EndTime)
	}
}

func TestGetSessionOwnershipAndMissing(t *testing.T) {
	f := newEngineFixture()
	sess := f.startedSession(t, 7)
	ctx := context.Background()

	if _, _, err := f.svc.GetSession(ctx, sess.ID, 8); !errors.Is(err, ErrForbidden) {
		t.Errorf("other user: err = %v, want ErrForbidden", err)
	}
	if _, _, err := f.svc.GetSession(ctx, 999, 7); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing: err = %v, want ErrNotFound", err)
	}
}

func TestReportRequiresTerminalSession(t *testing.T) {
	f := newEngineFixture()
	sess := f.startedSession(t, 7)

	_, err := f.svc.Report(context.Background(), sess.ID, 7)
	if !errors.Is(err, ErrNotTerminal) {
		t.Errorf("err = %v, want ErrNotTerminal", err)
	}
}

func TestReportContents(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	sess := f.startedSession(t, 7)

	if _, err := f.svc.SubmitAnswer(ctx, sess.ID, 7, 1, model.SingleAnswer("A")); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.SubmitAnswer(ctx, sess.ID, 7, 3, model.MultiAnswer("C", "A")); err != nil {
		t.Fatal(err)
	}
	f.clock.t = f.clock.t.Add(12 * time.Minute)
	if _, err := f.svc.Submit(ctx, sess.ID, 7); err != nil {
		t.Fatal(err)
	}

	report, err := f.svc.Report(ctx, sess.ID, 7)
	if err != nil {
		t.Fatal(err)
	}

	info := report.BasicInfo
	if info.Score != 66 || info.CorrectCount != 2 || info.CorrectRate != "2/3" {
		t.Errorf("basic info = %+v, want score 66, 2/3 correct", info)
	}
	if info.UserID != 7 || info.SessionID != sess.ID {
		t.Errorf("basic info identifies %d/%d, want user 7 on session %d", info.UserID, info.SessionID, sess.ID)
	}
	if info.UsedSeconds != 12*60 {
		t.Errorf("UsedSeconds = %d, want 720", info.UsedSeconds)
	}

	if len(report.DetailAnalysis) != 3 {
		t.Fatalf("detail rows = %d, want 3", len(report.DetailAnalysis))
	}
	for _, row := range report.DetailAnalysis {
		switch row.QuestionID {
		case 1:
			if !row.IsCorrect || row.Explanation != "" {
				t.Errorf("q1 row = %+v, want correct and no explanation", row)
			}
		case 2:
			if row.IsCorrect || row.Explanation == "" {
				t.Errorf("q2 row = %+v, want incorrect with explanation", row)
			}
			if row.YourAnswer != "" {
				t.Errorf("q2 YourAnswer = %q, want empty for unanswered", row.YourAnswer)
			}
		case 3:
			if !row.IsCorrect || row.YourAnswer != "A,C" {
				t.Errorf("q3 row = %+v, want correct with normalized answer", row)
			}
		}
	}

	if row := report.DifficultyAnalysis[model.DifficultyMedium]; row.Total != 1 || row.Correct != 0 {
		t.Errorf("medium row = %+v, want 0/1", row)
	}
	if row := report.DifficultyAnalysis[model.DifficultyHard]; row.Correct != 1 {
		t.Errorf("hard row = %+v, want 1 correct", row)
	}
}

func TestReportIdempotent(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	sess := f.startedSession(t, 7)
	if _, err := f.svc.Submit(ctx, sess.ID, 7); err != nil {
		t.Fatal(err)
	}

	first, err := f.svc.Report(ctx, sess.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Report(ctx, sess.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if first.BasicInfo != second.BasicInfo {
		t.Errorf("reports diverged: %+v vs %+v", first.BasicInfo, second.BasicInfo)
	}
}

func TestReportIntegrityWarnings(t *testing.T) {
	f := newEngineFixture()
	ctx := context.Background()
	sess := f.startedSession(t, 7)

	for i := 0; i < 4; i++ {
		f.clock.t = f.clock.t.Add(time.Second)
		if _, _, err := f.svc.RecordBehavior(ctx, sess.ID, 7, model.BehaviorCopyAttempt, nil); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.svc.Submit(ctx, sess.ID, 7); err != nil {
		t.Fatal(err)
	}

	report, err := f.svc.Report(ctx, sess.ID, 7)
	if err != nil {
		t.Fatal(err)
	}
	check := report.IntegrityCheck
	if check.CopyAttempts != 4 || check.EventCount != 4 {
		t.Errorf("integrity check = %+v, want 4 copy attempts", check)
	}
	if len(check.Warnings) != 1 {
		t.Errorf("warnings = %v, want the copy-attempt advisory", check.Warnings)
	}
}
