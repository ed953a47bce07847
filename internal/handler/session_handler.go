package handler

import (
	"net/http"

	"github.com/codearena/mcq-backend/internal/middleware"
	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/response"
	"github.com/codearena/mcq-backend/internal/service"
	"github.com/codearena/mcq-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// SessionHandler is the HTTP gateway of the exam session engine. Every
// route resolves the caller from JWT claims; session ownership is enforced
// in the service.
type SessionHandler struct {
	sessionService *service.ExamSessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *service.ExamSessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// sessionView shapes a session for the taker. Questions are included with
// grading fields stripped while the session is open.
type sessionView struct {
	Session          *model.Session          `json:"session"`
	Questions        []model.QuestionForExam `json:"questions,omitempty"`
	RemainingSeconds int                     `json:"remaining_seconds"`
}

// Create godoc
// POST /api/v1/sessions
func (h *SessionHandler) Create(c *gin.Context) {
	var req model.CreateSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	sess, err := h.sessionService.CreateSession(c.Request.Context(), claims.UserID, req.PaperID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"session": sess})
}

// List godoc
// GET /api/v1/sessions
func (h *SessionHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	sessions, err := h.sessionService.ListSessions(c.Request.Context(), claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}
	if sessions == nil {
		sessions = []model.Session{}
	}
	response.Success(c, http.StatusOK, gin.H{"sessions": sessions})
}

// Get godoc
// GET /api/v1/sessions/:id
func (h *SessionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	sess, remaining, err := h.sessionService.GetSession(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}

	view := sessionView{Session: sess, RemainingSeconds: remaining}
	if sess.Status.Open() {
		questions, err := h.sessionService.SessionQuestions(c.Request.Context(), sess)
		if err != nil {
			failFromError(c, err)
			return
		}
		view.Questions = make([]model.QuestionForExam, 0, len(questions))
		for i := range questions {
			view.Questions = append(view.Questions, questions[i].ForExam())
		}
	}
	response.Success(c, http.StatusOK, view)
}

// Start godoc
// POST /api/v1/sessions/:id/start
func (h *SessionHandler) Start(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	sess, err := h.sessionService.StartSession(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

// SubmitAnswer godoc
// POST /api/v1/sessions/:id/answer
func (h *SessionHandler) SubmitAnswer(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.SubmitAnswerRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	sess, err := h.sessionService.SubmitAnswer(c.Request.Context(), id, claims.UserID, req.QuestionID, req.Answer)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"session_id": sess.ID,
		"saved":      len(sess.Answers),
	})
}

// Autosave godoc
// POST /api/v1/sessions/:id/autosave
func (h *SessionHandler) Autosave(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.AutosaveRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	sess, err := h.sessionService.Autosave(c.Request.Context(), id, claims.UserID, req.Answers)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"session_id": sess.ID,
		"saved":      len(sess.Answers),
	})
}

// RecordBehavior godoc
// POST /api/v1/sessions/:id/behavior
func (h *SessionHandler) RecordBehavior(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.RecordBehaviorRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	sess, warning, err := h.sessionService.RecordBehavior(c.Request.Context(), id, claims.UserID,
		model.BehaviorType(req.Type), req.Payload)
	if err != nil {
		failFromError(c, err)
		return
	}

	payload := gin.H{
		"tab_switches":  sess.TabSwitches,
		"copy_attempts": sess.CopyAttempts,
	}
	if warning != "" {
		payload["warning"] = warning
	}
	response.Success(c, http.StatusOK, payload)
}

// Submit godoc
// POST /api/v1/sessions/:id/submit
func (h *SessionHandler) Submit(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	sess, err := h.sessionService.Submit(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"session": sess})
}

// Report godoc
// GET /api/v1/sessions/:id/report
func (h *SessionHandler) Report(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	report, err := h.sessionService.Report(c.Request.Context(), id, claims.UserID)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"report": report})
}
