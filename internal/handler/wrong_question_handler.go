package handler

import (
	"net/http"
	"strconv"

	"github.com/codearena/mcq-backend/internal/middleware"
	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/repository"
	"github.com/codearena/mcq-backend/internal/response"
	"github.com/codearena/mcq-backend/internal/service"
	"github.com/codearena/mcq-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// WrongQuestionHandler handles the wrong-question notebook endpoints.
type WrongQuestionHandler struct {
	wrongService *service.WrongQuestionService
}

// NewWrongQuestionHandler creates a new WrongQuestionHandler.
func NewWrongQuestionHandler(wrongService *service.WrongQuestionService) *WrongQuestionHandler {
	return &WrongQuestionHandler{wrongService: wrongService}
}

// List godoc
// GET /api/v1/wrong-questions
func (h *WrongQuestionHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)

	var filter repository.WrongQuestionFilter
	if v := c.Query("error_type"); v != "" {
		errorType := model.ErrorType(v)
		if !errorType.Valid() {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		filter.ErrorType = &errorType
	}
	if v := c.Query("is_mastered"); v != "" {
		mastered := v == "true" || v == "1"
		filter.IsMastered = &mastered
	}

	claims := middleware.GetClaims(c)
	entries, total, err := h.wrongService.List(c.Request.Context(), claims.UserID, filter, page, perPage)
	if err != nil {
		failFromError(c, err)
		return
	}
	if entries == nil {
		entries = []service.NotebookEntry{}
	}
	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"wrong_questions": entries}, buildPagination(page, perPage, total))
}

// Update godoc
// PUT /api/v1/wrong-questions/:id
func (h *WrongQuestionHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateWrongQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	entry, err := h.wrongService.Update(c.Request.Context(), claims.UserID, id, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wrong_question": entry})
}

// SetMastered godoc
// POST /api/v1/wrong-questions/:id/mastered?value=true
func (h *WrongQuestionHandler) SetMastered(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	value := c.DefaultQuery("value", "true") == "true"

	claims := middleware.GetClaims(c)
	entry, err := h.wrongService.SetMastered(c.Request.Context(), claims.UserID, id, value)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wrong_question": entry})
}

// Delete godoc
// DELETE /api/v1/wrong-questions/:id
func (h *WrongQuestionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	claims := middleware.GetClaims(c)
	if err := h.wrongService.Delete(c.Request.Context(), claims.UserID, id); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "entry removed"})
}

// PracticeFeed godoc
// GET /api/v1/wrong-questions/practice?limit=20
func (h *WrongQuestionHandler) PracticeFeed(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	claims := middleware.GetClaims(c)
	feed, err := h.wrongService.PracticeFeed(c.Request.Context(), claims.UserID, limit)
	if err != nil {
		failFromError(c, err)
		return
	}
	if feed == nil {
		feed = []model.QuestionForExam{}
	}
	response.Success(c, http.StatusOK, gin.H{"questions": feed})
}
