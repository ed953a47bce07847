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

// QuestionHandler handles question bank management endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// List godoc
// GET /api/v1/admin/questions
func (h *QuestionHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)

	var filter repository.QuestionFilter
	if v := c.Query("category_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.CategoryID = &id
		}
	}
	if v := c.Query("tag_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			filter.TagID = &id
		}
	}
	if v := c.Query("difficulty"); v != "" {
		difficulty, err := model.ParseDifficulty(v)
		if err != nil {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
			return
		}
		filter.Difficulty = &difficulty
	}
	if v := c.Query("question_type"); v != "" {
		qType := model.QuestionType(v)
		filter.Type = &qType
	}
	if v := c.Query("visible"); v != "" {
		visible := v == "true" || v == "1"
		filter.Visible = &visible
	}
	filter.Keyword = c.Query("keyword")

	questions, total, err := h.questionService.List(c.Request.Context(), filter, page, perPage)
	if err != nil {
		failFromError(c, err)
		return
	}
	if questions == nil {
		questions = []model.Question{}
	}

	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"questions": questions}, buildPagination(page, perPage, total))
}

// Get godoc
// GET /api/v1/admin/questions/:id
func (h *QuestionHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	question, err := h.questionService.Get(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Create godoc
// POST /api/v1/admin/questions
func (h *QuestionHandler) Create(c *gin.Context) {
	var req model.CreateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	question, err := h.questionService.Create(c.Request.Context(), &req, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// Update godoc
// PUT /api/v1/admin/questions/:id
func (h *QuestionHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	question, err := h.questionService.Update(c.Request.Context(), id, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// Delete godoc
// DELETE /api/v1/admin/questions/:id
func (h *QuestionHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.questionService.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "question deleted successfully"})
}
