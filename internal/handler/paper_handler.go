package handler

import (
	"net/http"
	"strconv"

	"github.com/codearena/mcq-backend/internal/middleware"
	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/response"
	"github.com/codearena/mcq-backend/internal/service"
	"github.com/codearena/mcq-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// PaperHandler handles exam paper endpoints.
type PaperHandler struct {
	paperService *service.PaperService
}

// NewPaperHandler creates a new PaperHandler.
func NewPaperHandler(paperService *service.PaperService) *PaperHandler {
	return &PaperHandler{paperService: paperService}
}

// paperSummary is the taker-facing view of a paper: configuration without
// the fixed question list or filter internals.
type paperSummary struct {
	ID              int64  `json:"id"`
	Title           string `json:"title"`
	Description     string `json:"description,omitempty"`
	DurationMinutes int    `json:"duration_minutes"`
	TotalScore      int    `json:"total_score"`
	QuestionCount   int    `json:"question_count"`
}

func summarize(p *model.Paper) paperSummary {
	return paperSummary{
		ID:              p.ID,
		Title:           p.Title,
		Description:     p.Description,
		DurationMinutes: p.DurationMinutes,
		TotalScore:      p.TotalScore,
		QuestionCount:   p.QuestionCount,
	}
}

// ListPublic godoc
// GET /api/v1/papers
func (h *PaperHandler) ListPublic(c *gin.Context) {
	page, perPage := pageParams(c)

	papers, total, err := h.paperService.List(c.Request.Context(), true, page, perPage)
	if err != nil {
		failFromError(c, err)
		return
	}

	summaries := make([]paperSummary, 0, len(papers))
	for i := range papers {
		summaries = append(summaries, summarize(&papers[i]))
	}
	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"papers": summaries}, buildPagination(page, perPage, total))
}

// List godoc
// GET /api/v1/admin/papers
func (h *PaperHandler) List(c *gin.Context) {
	page, perPage := pageParams(c)

	papers, total, err := h.paperService.List(c.Request.Context(), false, page, perPage)
	if err != nil {
		failFromError(c, err)
		return
	}
	if papers == nil {
		papers = []model.Paper{}
	}
	response.SuccessWithPagination(c, http.StatusOK,
		gin.H{"papers": papers}, buildPagination(page, perPage, total))
}

// Get godoc
// GET /api/v1/admin/papers/:id
func (h *PaperHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	paper, err := h.paperService.Get(c.Request.Context(), id)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// Create godoc
// POST /api/v1/admin/papers
func (h *PaperHandler) Create(c *gin.Context) {
	var req model.CreatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	claims := middleware.GetClaims(c)
	paper, err := h.paperService.Create(c.Request.Context(), &req, claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"paper": paper})
}

// Update godoc
// PUT /api/v1/admin/papers/:id
func (h *PaperHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.UpdatePaperRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	paper, err := h.paperService.Update(c.Request.Context(), id, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"paper": paper})
}

// Delete godoc
// DELETE /api/v1/admin/papers/:id
func (h *PaperHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.paperService.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "paper deleted successfully"})
}

// Preview godoc
// GET /api/v1/admin/papers/:id/preview?seed=42
// Dry-runs paper assembly so admins can verify the pool before activation.
func (h *PaperHandler) Preview(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	seed, _ := strconv.ParseInt(c.Query("seed"), 10, 64)

	questions, err := h.paperService.Preview(c.Request.Context(), id, seed)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}
