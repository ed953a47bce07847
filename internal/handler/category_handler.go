package handler

import (
	"net/http"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/response"
	"github.com/codearena/mcq-backend/internal/service"
	"github.com/codearena/mcq-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// CategoryHandler handles category tree endpoints.
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// Tree godoc
// GET /api/v1/categories
func (h *CategoryHandler) Tree(c *gin.Context) {
	nodes, err := h.categoryService.Tree(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	if nodes == nil {
		nodes = []service.CategoryNode{}
	}
	response.Success(c, http.StatusOK, gin.H{"categories": nodes})
}

// Create godoc
// POST /api/v1/admin/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req model.CreateCategoryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	category, err := h.categoryService.Create(c.Request.Context(), &req)
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"category": category})
}

// Update godoc
// PUT /api/v1/admin/categories/:id
func (h *CategoryHandler) Update(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	var req model.UpdateCategoryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	category, err := h.categoryService.Update(c.Request.Context(), id, &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"category": category})
}

// Delete godoc
// DELETE /api/v1/admin/categories/:id
func (h *CategoryHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.categoryService.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "category deleted successfully"})
}
