package handler

import (
	"net/http"

	"github.com/codearena/mcq-backend/internal/model"
	"github.com/codearena/mcq-backend/internal/response"
	"github.com/codearena/mcq-backend/internal/service"
	"github.com/codearena/mcq-backend/internal/validator"
	"github.com/gin-gonic/gin"
)

// TagHandler handles tag endpoints.
type TagHandler struct {
	tagService *service.TagService
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(tagService *service.TagService) *TagHandler {
	return &TagHandler{tagService: tagService}
}

// List godoc
// GET /api/v1/tags
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.tagService.List(c.Request.Context())
	if err != nil {
		failFromError(c, err)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	response.Success(c, http.StatusOK, gin.H{"tags": tags})
}

// Create godoc
// POST /api/v1/admin/tags
func (h *TagHandler) Create(c *gin.Context) {
	var req model.CreateTagRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	tag, err := h.tagService.Create(c.Request.Context(), &req)
	if err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"tag": tag})
}

// Delete godoc
// DELETE /api/v1/admin/tags/:id
func (h *TagHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	if err := h.tagService.Delete(c.Request.Context(), id); err != nil {
		failFromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "tag deleted successfully"})
}
