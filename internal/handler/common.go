package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/codearena/mcq-backend/internal/response"
	"github.com/codearena/mcq-backend/internal/service"
	"github.com/gin-gonic/gin"
)

// failFromError maps service sentinel errors onto error codes and HTTP
// statuses. Unrecognized errors become a plain 500.
func failFromError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrPaperNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrPaperNotFound)
	case errors.Is(err, service.ErrForbidden):
		response.Fail(c, http.StatusForbidden, response.ErrForbidden)
	case errors.Is(err, service.ErrPaperInactive):
		response.Fail(c, http.StatusConflict, response.ErrPaperInactive)
	case errors.Is(err, service.ErrInsufficientQuestions):
		response.Fail(c, http.StatusConflict, response.ErrInsufficientQuestions)
	case errors.Is(err, service.ErrInvalidState):
		response.Fail(c, http.StatusConflict, response.ErrInvalidState)
	case errors.Is(err, service.ErrSessionTimeout):
		response.Fail(c, http.StatusConflict, response.ErrSessionTimeout)
	case errors.Is(err, service.ErrUnknownQuestion):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownQuestion)
	case errors.Is(err, service.ErrNotTerminal):
		response.Fail(c, http.StatusConflict, response.ErrNotTerminal)
	case errors.Is(err, service.ErrDependencyExists):
		response.Fail(c, http.StatusConflict, response.ErrDependencyExists)
	case errors.Is(err, service.ErrDuplicateRequest):
		response.Fail(c, http.StatusTooManyRequests, response.ErrDuplicateRequest)
	case errors.Is(err, service.ErrInvalidCredentials):
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// paramID parses the :id path segment.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return 0, false
	}
	return id, true
}

// pageParams parses ?page and ?per_page with sane bounds.
func pageParams(c *gin.Context) (page, perPage int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ = strconv.Atoi(c.DefaultQuery("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return page, perPage
}

// buildPagination computes the pagination block from a total count.
func buildPagination(page, perPage int, total int64) *response.Pagination {
	totalPages := int((total + int64(perPage) - 1) / int64(perPage))
	return &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	}
}
