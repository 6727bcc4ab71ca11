package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/class-unity/classunity-api/internal/service"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
	"github.com/class-unity/classunity-api/pkg/response"
)

// ChapterHandler exposes chapter CRUD endpoints.
type ChapterHandler struct {
	service *service.ChapterService
}

// NewChapterHandler constructs a chapter handler.
func NewChapterHandler(svc *service.ChapterService) *ChapterHandler {
	return &ChapterHandler{service: svc}
}

// List godoc
// @Summary List chapters visible to the caller
// @Tags Chapters
// @Produce json
// @Param classId query string false "Filter by class"
// @Param teacherId query string false "Filter by teacher"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /chapters [get]
func (h *ChapterHandler) List(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	chapters, pagination, err := h.service.List(c.Request.Context(), p, listQueryFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chapters, pagination)
}

// Get godoc
// @Summary Get chapter detail
// @Tags Chapters
// @Produce json
// @Param id path string true "Chapter ID"
// @Success 200 {object} response.Envelope
// @Router /chapters/{id} [get]
func (h *ChapterHandler) Get(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	chapter, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chapter, nil)
}

// Create godoc
// @Summary Create chapter
// @Tags Chapters
// @Accept json
// @Produce json
// @Param payload body service.ChapterRequest true "Chapter payload"
// @Success 201 {object} response.Envelope
// @Router /chapters [post]
func (h *ChapterHandler) Create(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	chapter, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, chapter)
}

// Update godoc
// @Summary Update chapter
// @Tags Chapters
// @Accept json
// @Produce json
// @Param id path string true "Chapter ID"
// @Param payload body service.ChapterRequest true "Chapter payload"
// @Success 200 {object} response.Envelope
// @Router /chapters/{id} [put]
func (h *ChapterHandler) Update(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ChapterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	chapter, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, chapter, nil)
}

// Delete godoc
// @Summary Delete chapter
// @Tags Chapters
// @Produce json
// @Param id path string true "Chapter ID"
// @Success 204
// @Router /chapters/{id} [delete]
func (h *ChapterHandler) Delete(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), p, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
