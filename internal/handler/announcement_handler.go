package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/class-unity/classunity-api/internal/service"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
	"github.com/class-unity/classunity-api/pkg/response"
)

// AnnouncementHandler exposes announcement endpoints.
type AnnouncementHandler struct {
	service *service.AnnouncementService
}

// NewAnnouncementHandler constructs an announcement handler.
func NewAnnouncementHandler(svc *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{service: svc}
}

// List godoc
// @Summary List announcements visible to the caller
// @Tags Announcements
// @Produce json
// @Param classId query string false "Filter by class"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	announcements, pagination, err := h.service.List(c.Request.Context(), p, listQueryFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements, pagination)
}

// Get godoc
// @Summary Get announcement detail
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	announcement, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Create godoc
// @Summary Create announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param payload body service.AnnouncementRequest true "Announcement payload"
// @Success 201 {object} response.Envelope
// @Router /announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	announcement, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Update godoc
// @Summary Update announcement
// @Tags Announcements
// @Accept json
// @Produce json
// @Param id path string true "Announcement ID"
// @Param payload body service.AnnouncementRequest true "Announcement payload"
// @Success 200 {object} response.Envelope
// @Router /announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	announcement, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Delete godoc
// @Summary Delete announcement
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 204
// @Router /announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
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
