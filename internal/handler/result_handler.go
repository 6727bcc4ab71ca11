package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/class-unity/classunity-api/internal/service"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
	"github.com/class-unity/classunity-api/pkg/response"
)

// ResultHandler exposes result CRUD and export endpoints.
type ResultHandler struct {
	service *service.ResultService
}

// NewResultHandler constructs a result handler.
func NewResultHandler(svc *service.ResultService) *ResultHandler {
	return &ResultHandler{service: svc}
}

// List godoc
// @Summary List results visible to the caller
// @Tags Results
// @Produce json
// @Param classId query string false "Filter by class"
// @Param teacherId query string false "Filter by teacher"
// @Param studentId query string false "Filter by student"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /results [get]
func (h *ResultHandler) List(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	results, pagination, err := h.service.List(c.Request.Context(), p, listQueryFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, pagination)
}

// Get godoc
// @Summary Get result detail
// @Tags Results
// @Produce json
// @Param id path string true "Result ID"
// @Success 200 {object} response.Envelope
// @Router /results/{id} [get]
func (h *ResultHandler) Get(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Get(c.Request.Context(), p, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Create godoc
// @Summary Create result
// @Tags Results
// @Accept json
// @Produce json
// @Param payload body service.ResultRequest true "Result payload"
// @Success 201 {object} response.Envelope
// @Router /results [post]
func (h *ResultHandler) Create(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Create(c.Request.Context(), p, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Update result
// @Tags Results
// @Accept json
// @Produce json
// @Param id path string true "Result ID"
// @Param payload body service.ResultRequest true "Result payload"
// @Success 200 {object} response.Envelope
// @Router /results/{id} [put]
func (h *ResultHandler) Update(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	result, err := h.service.Update(c.Request.Context(), p, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Delete godoc
// @Summary Delete result
// @Tags Results
// @Produce json
// @Param id path string true "Result ID"
// @Success 204
// @Router /results/{id} [delete]
func (h *ResultHandler) Delete(c *gin.Context) {
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

// Export godoc
// @Summary Export results in the caller's scope
// @Tags Results
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" default(csv)
// @Param classId query string false "Filter by class"
// @Param studentId query string false "Filter by student"
// @Success 200 {file} file
// @Router /results/export [get]
func (h *ResultHandler) Export(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Export(c.Request.Context(), p, listQueryFromContext(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+file.Name+`"`)
	c.Data(http.StatusOK, file.ContentType, file.Data)
}
