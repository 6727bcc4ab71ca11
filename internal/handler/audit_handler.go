package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/class-unity/classunity-api/internal/service"
	"github.com/class-unity/classunity-api/pkg/response"
)

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary Recent audit entries
// @Tags Audit
// @Produce json
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /audit [get]
func (h *AuditHandler) List(c *gin.Context) {
	p, err := principalFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	entries, err := h.service.Recent(c.Request.Context(), p, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}
