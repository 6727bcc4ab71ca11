package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/middleware"
	"github.com/class-unity/classunity-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.SessionClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.SessionClaims)
	if !ok {
		return nil
	}
	return claims
}

func principalFromContext(c *gin.Context) (authz.Principal, error) {
	return authz.PrincipalFromClaims(claimsFromContext(c))
}

func listQueryFromContext(c *gin.Context) models.ListQuery {
	q := models.ListQuery{
		ClassID:   c.Query("classId"),
		TeacherID: c.Query("teacherId"),
		StudentID: c.Query("studentId"),
		Search:    strings.TrimSpace(c.Query("search")),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		q.PageSize = size
	}
	return q
}
