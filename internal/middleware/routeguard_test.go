package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
)

func guardRouter(t *testing.T, role models.Role) *gin.Engine {
	t.Helper()
	table, err := authz.DefaultRouteTable("/api/v1")
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(ContextUserKey, &models.SessionClaims{UserID: "user-1", Role: role})
	})
	r.Use(RouteGuard(table))
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.GET("/api/v1/courses", ok)
	r.GET("/api/v1/students", ok)
	r.GET("/api/v1/exams", ok)
	return r
}

func get(r *gin.Engine, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouteGuardAllowsPermittedRole(t *testing.T) {
	r := guardRouter(t, models.RoleAdmin)
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/courses", nil).Code)
}

func TestRouteGuardDeniesAPIClientsWith403(t *testing.T) {
	r := guardRouter(t, models.RoleStudent)
	w := get(r, "/api/v1/courses", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRouteGuardRedirectsBrowserNavigations(t *testing.T) {
	r := guardRouter(t, models.RoleStudent)
	w := get(r, "/api/v1/courses", map[string]string{"Accept": "text/html,application/xhtml+xml"})
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/", w.Header().Get("Location"))
}

func TestRouteGuardTeacherCanReachStudents(t *testing.T) {
	r := guardRouter(t, models.RoleTeacher)
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/students", nil).Code)
}

func TestRouteGuardStudentCanReachExams(t *testing.T) {
	r := guardRouter(t, models.RoleStudent)
	assert.Equal(t, http.StatusOK, get(r, "/api/v1/exams", nil).Code)
}

func TestRouteGuardRequiresClaims(t *testing.T) {
	table, err := authz.DefaultRouteTable("/api/v1")
	require.NoError(t, err)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RouteGuard(table))
	r.GET("/api/v1/exams", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, get(r, "/api/v1/exams", nil).Code)
}
