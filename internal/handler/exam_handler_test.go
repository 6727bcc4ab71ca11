package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/middleware"
	"github.com/class-unity/classunity-api/internal/models"
	"github.com/class-unity/classunity-api/internal/service"
	"github.com/class-unity/classunity-api/pkg/config"
	"github.com/class-unity/classunity-api/pkg/response"
)

type stubExamRepo struct {
	listed []models.ExamDetail
}

func (s *stubExamRepo) List(context.Context, authz.Filter, int, int) ([]models.ExamDetail, int, error) {
	return s.listed, len(s.listed), nil
}

func (s *stubExamRepo) Create(context.Context, *models.Exam) error { return nil }
func (s *stubExamRepo) Update(context.Context, *models.Exam) error { return nil }
func (s *stubExamRepo) Delete(context.Context, string) error       { return nil }

type stubResolver struct{ owner string }

func (s stubResolver) ChapterTeacher(context.Context, string) (string, error) {
	return s.owner, nil
}
func (s stubResolver) ExamTeacher(context.Context, string) (string, error) { return s.owner, nil }
func (s stubResolver) AssignmentTeacher(context.Context, string) (string, error) {
	return s.owner, nil
}
func (s stubResolver) ResultTeacher(context.Context, string) (string, error) { return s.owner, nil }

func examTestRouter(repo *stubExamRepo, role models.Role) *gin.Engine {
	cache := service.NewCacheService(nil, nil, config.CacheConfig{}, nil)
	svc := service.NewExamService(repo, authz.NewMutationGuard(stubResolver{owner: "teacher-1"}), cache, nil, nil)
	h := NewExamHandler(svc)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, &models.SessionClaims{UserID: "teacher-1", Role: role})
	})
	r.GET("/exams", h.List)
	r.POST("/exams", h.Create)
	return r
}

func TestExamHandlerListWrapsEnvelope(t *testing.T) {
	repo := &stubExamRepo{listed: []models.ExamDetail{{Exam: models.Exam{ID: "exam-1", Title: "Midterm"}}}}
	r := examTestRouter(repo, models.RoleTeacher)

	req := httptest.NewRequest(http.MethodGet, "/exams?page=1&limit=10", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.NotNil(t, envelope.Data)
	require.NotNil(t, envelope.Pagination)
	assert.Equal(t, 1, envelope.Pagination.Page)
	assert.Equal(t, 10, envelope.Pagination.PageSize)
}

func TestExamHandlerCreateValidatesJSON(t *testing.T) {
	r := examTestRouter(&stubExamRepo{}, models.RoleTeacher)

	req := httptest.NewRequest(http.MethodPost, "/exams", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExamHandlerCreateReturns201(t *testing.T) {
	r := examTestRouter(&stubExamRepo{}, models.RoleTeacher)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	body, err := json.Marshal(service.ExamRequest{
		Title:     "Midterm",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		ChapterID: "ch-1",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/exams", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestExamHandlerCreateForbiddenForStudents(t *testing.T) {
	r := examTestRouter(&stubExamRepo{}, models.RoleStudent)

	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	body, err := json.Marshal(service.ExamRequest{
		Title:     "Midterm",
		StartTime: start,
		EndTime:   start.Add(time.Hour),
		ChapterID: "ch-1",
	})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/exams", strings.NewReader(string(body)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
