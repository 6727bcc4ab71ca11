package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type fakeExamRepo struct {
	listed     []models.ExamDetail
	lastFilter authz.Filter
	created    []*models.Exam
}

func (f *fakeExamRepo) List(_ context.Context, filter authz.Filter, _, _ int) ([]models.ExamDetail, int, error) {
	f.lastFilter = filter
	return f.listed, len(f.listed), nil
}

func (f *fakeExamRepo) Create(_ context.Context, exam *models.Exam) error {
	f.created = append(f.created, exam)
	return nil
}

func (f *fakeExamRepo) Update(context.Context, *models.Exam) error { return nil }
func (f *fakeExamRepo) Delete(context.Context, string) error       { return nil }

func validExamRequest() ExamRequest {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	return ExamRequest{
		Title:     "Midterm",
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		ChapterID: "ch-1",
	}
}

func TestExamGetScopesTheLookup(t *testing.T) {
	repo := &fakeExamRepo{listed: []models.ExamDetail{{Exam: models.Exam{ID: "exam-1", Title: "Midterm"}}}}
	svc := NewExamService(repo, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	p := authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher}
	exam, err := svc.Get(context.Background(), p, "exam-1")
	require.NoError(t, err)
	assert.Equal(t, "Midterm", exam.Title)

	// the role clause and the ID clause both reach the repository
	where := repo.lastFilter.Where()
	assert.Contains(t, where, "ch.teacher_id = $1")
	assert.Contains(t, where, "e.id = $2")
	assert.Equal(t, []interface{}{"teacher-1", "exam-1"}, repo.lastFilter.Args)
}

func TestExamGetOutOfScopeIsNotFound(t *testing.T) {
	svc := NewExamService(&fakeExamRepo{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	p := authz.Principal{UserID: "stu-1", Role: models.RoleStudent}
	_, err := svc.Get(context.Background(), p, "exam-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestExamCreateDeniedForForeignChapter(t *testing.T) {
	repo := &fakeExamRepo{}
	svc := NewExamService(repo, authz.NewMutationGuard(allowAllResolver{owner: "teacher-2"}), disabledCache(), nil, nil)

	p := authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher}
	_, err := svc.Create(context.Background(), p, validExamRequest())
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
	assert.Empty(t, repo.created)
}

func TestExamCreateAllowedForOwnChapter(t *testing.T) {
	repo := &fakeExamRepo{}
	svc := NewExamService(repo, authz.NewMutationGuard(allowAllResolver{owner: "teacher-1"}), disabledCache(), nil, nil)

	p := authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher}
	exam, err := svc.Create(context.Background(), p, validExamRequest())
	require.NoError(t, err)
	assert.Equal(t, "ch-1", exam.ChapterID)
	require.Len(t, repo.created, 1)
}

func TestExamCreateRejectsEndBeforeStart(t *testing.T) {
	svc := NewExamService(&fakeExamRepo{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	req := validExamRequest()
	req.EndTime = req.StartTime.Add(-time.Hour)
	_, err := svc.Create(context.Background(), admin(), req)
	require.Error(t, err)
}

func TestExamCreateDeniedForStudents(t *testing.T) {
	svc := NewExamService(&fakeExamRepo{}, authz.NewMutationGuard(allowAllResolver{}), disabledCache(), nil, nil)

	p := authz.Principal{UserID: "stu-1", Role: models.RoleStudent}
	_, err := svc.Create(context.Background(), p, validExamRequest())
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
