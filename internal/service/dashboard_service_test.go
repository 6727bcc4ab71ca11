package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type fakeDashboardRepo struct {
	adminCalls   int
	teacherCalls []string
	studentCalls []string
}

func (f *fakeDashboardRepo) AdminCounts(context.Context) (map[string]int, error) {
	f.adminCalls++
	return map[string]int{"teachers": 12, "students": 240}, nil
}

func (f *fakeDashboardRepo) TeacherCounts(_ context.Context, teacherID string) (map[string]int, error) {
	f.teacherCalls = append(f.teacherCalls, teacherID)
	return map[string]int{"chapters": 5}, nil
}

func (f *fakeDashboardRepo) StudentCounts(_ context.Context, studentID string) (map[string]int, error) {
	f.studentCalls = append(f.studentCalls, studentID)
	return map[string]int{"exams": 3}, nil
}

func TestDashboardSummaryDispatchesByRole(t *testing.T) {
	repo := &fakeDashboardRepo{}
	svc := NewDashboardService(repo, disabledCache(), nil)

	summary, err := svc.Summary(context.Background(), admin())
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, summary.Role)
	assert.Equal(t, 240, summary.Counts["students"])

	_, err = svc.Summary(context.Background(), authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, []string{"teacher-1"}, repo.teacherCalls)

	_, err = svc.Summary(context.Background(), authz.Principal{UserID: "stu-1", Role: models.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, []string{"stu-1"}, repo.studentCalls)
}

func TestDashboardSummaryUnknownRoleForbidden(t *testing.T) {
	svc := NewDashboardService(&fakeDashboardRepo{}, disabledCache(), nil)

	_, err := svc.Summary(context.Background(), authz.Principal{UserID: "u-1", Role: models.Role("owner")})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}
