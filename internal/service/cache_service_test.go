package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	"github.com/class-unity/classunity-api/internal/repository"
	"github.com/class-unity/classunity-api/pkg/config"
)

func newCacheFixture(t *testing.T) (*CacheService, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	repo := repository.NewCacheRepository(client, zap.NewNop())
	svc := NewCacheService(repo, NewMetricsService(), config.CacheConfig{
		Enabled:      true,
		ListTTL:      time.Minute,
		DashboardTTL: time.Minute,
	}, nil)
	return svc, mr
}

func TestCacheListRoundTrip(t *testing.T) {
	svc, _ := newCacheFixture(t)
	ctx := context.Background()

	p := authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher}
	key := svc.ListKey(authz.TableExam, p, models.ListQuery{Page: 1, PageSize: 10})

	svc.SetList(ctx, key, []string{"exam-1", "exam-2"})

	var got []string
	require.True(t, svc.GetList(ctx, key, &got))
	assert.Equal(t, []string{"exam-1", "exam-2"}, got)
}

func TestCacheKeysSeparatePrincipals(t *testing.T) {
	svc, _ := newCacheFixture(t)
	ctx := context.Background()
	query := models.ListQuery{Page: 1, PageSize: 10}

	teacherKey := svc.ListKey(authz.TableExam, authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher}, query)
	studentKey := svc.ListKey(authz.TableExam, authz.Principal{UserID: "stu-1", Role: models.RoleStudent}, query)
	require.NotEqual(t, teacherKey, studentKey)

	svc.SetList(ctx, teacherKey, []string{"exam-1"})

	var got []string
	assert.False(t, svc.GetList(ctx, studentKey, &got))
}

func TestCacheInvalidateEntityDropsListsAndDashboards(t *testing.T) {
	svc, _ := newCacheFixture(t)
	ctx := context.Background()

	teacher := authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher}
	examKey := svc.ListKey(authz.TableExam, teacher, models.ListQuery{Page: 1, PageSize: 10})
	studentKey := svc.ListKey(authz.TableStudent, teacher, models.ListQuery{Page: 1, PageSize: 10})
	dashKey := svc.DashboardKey(teacher)

	svc.SetList(ctx, examKey, []string{"exam-1"})
	svc.SetList(ctx, studentKey, []string{"stu-1"})
	svc.SetDashboard(ctx, dashKey, map[string]int{"exams": 3})

	svc.InvalidateEntity(ctx, authz.TableExam)

	var listGot []string
	assert.False(t, svc.GetList(ctx, examKey, &listGot), "exam lists should be dropped")

	var dashGot map[string]int
	assert.False(t, svc.GetDashboard(ctx, dashKey, &dashGot), "dashboards should be dropped")

	require.True(t, svc.GetList(ctx, studentKey, &listGot), "other tables stay cached")
	assert.Equal(t, []string{"stu-1"}, listGot)
}

func TestCacheDisabledIsNoop(t *testing.T) {
	svc := disabledCache()
	ctx := context.Background()

	key := svc.ListKey(authz.TableExam, authz.Principal{UserID: "teacher-1", Role: models.RoleTeacher}, models.ListQuery{})
	svc.SetList(ctx, key, []string{"exam-1"})

	var got []string
	assert.False(t, svc.GetList(ctx, key, &got))
}
