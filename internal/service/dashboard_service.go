package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type dashboardRepository interface {
	AdminCounts(ctx context.Context) (map[string]int, error)
	TeacherCounts(ctx context.Context, teacherID string) (map[string]int, error)
	StudentCounts(ctx context.Context, studentID string) (map[string]int, error)
}

// DashboardService shapes the landing-page summary per role.
type DashboardService struct {
	repo   dashboardRepository
	cache  *CacheService
	logger *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(repo dashboardRepository, cache *CacheService, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{repo: repo, cache: cache, logger: logger}
}

// Summary returns the role-shaped counts for the principal.
func (s *DashboardService) Summary(ctx context.Context, p authz.Principal) (*models.DashboardSummary, error) {
	key := s.cache.DashboardKey(p)
	var cached models.DashboardSummary
	if s.cache.GetDashboard(ctx, key, &cached) {
		return &cached, nil
	}

	var (
		counts map[string]int
		err    error
	)
	switch p.Role {
	case models.RoleAdmin:
		counts, err = s.repo.AdminCounts(ctx)
	case models.RoleTeacher:
		counts, err = s.repo.TeacherCounts(ctx, p.UserID)
	case models.RoleStudent:
		counts, err = s.repo.StudentCounts(ctx, p.UserID)
	default:
		return nil, appErrors.ErrForbidden
	}
	if err != nil {
		return nil, storageError(err, "dashboard")
	}

	summary := &models.DashboardSummary{Role: p.Role, Counts: counts}
	s.cache.SetDashboard(ctx, key, summary)
	return summary, nil
}
