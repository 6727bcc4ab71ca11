package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	"github.com/class-unity/classunity-api/internal/repository"
	"github.com/class-unity/classunity-api/pkg/config"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

// CacheService fronts the Redis cache for list and dashboard payloads.
// Keys embed the principal so a cached page can never leak across scopes;
// mutations invalidate by table pattern.
type CacheService struct {
	repo    *repository.CacheRepository
	metrics *MetricsService
	cfg     config.CacheConfig
	logger  *zap.Logger
}

// NewCacheService constructs the cache service.
func NewCacheService(repo *repository.CacheRepository, metrics *MetricsService, cfg config.CacheConfig, logger *zap.Logger) *CacheService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheService{repo: repo, metrics: metrics, cfg: cfg, logger: logger}
}

// ListKey derives the cache key for one scoped list page.
func (s *CacheService) ListKey(table authz.Table, p authz.Principal, q models.ListQuery) string {
	return fmt.Sprintf("list:%s:%s:%s:c=%s,t=%s,st=%s,q=%s,p=%d,s=%d",
		table, p.Role, p.UserID, q.ClassID, q.TeacherID, q.StudentID, q.Search, q.Page, q.PageSize)
}

// DashboardKey derives the cache key for a principal's dashboard.
func (s *CacheService) DashboardKey(p authz.Principal) string {
	return fmt.Sprintf("dashboard:%s:%s", p.Role, p.UserID)
}

// GetList loads a cached list payload. Returns false on miss or when
// caching is disabled.
func (s *CacheService) GetList(ctx context.Context, key string, dest interface{}) bool {
	return s.get(ctx, key, dest)
}

// SetList stores a list payload with the configured list TTL.
func (s *CacheService) SetList(ctx context.Context, key string, value interface{}) {
	s.set(ctx, key, value, s.cfg.ListTTL)
}

// GetDashboard loads a cached dashboard summary.
func (s *CacheService) GetDashboard(ctx context.Context, key string, dest interface{}) bool {
	return s.get(ctx, key, dest)
}

// SetDashboard stores a dashboard summary with the configured TTL.
func (s *CacheService) SetDashboard(ctx context.Context, key string, value interface{}) {
	s.set(ctx, key, value, s.cfg.DashboardTTL)
}

// Get loads an arbitrary cached value; used for provider-side lookups with
// their own TTL discipline.
func (s *CacheService) Get(ctx context.Context, key string, dest interface{}) bool {
	return s.get(ctx, key, dest)
}

// Set stores an arbitrary value with an explicit TTL.
func (s *CacheService) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	s.set(ctx, key, value, ttl)
}

// InvalidateEntity drops every cached list page for the table along with all
// dashboards, mirroring path revalidation after a mutation.
func (s *CacheService) InvalidateEntity(ctx context.Context, table authz.Table) {
	if !s.enabled() {
		return
	}
	for _, pattern := range []string{fmt.Sprintf("list:%s:*", table), "dashboard:*"} {
		if err := s.repo.DeleteByPattern(ctx, pattern); err != nil {
			s.logger.Warn("cache invalidation failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}

func (s *CacheService) enabled() bool {
	return s != nil && s.cfg.Enabled && s.repo != nil
}

func (s *CacheService) get(ctx context.Context, key string, dest interface{}) bool {
	if !s.enabled() {
		return false
	}
	start := time.Now()
	err := s.repo.Get(ctx, key, dest)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

func (s *CacheService) set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !s.enabled() {
		return
	}
	if err := s.repo.Set(ctx, key, value, ttl); err != nil {
		s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}
