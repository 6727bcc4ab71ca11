package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type auditRepository interface {
	ListRecent(ctx context.Context, limit int) ([]models.AuditLog, error)
}

// AuditService exposes the mutation trail to administrators.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Recent returns the newest audit entries. Admin-only.
func (s *AuditService) Recent(ctx context.Context, p authz.Principal, limit int) ([]models.AuditLog, error) {
	if p.Role != models.RoleAdmin {
		return nil, appErrors.ErrForbidden
	}
	entries, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, storageError(err, "audit logs")
	}
	return entries, nil
}
