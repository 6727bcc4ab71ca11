package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type departmentRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.Department, int, error)
	FindByID(ctx context.Context, id string) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id string) error
}

// DepartmentService handles department workflows. Departments are readable
// by everyone; mutations are admin-only.
type DepartmentService struct {
	repo      departmentRepository
	guard     *authz.MutationGuard
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDepartmentService constructs the service.
func NewDepartmentService(repo departmentRepository, guard *authz.MutationGuard, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *DepartmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DepartmentService{repo: repo, guard: guard, cache: cache, validator: validate, logger: logger}
}

// DepartmentRequest describes the create/update payload.
type DepartmentRequest struct {
	Name string `json:"name" validate:"required"`
}

type departmentListPayload struct {
	Departments []models.Department `json:"departments"`
	Total       int                 `json:"total"`
}

// List returns departments.
func (s *DepartmentService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.Department, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableDepartment, p, q)
	var cached departmentListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Departments, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableDepartment, p, q)
	departments, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "departments")
	}

	s.cache.SetList(ctx, key, departmentListPayload{Departments: departments, Total: total})
	return departments, pagination(q, total), nil
}

// Get returns one department.
func (s *DepartmentService) Get(ctx context.Context, _ authz.Principal, id string) (*models.Department, error) {
	department, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "department")
	}
	return department, nil
}

// Create registers a new department.
func (s *DepartmentService) Create(ctx context.Context, p authz.Principal, req DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableDepartment, authz.ActionCreate, authz.MutationRef{}); err != nil {
		return nil, err
	}

	department := &models.Department{Name: req.Name}
	if err := s.repo.Create(ctx, department); err != nil {
		return nil, storageError(err, "department")
	}
	s.cache.InvalidateEntity(ctx, authz.TableDepartment)
	return department, nil
}

// Update renames a department.
func (s *DepartmentService) Update(ctx context.Context, p authz.Principal, id string, req DepartmentRequest) (*models.Department, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableDepartment, authz.ActionUpdate, authz.MutationRef{RowID: id}); err != nil {
		return nil, err
	}

	department := &models.Department{ID: id, Name: req.Name}
	if err := s.repo.Update(ctx, department); err != nil {
		return nil, storageError(err, "department")
	}
	s.cache.InvalidateEntity(ctx, authz.TableDepartment)
	return department, nil
}

// Delete removes a department.
func (s *DepartmentService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableDepartment, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "department")
	}
	s.cache.InvalidateEntity(ctx, authz.TableDepartment)
	return nil
}
