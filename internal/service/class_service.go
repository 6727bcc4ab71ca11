package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type classRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.ClassDetail, int, error)
	Create(ctx context.Context, class *models.Class) error
	Update(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id string) error
}

// ClassService handles class workflows. Mutations are admin-only.
type ClassService struct {
	repo      classRepository
	guard     *authz.MutationGuard
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the service.
func NewClassService(repo classRepository, guard *authz.MutationGuard, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, guard: guard, cache: cache, validator: validate, logger: logger}
}

// ClassRequest describes the create/update payload.
type ClassRequest struct {
	Name         string  `json:"name" validate:"required"`
	Capacity     int     `json:"capacity" validate:"required,gt=0"`
	DepartmentID string  `json:"department_id" validate:"required"`
	SupervisorID *string `json:"supervisor_id"`
}

type classListPayload struct {
	Classes []models.ClassDetail `json:"classes"`
	Total   int                  `json:"total"`
}

// List returns the classes visible to the principal.
func (s *ClassService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.ClassDetail, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableClass, p, q)
	var cached classListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Classes, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableClass, p, q)
	classes, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "classes")
	}

	s.cache.SetList(ctx, key, classListPayload{Classes: classes, Total: total})
	return classes, pagination(q, total), nil
}

// Get returns one class if it falls inside the principal's scope.
func (s *ClassService) Get(ctx context.Context, p authz.Principal, id string) (*models.ClassDetail, error) {
	filter := scopedID(authz.Scope(authz.TableClass, p, models.ListQuery{}), "c.id", id)
	classes, _, err := s.repo.List(ctx, filter, 1, 1)
	if err != nil {
		return nil, storageError(err, "class")
	}
	if len(classes) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}
	return &classes[0], nil
}

// Create registers a new class.
func (s *ClassService) Create(ctx context.Context, p authz.Principal, req ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableClass, authz.ActionCreate, authz.MutationRef{}); err != nil {
		return nil, err
	}

	class := &models.Class{
		Name:         req.Name,
		Capacity:     req.Capacity,
		DepartmentID: req.DepartmentID,
		SupervisorID: req.SupervisorID,
	}
	if err := s.repo.Create(ctx, class); err != nil {
		return nil, storageError(err, "class")
	}
	s.cache.InvalidateEntity(ctx, authz.TableClass)
	return class, nil
}

// Update modifies an existing class.
func (s *ClassService) Update(ctx context.Context, p authz.Principal, id string, req ClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableClass, authz.ActionUpdate, authz.MutationRef{RowID: id}); err != nil {
		return nil, err
	}

	class := &models.Class{
		ID:           id,
		Name:         req.Name,
		Capacity:     req.Capacity,
		DepartmentID: req.DepartmentID,
		SupervisorID: req.SupervisorID,
	}
	if err := s.repo.Update(ctx, class); err != nil {
		return nil, storageError(err, "class")
	}
	s.cache.InvalidateEntity(ctx, authz.TableClass)
	s.cache.InvalidateEntity(ctx, authz.TableStudent)
	return class, nil
}

// Delete removes a class.
func (s *ClassService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableClass, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "class")
	}
	s.cache.InvalidateEntity(ctx, authz.TableClass)
	s.cache.InvalidateEntity(ctx, authz.TableStudent)
	return nil
}
