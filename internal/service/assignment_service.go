package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type assignmentRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.AssignmentDetail, int, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	Update(ctx context.Context, assignment *models.Assignment) error
	Delete(ctx context.Context, id string) error
}

// AssignmentService handles assignment workflows.
type AssignmentService struct {
	repo      assignmentRepository
	guard     *authz.MutationGuard
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(repo assignmentRepository, guard *authz.MutationGuard, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, guard: guard, cache: cache, validator: validate, logger: logger}
}

// AssignmentRequest describes the create/update payload.
type AssignmentRequest struct {
	Title     string    `json:"title" validate:"required"`
	StartDate time.Time `json:"start_date" validate:"required"`
	DueDate   time.Time `json:"due_date" validate:"required,gtfield=StartDate"`
	ChapterID string    `json:"chapter_id" validate:"required"`
}

type assignmentListPayload struct {
	Assignments []models.AssignmentDetail `json:"assignments"`
	Total       int                       `json:"total"`
}

// List returns the assignments visible to the principal.
func (s *AssignmentService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.AssignmentDetail, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableAssignment, p, q)
	var cached assignmentListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Assignments, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableAssignment, p, q)
	assignments, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "assignments")
	}

	s.cache.SetList(ctx, key, assignmentListPayload{Assignments: assignments, Total: total})
	return assignments, pagination(q, total), nil
}

// Get returns one assignment if it falls inside the principal's scope.
func (s *AssignmentService) Get(ctx context.Context, p authz.Principal, id string) (*models.AssignmentDetail, error) {
	filter := scopedID(authz.Scope(authz.TableAssignment, p, models.ListQuery{}), "a.id", id)
	assignments, _, err := s.repo.List(ctx, filter, 1, 1)
	if err != nil {
		return nil, storageError(err, "assignment")
	}
	if len(assignments) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
	}
	return &assignments[0], nil
}

// Create registers a new assignment after the ownership check.
func (s *AssignmentService) Create(ctx context.Context, p authz.Principal, req AssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableAssignment, authz.ActionCreate, authz.MutationRef{ChapterID: req.ChapterID}); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		Title:     req.Title,
		StartDate: req.StartDate,
		DueDate:   req.DueDate,
		ChapterID: req.ChapterID,
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, storageError(err, "assignment")
	}
	s.cache.InvalidateEntity(ctx, authz.TableAssignment)
	return assignment, nil
}

// Update modifies an existing assignment after the ownership check.
func (s *AssignmentService) Update(ctx context.Context, p authz.Principal, id string, req AssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	ref := authz.MutationRef{RowID: id, ChapterID: req.ChapterID}
	if err := s.guard.Authorize(ctx, p, authz.TableAssignment, authz.ActionUpdate, ref); err != nil {
		return nil, err
	}

	assignment := &models.Assignment{
		ID:        id,
		Title:     req.Title,
		StartDate: req.StartDate,
		DueDate:   req.DueDate,
		ChapterID: req.ChapterID,
	}
	if err := s.repo.Update(ctx, assignment); err != nil {
		return nil, storageError(err, "assignment")
	}
	s.cache.InvalidateEntity(ctx, authz.TableAssignment)
	s.cache.InvalidateEntity(ctx, authz.TableResult)
	return assignment, nil
}

// Delete removes an assignment after the ownership check.
func (s *AssignmentService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableAssignment, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "assignment")
	}
	s.cache.InvalidateEntity(ctx, authz.TableAssignment)
	s.cache.InvalidateEntity(ctx, authz.TableResult)
	return nil
}
