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

type examRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.ExamDetail, int, error)
	Create(ctx context.Context, exam *models.Exam) error
	Update(ctx context.Context, exam *models.Exam) error
	Delete(ctx context.Context, id string) error
}

// ExamService handles exam workflows.
type ExamService struct {
	repo      examRepository
	guard     *authz.MutationGuard
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs the service.
func NewExamService(repo examRepository, guard *authz.MutationGuard, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, guard: guard, cache: cache, validator: validate, logger: logger}
}

// ExamRequest describes the create/update payload.
type ExamRequest struct {
	Title     string    `json:"title" validate:"required"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	ChapterID string    `json:"chapter_id" validate:"required"`
}

type examListPayload struct {
	Exams []models.ExamDetail `json:"exams"`
	Total int                 `json:"total"`
}

// List returns the exams visible to the principal.
func (s *ExamService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.ExamDetail, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableExam, p, q)
	var cached examListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Exams, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableExam, p, q)
	exams, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "exams")
	}

	s.cache.SetList(ctx, key, examListPayload{Exams: exams, Total: total})
	return exams, pagination(q, total), nil
}

// Get returns one exam if it falls inside the principal's scope.
func (s *ExamService) Get(ctx context.Context, p authz.Principal, id string) (*models.ExamDetail, error) {
	filter := scopedID(authz.Scope(authz.TableExam, p, models.ListQuery{}), "e.id", id)
	exams, _, err := s.repo.List(ctx, filter, 1, 1)
	if err != nil {
		return nil, storageError(err, "exam")
	}
	if len(exams) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
	}
	return &exams[0], nil
}

// Create registers a new exam after the ownership check.
func (s *ExamService) Create(ctx context.Context, p authz.Principal, req ExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableExam, authz.ActionCreate, authz.MutationRef{ChapterID: req.ChapterID}); err != nil {
		return nil, err
	}

	exam := &models.Exam{
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		ChapterID: req.ChapterID,
	}
	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, storageError(err, "exam")
	}
	s.cache.InvalidateEntity(ctx, authz.TableExam)
	return exam, nil
}

// Update modifies an existing exam after the ownership check.
func (s *ExamService) Update(ctx context.Context, p authz.Principal, id string, req ExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	ref := authz.MutationRef{RowID: id, ChapterID: req.ChapterID}
	if err := s.guard.Authorize(ctx, p, authz.TableExam, authz.ActionUpdate, ref); err != nil {
		return nil, err
	}

	exam := &models.Exam{
		ID:        id,
		Title:     req.Title,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		ChapterID: req.ChapterID,
	}
	if err := s.repo.Update(ctx, exam); err != nil {
		return nil, storageError(err, "exam")
	}
	s.cache.InvalidateEntity(ctx, authz.TableExam)
	s.cache.InvalidateEntity(ctx, authz.TableResult)
	return exam, nil
}

// Delete removes an exam after the ownership check.
func (s *ExamService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableExam, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "exam")
	}
	s.cache.InvalidateEntity(ctx, authz.TableExam)
	s.cache.InvalidateEntity(ctx, authz.TableResult)
	return nil
}
