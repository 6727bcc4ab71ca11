package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type chapterRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.ChapterDetail, int, error)
	Create(ctx context.Context, chapter *models.Chapter) error
	Update(ctx context.Context, chapter *models.Chapter) error
	Delete(ctx context.Context, id string) error
}

// ChapterService handles chapter workflows. Chapters anchor the ownership
// chain, so teacher mutations are checked against the declared owner.
type ChapterService struct {
	repo      chapterRepository
	guard     *authz.MutationGuard
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewChapterService constructs the service.
func NewChapterService(repo chapterRepository, guard *authz.MutationGuard, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ChapterService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &ChapterService{repo: repo, guard: guard, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
		switch strings.ToUpper(fl.Field().String()) {
		case "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY":
			return true
		default:
			return false
		}
	})
	return svc
}

// ChapterRequest describes the create/update payload.
type ChapterRequest struct {
	Name      string    `json:"name" validate:"required"`
	Day       string    `json:"day" validate:"required,weekday"`
	StartTime time.Time `json:"start_time" validate:"required"`
	EndTime   time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	CourseID  string    `json:"course_id" validate:"required"`
	ClassID   string    `json:"class_id" validate:"required"`
	TeacherID string    `json:"teacher_id" validate:"required"`
}

type chapterListPayload struct {
	Chapters []models.ChapterDetail `json:"chapters"`
	Total    int                    `json:"total"`
}

// List returns the chapters visible to the principal.
func (s *ChapterService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.ChapterDetail, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableChapter, p, q)
	var cached chapterListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Chapters, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableChapter, p, q)
	chapters, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "chapters")
	}

	s.cache.SetList(ctx, key, chapterListPayload{Chapters: chapters, Total: total})
	return chapters, pagination(q, total), nil
}

// Get returns one chapter if it falls inside the principal's scope.
func (s *ChapterService) Get(ctx context.Context, p authz.Principal, id string) (*models.ChapterDetail, error) {
	filter := scopedID(authz.Scope(authz.TableChapter, p, models.ListQuery{}), "ch.id", id)
	chapters, _, err := s.repo.List(ctx, filter, 1, 1)
	if err != nil {
		return nil, storageError(err, "chapter")
	}
	if len(chapters) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "chapter not found")
	}
	return &chapters[0], nil
}

// Create registers a new chapter after the ownership check.
func (s *ChapterService) Create(ctx context.Context, p authz.Principal, req ChapterRequest) (*models.Chapter, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableChapter, authz.ActionCreate, authz.MutationRef{OwnerTeacherID: req.TeacherID}); err != nil {
		return nil, err
	}

	chapter := s.toModel("", req)
	if err := s.repo.Create(ctx, chapter); err != nil {
		return nil, storageError(err, "chapter")
	}
	s.invalidate(ctx)
	return chapter, nil
}

// Update modifies an existing chapter after the ownership check.
func (s *ChapterService) Update(ctx context.Context, p authz.Principal, id string, req ChapterRequest) (*models.Chapter, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	ref := authz.MutationRef{RowID: id, OwnerTeacherID: req.TeacherID}
	if err := s.guard.Authorize(ctx, p, authz.TableChapter, authz.ActionUpdate, ref); err != nil {
		return nil, err
	}

	chapter := s.toModel(id, req)
	if err := s.repo.Update(ctx, chapter); err != nil {
		return nil, storageError(err, "chapter")
	}
	s.invalidate(ctx)
	return chapter, nil
}

// Delete removes a chapter after the ownership check.
func (s *ChapterService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableChapter, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "chapter")
	}
	s.invalidate(ctx)
	return nil
}

func (s *ChapterService) toModel(id string, req ChapterRequest) *models.Chapter {
	return &models.Chapter{
		ID:        id,
		Name:      req.Name,
		Day:       strings.ToUpper(req.Day),
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		CourseID:  req.CourseID,
		ClassID:   req.ClassID,
		TeacherID: req.TeacherID,
	}
}

// a chapter change shifts the scope of everything hanging off it
func (s *ChapterService) invalidate(ctx context.Context) {
	for _, table := range []authz.Table{authz.TableChapter, authz.TableExam, authz.TableAssignment, authz.TableResult, authz.TableStudent, authz.TableClass} {
		s.cache.InvalidateEntity(ctx, table)
	}
}
