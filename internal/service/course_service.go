package service

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.CourseDetail, int, error)
	Create(ctx context.Context, course *models.Course, teacherIDs []string) error
	Update(ctx context.Context, course *models.Course, teacherIDs []string) error
	Delete(ctx context.Context, id string) error
}

// CourseService handles course workflows. Mutations are admin-only.
type CourseService struct {
	repo      courseRepository
	guard     *authz.MutationGuard
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the service.
func NewCourseService(repo courseRepository, guard *authz.MutationGuard, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, guard: guard, cache: cache, validator: validate, logger: logger}
}

// CourseRequest describes the create/update payload.
type CourseRequest struct {
	Name       string   `json:"name" validate:"required"`
	TeacherIDs []string `json:"teacher_ids"`
}

type courseListPayload struct {
	Courses []models.CourseDetail `json:"courses"`
	Total   int                   `json:"total"`
}

// List returns the courses visible to the principal.
func (s *CourseService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.CourseDetail, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableCourse, p, q)
	var cached courseListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Courses, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableCourse, p, q)
	courses, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "courses")
	}

	s.cache.SetList(ctx, key, courseListPayload{Courses: courses, Total: total})
	return courses, pagination(q, total), nil
}

// Get returns one course if it falls inside the principal's scope.
func (s *CourseService) Get(ctx context.Context, p authz.Principal, id string) (*models.CourseDetail, error) {
	filter := scopedID(authz.Scope(authz.TableCourse, p, models.ListQuery{}), "co.id", id)
	courses, _, err := s.repo.List(ctx, filter, 1, 1)
	if err != nil {
		return nil, storageError(err, "course")
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return &courses[0], nil
}

// Create registers a new course with its teacher assignments.
func (s *CourseService) Create(ctx context.Context, p authz.Principal, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableCourse, authz.ActionCreate, authz.MutationRef{}); err != nil {
		return nil, err
	}

	course := &models.Course{Name: req.Name}
	if err := s.repo.Create(ctx, course, req.TeacherIDs); err != nil {
		return nil, storageError(err, "course")
	}
	s.cache.InvalidateEntity(ctx, authz.TableCourse)
	s.cache.InvalidateEntity(ctx, authz.TableTeacher)
	return course, nil
}

// Update modifies a course and replaces its teacher assignments.
func (s *CourseService) Update(ctx context.Context, p authz.Principal, id string, req CourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableCourse, authz.ActionUpdate, authz.MutationRef{RowID: id}); err != nil {
		return nil, err
	}

	course := &models.Course{ID: id, Name: req.Name}
	if err := s.repo.Update(ctx, course, req.TeacherIDs); err != nil {
		return nil, storageError(err, "course")
	}
	s.cache.InvalidateEntity(ctx, authz.TableCourse)
	s.cache.InvalidateEntity(ctx, authz.TableTeacher)
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableCourse, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "course")
	}
	s.cache.InvalidateEntity(ctx, authz.TableCourse)
	s.cache.InvalidateEntity(ctx, authz.TableTeacher)
	return nil
}
