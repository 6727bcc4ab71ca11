package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
	"github.com/class-unity/classunity-api/pkg/identity"
	"github.com/class-unity/classunity-api/pkg/jobs"
)

type studentRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.StudentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	CreateEnrolled(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
}

// StudentService handles student workflows. Enrollment verifies class
// capacity inside the insert transaction; account provisioning follows the
// same remote-first saga as teachers.
type StudentService struct {
	repo      studentRepository
	identity  identity.Provider
	guard     *authz.MutationGuard
	cache     *CacheService
	queue     jobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the service.
func NewStudentService(repo studentRepository, provider identity.Provider, guard *authz.MutationGuard, cache *CacheService, queue jobEnqueuer, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, identity: provider, guard: guard, cache: cache, queue: queue, validator: validate, logger: logger}
}

// StudentCreateRequest describes the create payload.
type StudentCreateRequest struct {
	Username     string    `json:"username" validate:"required,min=3"`
	Password     string    `json:"password" validate:"required,min=8"`
	Name         string    `json:"name" validate:"required"`
	Surname      string    `json:"surname" validate:"required"`
	Email        *string   `json:"email" validate:"omitempty,email"`
	Phone        *string   `json:"phone"`
	Address      string    `json:"address"`
	Img          *string   `json:"img"`
	Sex          string    `json:"sex" validate:"required,oneof=MALE FEMALE"`
	Birthday     time.Time `json:"birthday" validate:"required"`
	ClassID      string    `json:"class_id" validate:"required"`
	DepartmentID string    `json:"department_id" validate:"required"`
}

// StudentUpdateRequest describes the update payload.
type StudentUpdateRequest struct {
	Username     string    `json:"username" validate:"required,min=3"`
	Password     string    `json:"password" validate:"omitempty,min=8"`
	Name         string    `json:"name" validate:"required"`
	Surname      string    `json:"surname" validate:"required"`
	Email        *string   `json:"email" validate:"omitempty,email"`
	Phone        *string   `json:"phone"`
	Address      string    `json:"address"`
	Img          *string   `json:"img"`
	Sex          string    `json:"sex" validate:"required,oneof=MALE FEMALE"`
	Birthday     time.Time `json:"birthday" validate:"required"`
	ClassID      string    `json:"class_id" validate:"required"`
	DepartmentID string    `json:"department_id" validate:"required"`
}

type studentListPayload struct {
	Students []models.StudentDetail `json:"students"`
	Total    int                    `json:"total"`
}

// List returns the students visible to the principal.
func (s *StudentService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.StudentDetail, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableStudent, p, q)
	var cached studentListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Students, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableStudent, p, q)
	students, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "students")
	}

	s.cache.SetList(ctx, key, studentListPayload{Students: students, Total: total})
	return students, pagination(q, total), nil
}

// Get returns one student if visible to the principal. Students may only
// read themselves.
func (s *StudentService) Get(ctx context.Context, p authz.Principal, id string) (*models.StudentDetail, error) {
	if p.Role == models.RoleStudent && p.UserID != id {
		return nil, appErrors.ErrForbidden
	}
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "student")
	}
	return student, nil
}

// Create provisions the remote account, then enrolls the student. A full
// class or any other local failure deletes the remote account again.
func (s *StudentService) Create(ctx context.Context, p authz.Principal, req StudentCreateRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableStudent, authz.ActionCreate, authz.MutationRef{}); err != nil {
		return nil, err
	}

	accountID, err := s.identity.CreateUser(ctx, identity.CreateUserParams{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.Name,
		LastName:  req.Surname,
		Role:      string(models.RoleStudent),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision account")
	}

	student := &models.Student{
		ID:           accountID,
		Username:     req.Username,
		Name:         req.Name,
		Surname:      req.Surname,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Img:          req.Img,
		Sex:          req.Sex,
		Birthday:     req.Birthday,
		ClassID:      req.ClassID,
		DepartmentID: req.DepartmentID,
	}
	if err := s.repo.CreateEnrolled(ctx, student); err != nil {
		s.compensateCreate(ctx, accountID)
		if errors.Is(err, appErrors.ErrClassFull) {
			return nil, appErrors.ErrClassFull
		}
		return nil, storageError(err, "student")
	}

	s.enqueueChatUpsert(student)
	s.cache.InvalidateEntity(ctx, authz.TableStudent)
	s.cache.InvalidateEntity(ctx, authz.TableClass)
	return student, nil
}

// Update writes the local row (re-checking capacity on a class move), then
// pushes the account change to the provider.
func (s *StudentService) Update(ctx context.Context, p authz.Principal, id string, req StudentUpdateRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableStudent, authz.ActionUpdate, authz.MutationRef{RowID: id}); err != nil {
		return nil, err
	}

	student := &models.Student{
		ID:           id,
		Username:     req.Username,
		Name:         req.Name,
		Surname:      req.Surname,
		Email:        req.Email,
		Phone:        req.Phone,
		Address:      req.Address,
		Img:          req.Img,
		Sex:          req.Sex,
		Birthday:     req.Birthday,
		ClassID:      req.ClassID,
		DepartmentID: req.DepartmentID,
	}
	if err := s.repo.Update(ctx, student); err != nil {
		if errors.Is(err, appErrors.ErrClassFull) {
			return nil, appErrors.ErrClassFull
		}
		return nil, storageError(err, "student")
	}

	params := identity.UpdateUserParams{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.Name,
		LastName:  req.Surname,
	}
	if err := s.identity.UpdateUser(ctx, id, params); err != nil {
		s.logger.Warn("identity update failed, queued for retry", zap.String("student_id", id), zap.Error(err))
		s.enqueue(JobIdentityUpdate, IdentityUpdatePayload{UserID: id, Params: params})
	}

	s.enqueueChatUpsert(student)
	s.cache.InvalidateEntity(ctx, authz.TableStudent)
	s.cache.InvalidateEntity(ctx, authz.TableClass)
	return student, nil
}

// Delete removes the remote account first and aborts if that fails, then
// deletes the local row.
func (s *StudentService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableStudent, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}

	if err := s.identity.DeleteUser(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "student")
	}

	s.cache.InvalidateEntity(ctx, authz.TableStudent)
	s.cache.InvalidateEntity(ctx, authz.TableClass)
	return nil
}

func (s *StudentService) compensateCreate(ctx context.Context, accountID string) {
	if err := s.identity.DeleteUser(ctx, accountID); err != nil {
		s.logger.Error("compensating account delete failed, queued for retry", zap.String("account_id", accountID), zap.Error(err))
		s.enqueue(JobIdentityDelete, IdentityDeletePayload{UserID: accountID})
	}
}

func (s *StudentService) enqueueChatUpsert(student *models.Student) {
	s.enqueue(JobChatUpsert, ChatUpsertPayload{
		ID:   student.ID,
		Name: student.Name + " " + student.Surname,
		Role: string(models.RoleStudent),
	})
}

func (s *StudentService) enqueue(jobType string, payload interface{}) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobType, Payload: payload}); err != nil {
		s.logger.Error("failed to enqueue job", zap.String("type", jobType), zap.Error(err))
	}
}
