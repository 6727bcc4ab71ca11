package service

import (
	"context"
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

type teacherRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.TeacherDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.TeacherDetail, error)
	Create(ctx context.Context, teacher *models.Teacher, courseIDs []string) error
	Update(ctx context.Context, teacher *models.Teacher, courseIDs []string) error
	Delete(ctx context.Context, id string) error
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// TeacherService handles teacher workflows. Accounts live at the identity
// provider; creation provisions the remote account first and compensates by
// deleting it when the local write fails. Deletion removes the remote
// account first and aborts on failure so an orphaned login can never
// outlive its data.
type TeacherService struct {
	repo      teacherRepository
	identity  identity.Provider
	guard     *authz.MutationGuard
	cache     *CacheService
	queue     jobEnqueuer
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService constructs the service.
func NewTeacherService(repo teacherRepository, provider identity.Provider, guard *authz.MutationGuard, cache *CacheService, queue jobEnqueuer, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, identity: provider, guard: guard, cache: cache, queue: queue, validator: validate, logger: logger}
}

// TeacherCreateRequest describes the create payload.
type TeacherCreateRequest struct {
	Username  string    `json:"username" validate:"required,min=3"`
	Password  string    `json:"password" validate:"required,min=8"`
	Name      string    `json:"name" validate:"required"`
	Surname   string    `json:"surname" validate:"required"`
	Email     *string   `json:"email" validate:"omitempty,email"`
	Phone     *string   `json:"phone"`
	Address   string    `json:"address"`
	Img       *string   `json:"img"`
	Sex       string    `json:"sex" validate:"required,oneof=MALE FEMALE"`
	Birthday  time.Time `json:"birthday" validate:"required"`
	CourseIDs []string  `json:"course_ids"`
}

// TeacherUpdateRequest describes the update payload. An empty password
// leaves the remote credential untouched.
type TeacherUpdateRequest struct {
	Username  string    `json:"username" validate:"required,min=3"`
	Password  string    `json:"password" validate:"omitempty,min=8"`
	Name      string    `json:"name" validate:"required"`
	Surname   string    `json:"surname" validate:"required"`
	Email     *string   `json:"email" validate:"omitempty,email"`
	Phone     *string   `json:"phone"`
	Address   string    `json:"address"`
	Img       *string   `json:"img"`
	Sex       string    `json:"sex" validate:"required,oneof=MALE FEMALE"`
	Birthday  time.Time `json:"birthday" validate:"required"`
	CourseIDs []string  `json:"course_ids"`
}

type teacherListPayload struct {
	Teachers []models.TeacherDetail `json:"teachers"`
	Total    int                    `json:"total"`
}

// List returns the teachers visible to the principal.
func (s *TeacherService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.TeacherDetail, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableTeacher, p, q)
	var cached teacherListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Teachers, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableTeacher, p, q)
	teachers, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "teachers")
	}

	s.cache.SetList(ctx, key, teacherListPayload{Teachers: teachers, Total: total})
	return teachers, pagination(q, total), nil
}

// Get returns one teacher if visible to the principal.
func (s *TeacherService) Get(ctx context.Context, p authz.Principal, id string) (*models.TeacherDetail, error) {
	if p.Role == models.RoleStudent {
		return nil, appErrors.ErrForbidden
	}
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storageError(err, "teacher")
	}
	return teacher, nil
}

// Create provisions the remote account, then inserts the local row. A local
// failure deletes the remote account again; if even that fails the cleanup
// is queued for retry.
func (s *TeacherService) Create(ctx context.Context, p authz.Principal, req TeacherCreateRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableTeacher, authz.ActionCreate, authz.MutationRef{}); err != nil {
		return nil, err
	}

	accountID, err := s.identity.CreateUser(ctx, identity.CreateUserParams{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.Name,
		LastName:  req.Surname,
		Role:      string(models.RoleTeacher),
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to provision account")
	}

	teacher := &models.Teacher{
		ID:       accountID,
		Username: req.Username,
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Img:      req.Img,
		Sex:      req.Sex,
		Birthday: req.Birthday,
	}
	if err := s.repo.Create(ctx, teacher, req.CourseIDs); err != nil {
		s.compensateCreate(ctx, accountID)
		return nil, storageError(err, "teacher")
	}

	s.enqueueChatUpsert(teacher)
	s.cache.InvalidateEntity(ctx, authz.TableTeacher)
	return teacher, nil
}

// Update writes the local row, then pushes the account change to the
// provider; a remote failure is queued for reconciliation rather than
// rolled back.
func (s *TeacherService) Update(ctx context.Context, p authz.Principal, id string, req TeacherUpdateRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableTeacher, authz.ActionUpdate, authz.MutationRef{RowID: id}); err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		ID:       id,
		Username: req.Username,
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Phone:    req.Phone,
		Address:  req.Address,
		Img:      req.Img,
		Sex:      req.Sex,
		Birthday: req.Birthday,
	}
	if err := s.repo.Update(ctx, teacher, req.CourseIDs); err != nil {
		return nil, storageError(err, "teacher")
	}

	params := identity.UpdateUserParams{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.Name,
		LastName:  req.Surname,
	}
	if err := s.identity.UpdateUser(ctx, id, params); err != nil {
		s.logger.Warn("identity update failed, queued for retry", zap.String("teacher_id", id), zap.Error(err))
		s.enqueue(JobIdentityUpdate, IdentityUpdatePayload{UserID: id, Params: params})
	}

	s.enqueueChatUpsert(teacher)
	s.cache.InvalidateEntity(ctx, authz.TableTeacher)
	return teacher, nil
}

// Delete removes the remote account first and aborts if that fails, then
// deletes the local row.
func (s *TeacherService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableTeacher, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}

	if err := s.identity.DeleteUser(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete account")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "teacher")
	}

	s.cache.InvalidateEntity(ctx, authz.TableTeacher)
	s.cache.InvalidateEntity(ctx, authz.TableChapter)
	return nil
}

func (s *TeacherService) compensateCreate(ctx context.Context, accountID string) {
	if err := s.identity.DeleteUser(ctx, accountID); err != nil {
		s.logger.Error("compensating account delete failed, queued for retry", zap.String("account_id", accountID), zap.Error(err))
		s.enqueue(JobIdentityDelete, IdentityDeletePayload{UserID: accountID})
	}
}

func (s *TeacherService) enqueueChatUpsert(teacher *models.Teacher) {
	s.enqueue(JobChatUpsert, ChatUpsertPayload{
		ID:   teacher.ID,
		Name: teacher.Name + " " + teacher.Surname,
		Role: string(models.RoleTeacher),
	})
}

func (s *TeacherService) enqueue(jobType string, payload interface{}) {
	if s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: jobType, Payload: payload}); err != nil {
		s.logger.Error("failed to enqueue job", zap.String("type", jobType), zap.Error(err))
	}
}
