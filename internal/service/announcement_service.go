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

type announcementRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.Announcement, int, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
}

// AnnouncementService handles announcement workflows. Mutations are
// admin-only; a nil class ID publishes the notice school-wide.
type AnnouncementService struct {
	repo      announcementRepository
	guard     *authz.MutationGuard
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(repo announcementRepository, guard *authz.MutationGuard, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, guard: guard, cache: cache, validator: validate, logger: logger}
}

// AnnouncementRequest describes the create/update payload.
type AnnouncementRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description" validate:"required"`
	Date        time.Time `json:"date" validate:"required"`
	ClassID     *string   `json:"class_id"`
}

type announcementListPayload struct {
	Announcements []models.Announcement `json:"announcements"`
	Total         int                   `json:"total"`
}

// List returns the announcements visible to the principal.
func (s *AnnouncementService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.Announcement, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableAnnouncement, p, q)
	var cached announcementListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Announcements, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableAnnouncement, p, q)
	announcements, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "announcements")
	}

	s.cache.SetList(ctx, key, announcementListPayload{Announcements: announcements, Total: total})
	return announcements, pagination(q, total), nil
}

// Get returns one announcement if it falls inside the principal's scope.
func (s *AnnouncementService) Get(ctx context.Context, p authz.Principal, id string) (*models.Announcement, error) {
	filter := scopedID(authz.Scope(authz.TableAnnouncement, p, models.ListQuery{}), "an.id", id)
	announcements, _, err := s.repo.List(ctx, filter, 1, 1)
	if err != nil {
		return nil, storageError(err, "announcement")
	}
	if len(announcements) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
	}
	return &announcements[0], nil
}

// Create registers a new announcement.
func (s *AnnouncementService) Create(ctx context.Context, p authz.Principal, req AnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableAnnouncement, authz.ActionCreate, authz.MutationRef{}); err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		ClassID:     req.ClassID,
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, storageError(err, "announcement")
	}
	s.cache.InvalidateEntity(ctx, authz.TableAnnouncement)
	return announcement, nil
}

// Update modifies an existing announcement.
func (s *AnnouncementService) Update(ctx context.Context, p authz.Principal, id string, req AnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableAnnouncement, authz.ActionUpdate, authz.MutationRef{RowID: id}); err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		Date:        req.Date,
		ClassID:     req.ClassID,
	}
	if err := s.repo.Update(ctx, announcement); err != nil {
		return nil, storageError(err, "announcement")
	}
	s.cache.InvalidateEntity(ctx, authz.TableAnnouncement)
	return announcement, nil
}

// Delete removes an announcement.
func (s *AnnouncementService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableAnnouncement, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "announcement")
	}
	s.cache.InvalidateEntity(ctx, authz.TableAnnouncement)
	return nil
}
