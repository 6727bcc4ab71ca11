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

type eventRepository interface {
	List(ctx context.Context, filter authz.Filter, page, size int) ([]models.Event, int, error)
	Create(ctx context.Context, event *models.Event) error
	Update(ctx context.Context, event *models.Event) error
	Delete(ctx context.Context, id string) error
}

// EventService handles calendar-event workflows. Mutations are admin-only;
// a nil class ID publishes the event school-wide.
type EventService struct {
	repo      eventRepository
	guard     *authz.MutationGuard
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEventService constructs the service.
func NewEventService(repo eventRepository, guard *authz.MutationGuard, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventService{repo: repo, guard: guard, cache: cache, validator: validate, logger: logger}
}

// EventRequest describes the create/update payload.
type EventRequest struct {
	Title       string    `json:"title" validate:"required"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time" validate:"required"`
	EndTime     time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	ClassID     *string   `json:"class_id"`
}

type eventListPayload struct {
	Events []models.Event `json:"events"`
	Total  int            `json:"total"`
}

// List returns the events visible to the principal.
func (s *EventService) List(ctx context.Context, p authz.Principal, q models.ListQuery) ([]models.Event, *models.Pagination, error) {
	key := s.cache.ListKey(authz.TableEvent, p, q)
	var cached eventListPayload
	if s.cache.GetList(ctx, key, &cached) {
		return cached.Events, pagination(q, cached.Total), nil
	}

	filter := authz.Scope(authz.TableEvent, p, q)
	events, total, err := s.repo.List(ctx, filter, q.Page, q.PageSize)
	if err != nil {
		return nil, nil, storageError(err, "events")
	}

	s.cache.SetList(ctx, key, eventListPayload{Events: events, Total: total})
	return events, pagination(q, total), nil
}

// Get returns one event if it falls inside the principal's scope.
func (s *EventService) Get(ctx context.Context, p authz.Principal, id string) (*models.Event, error) {
	filter := scopedID(authz.Scope(authz.TableEvent, p, models.ListQuery{}), "ev.id", id)
	events, _, err := s.repo.List(ctx, filter, 1, 1)
	if err != nil {
		return nil, storageError(err, "event")
	}
	if len(events) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	return &events[0], nil
}

// Create registers a new event.
func (s *EventService) Create(ctx context.Context, p authz.Principal, req EventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableEvent, authz.ActionCreate, authz.MutationRef{}); err != nil {
		return nil, err
	}

	event := &models.Event{
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ClassID:     req.ClassID,
	}
	if err := s.repo.Create(ctx, event); err != nil {
		return nil, storageError(err, "event")
	}
	s.cache.InvalidateEntity(ctx, authz.TableEvent)
	return event, nil
}

// Update modifies an existing event.
func (s *EventService) Update(ctx context.Context, p authz.Principal, id string, req EventRequest) (*models.Event, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload")
	}
	if err := s.guard.Authorize(ctx, p, authz.TableEvent, authz.ActionUpdate, authz.MutationRef{RowID: id}); err != nil {
		return nil, err
	}

	event := &models.Event{
		ID:          id,
		Title:       req.Title,
		Description: req.Description,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		ClassID:     req.ClassID,
	}
	if err := s.repo.Update(ctx, event); err != nil {
		return nil, storageError(err, "event")
	}
	s.cache.InvalidateEntity(ctx, authz.TableEvent)
	return event, nil
}

// Delete removes an event.
func (s *EventService) Delete(ctx context.Context, p authz.Principal, id string) error {
	if err := s.guard.Authorize(ctx, p, authz.TableEvent, authz.ActionDelete, authz.MutationRef{RowID: id}); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return storageError(err, "event")
	}
	s.cache.InvalidateEntity(ctx, authz.TableEvent)
	return nil
}
