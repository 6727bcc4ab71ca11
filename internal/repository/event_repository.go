package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
)

// EventRepository manages persistence for calendar events.
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository constructs an EventRepository.
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// List returns events matching the scope filter, with pagination.
func (r *EventRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.Event, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf("FROM events ev WHERE %s", filter.Where())

	query := fmt.Sprintf(`SELECT ev.id, ev.title, ev.description, ev.start_time, ev.end_time, ev.class_id, ev.created_at, ev.updated_at
        %s ORDER BY ev.start_time LIMIT %d OFFSET %d`, base, size, (page-1)*size)

	events := []models.Event{}
	if err := r.db.SelectContext(ctx, &events, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list events: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}
	return events, total, nil
}

// FindByID fetches an event by ID.
func (r *EventRepository) FindByID(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	if err := r.db.GetContext(ctx, &event, "SELECT * FROM events WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &event, nil
}

// Create inserts a new event.
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	const query = `INSERT INTO events (id, title, description, start_time, end_time, class_id, created_at, updated_at)
        VALUES (:id, :title, :description, :start_time, :end_time, :class_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// Update modifies an existing event.
func (r *EventRepository) Update(ctx context.Context, event *models.Event) error {
	event.UpdatedAt = time.Now().UTC()
	const query = `UPDATE events SET title = :title, description = :description, start_time = :start_time,
        end_time = :end_time, class_id = :class_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, event)
	if err != nil {
		return fmt.Errorf("update event: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("event", event.ID)
	}
	return nil
}

// Delete removes an event row.
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM events WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete event: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("event", id)
	}
	return nil
}
