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

// AnnouncementRepository manages persistence for announcements.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository constructs an AnnouncementRepository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

// List returns announcements matching the scope filter, with pagination.
func (r *AnnouncementRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.Announcement, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf("FROM announcements an WHERE %s", filter.Where())

	query := fmt.Sprintf(`SELECT an.id, an.title, an.description, an.date, an.class_id, an.created_at, an.updated_at
        %s ORDER BY an.date DESC LIMIT %d OFFSET %d`, base, size, (page-1)*size)

	announcements := []models.Announcement{}
	if err := r.db.SelectContext(ctx, &announcements, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// FindByID fetches an announcement by ID.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, "SELECT * FROM announcements WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	announcement.CreatedAt = now
	announcement.UpdatedAt = now
	const query = `INSERT INTO announcements (id, title, description, date, class_id, created_at, updated_at)
        VALUES (:id, :title, :description, :date, :class_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update modifies an existing announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	announcement.UpdatedAt = time.Now().UTC()
	const query = `UPDATE announcements SET title = :title, description = :description, date = :date,
        class_id = :class_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, announcement)
	if err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("announcement", announcement.ID)
	}
	return nil
}

// Delete removes an announcement row.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM announcements WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("announcement", id)
	}
	return nil
}
