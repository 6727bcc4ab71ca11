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

// ChapterRepository manages persistence for chapters, the scheduled teaching
// units at the root of the ownership chain.
type ChapterRepository struct {
	db *sqlx.DB
}

// NewChapterRepository constructs a ChapterRepository.
func NewChapterRepository(db *sqlx.DB) *ChapterRepository {
	return &ChapterRepository{db: db}
}

const chapterDetailColumns = `ch.id, ch.name, ch.day, ch.start_time, ch.end_time, ch.course_id, ch.class_id, ch.teacher_id,
        ch.created_at, ch.updated_at,
        co.name AS course_name, c.name AS class_name, t.name || ' ' || t.surname AS teacher_name`

const chapterDetailJoins = `FROM chapters ch
        JOIN courses co ON co.id = ch.course_id
        JOIN classes c ON c.id = ch.class_id
        JOIN teachers t ON t.id = ch.teacher_id`

// List returns chapters matching the scope filter, with pagination.
func (r *ChapterRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.ChapterDetail, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf("%s WHERE %s", chapterDetailJoins, filter.Where())

	query := fmt.Sprintf("SELECT %s %s ORDER BY ch.day, ch.start_time LIMIT %d OFFSET %d",
		chapterDetailColumns, base, size, (page-1)*size)

	chapters := []models.ChapterDetail{}
	if err := r.db.SelectContext(ctx, &chapters, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list chapters: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count chapters: %w", err)
	}
	return chapters, total, nil
}

// FindByID fetches a chapter detail by ID.
func (r *ChapterRepository) FindByID(ctx context.Context, id string) (*models.ChapterDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE ch.id = $1", chapterDetailColumns, chapterDetailJoins)
	var detail models.ChapterDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new chapter.
func (r *ChapterRepository) Create(ctx context.Context, chapter *models.Chapter) error {
	if chapter.ID == "" {
		chapter.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	chapter.CreatedAt = now
	chapter.UpdatedAt = now
	const query = `INSERT INTO chapters (id, name, day, start_time, end_time, course_id, class_id, teacher_id, created_at, updated_at)
        VALUES (:id, :name, :day, :start_time, :end_time, :course_id, :class_id, :teacher_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, chapter); err != nil {
		return fmt.Errorf("create chapter: %w", err)
	}
	return nil
}

// Update modifies an existing chapter.
func (r *ChapterRepository) Update(ctx context.Context, chapter *models.Chapter) error {
	chapter.UpdatedAt = time.Now().UTC()
	const query = `UPDATE chapters SET name = :name, day = :day, start_time = :start_time, end_time = :end_time,
        course_id = :course_id, class_id = :class_id, teacher_id = :teacher_id, updated_at = :updated_at
        WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, chapter)
	if err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("chapter", chapter.ID)
	}
	return nil
}

// Delete removes a chapter row.
func (r *ChapterRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM chapters WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("chapter", id)
	}
	return nil
}
