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

// ClassRepository manages persistence for class records.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

const classDetailColumns = `c.id, c.name, c.capacity, c.department_id, c.supervisor_id, c.created_at, c.updated_at,
        d.name AS department_name,
        CASE WHEN t.id IS NULL THEN NULL ELSE t.name || ' ' || t.surname END AS supervisor_name,
        (SELECT COUNT(*) FROM students s WHERE s.class_id = c.id) AS student_count`

// List returns classes matching the scope filter, with pagination.
func (r *ClassRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.ClassDetail, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf(`FROM classes c
        JOIN departments d ON d.id = c.department_id
        LEFT JOIN teachers t ON t.id = c.supervisor_id
        WHERE %s`, filter.Where())

	query := fmt.Sprintf("SELECT %s %s ORDER BY c.name LIMIT %d OFFSET %d", classDetailColumns, base, size, (page-1)*size)

	classes := []models.ClassDetail{}
	if err := r.db.SelectContext(ctx, &classes, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}
	return classes, total, nil
}

// FindByID fetches a class detail by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.ClassDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM classes c
        JOIN departments d ON d.id = c.department_id
        LEFT JOIN teachers t ON t.id = c.supervisor_id
        WHERE c.id = $1`, classDetailColumns)
	var detail models.ClassDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	if class.ID == "" {
		class.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	class.CreatedAt = now
	class.UpdatedAt = now
	const query = `INSERT INTO classes (id, name, capacity, department_id, supervisor_id, created_at, updated_at)
        VALUES (:id, :name, :capacity, :department_id, :supervisor_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, class); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Update modifies an existing class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) error {
	class.UpdatedAt = time.Now().UTC()
	const query = `UPDATE classes SET name = :name, capacity = :capacity, department_id = :department_id,
        supervisor_id = :supervisor_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, class)
	if err != nil {
		return fmt.Errorf("update class: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("class", class.ID)
	}
	return nil
}

// Delete removes a class row.
func (r *ClassRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM classes WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete class: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("class", id)
	}
	return nil
}
