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

// AssignmentRepository manages persistence for assignments.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs an AssignmentRepository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

const assignmentDetailJoins = `FROM assignments a
        JOIN chapters ch ON ch.id = a.chapter_id
        JOIN courses co ON co.id = ch.course_id
        JOIN classes c ON c.id = ch.class_id
        JOIN teachers t ON t.id = ch.teacher_id`

// List returns assignments matching the scope filter, with pagination.
func (r *AssignmentRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.AssignmentDetail, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf("%s WHERE %s", assignmentDetailJoins, filter.Where())

	query := fmt.Sprintf(`SELECT a.id, a.title, a.start_date, a.due_date, a.chapter_id, a.created_at, a.updated_at,
        co.name AS course_name, c.name AS class_name, t.name || ' ' || t.surname AS teacher_name
        %s ORDER BY a.due_date DESC LIMIT %d OFFSET %d`, base, size, (page-1)*size)

	assignments := []models.AssignmentDetail{}
	if err := r.db.SelectContext(ctx, &assignments, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list assignments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count assignments: %w", err)
	}
	return assignments, total, nil
}

// FindByID fetches an assignment detail by ID.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	query := fmt.Sprintf(`SELECT a.id, a.title, a.start_date, a.due_date, a.chapter_id, a.created_at, a.updated_at,
        co.name AS course_name, c.name AS class_name, t.name || ' ' || t.surname AS teacher_name
        %s WHERE a.id = $1`, assignmentDetailJoins)
	var detail models.AssignmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new assignment.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now
	const query = `INSERT INTO assignments (id, title, start_date, due_date, chapter_id, created_at, updated_at)
        VALUES (:id, :title, :start_date, :due_date, :chapter_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// Update modifies an existing assignment.
func (r *AssignmentRepository) Update(ctx context.Context, assignment *models.Assignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE assignments SET title = :title, start_date = :start_date, due_date = :due_date,
        chapter_id = :chapter_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("assignment", assignment.ID)
	}
	return nil
}

// Delete removes an assignment row.
func (r *AssignmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM assignments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete assignment: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("assignment", id)
	}
	return nil
}
