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

// ResultRepository manages persistence for results. Each result hangs off
// exactly one exam or one assignment; the chapter is reached through
// whichever parent is set.
type ResultRepository struct {
	db *sqlx.DB
}

// NewResultRepository constructs a ResultRepository.
func NewResultRepository(db *sqlx.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

const resultDetailJoins = `FROM results r
        LEFT JOIN exams e ON e.id = r.exam_id
        LEFT JOIN assignments a ON a.id = r.assignment_id
        JOIN chapters ch ON ch.id = COALESCE(e.chapter_id, a.chapter_id)
        JOIN classes c ON c.id = ch.class_id
        JOIN teachers t ON t.id = ch.teacher_id
        JOIN students s ON s.id = r.student_id`

const resultDetailColumns = `r.id, r.score, r.exam_id, r.assignment_id, r.student_id, r.created_at, r.updated_at,
        COALESCE(e.title, a.title) AS title,
        s.name || ' ' || s.surname AS student_name,
        c.name AS class_name,
        t.name || ' ' || t.surname AS teacher_name`

// List returns results matching the scope filter, with pagination.
func (r *ResultRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.ResultDetail, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf("%s WHERE %s", resultDetailJoins, filter.Where())

	query := fmt.Sprintf("SELECT %s %s ORDER BY r.created_at DESC LIMIT %d OFFSET %d",
		resultDetailColumns, base, size, (page-1)*size)

	results := []models.ResultDetail{}
	if err := r.db.SelectContext(ctx, &results, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count results: %w", err)
	}
	return results, total, nil
}

// ListAll returns every result matching the scope filter, for export.
func (r *ResultRepository) ListAll(ctx context.Context, filter authz.Filter) ([]models.ResultDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE %s ORDER BY c.name, student_name",
		resultDetailColumns, resultDetailJoins, filter.Where())

	results := []models.ResultDetail{}
	if err := r.db.SelectContext(ctx, &results, query, filter.Args...); err != nil {
		return nil, fmt.Errorf("export results: %w", err)
	}
	return results, nil
}

// FindByID fetches a result detail by ID.
func (r *ResultRepository) FindByID(ctx context.Context, id string) (*models.ResultDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE r.id = $1", resultDetailColumns, resultDetailJoins)
	var detail models.ResultDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new result.
func (r *ResultRepository) Create(ctx context.Context, result *models.Result) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	result.CreatedAt = now
	result.UpdatedAt = now
	const query = `INSERT INTO results (id, score, exam_id, assignment_id, student_id, created_at, updated_at)
        VALUES (:id, :score, :exam_id, :assignment_id, :student_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		return fmt.Errorf("create result: %w", err)
	}
	return nil
}

// Update modifies an existing result.
func (r *ResultRepository) Update(ctx context.Context, result *models.Result) error {
	result.UpdatedAt = time.Now().UTC()
	const query = `UPDATE results SET score = :score, exam_id = :exam_id, assignment_id = :assignment_id,
        student_id = :student_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, result)
	if err != nil {
		return fmt.Errorf("update result: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("result", result.ID)
	}
	return nil
}

// Delete removes a result row.
func (r *ResultRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM results WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete result: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("result", id)
	}
	return nil
}
