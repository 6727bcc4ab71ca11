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

// ExamRepository manages persistence for exams.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examDetailJoins = `FROM exams e
        JOIN chapters ch ON ch.id = e.chapter_id
        JOIN courses co ON co.id = ch.course_id
        JOIN classes c ON c.id = ch.class_id
        JOIN teachers t ON t.id = ch.teacher_id`

// List returns exams matching the scope filter, with pagination.
func (r *ExamRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.ExamDetail, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf("%s WHERE %s", examDetailJoins, filter.Where())

	query := fmt.Sprintf(`SELECT e.id, e.title, e.start_time, e.end_time, e.chapter_id, e.created_at, e.updated_at,
        co.name AS course_name, c.name AS class_name, t.name || ' ' || t.surname AS teacher_name
        %s ORDER BY e.start_time DESC LIMIT %d OFFSET %d`, base, size, (page-1)*size)

	exams := []models.ExamDetail{}
	if err := r.db.SelectContext(ctx, &exams, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}
	return exams, total, nil
}

// FindByID fetches an exam detail by ID.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.ExamDetail, error) {
	query := fmt.Sprintf(`SELECT e.id, e.title, e.start_time, e.end_time, e.chapter_id, e.created_at, e.updated_at,
        co.name AS course_name, c.name AS class_name, t.name || ' ' || t.surname AS teacher_name
        %s WHERE e.id = $1`, examDetailJoins)
	var detail models.ExamDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	exam.CreatedAt = now
	exam.UpdatedAt = now
	const query = `INSERT INTO exams (id, title, start_time, end_time, chapter_id, created_at, updated_at)
        VALUES (:id, :title, :start_time, :end_time, :chapter_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// Update modifies an existing exam.
func (r *ExamRepository) Update(ctx context.Context, exam *models.Exam) error {
	exam.UpdatedAt = time.Now().UTC()
	const query = `UPDATE exams SET title = :title, start_time = :start_time, end_time = :end_time,
        chapter_id = :chapter_id, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, exam)
	if err != nil {
		return fmt.Errorf("update exam: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("exam", exam.ID)
	}
	return nil
}

// Delete removes an exam row.
func (r *ExamRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM exams WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("exam", id)
	}
	return nil
}
