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

// CourseRepository manages persistence for courses and their teacher
// assignments.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching the scope filter, with pagination.
func (r *CourseRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.CourseDetail, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf("FROM courses co WHERE %s", filter.Where())

	query := fmt.Sprintf(`SELECT co.id, co.name, co.created_at, co.updated_at
        %s ORDER BY co.name LIMIT %d OFFSET %d`, base, size, (page-1)*size)

	rows := []models.Course{}
	if err := r.db.SelectContext(ctx, &rows, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	details, err := r.attachTeachers(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// FindByID fetches a course with its teacher IDs.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.CourseDetail, error) {
	var course models.Course
	if err := r.db.GetContext(ctx, &course, "SELECT * FROM courses WHERE id = $1", id); err != nil {
		return nil, err
	}
	details, err := r.attachTeachers(ctx, []models.Course{course})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (r *CourseRepository) attachTeachers(ctx context.Context, courses []models.Course) ([]models.CourseDetail, error) {
	details := make([]models.CourseDetail, len(courses))
	ids := make([]string, len(courses))
	for i, course := range courses {
		details[i] = models.CourseDetail{Course: course, TeacherIDs: []string{}}
		ids[i] = course.ID
	}
	if len(ids) == 0 {
		return details, nil
	}

	query, args, err := sqlx.In("SELECT course_id, teacher_id FROM course_teachers WHERE course_id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build teacher lookup: %w", err)
	}
	var links []struct {
		CourseID  string `db:"course_id"`
		TeacherID string `db:"teacher_id"`
	}
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load course teachers: %w", err)
	}

	byCourse := make(map[string][]string, len(ids))
	for _, link := range links {
		byCourse[link.CourseID] = append(byCourse[link.CourseID], link.TeacherID)
	}
	for i := range details {
		if teachers, ok := byCourse[details[i].ID]; ok {
			details[i].TeacherIDs = teachers
		}
	}
	return details, nil
}

// Create inserts a course and its teacher assignments in one transaction.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course, teacherIDs []string) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create course: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO courses (id, name, created_at, updated_at)
        VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	if err := replaceCourseTeachers(ctx, tx, course.ID, teacherIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Update modifies a course and replaces its teacher assignments.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course, teacherIDs []string) error {
	course.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update course: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.NamedExecContext(ctx,
		"UPDATE courses SET name = :name, updated_at = :updated_at WHERE id = :id", course)
	if err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("course", course.ID)
	}
	if err := replaceCourseTeachers(ctx, tx, course.ID, teacherIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a course row.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM courses WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("course", id)
	}
	return nil
}

func replaceCourseTeachers(ctx context.Context, tx *sqlx.Tx, courseID string, teacherIDs []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM course_teachers WHERE course_id = $1", courseID); err != nil {
		return fmt.Errorf("clear course teachers: %w", err)
	}
	for _, teacherID := range teacherIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO course_teachers (course_id, teacher_id) VALUES ($1, $2)", courseID, teacherID); err != nil {
			return fmt.Errorf("assign teacher %s: %w", teacherID, err)
		}
	}
	return nil
}
