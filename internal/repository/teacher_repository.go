package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
)

// TeacherRepository manages persistence for teacher records and their course
// assignments.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching the scope filter, with pagination.
func (r *TeacherRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.TeacherDetail, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf("FROM teachers t WHERE %s", filter.Where())

	query := fmt.Sprintf(`SELECT t.id, t.username, t.name, t.surname, t.email, t.phone, t.address, t.img, t.sex, t.birthday, t.created_at, t.updated_at
        %s ORDER BY t.surname, t.name LIMIT %d OFFSET %d`, base, size, (page-1)*size)

	rows := []models.Teacher{}
	if err := r.db.SelectContext(ctx, &rows, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	details, err := r.attachCourses(ctx, rows)
	if err != nil {
		return nil, 0, err
	}
	return details, total, nil
}

// ListAll returns every teacher, for messaging synchronisation.
func (r *TeacherRepository) ListAll(ctx context.Context) ([]models.Teacher, error) {
	teachers := []models.Teacher{}
	if err := r.db.SelectContext(ctx, &teachers, "SELECT * FROM teachers ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list all teachers: %w", err)
	}
	return teachers, nil
}

// FindByID fetches a teacher with their course IDs.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.TeacherDetail, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, "SELECT * FROM teachers WHERE id = $1", id); err != nil {
		return nil, err
	}
	details, err := r.attachCourses(ctx, []models.Teacher{teacher})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

func (r *TeacherRepository) attachCourses(ctx context.Context, teachers []models.Teacher) ([]models.TeacherDetail, error) {
	details := make([]models.TeacherDetail, len(teachers))
	ids := make([]string, len(teachers))
	for i, t := range teachers {
		details[i] = models.TeacherDetail{Teacher: t, CourseIDs: []string{}}
		ids[i] = t.ID
	}
	if len(ids) == 0 {
		return details, nil
	}

	query, args, err := sqlx.In("SELECT teacher_id, course_id FROM course_teachers WHERE teacher_id IN (?)", ids)
	if err != nil {
		return nil, fmt.Errorf("build course lookup: %w", err)
	}
	var links []struct {
		TeacherID string `db:"teacher_id"`
		CourseID  string `db:"course_id"`
	}
	if err := r.db.SelectContext(ctx, &links, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("load teacher courses: %w", err)
	}

	byTeacher := make(map[string][]string, len(ids))
	for _, link := range links {
		byTeacher[link.TeacherID] = append(byTeacher[link.TeacherID], link.CourseID)
	}
	for i := range details {
		if courses, ok := byTeacher[details[i].ID]; ok {
			details[i].CourseIDs = courses
		}
	}
	return details, nil
}

// Create inserts a teacher and their course assignments in one transaction.
// The ID must already be set to the identity-provider account ID.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher, courseIDs []string) error {
	now := time.Now().UTC()
	teacher.CreatedAt = now
	teacher.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO teachers (id, username, name, surname, email, phone, address, img, sex, birthday, created_at, updated_at)
        VALUES (:id, :username, :name, :surname, :email, :phone, :address, :img, :sex, :birthday, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, teacher); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	if err := replaceTeacherCourses(ctx, tx, teacher.ID, courseIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Update modifies a teacher and replaces their course assignments.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher, courseIDs []string) error {
	teacher.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update teacher: %w", err)
	}
	defer tx.Rollback()

	const query = `UPDATE teachers SET username = :username, name = :name, surname = :surname, email = :email,
        phone = :phone, address = :address, img = :img, sex = :sex, birthday = :birthday, updated_at = :updated_at
        WHERE id = :id`
	res, err := tx.NamedExecContext(ctx, query, teacher)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("teacher", teacher.ID)
	}
	if err := replaceTeacherCourses(ctx, tx, teacher.ID, courseIDs); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a teacher row. Course assignments cascade at the schema
// level.
func (r *TeacherRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM teachers WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("teacher", id)
	}
	return nil
}

func replaceTeacherCourses(ctx context.Context, tx *sqlx.Tx, teacherID string, courseIDs []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM course_teachers WHERE teacher_id = $1", teacherID); err != nil {
		return fmt.Errorf("clear teacher courses: %w", err)
	}
	for _, courseID := range courseIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO course_teachers (course_id, teacher_id) VALUES ($1, $2)", courseID, teacherID); err != nil {
			return fmt.Errorf("assign course %s: %w", courseID, err)
		}
	}
	return nil
}
