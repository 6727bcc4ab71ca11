package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

// StudentRepository manages persistence for student records. Enrollment
// honours class capacity atomically.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the scope filter, with pagination.
func (r *StudentRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.StudentDetail, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf(`FROM students s
        JOIN classes c ON c.id = s.class_id
        JOIN departments d ON d.id = s.department_id
        WHERE %s`, filter.Where())

	query := fmt.Sprintf(`SELECT s.id, s.username, s.name, s.surname, s.email, s.phone, s.address, s.img, s.sex, s.birthday,
        s.class_id, s.department_id, s.created_at, s.updated_at,
        c.name AS class_name, d.name AS department_name
        %s ORDER BY s.surname, s.name LIMIT %d OFFSET %d`, base, size, (page-1)*size)

	students := []models.StudentDetail{}
	if err := r.db.SelectContext(ctx, &students, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// ListAll returns every student, for messaging synchronisation.
func (r *StudentRepository) ListAll(ctx context.Context) ([]models.Student, error) {
	students := []models.Student{}
	if err := r.db.SelectContext(ctx, &students, "SELECT * FROM students ORDER BY id"); err != nil {
		return nil, fmt.Errorf("list all students: %w", err)
	}
	return students, nil
}

// FindByID fetches a student detail by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	const query = `SELECT s.id, s.username, s.name, s.surname, s.email, s.phone, s.address, s.img, s.sex, s.birthday,
        s.class_id, s.department_id, s.created_at, s.updated_at,
        c.name AS class_name, d.name AS department_name
        FROM students s
        JOIN classes c ON c.id = s.class_id
        JOIN departments d ON d.id = s.department_id
        WHERE s.id = $1`
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// CreateEnrolled inserts a student after verifying, under a row lock on the
// class, that the class still has a free seat. Returns ErrClassFull when the
// class is at capacity.
func (r *StudentRepository) CreateEnrolled(ctx context.Context, student *models.Student) error {
	now := time.Now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin enroll student: %w", err)
	}
	defer tx.Rollback()

	if err := ensureSeat(ctx, tx, student.ClassID); err != nil {
		return err
	}

	const query = `INSERT INTO students (id, username, name, surname, email, phone, address, img, sex, birthday, class_id, department_id, created_at, updated_at)
        VALUES (:id, :username, :name, :surname, :email, :phone, :address, :img, :sex, :birthday, :class_id, :department_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return tx.Commit()
}

// Update modifies a student. A class change re-checks capacity under the
// same lock used on enrollment.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	student.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update student: %w", err)
	}
	defer tx.Rollback()

	var currentClassID string
	if err := tx.GetContext(ctx, &currentClassID, "SELECT class_id FROM students WHERE id = $1", student.ID); err != nil {
		return fmt.Errorf("load student class: %w", err)
	}
	if currentClassID != student.ClassID {
		if err := ensureSeat(ctx, tx, student.ClassID); err != nil {
			return err
		}
	}

	const query = `UPDATE students SET username = :username, name = :name, surname = :surname, email = :email,
        phone = :phone, address = :address, img = :img, sex = :sex, birthday = :birthday,
        class_id = :class_id, department_id = :department_id, updated_at = :updated_at
        WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("update student: %w", err)
	}
	return tx.Commit()
}

// Delete removes a student row.
func (r *StudentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM students WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("student", id)
	}
	return nil
}

// ensureSeat locks the class row and re-counts enrolment inside the
// transaction, closing the race between the capacity read and the insert.
func ensureSeat(ctx context.Context, tx *sqlx.Tx, classID string) error {
	var capacity int
	if err := tx.GetContext(ctx, &capacity, "SELECT capacity FROM classes WHERE id = $1 FOR UPDATE", classID); err != nil {
		return fmt.Errorf("lock class %s: %w", classID, err)
	}

	var enrolled int
	if err := tx.GetContext(ctx, &enrolled, "SELECT COUNT(*) FROM students WHERE class_id = $1", classID); err != nil {
		return fmt.Errorf("count enrolment for class %s: %w", classID, err)
	}
	if enrolled >= capacity {
		return appErrors.ErrClassFull
	}
	return nil
}
