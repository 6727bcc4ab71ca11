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

// DepartmentRepository manages persistence for departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs a DepartmentRepository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns departments matching the scope filter, with pagination.
func (r *DepartmentRepository) List(ctx context.Context, filter authz.Filter, page, size int) ([]models.Department, int, error) {
	page, size = normalizePage(page, size)
	base := fmt.Sprintf("FROM departments d WHERE %s", filter.Where())

	query := fmt.Sprintf("SELECT d.id, d.name, d.created_at %s ORDER BY d.name LIMIT %d OFFSET %d",
		base, size, (page-1)*size)

	departments := []models.Department{}
	if err := r.db.SelectContext(ctx, &departments, query, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("list departments: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, filter.Args...); err != nil {
		return nil, 0, fmt.Errorf("count departments: %w", err)
	}
	return departments, total, nil
}

// FindByID fetches a department by ID.
func (r *DepartmentRepository) FindByID(ctx context.Context, id string) (*models.Department, error) {
	var department models.Department
	if err := r.db.GetContext(ctx, &department, "SELECT * FROM departments WHERE id = $1", id); err != nil {
		return nil, err
	}
	return &department, nil
}

// Create inserts a new department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = uuid.NewString()
	}
	if department.CreatedAt.IsZero() {
		department.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO departments (id, name, created_at) VALUES (:id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, department); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update renames a department.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	res, err := r.db.NamedExecContext(ctx, "UPDATE departments SET name = :name WHERE id = :id", department)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("department", department.ID)
	}
	return nil
}

// Delete removes a department row.
func (r *DepartmentRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM departments WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return errNoRows("department", id)
	}
	return nil
}
