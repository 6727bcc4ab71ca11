package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sampleStudent() *models.Student {
	return &models.Student{
		ID:           "stu-1",
		Username:     "jdoe",
		Name:         "Jane",
		Surname:      "Doe",
		Address:      "1 Main St",
		Sex:          "FEMALE",
		Birthday:     time.Date(2008, 4, 2, 0, 0, 0, 0, time.UTC),
		ClassID:      "class-1",
		DepartmentID: "dept-1",
	}
}

func TestStudentRepositoryCreateEnrolledInsertsWhenSeatFree(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM classes WHERE id = $1 FOR UPDATE")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(30))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE class_id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(29))
	mock.ExpectExec("INSERT INTO students").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.CreateEnrolled(context.Background(), sampleStudent())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCreateEnrolledRejectsFullClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM classes WHERE id = $1 FOR UPDATE")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(30))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE class_id = $1")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(30))
	mock.ExpectRollback()

	err := repo.CreateEnrolled(context.Background(), sampleStudent())
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrClassFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateSkipsCapacityCheckWhenClassUnchanged(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT class_id FROM students WHERE id = $1")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow("class-1"))
	mock.ExpectExec("UPDATE students SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), sampleStudent())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateRechecksCapacityOnClassMove(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	student := sampleStudent()
	student.ClassID = "class-2"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT class_id FROM students WHERE id = $1")).
		WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"class_id"}).AddRow("class-1"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT capacity FROM classes WHERE id = $1 FOR UPDATE")).
		WithArgs("class-2").
		WillReturnRows(sqlmock.NewRows([]string{"capacity"}).AddRow(25))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE class_id = $1")).
		WithArgs("class-2").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(25))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), student)
	assert.ErrorIs(t, err, appErrors.ErrClassFull)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryDeleteMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec("DELETE FROM students WHERE").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
