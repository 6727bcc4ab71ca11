package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/authz"
	"github.com/class-unity/classunity-api/internal/models"
)

func TestExamRepositoryListAppliesScopeFilter(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "title", "start_time", "end_time", "chapter_id", "created_at", "updated_at",
		"course_name", "class_name", "teacher_name",
	}).AddRow("exam-1", "Midterm", now, now.Add(time.Hour), "ch-1", now, now, "Algebra", "10A", "John Smith")

	mock.ExpectQuery(`(?s)SELECT e\.id,.*FROM exams e.*JOIN chapters ch ON ch\.id = e\.chapter_id.*WHERE ch\.teacher_id = \$1 ORDER BY e\.start_time DESC`).
		WithArgs("teacher-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`(?s)SELECT COUNT\(\*\).*FROM exams e.*WHERE ch\.teacher_id = \$1`).
		WithArgs("teacher-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	filter := authz.Filter{Conds: []string{"ch.teacher_id = $1"}, Args: []interface{}{"teacher-1"}}
	exams, total, err := repo.List(context.Background(), filter, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, exams, 1)
	assert.Equal(t, "Midterm", exams[0].Title)
	assert.Equal(t, "John Smith", exams[0].TeacherName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryUpdateMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectExec("UPDATE exams SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &models.Exam{ID: "ghost", Title: "Final", ChapterID: "ch-1"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
