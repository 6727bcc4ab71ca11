package authz

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/models"
	appErrors "github.com/class-unity/classunity-api/pkg/errors"
)

// stubResolver maps row IDs to owning teacher IDs per chain.
type stubResolver struct {
	chapters    map[string]string
	exams       map[string]string
	assignments map[string]string
	results     map[string]string
}

func (s *stubResolver) lookup(m map[string]string, id string) (string, error) {
	owner, ok := m[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return owner, nil
}

func (s *stubResolver) ChapterTeacher(_ context.Context, id string) (string, error) {
	return s.lookup(s.chapters, id)
}

func (s *stubResolver) ExamTeacher(_ context.Context, id string) (string, error) {
	return s.lookup(s.exams, id)
}

func (s *stubResolver) AssignmentTeacher(_ context.Context, id string) (string, error) {
	return s.lookup(s.assignments, id)
}

func (s *stubResolver) ResultTeacher(_ context.Context, id string) (string, error) {
	return s.lookup(s.results, id)
}

func newTestGuard() *MutationGuard {
	return NewMutationGuard(&stubResolver{
		chapters:    map[string]string{"CH1": "T1", "CH2": "T2"},
		exams:       map[string]string{"E1": "T1", "E2": "T2"},
		assignments: map[string]string{"A1": "T1"},
		results:     map[string]string{"R1": "T1", "R2": "T2"},
	})
}

func TestMutationGuardAdminAllowsEverything(t *testing.T) {
	g := newTestGuard()
	admin := Principal{UserID: "A1", Role: models.RoleAdmin}

	assert.NoError(t, g.Authorize(context.Background(), admin, TableExam, ActionDelete, MutationRef{RowID: "E2"}))
	assert.NoError(t, g.Authorize(context.Background(), admin, TableChapter, ActionCreate, MutationRef{OwnerTeacherID: "T2"}))
}

func TestMutationGuardStudentDenied(t *testing.T) {
	g := newTestGuard()
	student := Principal{UserID: "S1", Role: models.RoleStudent}

	err := g.Authorize(context.Background(), student, TableExam, ActionCreate, MutationRef{ChapterID: "CH1"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMutationGuardUnknownRoleDenied(t *testing.T) {
	g := newTestGuard()
	err := g.Authorize(context.Background(), Principal{UserID: "X", Role: models.Role("auditor")}, TableExam, ActionDelete, MutationRef{RowID: "E1"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMutationGuardTeacherExamCreate(t *testing.T) {
	g := newTestGuard()
	teacher := Principal{UserID: "T1", Role: models.RoleTeacher}

	assert.NoError(t, g.Authorize(context.Background(), teacher, TableExam, ActionCreate, MutationRef{ChapterID: "CH1"}))

	err := g.Authorize(context.Background(), teacher, TableExam, ActionCreate, MutationRef{ChapterID: "CH2"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMutationGuardTeacherExamUpdateChecksBothEnds(t *testing.T) {
	g := newTestGuard()
	teacher := Principal{UserID: "T1", Role: models.RoleTeacher}

	// owns the row and the target chapter
	assert.NoError(t, g.Authorize(context.Background(), teacher, TableExam, ActionUpdate, MutationRef{RowID: "E1", ChapterID: "CH1"}))

	// owns the row but re-links it to a foreign chapter
	err := g.Authorize(context.Background(), teacher, TableExam, ActionUpdate, MutationRef{RowID: "E1", ChapterID: "CH2"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	// does not own the row
	err = g.Authorize(context.Background(), teacher, TableExam, ActionUpdate, MutationRef{RowID: "E2", ChapterID: "CH1"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMutationGuardTeacherChapter(t *testing.T) {
	g := newTestGuard()
	teacher := Principal{UserID: "T1", Role: models.RoleTeacher}

	assert.NoError(t, g.Authorize(context.Background(), teacher, TableChapter, ActionCreate, MutationRef{OwnerTeacherID: "T1"}))
	assert.NoError(t, g.Authorize(context.Background(), teacher, TableChapter, ActionDelete, MutationRef{RowID: "CH1"}))

	// cannot create a chapter owned by someone else
	err := g.Authorize(context.Background(), teacher, TableChapter, ActionCreate, MutationRef{OwnerTeacherID: "T2"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	// cannot hand an owned chapter to someone else
	err = g.Authorize(context.Background(), teacher, TableChapter, ActionUpdate, MutationRef{RowID: "CH1", OwnerTeacherID: "T2"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	err = g.Authorize(context.Background(), teacher, TableChapter, ActionDelete, MutationRef{RowID: "CH2"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMutationGuardResultExclusiveParent(t *testing.T) {
	g := newTestGuard()
	teacher := Principal{UserID: "T1", Role: models.RoleTeacher}

	assert.NoError(t, g.Authorize(context.Background(), teacher, TableResult, ActionCreate, MutationRef{ExamID: "E1"}))
	assert.NoError(t, g.Authorize(context.Background(), teacher, TableResult, ActionCreate, MutationRef{AssignmentID: "A1"}))

	var appErr *appErrors.Error
	err := g.Authorize(context.Background(), teacher, TableResult, ActionCreate, MutationRef{ExamID: "E1", AssignmentID: "A1"})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	err = g.Authorize(context.Background(), teacher, TableResult, ActionCreate, MutationRef{})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)

	// parent owned by someone else
	err = g.Authorize(context.Background(), teacher, TableResult, ActionCreate, MutationRef{ExamID: "E2"})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestMutationGuardMissingRowIsNotFound(t *testing.T) {
	g := newTestGuard()
	teacher := Principal{UserID: "T1", Role: models.RoleTeacher}

	err := g.Authorize(context.Background(), teacher, TableExam, ActionDelete, MutationRef{RowID: "ghost"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestMutationGuardTeacherDeniedUnscopedTables(t *testing.T) {
	g := newTestGuard()
	teacher := Principal{UserID: "T1", Role: models.RoleTeacher}

	for _, table := range []Table{TableStudent, TableClass, TableCourse, TableEvent} {
		err := g.Authorize(context.Background(), teacher, table, ActionCreate, MutationRef{})
		assert.ErrorIs(t, err, appErrors.ErrForbidden, "table %s", table)
	}
}
