package authz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/class-unity/classunity-api/internal/models"
)

func whereFor(t Table, p Principal, q models.ListQuery) (string, []interface{}) {
	f := Scope(t, p, q)
	return f.Where(), f.Args
}

func TestScopeTeacherRestrictsChapterOwnership(t *testing.T) {
	teacher := Principal{UserID: "T1", Role: models.RoleTeacher}

	for _, table := range []Table{TableChapter, TableExam, TableAssignment, TableResult} {
		where, args := whereFor(table, teacher, models.ListQuery{})
		assert.Contains(t, where, "ch.teacher_id = $1", "table %s", table)
		require.Len(t, args, 1, "table %s", table)
		assert.Equal(t, "T1", args[0])
	}
}

func TestScopeStudentRestrictsToOwnClass(t *testing.T) {
	student := Principal{UserID: "S5", Role: models.RoleStudent}

	for _, table := range []Table{TableExam, TableAssignment, TableResult} {
		where, args := whereFor(table, student, models.ListQuery{})
		assert.Contains(t, where, "ch.class_id = (SELECT st.class_id FROM students st WHERE st.id = $1)", "table %s", table)
		require.Len(t, args, 1, "table %s", table)
		assert.Equal(t, "S5", args[0])
	}
}

func TestScopeFiltersIntersectRoleClause(t *testing.T) {
	// a teacher filtering on a class they do not teach must get both
	// clauses ANDed, yielding an empty result set rather than a union
	teacher := Principal{UserID: "T1", Role: models.RoleTeacher}
	f := Scope(TableAssignment, teacher, models.ListQuery{ClassID: "7"})

	require.Len(t, f.Conds, 2)
	assert.Equal(t, "ch.class_id = $1", f.Conds[0])
	assert.Equal(t, "ch.teacher_id = $2", f.Conds[1])
	assert.Equal(t, []interface{}{"7", "T1"}, f.Args)
	assert.Equal(t, "ch.class_id = $1 AND ch.teacher_id = $2", f.Where())
}

func TestScopeAdminIsSupersetOfOtherRoles(t *testing.T) {
	query := models.ListQuery{ClassID: "3", Search: "algebra"}
	admin := Scope(TableExam, Principal{UserID: "A", Role: models.RoleAdmin}, query)
	teacher := Scope(TableExam, Principal{UserID: "T", Role: models.RoleTeacher}, query)
	student := Scope(TableExam, Principal{UserID: "S", Role: models.RoleStudent}, query)

	// every admin condition appears verbatim in the narrower scopes, which
	// then add a role clause on top
	for _, cond := range admin.Conds {
		assert.Contains(t, teacher.Conds, cond)
		assert.Contains(t, student.Conds, cond)
	}
	assert.Len(t, teacher.Conds, len(admin.Conds)+1)
	assert.Len(t, student.Conds, len(admin.Conds)+1)
}

func TestScopeIsPure(t *testing.T) {
	p := Principal{UserID: "T1", Role: models.RoleTeacher}
	q := models.ListQuery{ClassID: "2", Search: "bio"}

	first := Scope(TableResult, p, q)
	second := Scope(TableResult, p, q)
	assert.Equal(t, first, second)
}

func TestScopeUnknownTableFailsClosed(t *testing.T) {
	f := Scope(Table("ledger"), Principal{UserID: "A", Role: models.RoleAdmin}, models.ListQuery{})
	assert.Equal(t, "1=0", f.Where())
	assert.Empty(t, f.Args)
}

func TestScopeUnknownRoleFailsClosed(t *testing.T) {
	f := Scope(TableExam, Principal{UserID: "X", Role: models.Role("parent")}, models.ListQuery{})
	assert.Contains(t, f.Conds, "1=0")
}

func TestScopeRoleClauseNotOverridable(t *testing.T) {
	// a student smuggling a teacherId filter still gets the class clause
	student := Principal{UserID: "S1", Role: models.RoleStudent}
	f := Scope(TableExam, student, models.ListQuery{TeacherID: "T9"})

	joined := f.Where()
	assert.Contains(t, joined, "ch.teacher_id = $1")
	assert.Contains(t, joined, "ch.class_id = (SELECT st.class_id FROM students st WHERE st.id = $2)")
	assert.Equal(t, []interface{}{"T9", "S1"}, f.Args)
}

func TestScopeStudentSeesOnlySelf(t *testing.T) {
	f := Scope(TableStudent, Principal{UserID: "S1", Role: models.RoleStudent}, models.ListQuery{})
	assert.Equal(t, "s.id = $1", f.Where())
	assert.Equal(t, []interface{}{"S1"}, f.Args)
}

func TestScopeStudentDeniedCourses(t *testing.T) {
	f := Scope(TableCourse, Principal{UserID: "S1", Role: models.RoleStudent}, models.ListQuery{})
	assert.Contains(t, f.Conds, "1=0")
}

func TestScopeEventVisibility(t *testing.T) {
	student := Scope(TableEvent, Principal{UserID: "S1", Role: models.RoleStudent}, models.ListQuery{})
	assert.Contains(t, student.Where(), "ev.class_id IS NULL OR ev.class_id =")

	teacher := Scope(TableEvent, Principal{UserID: "T1", Role: models.RoleTeacher}, models.ListQuery{})
	assert.Contains(t, teacher.Where(), "ech.teacher_id = $1")
}

func TestScopeSearchIsCaseInsensitiveSubstring(t *testing.T) {
	f := Scope(TableTeacher, Principal{UserID: "A", Role: models.RoleAdmin}, models.ListQuery{Search: "DoE"})
	require.Len(t, f.Args, 1)
	assert.Equal(t, "%doe%", f.Args[0])
	assert.Contains(t, f.Where(), "LOWER(t.name) LIKE $1")
}

func TestScopePlaceholdersAreSequential(t *testing.T) {
	f := Scope(TableResult, Principal{UserID: "T1", Role: models.RoleTeacher}, models.ListQuery{
		Search:    "jane",
		ClassID:   "4",
		StudentID: "S2",
	})
	joined := f.Where()
	for i := range f.Args {
		assert.True(t, strings.Contains(joined, fmt.Sprintf("$%d", i+1)), "missing placeholder $%d in %q", i+1, joined)
	}
}
