package authz

import (
	"fmt"
	"strings"

	"github.com/class-unity/classunity-api/internal/models"
)

// Scope builds the list filter for a table: the caller-supplied filters
// ANDed with the role clause for the principal. The role clause can never be
// overridden by input; an unknown table or role fails closed with an
// always-false filter.
//
// Conditions reference the canonical aliases of each table's list query:
//
//	teacher        teachers t
//	student        students s
//	course         courses co
//	class          classes c
//	chapter        chapters ch
//	exam           exams e JOIN chapters ch JOIN courses co
//	assignment     assignments a JOIN chapters ch JOIN courses co
//	result         results r LEFT JOIN exams e LEFT JOIN assignments a
//	               JOIN chapters ch ON ch.id = COALESCE(e.chapter_id, a.chapter_id)
//	               JOIN students s
//	event          events ev
//	announcement   announcements an
//	department     departments d
func Scope(table Table, p Principal, q models.ListQuery) Filter {
	b := &builder{}

	rules, ok := scopeRules[table]
	if !ok {
		b.deny()
		return b.Filter
	}

	if rules.filters != nil {
		rules.filters(b, q)
	}

	switch p.Role {
	case models.RoleAdmin:
		// admins see every row
	case models.RoleTeacher:
		if rules.teacher == nil {
			b.deny()
		} else {
			rules.teacher(b, p.UserID)
		}
	case models.RoleStudent:
		if rules.student == nil {
			b.deny()
		} else {
			rules.student(b, p.UserID)
		}
	default:
		b.deny()
	}

	return b.Filter
}

const denyAll = "1=0"

type builder struct {
	Filter
}

func (b *builder) bind(v interface{}) string {
	b.Args = append(b.Args, v)
	return fmt.Sprintf("$%d", len(b.Args))
}

func (b *builder) add(cond string) {
	b.Conds = append(b.Conds, cond)
}

func (b *builder) deny() {
	b.add(denyAll)
}

func (b *builder) search(term string, columns ...string) {
	if term == "" {
		return
	}
	ph := b.bind("%" + strings.ToLower(term) + "%")
	likes := make([]string, len(columns))
	for i, col := range columns {
		likes[i] = fmt.Sprintf("LOWER(%s) LIKE %s", col, ph)
	}
	b.add("(" + strings.Join(likes, " OR ") + ")")
}

func (b *builder) equal(column, value string) {
	if value == "" {
		return
	}
	b.add(fmt.Sprintf("%s = %s", column, b.bind(value)))
}

// studentClass resolves the caller's own class id inside the filter, keeping
// Scope a pure function of its inputs.
func studentClass(b *builder, userID string) string {
	return fmt.Sprintf("(SELECT st.class_id FROM students st WHERE st.id = %s)", b.bind(userID))
}

type ruleSet struct {
	filters func(b *builder, q models.ListQuery)
	teacher func(b *builder, userID string)
	student func(b *builder, userID string)
}

func allowAll(*builder, string) {}

var scopeRules = map[Table]ruleSet{
	TableTeacher: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "t.name", "t.surname", "t.username")
			b.equal("t.id", q.TeacherID)
		},
		// the teacher roster is visible to every teacher
		teacher: allowAll,
	},
	TableStudent: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "s.name", "s.surname", "s.username")
			b.equal("s.class_id", q.ClassID)
		},
		teacher: func(b *builder, userID string) {
			b.add(fmt.Sprintf(
				"EXISTS (SELECT 1 FROM chapters tch WHERE tch.class_id = s.class_id AND tch.teacher_id = %s)",
				b.bind(userID)))
		},
		student: func(b *builder, userID string) {
			b.equal("s.id", userID)
		},
	},
	TableCourse: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "co.name")
			if q.TeacherID != "" {
				b.add(fmt.Sprintf(
					"EXISTS (SELECT 1 FROM course_teachers ct WHERE ct.course_id = co.id AND ct.teacher_id = %s)",
					b.bind(q.TeacherID)))
			}
		},
		teacher: func(b *builder, userID string) {
			b.add(fmt.Sprintf(
				"EXISTS (SELECT 1 FROM course_teachers ct WHERE ct.course_id = co.id AND ct.teacher_id = %s)",
				b.bind(userID)))
		},
	},
	TableClass: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "c.name")
			b.equal("c.id", q.ClassID)
		},
		teacher: func(b *builder, userID string) {
			supervisor := b.bind(userID)
			teaches := b.bind(userID)
			b.add(fmt.Sprintf(
				"(c.supervisor_id = %s OR EXISTS (SELECT 1 FROM chapters cch WHERE cch.class_id = c.id AND cch.teacher_id = %s))",
				supervisor, teaches))
		},
		student: func(b *builder, userID string) {
			b.add(fmt.Sprintf("c.id = %s", studentClass(b, userID)))
		},
	},
	TableChapter: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "ch.name")
			b.equal("ch.class_id", q.ClassID)
			b.equal("ch.teacher_id", q.TeacherID)
		},
		teacher: func(b *builder, userID string) {
			b.equal("ch.teacher_id", userID)
		},
		student: func(b *builder, userID string) {
			b.add(fmt.Sprintf("ch.class_id = %s", studentClass(b, userID)))
		},
	},
	TableExam: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "co.name", "e.title")
			b.equal("ch.class_id", q.ClassID)
			b.equal("ch.teacher_id", q.TeacherID)
		},
		teacher: func(b *builder, userID string) {
			b.equal("ch.teacher_id", userID)
		},
		student: func(b *builder, userID string) {
			b.add(fmt.Sprintf("ch.class_id = %s", studentClass(b, userID)))
		},
	},
	TableAssignment: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "co.name", "a.title")
			b.equal("ch.class_id", q.ClassID)
			b.equal("ch.teacher_id", q.TeacherID)
		},
		teacher: func(b *builder, userID string) {
			b.equal("ch.teacher_id", userID)
		},
		student: func(b *builder, userID string) {
			b.add(fmt.Sprintf("ch.class_id = %s", studentClass(b, userID)))
		},
	},
	TableResult: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "s.name", "s.surname")
			b.equal("ch.class_id", q.ClassID)
			b.equal("ch.teacher_id", q.TeacherID)
			b.equal("r.student_id", q.StudentID)
		},
		teacher: func(b *builder, userID string) {
			b.equal("ch.teacher_id", userID)
		},
		student: func(b *builder, userID string) {
			b.add(fmt.Sprintf("ch.class_id = %s", studentClass(b, userID)))
		},
	},
	TableEvent: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "ev.title")
			b.equal("ev.class_id", q.ClassID)
		},
		teacher: func(b *builder, userID string) {
			b.add(fmt.Sprintf(
				"(ev.class_id IS NULL OR EXISTS (SELECT 1 FROM chapters ech WHERE ech.class_id = ev.class_id AND ech.teacher_id = %s))",
				b.bind(userID)))
		},
		student: func(b *builder, userID string) {
			b.add(fmt.Sprintf("(ev.class_id IS NULL OR ev.class_id = %s)", studentClass(b, userID)))
		},
	},
	TableAnnouncement: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "an.title")
			b.equal("an.class_id", q.ClassID)
		},
		teacher: func(b *builder, userID string) {
			b.add(fmt.Sprintf(
				"(an.class_id IS NULL OR EXISTS (SELECT 1 FROM chapters ach WHERE ach.class_id = an.class_id AND ach.teacher_id = %s))",
				b.bind(userID)))
		},
		student: func(b *builder, userID string) {
			b.add(fmt.Sprintf("(an.class_id IS NULL OR an.class_id = %s)", studentClass(b, userID)))
		},
	},
	TableDepartment: {
		filters: func(b *builder, q models.ListQuery) {
			b.search(q.Search, "d.name")
		},
		// departments back form selects for every role
		teacher: allowAll,
		student: allowAll,
	},
}
