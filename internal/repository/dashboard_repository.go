package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// DashboardRepository aggregates the counts backing each role's dashboard.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository constructs a DashboardRepository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// AdminCounts returns school-wide totals.
func (r *DashboardRepository) AdminCounts(ctx context.Context) (map[string]int, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM teachers) AS teachers,
        (SELECT COUNT(*) FROM students) AS students,
        (SELECT COUNT(*) FROM classes) AS classes,
        (SELECT COUNT(*) FROM courses) AS courses,
        (SELECT COUNT(*) FROM events) AS events,
        (SELECT COUNT(*) FROM announcements) AS announcements`
	return r.counts(ctx, query)
}

// TeacherCounts returns totals restricted to the teacher's chapters.
func (r *DashboardRepository) TeacherCounts(ctx context.Context, teacherID string) (map[string]int, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM chapters ch WHERE ch.teacher_id = $1) AS chapters,
        (SELECT COUNT(DISTINCT ch.class_id) FROM chapters ch WHERE ch.teacher_id = $1) AS classes,
        (SELECT COUNT(*) FROM students s WHERE EXISTS
            (SELECT 1 FROM chapters ch WHERE ch.class_id = s.class_id AND ch.teacher_id = $1)) AS students,
        (SELECT COUNT(*) FROM exams e JOIN chapters ch ON ch.id = e.chapter_id WHERE ch.teacher_id = $1) AS exams,
        (SELECT COUNT(*) FROM assignments a JOIN chapters ch ON ch.id = a.chapter_id WHERE ch.teacher_id = $1) AS assignments`
	return r.counts(ctx, query, teacherID)
}

// StudentCounts returns totals restricted to the student's class.
func (r *DashboardRepository) StudentCounts(ctx context.Context, studentID string) (map[string]int, error) {
	const query = `SELECT
        (SELECT COUNT(*) FROM chapters ch WHERE ch.class_id = st.class_id) AS chapters,
        (SELECT COUNT(*) FROM exams e JOIN chapters ch ON ch.id = e.chapter_id WHERE ch.class_id = st.class_id) AS exams,
        (SELECT COUNT(*) FROM assignments a JOIN chapters ch ON ch.id = a.chapter_id WHERE ch.class_id = st.class_id) AS assignments,
        (SELECT COUNT(*) FROM results r WHERE r.student_id = st.id) AS results
        FROM students st WHERE st.id = $1`
	return r.counts(ctx, query, studentID)
}

func (r *DashboardRepository) counts(ctx context.Context, query string, args ...interface{}) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		row := map[string]interface{}{}
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan dashboard counts: %w", err)
		}
		for key, value := range row {
			if n, ok := value.(int64); ok {
				counts[key] = int(n)
			}
		}
	}
	return counts, rows.Err()
}
