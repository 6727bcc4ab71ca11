package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// OwnershipRepository resolves the owning teacher of rows along the chapter
// chain. It backs the mutation guard; missing rows surface as sql.ErrNoRows.
type OwnershipRepository struct {
	db *sqlx.DB
}

// NewOwnershipRepository constructs an OwnershipRepository.
func NewOwnershipRepository(db *sqlx.DB) *OwnershipRepository {
	return &OwnershipRepository{db: db}
}

// ChapterTeacher returns the teacher owning the chapter.
func (r *OwnershipRepository) ChapterTeacher(ctx context.Context, chapterID string) (string, error) {
	var teacherID string
	err := r.db.GetContext(ctx, &teacherID, "SELECT teacher_id FROM chapters WHERE id = $1", chapterID)
	return teacherID, err
}

// ExamTeacher returns the teacher owning the exam's chapter.
func (r *OwnershipRepository) ExamTeacher(ctx context.Context, examID string) (string, error) {
	var teacherID string
	err := r.db.GetContext(ctx, &teacherID,
		"SELECT ch.teacher_id FROM exams e JOIN chapters ch ON ch.id = e.chapter_id WHERE e.id = $1", examID)
	return teacherID, err
}

// AssignmentTeacher returns the teacher owning the assignment's chapter.
func (r *OwnershipRepository) AssignmentTeacher(ctx context.Context, assignmentID string) (string, error) {
	var teacherID string
	err := r.db.GetContext(ctx, &teacherID,
		"SELECT ch.teacher_id FROM assignments a JOIN chapters ch ON ch.id = a.chapter_id WHERE a.id = $1", assignmentID)
	return teacherID, err
}

// ResultTeacher returns the teacher owning the result's parent chapter,
// whichever of exam or assignment the result hangs off.
func (r *OwnershipRepository) ResultTeacher(ctx context.Context, resultID string) (string, error) {
	const query = `SELECT ch.teacher_id FROM results r
        LEFT JOIN exams e ON e.id = r.exam_id
        LEFT JOIN assignments a ON a.id = r.assignment_id
        JOIN chapters ch ON ch.id = COALESCE(e.chapter_id, a.chapter_id)
        WHERE r.id = $1`
	var teacherID string
	if err := r.db.GetContext(ctx, &teacherID, query, resultID); err != nil {
		return "", fmt.Errorf("resolve result owner: %w", err)
	}
	return teacherID, nil
}
