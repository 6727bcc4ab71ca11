package models

import "time"

// Exam is a scheduled test attached to a chapter; ownership for scoping is
// inherited from the chapter.
type Exam struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	ChapterID string    `db:"chapter_id" json:"chapter_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ExamDetail resolves chapter context for listings.
type ExamDetail struct {
	Exam
	CourseName  string `db:"course_name" json:"course_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// Assignment is homework attached to a chapter.
type Assignment struct {
	ID        string    `db:"id" json:"id"`
	Title     string    `db:"title" json:"title"`
	StartDate time.Time `db:"start_date" json:"start_date"`
	DueDate   time.Time `db:"due_date" json:"due_date"`
	ChapterID string    `db:"chapter_id" json:"chapter_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// AssignmentDetail resolves chapter context for listings.
type AssignmentDetail struct {
	Assignment
	CourseName  string `db:"course_name" json:"course_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}

// Result records a student's score on exactly one exam or one assignment
// (never both).
type Result struct {
	ID           string    `db:"id" json:"id"`
	Score        int       `db:"score" json:"score"`
	ExamID       *string   `db:"exam_id" json:"exam_id,omitempty"`
	AssignmentID *string   `db:"assignment_id" json:"assignment_id,omitempty"`
	StudentID    string    `db:"student_id" json:"student_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ResultDetail resolves the assessed work and student for listings.
type ResultDetail struct {
	Result
	Title       string `db:"title" json:"title"`
	StudentName string `db:"student_name" json:"student_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
