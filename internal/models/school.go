package models

import "time"

// Department groups classes and students (e.g. a grade level or faculty).
type Department struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Class is a homeroom group of students with a fixed capacity and an
// optional supervising teacher.
type Class struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Capacity     int       `db:"capacity" json:"capacity"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	SupervisorID *string   `db:"supervisor_id" json:"supervisor_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// ClassDetail extends Class with resolved names and the current headcount.
type ClassDetail struct {
	Class
	DepartmentName string  `db:"department_name" json:"department_name"`
	SupervisorName *string `db:"supervisor_name" json:"supervisor_name,omitempty"`
	StudentCount   int     `db:"student_count" json:"student_count"`
}

// Course is a taught subject. Teachers relate to courses many-to-many.
type Course struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// CourseDetail includes the IDs of the teachers assigned to the course.
type CourseDetail struct {
	Course
	TeacherIDs []string `json:"teacher_ids"`
}

// Chapter is a scheduled teaching unit: one course taught to one class by
// one teacher in a weekly time slot. It is the root of the ownership chain
// used for scoping exams, assignments and results.
type Chapter struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Day       string    `db:"day" json:"day"`
	StartTime time.Time `db:"start_time" json:"start_time"`
	EndTime   time.Time `db:"end_time" json:"end_time"`
	CourseID  string    `db:"course_id" json:"course_id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ChapterDetail resolves the course, class and teacher names for listings.
type ChapterDetail struct {
	Chapter
	CourseName  string `db:"course_name" json:"course_name"`
	ClassName   string `db:"class_name" json:"class_name"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
}
