package models

import "time"

// Teacher owns chapters and relates to courses many-to-many. The ID is the
// identity-provider account ID, not a locally generated one.
type Teacher struct {
	ID        string    `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Name      string    `db:"name" json:"name"`
	Surname   string    `db:"surname" json:"surname"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Address   string    `db:"address" json:"address"`
	Img       *string   `db:"img" json:"img,omitempty"`
	Sex       string    `db:"sex" json:"sex"`
	Birthday  time.Time `db:"birthday" json:"birthday"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// TeacherDetail includes the teacher's assigned course IDs.
type TeacherDetail struct {
	Teacher
	CourseIDs []string `json:"course_ids"`
}

// Student belongs to exactly one class and one department. The ID is the
// identity-provider account ID.
type Student struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Name         string    `db:"name" json:"name"`
	Surname      string    `db:"surname" json:"surname"`
	Email        *string   `db:"email" json:"email,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Address      string    `db:"address" json:"address"`
	Img          *string   `db:"img" json:"img,omitempty"`
	Sex          string    `db:"sex" json:"sex"`
	Birthday     time.Time `db:"birthday" json:"birthday"`
	ClassID      string    `db:"class_id" json:"class_id"`
	DepartmentID string    `db:"department_id" json:"department_id"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail resolves class and department names for listings.
type StudentDetail struct {
	Student
	ClassName      string `db:"class_name" json:"class_name"`
	DepartmentName string `db:"department_name" json:"department_name"`
}
