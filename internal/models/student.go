package models

import "time"

// Student represents a learner registered in the institution.
type Student struct {
	ID         string    `db:"id" json:"id"`
	RollNumber string    `db:"roll_number" json:"roll_number"`
	Name       string    `db:"name" json:"name"`
	Program    string    `db:"program" json:"program"`
	Batch      string    `db:"batch" json:"batch"`
	Section    string    `db:"section" json:"section"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Batch     string
	Section   string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Enrollment binds a student to a course.
type Enrollment struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
