package models

import "time"

// Exam places one course's examination on a concrete date and time range.
type Exam struct {
	ID         string    `db:"id" json:"id"`
	CourseID   string    `db:"course_id" json:"course_id"`
	CourseCode string    `db:"course_code" json:"course_code"`
	Date       time.Time `db:"exam_date" json:"exam_date"`
	Range      TimeRange `db:"range" json:"range"`
	Flagged    bool      `db:"flagged" json:"flagged"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`

	Allocations []ExamRoomAllocation `db:"-" json:"allocations,omitempty"`
	Seating     []SeatingAssignment  `db:"-" json:"seating,omitempty"`
}

// ExamRoomAllocation binds a room to part of an exam's enrolled students.
type ExamRoomAllocation struct {
	ID           string `db:"id" json:"id"`
	ExamID       string `db:"exam_id" json:"exam_id"`
	RoomID       string `db:"room_id" json:"room_id"`
	CapacityUsed int    `db:"capacity_used" json:"capacity_used"`
}

// SeatingAssignment fixes one student to a grid seat for an exam.
type SeatingAssignment struct {
	ID        string `db:"id" json:"id"`
	ExamID    string `db:"exam_id" json:"exam_id"`
	RoomID    string `db:"room_id" json:"room_id"`
	StudentID string `db:"student_id" json:"student_id"`
	Row       int    `db:"row_index" json:"row_index"`
	Column    int    `db:"col_index" json:"col_index"`
}

// InvigilationDuty assigns an instructor to watch one exam room.
type InvigilationDuty struct {
	ID           string `db:"id" json:"id"`
	ExamID       string `db:"exam_id" json:"exam_id"`
	RoomID       string `db:"room_id" json:"room_id"`
	InstructorID string `db:"instructor_id" json:"instructor_id"`
}
