package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
)

// SolveStatus tracks a timetable through the solver lifecycle.
type SolveStatus string

const (
	SolveUnsolved SolveStatus = "UNSOLVED"
	SolveSolving  SolveStatus = "SOLVING"
	SolvePartial  SolveStatus = "PARTIAL"
	SolveComplete SolveStatus = "COMPLETE"
)

// Timetable owns a weekly set of sessions for a semester.
type Timetable struct {
	ID          string         `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Semester    string         `db:"semester" json:"semester"`
	Sections    pq.StringArray `db:"sections" json:"sections"`
	Status      SolveStatus    `db:"status" json:"status"`
	IsGenerated bool           `db:"is_generated" json:"is_generated"`
	GeneratedAt *time.Time     `db:"generated_at" json:"generated_at,omitempty"`
	Constraints types.JSONText `db:"constraints" json:"constraints"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time      `db:"updated_at" json:"updated_at"`
}

// TimetableConstraints bound every slot choice inside one timetable.
type TimetableConstraints struct {
	WorkingHours   TimeRange   `json:"working_hours"`
	Days           []DayOfWeek `json:"days"`
	SlotMinutes    int         `json:"slot_minutes"`
	Breaks         []BreakTime `json:"breaks"`
	MinSectionSize int         `json:"min_section_size"`
}

// Session is one scheduled weekly occurrence of a course. Sessions are
// created empty by demand expansion and filled by the solver; they are
// discarded and regenerated wholesale on every re-solve.
type Session struct {
	ID           string      `db:"id" json:"id"`
	TimetableID  string      `db:"timetable_id" json:"timetable_id"`
	CourseCode   string      `db:"course_code" json:"course_code"`
	Sequence     int         `db:"sequence" json:"sequence"`
	Type         SessionType `db:"session_type" json:"session_type"`
	Day          DayOfWeek   `db:"day_of_week" json:"day_of_week"`
	Range        TimeRange   `db:"range" json:"range"`
	RoomID       string      `db:"room_id" json:"room_id"`
	InstructorID string      `db:"instructor_id" json:"instructor_id"`
	SectionSize  int         `db:"section_size" json:"section_size"`
	ColorTag     string      `db:"color_tag" json:"color_tag"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
}

// TimetableFilter captures list parameters for timetables.
type TimetableFilter struct {
	Semester  string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
