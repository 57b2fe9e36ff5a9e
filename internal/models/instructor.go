package models

import "time"

// Instructor represents a teaching staff member.
type Instructor struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	Department   string    `db:"department" json:"department"`
	MaxHoursWeek int       `db:"max_hours_week" json:"max_hours_week"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`

	// Loaded alongside the row, not columns of the instructors table.
	Windows     []AvailabilityWindow  `db:"-" json:"windows,omitempty"`
	Unavailable []UnavailableOverride `db:"-" json:"unavailable,omitempty"`
}

// InstructorFilter captures filtering options for listing instructors.
type InstructorFilter struct {
	Department string
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
