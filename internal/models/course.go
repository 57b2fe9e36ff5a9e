package models

import (
	"time"

	"github.com/lib/pq"
)

// SessionType classifies the weekly contact hours a course demands.
type SessionType string

const (
	SessionLecture  SessionType = "LECTURE"
	SessionLab      SessionType = "LAB"
	SessionTutorial SessionType = "TUTORIAL"
)

// Course represents a taught course and its weekly contact demand.
type Course struct {
	ID            string         `db:"id" json:"id"`
	Code          string         `db:"code" json:"code"`
	Name          string         `db:"name" json:"name"`
	Credits       int            `db:"credits" json:"credits"`
	SessionType   SessionType    `db:"session_type" json:"session_type"`
	HoursPerWeek  float64        `db:"hours_per_week" json:"hours_per_week"`
	Department    string         `db:"department" json:"department"`
	InstructorIDs pq.StringArray `db:"instructor_ids" json:"instructor_ids"`
	Prerequisites pq.StringArray `db:"prerequisites" json:"prerequisites"`
	SectionSize   int            `db:"section_size" json:"section_size"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// CourseFilter captures supported filters for listing courses.
type CourseFilter struct {
	Department string
	Type       SessionType
	Search     string
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  string
}
