package dto

import (
	"github.com/campushub/scheduling-api/internal/engine"
	"github.com/campushub/scheduling-api/internal/models"
)

// BreakTimeRequest declares one recurring break inside working hours.
type BreakTimeRequest struct {
	Day   int    `json:"dayOfWeek" validate:"min=0,max=6"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// SolveTimetableRequest optionally overrides the timetable's stored constraints.
type SolveTimetableRequest struct {
	WorkingHoursStart string             `json:"workingHoursStart" validate:"omitempty"`
	WorkingHoursEnd   string             `json:"workingHoursEnd" validate:"omitempty"`
	SlotMinutes       int                `json:"slotMinutes" validate:"omitempty,min=15,max=240"`
	Days              []int              `json:"days" validate:"omitempty,dive,min=0,max=6"`
	Breaks            []BreakTimeRequest `json:"breaks" validate:"omitempty,dive"`
	MinSectionSize    int                `json:"minSectionSize" validate:"omitempty,min=1"`
}

// SolveTimetableResponse reports the outcome of one solve pass.
type SolveTimetableResponse struct {
	TimetableID string                 `json:"timetableId"`
	Status      models.SolveStatus     `json:"status"`
	Sessions    []models.Session       `json:"sessions"`
	Unresolved  []engine.SessionDemand `json:"unresolved,omitempty"`
	Warnings    []engine.Warning       `json:"warnings,omitempty"`
}

// ConflictsResponse lists detected invariant violations for a timetable.
type ConflictsResponse struct {
	TimetableID string            `json:"timetableId"`
	Conflicts   []engine.Conflict `json:"conflicts"`
}

// StatisticsResponse wraps the aggregated rollup with cache provenance.
type StatisticsResponse struct {
	TimetableID string            `json:"timetableId"`
	Cached      bool              `json:"cached"`
	Statistics  engine.Statistics `json:"statistics"`
}

// ClearTimetableResponse reports how many sessions were removed.
type ClearTimetableResponse struct {
	TimetableID     string `json:"timetableId"`
	SessionsDeleted int    `json:"sessionsDeleted"`
}

// CreateTimetableRequest registers a new empty timetable.
type CreateTimetableRequest struct {
	Name           string             `json:"name" validate:"required,min=1,max=120"`
	Semester       string             `json:"semester" validate:"required"`
	Sections       []string           `json:"sections" validate:"omitempty,dive,min=1"`
	SlotMinutes    int                `json:"slotMinutes" validate:"omitempty,min=15,max=240"`
	Days           []int              `json:"days" validate:"omitempty,dive,min=0,max=6"`
	Breaks         []BreakTimeRequest `json:"breaks" validate:"omitempty,dive"`
	MinSectionSize int                `json:"minSectionSize" validate:"omitempty,min=1"`
}
