package dto

import (
	"github.com/campushub/scheduling-api/internal/engine"
	"github.com/campushub/scheduling-api/internal/models"
)

// ScheduleExamsRequest places exams for the listed courses on a fresh grid.
// An empty CourseIDs list schedules every course with enrollments.
type ScheduleExamsRequest struct {
	StartDate   string   `json:"startDate" validate:"required,datetime=2006-01-02"`
	HorizonDays int      `json:"horizonDays" validate:"omitempty,min=1,max=60"`
	SlotsPerDay int      `json:"slotsPerDay" validate:"omitempty,min=1,max=4"`
	SlotMinutes int      `json:"slotMinutes" validate:"omitempty,min=60,max=300"`
	DayStart    string   `json:"dayStart" validate:"omitempty"`
	CourseIDs   []string `json:"courseIds" validate:"omitempty,dive,min=1"`
	RoomIDs     []string `json:"roomIds" validate:"omitempty,dive,min=1"`
}

// ScheduleExamsResponse returns the persisted exam schedule.
type ScheduleExamsResponse struct {
	Exams       []models.Exam             `json:"exams"`
	Duties      []models.InvigilationDuty `json:"duties,omitempty"`
	Unscheduled []engine.ExamDemand       `json:"unscheduled,omitempty"`
	Warnings    []engine.Warning          `json:"warnings,omitempty"`
}

// AllocateSeatingRequest lays out the seat grid for one exam.
type AllocateSeatingRequest struct {
	Columns int `json:"columns" validate:"omitempty,min=2,max=16"`
}

// AllocateSeatingResponse returns the persisted seat assignments.
type AllocateSeatingResponse struct {
	ExamID      string                     `json:"examId"`
	Assignments []models.SeatingAssignment `json:"assignments"`
	Unseated    []string                   `json:"unseated,omitempty"`
	Warnings    []engine.Warning           `json:"warnings,omitempty"`
}
