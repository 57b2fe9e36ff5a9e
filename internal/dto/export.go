package dto

import "time"

// ExportRequest asks for a rendered artifact of a timetable or exam schedule.
type ExportRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=timetable exam_schedule seating_chart"`
	Format string `json:"format" validate:"required,oneof=csv pdf"`
	// TargetID names the timetable or exam the artifact covers. Optional for
	// exam_schedule, which exports the full schedule when omitted.
	TargetID string `json:"targetId" validate:"omitempty,max=64"`
}

// ExportJobResponse tracks an export through the background queue.
type ExportJobResponse struct {
	JobID     string     `json:"jobId"`
	Status    string     `json:"status"`
	URL       string     `json:"url,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	Error     string     `json:"error,omitempty"`
}
