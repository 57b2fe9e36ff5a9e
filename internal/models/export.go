package models

import "time"

// ExportKind selects what an export artifact covers.
type ExportKind string

const (
	ExportKindTimetable    ExportKind = "timetable"
	ExportKindExamSchedule ExportKind = "exam_schedule"
	ExportKindSeatingChart ExportKind = "seating_chart"
)

// ExportFormat selects the rendered file type.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "csv"
	ExportFormatPDF ExportFormat = "pdf"
)

// ExportStatus tracks an export job through the queue.
type ExportStatus string

const (
	ExportStatusQueued     ExportStatus = "QUEUED"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusFinished   ExportStatus = "FINISHED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob records one requested artifact. Jobs live in memory only;
// the rendered file on disk outlives the job record.
type ExportJob struct {
	ID        string       `json:"id"`
	Kind      ExportKind   `json:"kind"`
	Format    ExportFormat `json:"format"`
	TargetID  string       `json:"target_id,omitempty"`
	Status    ExportStatus `json:"status"`
	ResultURL string       `json:"result_url,omitempty"`
	ExpiresAt *time.Time   `json:"expires_at,omitempty"`
	Error     string       `json:"error,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}
