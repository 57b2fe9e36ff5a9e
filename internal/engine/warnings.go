package engine

import "errors"

// Sentinel errors for the input-error class. Callers translate these into
// transport-level errors; everything else the engine reports rides inside
// results as warnings.
var (
	ErrInvalidWindow = errors.New("availability window end must be after start")
	ErrUnknownEntity = errors.New("referenced entity does not exist")
)

// WarningCode identifies a soft-constraint violation or feasibility shortfall.
type WarningCode string

const (
	WarnFractionalHours     WarningCode = "FRACTIONAL_HOURS_DROPPED"
	WarnInstructorOverload  WarningCode = "INSTRUCTOR_OVERLOAD"
	WarnInsufficientRooms   WarningCode = "INSUFFICIENT_ROOM_CAPACITY"
	WarnSeatingOverflow     WarningCode = "SEATING_OVERFLOW"
	WarnAdjacencyUnresolved WarningCode = "ANTI_ADJACENCY_UNRESOLVED"
	WarnExamUnscheduled     WarningCode = "EXAM_UNSCHEDULED"
)

// Warning records a condition the caller must be able to inspect but which
// never blocks completion.
type Warning struct {
	Code    WarningCode    `json:"code"`
	Message string         `json:"message"`
	Meta    map[string]any `json:"meta,omitempty"`
}
