package engine

import (
	"fmt"
	"sort"
	"time"

	"github.com/samber/lo"

	"github.com/campushub/scheduling-api/internal/models"
)

// ExamSlot is one cell of the coarse exam grid.
type ExamSlot struct {
	Date  time.Time        `json:"date"`
	Range models.TimeRange `json:"range"`
}

// ExamDemand is a course awaiting an exam slot.
type ExamDemand struct {
	CourseID   string   `json:"course_id"`
	CourseCode string   `json:"course_code"`
	Enrolled   int      `json:"enrolled"`
	Batches    []string `json:"batches"`
}

// RoomAllocation binds a room to part of an exam's students.
type RoomAllocation struct {
	RoomID       string `json:"room_id"`
	CapacityUsed int    `json:"capacity_used"`
}

// ScheduledExam is one course placed on the exam grid with its rooms.
type ScheduledExam struct {
	CourseID    string           `json:"course_id"`
	CourseCode  string           `json:"course_code"`
	Slot        ExamSlot         `json:"slot"`
	Allocations []RoomAllocation `json:"allocations"`
	// Flagged marks exams whose room pool could not cover enrollment.
	Flagged bool `json:"flagged"`
	// Invigilators holds one instructor per allocated room, round-robin.
	Invigilators []string `json:"invigilators,omitempty"`
}

// ExamScheduleResult reports every demand's fate.
type ExamScheduleResult struct {
	Exams       []ScheduledExam `json:"exams"`
	Unscheduled []ExamDemand    `json:"unscheduled"`
	Warnings    []Warning       `json:"warnings"`
}

// ScheduleExams assigns each course's exam to the earliest slot sharing no
// student batch with exams already in that slot, then bin-packs rooms by
// descending capacity. Shortfalls flag the exam and emit a warning; a course
// with no clash-free slot is reported unscheduled, never double-booked.
func ScheduleExams(
	demands []ExamDemand,
	slots []ExamSlot,
	rooms []models.Room,
	invigilators []string,
) ExamScheduleResult {
	ordered := make([]ExamDemand, len(demands))
	copy(ordered, demands)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Enrolled != ordered[j].Enrolled {
			return ordered[i].Enrolled > ordered[j].Enrolled
		}
		return ordered[i].CourseCode < ordered[j].CourseCode
	})

	grid := make([]ExamSlot, len(slots))
	copy(grid, slots)
	sort.SliceStable(grid, func(i, j int) bool {
		if !grid[i].Date.Equal(grid[j].Date) {
			return grid[i].Date.Before(grid[j].Date)
		}
		return grid[i].Range.Start < grid[j].Range.Start
	})

	pool := make([]models.Room, len(rooms))
	copy(pool, rooms)
	sort.SliceStable(pool, func(i, j int) bool {
		if pool[i].Capacity != pool[j].Capacity {
			return pool[i].Capacity > pool[j].Capacity
		}
		return pool[i].ID < pool[j].ID
	})

	slotBatches := make([]map[string]struct{}, len(grid))
	for i := range slotBatches {
		slotBatches[i] = make(map[string]struct{})
	}

	result := ExamScheduleResult{}
	invigilatorIdx := 0

	for _, demand := range ordered {
		slotIdx := -1
		for i := range grid {
			if !sharesBatch(slotBatches[i], demand.Batches) {
				slotIdx = i
				break
			}
		}
		if slotIdx < 0 {
			result.Unscheduled = append(result.Unscheduled, demand)
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnExamUnscheduled,
				Message: fmt.Sprintf("no clash-free slot for %s exam", demand.CourseCode),
				Meta:    map[string]any{"course": demand.CourseCode, "batches": demand.Batches},
			})
			continue
		}

		for _, batch := range demand.Batches {
			slotBatches[slotIdx][batch] = struct{}{}
		}

		exam := ScheduledExam{
			CourseID:   demand.CourseID,
			CourseCode: demand.CourseCode,
			Slot:       grid[slotIdx],
		}

		remaining := demand.Enrolled
		for _, room := range pool {
			if remaining <= 0 {
				break
			}
			used := lo.Min([]int{room.Capacity, remaining})
			exam.Allocations = append(exam.Allocations, RoomAllocation{RoomID: room.ID, CapacityUsed: used})
			remaining -= used
		}
		if remaining > 0 {
			exam.Flagged = true
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnInsufficientRooms,
				Message: fmt.Sprintf("room pool short by %d seats for %s exam", remaining, demand.CourseCode),
				Meta:    map[string]any{"course": demand.CourseCode, "shortfall": remaining},
			})
		}

		for range exam.Allocations {
			if len(invigilators) == 0 {
				break
			}
			exam.Invigilators = append(exam.Invigilators, invigilators[invigilatorIdx%len(invigilators)])
			invigilatorIdx++
		}

		result.Exams = append(result.Exams, exam)
	}
	return result
}

func sharesBatch(assigned map[string]struct{}, batches []string) bool {
	for _, b := range batches {
		if _, ok := assigned[b]; ok {
			return true
		}
	}
	return false
}
