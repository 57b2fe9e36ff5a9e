package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/scheduling-api/internal/models"
)

func examDay(day int) time.Time {
	return time.Date(2026, time.December, day, 0, 0, 0, 0, time.UTC)
}

func morningAndAfternoon(days ...int) []ExamSlot {
	var slots []ExamSlot
	for _, d := range days {
		slots = append(slots,
			ExamSlot{Date: examDay(d), Range: models.TimeRange{Start: 9 * 60, End: 12 * 60}},
			ExamSlot{Date: examDay(d), Range: models.TimeRange{Start: 14 * 60, End: 17 * 60}},
		)
	}
	return slots
}

func TestScheduleExamsBatchClashFree(t *testing.T) {
	demands := []ExamDemand{
		{CourseID: "c1", CourseCode: "CS101", Enrolled: 80, Batches: []string{"2024-CS"}},
		{CourseID: "c2", CourseCode: "CS201", Enrolled: 60, Batches: []string{"2024-CS", "2023-CS"}},
		{CourseID: "c3", CourseCode: "MA101", Enrolled: 50, Batches: []string{"2024-MA"}},
	}
	rooms := []models.Room{
		{ID: "hall-1", Capacity: 100},
		{ID: "hall-2", Capacity: 40},
	}

	res := ScheduleExams(demands, morningAndAfternoon(1, 2), rooms, nil)
	require.Len(t, res.Exams, 3)
	assert.Empty(t, res.Unscheduled)

	slotsByCourse := map[string]ExamSlot{}
	for _, e := range res.Exams {
		slotsByCourse[e.CourseCode] = e.Slot
	}
	// CS101 and CS201 share batch 2024-CS and must land in different slots.
	assert.NotEqual(t, slotsByCourse["CS101"], slotsByCourse["CS201"])
	// MA101 shares no batch with CS101 and joins the first slot.
	assert.Equal(t, slotsByCourse["CS101"], slotsByCourse["MA101"])
}

func TestScheduleExamsLargestEnrollmentFirst(t *testing.T) {
	demands := []ExamDemand{
		{CourseID: "c1", CourseCode: "SMALL", Enrolled: 10, Batches: []string{"b1"}},
		{CourseID: "c2", CourseCode: "BIG", Enrolled: 90, Batches: []string{"b1"}},
	}
	res := ScheduleExams(demands, morningAndAfternoon(1), []models.Room{{ID: "hall-1", Capacity: 100}}, nil)
	require.Len(t, res.Exams, 2)
	assert.Equal(t, "BIG", res.Exams[0].CourseCode)
	assert.Equal(t, models.TimeRange{Start: 9 * 60, End: 12 * 60}, res.Exams[0].Slot.Range)
}

func TestScheduleExamsRoomBinPacking(t *testing.T) {
	demands := []ExamDemand{
		{CourseID: "c1", CourseCode: "CS101", Enrolled: 130, Batches: []string{"b1"}},
	}
	rooms := []models.Room{
		{ID: "small", Capacity: 30},
		{ID: "big", Capacity: 100},
	}

	res := ScheduleExams(demands, morningAndAfternoon(1), rooms, nil)
	require.Len(t, res.Exams, 1)
	exam := res.Exams[0]
	assert.False(t, exam.Flagged)
	// Largest room first, remainder spills into the next.
	require.Len(t, exam.Allocations, 2)
	assert.Equal(t, RoomAllocation{RoomID: "big", CapacityUsed: 100}, exam.Allocations[0])
	assert.Equal(t, RoomAllocation{RoomID: "small", CapacityUsed: 30}, exam.Allocations[1])
}

func TestScheduleExamsFlagsShortfall(t *testing.T) {
	demands := []ExamDemand{
		{CourseID: "c1", CourseCode: "CS101", Enrolled: 120, Batches: []string{"b1"}},
	}
	res := ScheduleExams(demands, morningAndAfternoon(1), []models.Room{{ID: "hall-1", Capacity: 100}}, nil)
	require.Len(t, res.Exams, 1)
	assert.True(t, res.Exams[0].Flagged)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnInsufficientRooms, res.Warnings[0].Code)
	assert.Equal(t, 20, res.Warnings[0].Meta["shortfall"])
}

func TestScheduleExamsUnscheduledWhenNoClashFreeSlot(t *testing.T) {
	demands := []ExamDemand{
		{CourseID: "c1", CourseCode: "CS101", Enrolled: 40, Batches: []string{"b1"}},
		{CourseID: "c2", CourseCode: "CS201", Enrolled: 30, Batches: []string{"b1"}},
	}
	oneSlot := []ExamSlot{{Date: examDay(1), Range: models.TimeRange{Start: 9 * 60, End: 12 * 60}}}

	res := ScheduleExams(demands, oneSlot, []models.Room{{ID: "hall-1", Capacity: 100}}, nil)
	require.Len(t, res.Exams, 1)
	require.Len(t, res.Unscheduled, 1)
	assert.Equal(t, "CS201", res.Unscheduled[0].CourseCode)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnExamUnscheduled, res.Warnings[0].Code)
}

func TestScheduleExamsInvigilatorRotation(t *testing.T) {
	demands := []ExamDemand{
		{CourseID: "c1", CourseCode: "CS101", Enrolled: 120, Batches: []string{"b1"}},
		{CourseID: "c2", CourseCode: "MA101", Enrolled: 50, Batches: []string{"b2"}},
	}
	rooms := []models.Room{
		{ID: "hall-1", Capacity: 80},
		{ID: "hall-2", Capacity: 60},
	}
	invigilators := []string{"inst-1", "inst-2", "inst-3"}

	res := ScheduleExams(demands, morningAndAfternoon(1), rooms, invigilators)
	require.Len(t, res.Exams, 2)

	// CS101 needs both rooms, MA101 one; the rotation continues across exams.
	assert.Equal(t, []string{"inst-1", "inst-2"}, res.Exams[0].Invigilators)
	assert.Equal(t, []string{"inst-3"}, res.Exams[1].Invigilators)
}
