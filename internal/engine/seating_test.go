package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/scheduling-api/internal/models"
)

func makeStudents(batch string, count int) []models.Student {
	students := make([]models.Student, count)
	for i := range students {
		students[i] = models.Student{
			ID:         fmt.Sprintf("%s-sid-%02d", batch, i),
			RollNumber: fmt.Sprintf("%s-%02d", batch, i),
			Batch:      batch,
		}
	}
	return students
}

func TestAllocateSeatingAccountsForEveryStudent(t *testing.T) {
	students := append(makeStudents("2024", 20), makeStudents("2023", 15)...)
	allocations := []RoomAllocation{
		{RoomID: "room-a", CapacityUsed: 24},
		{RoomID: "room-b", CapacityUsed: 11},
	}

	res := AllocateSeating(allocations, students, 6)
	assert.Len(t, res.Assignments, 35)
	assert.Empty(t, res.Unseated)

	// Every (room, row, column) cell is used at most once.
	cells := map[string]bool{}
	ids := map[string]bool{}
	for _, seat := range res.Assignments {
		key := fmt.Sprintf("%s/%d/%d", seat.RoomID, seat.Row, seat.Column)
		assert.False(t, cells[key], "duplicate cell %s", key)
		cells[key] = true
		assert.False(t, ids[seat.StudentID])
		ids[seat.StudentID] = true
	}
}

func TestAllocateSeatingRowMajorOrder(t *testing.T) {
	students := makeStudents("2024", 8)
	res := AllocateSeating([]RoomAllocation{{RoomID: "room-a", CapacityUsed: 8}}, students, 3)

	require.Len(t, res.Assignments, 8)
	// Seats fill left to right, wrapping after the third column.
	assert.Equal(t, 0, res.Assignments[0].Row)
	assert.Equal(t, 0, res.Assignments[0].Column)
	assert.Equal(t, 0, res.Assignments[2].Row)
	assert.Equal(t, 2, res.Assignments[2].Column)
	assert.Equal(t, 1, res.Assignments[3].Row)
	assert.Equal(t, 0, res.Assignments[3].Column)
	assert.Equal(t, 2, res.Assignments[7].Row)
	assert.Equal(t, 1, res.Assignments[7].Column)
}

func TestAllocateSeatingInterleavesBatches(t *testing.T) {
	students := append(makeStudents("2024", 6), makeStudents("2023", 6)...)
	res := AllocateSeating([]RoomAllocation{{RoomID: "room-a", CapacityUsed: 12}}, students, 4)

	require.Len(t, res.Assignments, 12)
	assert.Empty(t, res.Warnings)
	// Equal batch sizes interleave perfectly: no same-batch row neighbours.
	assert.Zero(t, sameBatchNeighbours(res.Assignments))
}

func TestAllocateSeatingOverflow(t *testing.T) {
	students := makeStudents("2024", 10)
	res := AllocateSeating([]RoomAllocation{{RoomID: "room-a", CapacityUsed: 6}}, students, 6)

	assert.Len(t, res.Assignments, 6)
	require.Len(t, res.Unseated, 4)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnSeatingOverflow, res.Warnings[0].Code)
	assert.Equal(t, 4, res.Warnings[0].Meta["unseated"])
}

func TestAllocateSeatingAdjacencyWarningOnSkewedBatches(t *testing.T) {
	// Nine students from one batch and one from another cannot alternate.
	students := append(makeStudents("2024", 9), makeStudents("2023", 1)...)
	res := AllocateSeating([]RoomAllocation{{RoomID: "room-a", CapacityUsed: 10}}, students, 5)

	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnAdjacencyUnresolved, res.Warnings[0].Code)
}

func TestAllocateSeatingDeterministic(t *testing.T) {
	students := append(makeStudents("2024", 13), makeStudents("2023", 9)...)
	allocations := []RoomAllocation{{RoomID: "room-a", CapacityUsed: 30}}

	first := AllocateSeating(allocations, students, 6)
	for i := 0; i < 3; i++ {
		assert.Equal(t, first, AllocateSeating(allocations, students, 6))
	}
}
