package engine

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"github.com/campushub/scheduling-api/internal/models"
)

// DefaultSeatingColumns is used when the caller provides no column count.
const DefaultSeatingColumns = 6

// Seat fixes one student to a grid cell in one room.
type Seat struct {
	RoomID    string `json:"room_id"`
	Row       int    `json:"row_index"`
	Column    int    `json:"col_index"`
	StudentID string `json:"student_id"`
	Batch     string `json:"batch"`
}

// SeatingResult accounts for every enrolled student: seated or unseated.
type SeatingResult struct {
	Assignments []Seat    `json:"assignments"`
	Unseated    []string  `json:"unseated"`
	Warnings    []Warning `json:"warnings"`
}

// AllocateSeating fills each allocated room's row-major seat grid. Students
// are sorted by roll number for determinism, then interleaved across batches
// so same-batch neighbours in a row are avoided where the mix allows it.
// Students beyond the total allocated capacity come back as unseated.
func AllocateSeating(
	allocations []RoomAllocation,
	students []models.Student,
	columns int,
) SeatingResult {
	if columns <= 0 {
		columns = DefaultSeatingColumns
	}

	ordered := make([]models.Student, len(students))
	copy(ordered, students)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].RollNumber < ordered[j].RollNumber })

	queue := interleaveByBatch(ordered)
	multiBatch := len(lo.UniqBy(ordered, func(s models.Student) string { return s.Batch })) > 1

	result := SeatingResult{}
	next := 0

	for _, alloc := range allocations {
		for seatIdx := 0; seatIdx < alloc.CapacityUsed && next < len(queue); seatIdx++ {
			student := queue[next]
			next++
			result.Assignments = append(result.Assignments, Seat{
				RoomID:    alloc.RoomID,
				Row:       seatIdx / columns,
				Column:    seatIdx % columns,
				StudentID: student.ID,
				Batch:     student.Batch,
			})
		}
	}

	for ; next < len(queue); next++ {
		result.Unseated = append(result.Unseated, queue[next].ID)
	}
	if len(result.Unseated) > 0 {
		result.Warnings = append(result.Warnings, Warning{
			Code:    WarnSeatingOverflow,
			Message: fmt.Sprintf("%d students exceed allocated seats", len(result.Unseated)),
			Meta:    map[string]any{"unseated": len(result.Unseated)},
		})
	}

	if multiBatch {
		if adjacent := sameBatchNeighbours(result.Assignments); adjacent > 0 {
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnAdjacencyUnresolved,
				Message: fmt.Sprintf("%d same-batch adjacent pairs could not be separated", adjacent),
				Meta:    map[string]any{"pairs": adjacent},
			})
		}
	}
	return result
}

// interleaveByBatch round-robins students across batch groups so consecutive
// seats alternate batches wherever more than one batch is enrolled.
func interleaveByBatch(students []models.Student) []models.Student {
	groups := lo.GroupBy(students, func(s models.Student) string { return s.Batch })
	batches := lo.Keys(groups)
	sort.Strings(batches)

	out := make([]models.Student, 0, len(students))
	for len(out) < len(students) {
		for _, batch := range batches {
			if len(groups[batch]) == 0 {
				continue
			}
			out = append(out, groups[batch][0])
			groups[batch] = groups[batch][1:]
		}
	}
	return out
}

// sameBatchNeighbours counts directly adjacent same-row, same-batch pairs.
func sameBatchNeighbours(seats []Seat) int {
	type cell struct {
		room     string
		row, col int
	}
	byCell := make(map[cell]string, len(seats))
	for _, s := range seats {
		byCell[cell{s.RoomID, s.Row, s.Column}] = s.Batch
	}
	count := 0
	for _, s := range seats {
		if batch, ok := byCell[cell{s.RoomID, s.Row, s.Column + 1}]; ok && batch == s.Batch {
			count++
		}
	}
	return count
}
