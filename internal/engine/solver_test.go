package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/scheduling-api/internal/models"
)

func weekdayConstraints() models.TimetableConstraints {
	return models.TimetableConstraints{
		WorkingHours: models.TimeRange{Start: 8 * 60, End: 18 * 60},
		SlotMinutes:  60,
	}
}

// lectureAndLabFixture models one instructor teaching a three-hour lecture
// course and a two-hour lab course, with one room of each type.
func lectureAndLabFixture(t *testing.T, labCapacity int) SolveInput {
	t.Helper()

	courses := []models.Course{
		{Code: "C1", SessionType: models.SessionLecture, HoursPerWeek: 3, Department: "CS", InstructorIDs: []string{"inst-1"}},
		{Code: "C2", SessionType: models.SessionLab, HoursPerWeek: 2, Department: "CS", InstructorIDs: []string{"inst-1"}},
	}
	instructors := []models.Instructor{
		{ID: "inst-1", Department: "CS", Windows: fullWeekWindows("inst-1", 8*60, 18*60)},
	}
	rooms := []models.Room{
		{ID: "hall-1", Type: models.RoomLectureHall, Capacity: 40, Windows: fullWeekWindows("hall-1", 8*60, 18*60)},
		{ID: "lab-1", Type: models.RoomLab, Capacity: labCapacity, Windows: fullWeekWindows("lab-1", 8*60, 18*60)},
	}

	expanded, err := ExpandDemand(courses, instructors, rooms, 30)
	require.NoError(t, err)

	matrix, err := BuildMatrix(instructors, rooms, models.TimeRange{Start: 8 * 60, End: 18 * 60}, nil)
	require.NoError(t, err)
	grid, err := BuildSlotGrid(weekdayConstraints())
	require.NoError(t, err)

	return SolveInput{Demands: expanded.Demands, Matrix: matrix, Grid: grid}
}

func TestSolveLectureAndLabComplete(t *testing.T) {
	in := lectureAndLabFixture(t, 30)
	res := Solve(in)

	assert.Equal(t, models.SolveComplete, res.Status)
	assert.Empty(t, res.Unresolved)
	require.Len(t, res.Placements, 5)

	byCourse := map[string]int{}
	for _, p := range res.Placements {
		byCourse[p.Demand.CourseCode]++
		switch p.Demand.CourseCode {
		case "C1":
			assert.Equal(t, "hall-1", p.RoomID)
		case "C2":
			assert.Equal(t, "lab-1", p.RoomID)
		}
		assert.Equal(t, "inst-1", p.InstructorID)
		assert.Equal(t, 60, p.Range.End-p.Range.Start)
	}
	assert.Equal(t, 3, byCourse["C1"])
	assert.Equal(t, 2, byCourse["C2"])

	// The shared instructor never holds two sessions at once.
	seen := map[dayKey][]models.TimeRange{}
	for _, p := range res.Placements {
		k := dayKey{p.InstructorID, p.Day}
		assert.False(t, overlapsAny(seen[k], p.Range))
		seen[k] = append(seen[k], p.Range)
	}
}

func TestSolvePartialWhenNoLabRoomFits(t *testing.T) {
	in := lectureAndLabFixture(t, 25)
	res := Solve(in)

	assert.Equal(t, models.SolvePartial, res.Status)
	assert.Len(t, res.Placements, 3)
	require.Len(t, res.Unresolved, 2)
	for _, d := range res.Unresolved {
		assert.Equal(t, "C2", d.CourseCode)
	}
}

func TestSolveDeterministic(t *testing.T) {
	first := Solve(lectureAndLabFixture(t, 30))
	for i := 0; i < 5; i++ {
		again := Solve(lectureAndLabFixture(t, 30))
		require.Equal(t, first, again)
	}
}

func TestSolveEvictionDisplacesVictim(t *testing.T) {
	// One day, one slot, two rooms, one instructor. The flexible demand is
	// ordered last, finds everything blocked and must evict; the victim has
	// nowhere else to go and surfaces as unresolved.
	monday := []models.AvailabilityWindow{
		{OwnerID: "x", Day: models.Monday, Range: models.TimeRange{Start: 9 * 60, End: 10 * 60}},
	}
	window := func(id string) []models.AvailabilityWindow {
		w := monday[0]
		w.OwnerID = id
		return []models.AvailabilityWindow{w}
	}

	instructors := []models.Instructor{{ID: "inst-1", Windows: window("inst-1")}}
	rooms := []models.Room{
		{ID: "room-a", Windows: window("room-a")},
		{ID: "room-b", Windows: window("room-b")},
	}
	matrix, err := BuildMatrix(instructors, rooms, models.TimeRange{Start: 8 * 60, End: 18 * 60}, nil)
	require.NoError(t, err)

	grid := &SlotGrid{
		Days: []models.DayOfWeek{models.Monday},
		Slots: map[models.DayOfWeek][]models.TimeRange{
			models.Monday: {{Start: 9 * 60, End: 10 * 60}},
		},
	}

	narrow := SessionDemand{CourseCode: "NARROW", Instructors: []string{"inst-1"}, Rooms: []string{"room-a"}}
	wide := SessionDemand{CourseCode: "WIDE", Instructors: []string{"inst-1"}, Rooms: []string{"room-a", "room-b"}}

	res := Solve(SolveInput{Demands: []SessionDemand{narrow, wide}, Matrix: matrix, Grid: grid})

	assert.Equal(t, models.SolvePartial, res.Status)
	require.Len(t, res.Placements, 1)
	assert.Equal(t, "WIDE", res.Placements[0].Demand.CourseCode)
	require.Len(t, res.Unresolved, 1)
	assert.Equal(t, "NARROW", res.Unresolved[0].CourseCode)
}

func TestSolveCrossDepartmentInstructorCoversCourse(t *testing.T) {
	// CS101 names no preferred instructors, and the only CS instructor has no
	// availability at all. The pool spans departments, so the EE instructor
	// can still carry the course to a complete solve.
	courses := []models.Course{
		{Code: "CS101", SessionType: models.SessionLecture, HoursPerWeek: 2, Department: "CS"},
	}
	instructors := []models.Instructor{
		{ID: "inst-cs", Department: "CS"},
		{ID: "inst-ee", Department: "EE", Windows: fullWeekWindows("inst-ee", 8*60, 18*60)},
	}
	rooms := []models.Room{
		{ID: "hall-1", Type: models.RoomLectureHall, Capacity: 40, Windows: fullWeekWindows("hall-1", 8*60, 18*60)},
	}

	expanded, err := ExpandDemand(courses, instructors, rooms, 30)
	require.NoError(t, err)
	matrix, err := BuildMatrix(instructors, rooms, models.TimeRange{Start: 8 * 60, End: 18 * 60}, nil)
	require.NoError(t, err)
	grid, err := BuildSlotGrid(weekdayConstraints())
	require.NoError(t, err)

	res := Solve(SolveInput{Demands: expanded.Demands, Matrix: matrix, Grid: grid})

	assert.Equal(t, models.SolveComplete, res.Status)
	require.Len(t, res.Placements, 2)
	for _, p := range res.Placements {
		assert.Equal(t, "inst-ee", p.InstructorID)
	}
}

func TestSolveOverloadWarning(t *testing.T) {
	in := lectureAndLabFixture(t, 30)
	in.MaxWeeklyMinutes = map[string]int{"inst-1": 4 * 60}
	res := Solve(in)

	// The cap is soft: everything still places, with a warning.
	assert.Equal(t, models.SolveComplete, res.Status)
	assert.Len(t, res.Placements, 5)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnInstructorOverload, res.Warnings[0].Code)
	assert.Equal(t, "inst-1", res.Warnings[0].Meta["instructor"])
}
