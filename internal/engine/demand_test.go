package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/scheduling-api/internal/models"
)

func TestExpandDemandWholeHours(t *testing.T) {
	courses := []models.Course{
		{Code: "CS101", SessionType: models.SessionLecture, HoursPerWeek: 3, Department: "CS", SectionSize: 40},
	}
	instructors := []models.Instructor{{ID: "inst-1", Department: "CS"}}
	rooms := []models.Room{
		{ID: "hall-1", Type: models.RoomLectureHall, Capacity: 60},
		{ID: "lab-1", Type: models.RoomLab, Capacity: 30},
	}

	res, err := ExpandDemand(courses, instructors, rooms, 0)
	require.NoError(t, err)
	require.Len(t, res.Demands, 3)
	assert.Empty(t, res.Warnings)

	for seq, d := range res.Demands {
		assert.Equal(t, "CS101", d.CourseCode)
		assert.Equal(t, seq, d.Sequence)
		assert.Equal(t, 40, d.SectionSize)
		assert.Equal(t, []string{"inst-1"}, d.Instructors)
		// Lab room filtered out by session type.
		assert.Equal(t, []string{"hall-1"}, d.Rooms)
	}
}

func TestExpandDemandDropsFractionalHours(t *testing.T) {
	courses := []models.Course{
		{Code: "CS102", SessionType: models.SessionLecture, HoursPerWeek: 2.5, Department: "CS"},
	}
	res, err := ExpandDemand(courses, []models.Instructor{{ID: "inst-1", Department: "CS"}},
		[]models.Room{{ID: "hall-1", Type: models.RoomLectureHall, Capacity: 60}}, 0)
	require.NoError(t, err)
	assert.Len(t, res.Demands, 2)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, WarnFractionalHours, res.Warnings[0].Code)
}

func TestExpandDemandUnknownInstructor(t *testing.T) {
	courses := []models.Course{
		{Code: "CS103", SessionType: models.SessionLecture, HoursPerWeek: 2, InstructorIDs: []string{"ghost"}},
	}
	_, err := ExpandDemand(courses, []models.Instructor{{ID: "inst-1"}}, nil, 0)
	require.ErrorIs(t, err, ErrUnknownEntity)
}

func TestExpandDemandPreferenceIntersectsDepartment(t *testing.T) {
	courses := []models.Course{
		{
			Code:          "EE201",
			SessionType:   models.SessionLecture,
			HoursPerWeek:  1,
			Department:    "EE",
			InstructorIDs: []string{"inst-cs", "inst-ee", "inst-ee2"},
		},
	}
	instructors := []models.Instructor{
		{ID: "inst-cs", Department: "CS"},
		{ID: "inst-ee", Department: "EE"},
		{ID: "inst-ee2", Department: "EE"},
	}
	res, err := ExpandDemand(courses, instructors, []models.Room{{ID: "hall-1", Type: models.RoomLectureHall, Capacity: 60}}, 0)
	require.NoError(t, err)
	require.Len(t, res.Demands, 1)
	// Out-of-department preferences drop out; survivors keep preference order.
	assert.Equal(t, []string{"inst-ee", "inst-ee2"}, res.Demands[0].Instructors)
}

func TestExpandDemandNoPreferenceUsesFullPool(t *testing.T) {
	courses := []models.Course{
		{Code: "CS201", SessionType: models.SessionLecture, HoursPerWeek: 1, Department: "CS"},
	}
	instructors := []models.Instructor{
		{ID: "inst-cs", Department: "CS"},
		{ID: "inst-ee", Department: "EE"},
	}
	res, err := ExpandDemand(courses, instructors, []models.Room{{ID: "hall-1", Type: models.RoomLectureHall, Capacity: 60}}, 0)
	require.NoError(t, err)
	require.Len(t, res.Demands, 1)
	// A course with no preference list is not fenced into its own department.
	assert.Equal(t, []string{"inst-cs", "inst-ee"}, res.Demands[0].Instructors)
}

func TestExpandDemandDefaultSectionSizeFiltersRooms(t *testing.T) {
	courses := []models.Course{
		{Code: "CS104", SessionType: models.SessionLab, HoursPerWeek: 1, Department: "CS"},
	}
	rooms := []models.Room{
		{ID: "lab-small", Type: models.RoomLab, Capacity: 25},
		{ID: "lab-big", Type: models.RoomLab, Capacity: 35},
	}
	res, err := ExpandDemand(courses, []models.Instructor{{ID: "inst-1", Department: "CS"}}, rooms, 0)
	require.NoError(t, err)
	require.Len(t, res.Demands, 1)
	assert.Equal(t, DefaultMinSectionSize, res.Demands[0].SectionSize)
	assert.Equal(t, []string{"lab-big"}, res.Demands[0].Rooms)
}

func TestColorTagStable(t *testing.T) {
	assert.Equal(t, colorTag("CS101"), colorTag("CS101"))
	assert.Contains(t, colorPalette, colorTag("MA301"))
}
