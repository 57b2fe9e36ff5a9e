package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/campushub/scheduling-api/internal/models"
)

func TestComputeStatistics(t *testing.T) {
	sessions := []models.Session{
		{CourseCode: "CS101", Type: models.SessionLecture, Day: models.Monday, InstructorID: "inst-1", RoomID: "hall-1"},
		{CourseCode: "CS101", Type: models.SessionLecture, Day: models.Wednesday, InstructorID: "inst-1", RoomID: "hall-1"},
		{CourseCode: "CS102", Type: models.SessionLab, Day: models.Monday, InstructorID: "inst-2", RoomID: "lab-1"},
		{CourseCode: "MA201", Type: models.SessionTutorial, Day: models.Friday, InstructorID: "inst-1", RoomID: "tut-1"},
	}

	stats := ComputeStatistics(sessions)

	assert.Equal(t, 4, stats.TotalSessions)
	assert.Equal(t, 3, stats.DistinctCourses)
	assert.Equal(t, 2, stats.DistinctInstructors)
	assert.Equal(t, 3, stats.DistinctRooms)

	assert.Equal(t, 2, stats.ByType[models.SessionLecture])
	assert.Equal(t, 1, stats.ByType[models.SessionLab])
	assert.Equal(t, 1, stats.ByType[models.SessionTutorial])

	assert.Equal(t, [7]int{2, 0, 1, 0, 1, 0, 0}, stats.Daily)
	assert.Equal(t, 2, stats.RoomUtilization["hall-1"])
	assert.Equal(t, 3, stats.InstructorLoad["inst-1"])
}

func TestComputeStatisticsSumsAreConsistent(t *testing.T) {
	sessions := []models.Session{
		{CourseCode: "A", Type: models.SessionLecture, Day: models.Monday, InstructorID: "i1", RoomID: "r1"},
		{CourseCode: "B", Type: models.SessionLab, Day: models.Tuesday, InstructorID: "i2", RoomID: "r2"},
		{CourseCode: "C", Type: models.SessionLab, Day: models.Tuesday, InstructorID: "i2", RoomID: "r1"},
	}
	stats := ComputeStatistics(sessions)

	byTypeSum, dailySum, roomSum, loadSum := 0, 0, 0, 0
	for _, n := range stats.ByType {
		byTypeSum += n
	}
	for _, n := range stats.Daily {
		dailySum += n
	}
	for _, n := range stats.RoomUtilization {
		roomSum += n
	}
	for _, n := range stats.InstructorLoad {
		loadSum += n
	}
	assert.Equal(t, stats.TotalSessions, byTypeSum)
	assert.Equal(t, stats.TotalSessions, dailySum)
	assert.Equal(t, stats.TotalSessions, roomSum)
	assert.Equal(t, stats.TotalSessions, loadSum)
}

func TestComputeStatisticsEmpty(t *testing.T) {
	stats := ComputeStatistics(nil)
	assert.Zero(t, stats.TotalSessions)
	assert.Zero(t, stats.DistinctCourses)
	assert.Empty(t, stats.ByType)
	assert.Equal(t, [7]int{}, stats.Daily)
}
