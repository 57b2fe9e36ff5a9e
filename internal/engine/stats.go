package engine

import (
	"github.com/samber/lo"

	"github.com/campushub/scheduling-api/internal/models"
)

// Statistics is a read-side rollup over a timetable's sessions, recomputed
// from scratch on every call. Daily covers the full 0-6 day range so callers
// can detect weekend leakage.
type Statistics struct {
	TotalSessions       int                        `json:"total_sessions"`
	DistinctCourses     int                        `json:"distinct_courses"`
	DistinctInstructors int                        `json:"distinct_instructors"`
	DistinctRooms       int                        `json:"distinct_rooms"`
	ByType              map[models.SessionType]int `json:"session_breakdown"`
	Daily               [7]int                     `json:"daily_distribution"`
	RoomUtilization     map[string]int             `json:"room_utilization"`
	InstructorLoad      map[string]int             `json:"instructor_load"`
}

// ComputeStatistics aggregates counts over the given sessions.
func ComputeStatistics(sessions []models.Session) Statistics {
	stats := Statistics{
		TotalSessions:   len(sessions),
		ByType:          make(map[models.SessionType]int),
		RoomUtilization: make(map[string]int),
		InstructorLoad:  make(map[string]int),
	}

	stats.DistinctCourses = len(lo.UniqBy(sessions, func(s models.Session) string { return s.CourseCode }))
	stats.DistinctInstructors = len(lo.UniqBy(sessions, func(s models.Session) string { return s.InstructorID }))
	stats.DistinctRooms = len(lo.UniqBy(sessions, func(s models.Session) string { return s.RoomID }))

	for _, s := range sessions {
		stats.ByType[s.Type]++
		if s.Day >= models.Monday && s.Day <= models.Sunday {
			stats.Daily[s.Day]++
		}
		stats.RoomUtilization[s.RoomID]++
		stats.InstructorLoad[s.InstructorID]++
	}
	return stats
}
