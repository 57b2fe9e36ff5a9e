package engine

import (
	"sort"

	"github.com/samber/lo"

	"github.com/campushub/scheduling-api/internal/models"
)

// ConflictKind labels the invariant a conflict violates.
type ConflictKind string

const (
	ConflictInstructorDoubleBooking ConflictKind = "instructor_double_booking"
	ConflictRoomDoubleBooking       ConflictKind = "room_double_booking"
	ConflictBreakTimeViolation      ConflictKind = "break_time_violation"
	ConflictCapacityExceeded        ConflictKind = "capacity_exceeded"
)

// Conflict reports one violated invariant instance in an assembled timetable.
type Conflict struct {
	Kind     ConflictKind     `json:"kind"`
	EntityID string           `json:"entity_id"`
	Day      models.DayOfWeek `json:"day_of_week"`
	Range    models.TimeRange `json:"range"`
	Courses  []string         `json:"courses"`
}

// DetectConflicts scans an assembled timetable without mutating it. Sessions
// are sorted per (day, instructor) and per (day, room) and swept for interval
// overlap, so the scan is O(n log n) rather than pairwise.
func DetectConflicts(
	sessions []models.Session,
	rooms map[string]models.Room,
	constraints models.TimetableConstraints,
) []Conflict {
	var conflicts []Conflict

	byInstructor := lo.GroupBy(sessions, func(s models.Session) dayKey {
		return dayKey{s.InstructorID, s.Day}
	})
	conflicts = append(conflicts, sweepOverlaps(byInstructor, ConflictInstructorDoubleBooking)...)

	byRoom := lo.GroupBy(sessions, func(s models.Session) dayKey {
		return dayKey{s.RoomID, s.Day}
	})
	conflicts = append(conflicts, sweepOverlaps(byRoom, ConflictRoomDoubleBooking)...)

	for _, s := range sessions {
		for _, b := range constraints.Breaks {
			if b.Day == s.Day && s.Range.Overlaps(b.Range) {
				conflicts = append(conflicts, Conflict{
					Kind:     ConflictBreakTimeViolation,
					EntityID: s.InstructorID,
					Day:      s.Day,
					Range:    s.Range,
					Courses:  []string{s.CourseCode},
				})
			}
		}
		if room, ok := rooms[s.RoomID]; ok && room.Capacity < s.SectionSize {
			conflicts = append(conflicts, Conflict{
				Kind:     ConflictCapacityExceeded,
				EntityID: s.RoomID,
				Day:      s.Day,
				Range:    s.Range,
				Courses:  []string{s.CourseCode},
			})
		}
	}

	sort.SliceStable(conflicts, func(i, j int) bool {
		if conflicts[i].Day != conflicts[j].Day {
			return conflicts[i].Day < conflicts[j].Day
		}
		if conflicts[i].Range.Start != conflicts[j].Range.Start {
			return conflicts[i].Range.Start < conflicts[j].Range.Start
		}
		return conflicts[i].EntityID < conflicts[j].EntityID
	})
	return conflicts
}

// sweepOverlaps sorts each group's sessions by start time and reports every
// pair whose intervals intersect the running maximum end.
func sweepOverlaps(groups map[dayKey][]models.Session, kind ConflictKind) []Conflict {
	keys := lo.Keys(groups)
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].id != keys[j].id {
			return keys[i].id < keys[j].id
		}
		return keys[i].day < keys[j].day
	})

	var conflicts []Conflict
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}
		sort.Slice(group, func(i, j int) bool { return group[i].Range.Start < group[j].Range.Start })

		open := group[0]
		for _, next := range group[1:] {
			if next.Range.Start < open.Range.End {
				conflicts = append(conflicts, Conflict{
					Kind:     kind,
					EntityID: key.id,
					Day:      key.day,
					Range:    models.TimeRange{Start: next.Range.Start, End: minInt(open.Range.End, next.Range.End)},
					Courses:  []string{open.CourseCode, next.CourseCode},
				})
			}
			if next.Range.End > open.Range.End {
				open = next
			}
		}
	}
	return conflicts
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
