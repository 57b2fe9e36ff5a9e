package engine

import (
	"fmt"
	"hash/fnv"
	"math"
	"sort"

	"github.com/samber/lo"

	"github.com/campushub/scheduling-api/internal/models"
)

// DefaultMinSectionSize is assumed when neither the course nor the
// constraints declare a section size.
const DefaultMinSectionSize = 30

// SessionDemand is an unplaced session placeholder awaiting assignment.
type SessionDemand struct {
	CourseCode  string             `json:"course_code"`
	Sequence    int                `json:"sequence"`
	Type        models.SessionType `json:"session_type"`
	SectionSize int                `json:"section_size"`
	ColorTag    string             `json:"color_tag"`
	// Instructors lists acceptable instructor IDs, preferred ones first.
	Instructors []string `json:"instructors"`
	// Rooms lists acceptable room IDs in ascending order.
	Rooms []string `json:"rooms"`
}

// ExpandResult carries the demands plus non-fatal expansion warnings.
type ExpandResult struct {
	Demands  []SessionDemand
	Warnings []Warning
}

// ExpandDemand turns each course into one placeholder per whole weekly
// contact hour. Fractional remainders are dropped and reported as a warning.
// A course referencing an instructor that is not part of the pool rejects the
// whole expansion.
func ExpandDemand(
	courses []models.Course,
	instructors []models.Instructor,
	rooms []models.Room,
	minSectionSize int,
) (*ExpandResult, error) {
	if minSectionSize <= 0 {
		minSectionSize = DefaultMinSectionSize
	}

	pool := lo.SliceToMap(instructors, func(i models.Instructor) (string, models.Instructor) { return i.ID, i })

	result := &ExpandResult{}
	ordered := make([]models.Course, len(courses))
	copy(ordered, courses)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Code < ordered[j].Code })

	for _, course := range ordered {
		acceptable, err := acceptableInstructors(course, pool)
		if err != nil {
			return nil, err
		}

		sectionSize := course.SectionSize
		if sectionSize <= 0 {
			sectionSize = minSectionSize
		}
		acceptableRooms := roomsForCourse(course, rooms, sectionSize)

		whole := int(math.Floor(course.HoursPerWeek))
		if remainder := course.HoursPerWeek - float64(whole); remainder > 1e-9 {
			result.Warnings = append(result.Warnings, Warning{
				Code:    WarnFractionalHours,
				Message: fmt.Sprintf("course %s declares %.2f weekly hours; %.2f dropped", course.Code, course.HoursPerWeek, remainder),
				Meta:    map[string]any{"course": course.Code},
			})
		}

		color := colorTag(course.Code)
		for seq := 0; seq < whole; seq++ {
			result.Demands = append(result.Demands, SessionDemand{
				CourseCode:  course.Code,
				Sequence:    seq,
				Type:        course.SessionType,
				SectionSize: sectionSize,
				ColorTag:    color,
				Instructors: acceptable,
				Rooms:       acceptableRooms,
			})
		}
	}
	return result, nil
}

// acceptableInstructors is the preference list intersected with the course
// department's pool; a course with no preference list may draw from anyone.
func acceptableInstructors(course models.Course, pool map[string]models.Instructor) ([]string, error) {
	if len(course.InstructorIDs) > 0 {
		for _, id := range course.InstructorIDs {
			if _, ok := pool[id]; !ok {
				return nil, fmt.Errorf("course %s instructor %s: %w", course.Code, id, ErrUnknownEntity)
			}
		}
		// Preference-list order is the try order.
		return lo.Filter(course.InstructorIDs, func(id string, _ int) bool {
			return course.Department == "" || pool[id].Department == course.Department
		}), nil
	}

	ids := lo.Keys(pool)
	sort.Strings(ids)
	return ids, nil
}

func roomsForCourse(course models.Course, rooms []models.Room, sectionSize int) []string {
	matched := lo.Filter(rooms, func(r models.Room, _ int) bool {
		return r.HostsSessionType(course.SessionType) && r.Capacity >= sectionSize
	})
	ids := lo.Map(matched, func(r models.Room, _ int) string { return r.ID })
	sort.Strings(ids)
	return ids
}

// colorPalette mirrors the hues the timetable UI renders; assignment is a
// stable hash of the course code so re-solves keep course colors.
var colorPalette = []string{
	"#3498db", "#e74c3c", "#2ecc71", "#9b59b6", "#f39c12",
	"#1abc9c", "#d35400", "#34495e", "#c0392b", "#16a085",
	"#8e44ad", "#27ae60", "#2980b9", "#f1c40f", "#7f8c8d",
}

func colorTag(courseCode string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(courseCode))
	return colorPalette[h.Sum32()%uint32(len(colorPalette))]
}
