// schedcli runs the timetable solver offline against roster CSV files,
// without a database or a running API. Useful for dry-running a semester's
// roster before importing it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/gocarina/gocsv"
	"github.com/lib/pq"
	"github.com/olekukonko/tablewriter"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/engine"
	"github.com/campushub/scheduling-api/internal/models"
)

type sessionCSVRow struct {
	Day        string `csv:"day"`
	Start      string `csv:"start"`
	End        string `csv:"end"`
	Course     string `csv:"course"`
	Type       string `csv:"session_type"`
	Room       string `csv:"room"`
	Instructor string `csv:"instructor"`
}

func main() {
	coursesPath := flag.String("courses", "courses.csv", "course roster CSV")
	instructorsPath := flag.String("instructors", "instructors.csv", "instructor roster CSV")
	roomsPath := flag.String("rooms", "rooms.csv", "room inventory CSV")
	dayStart := flag.String("day-start", "08:00", "working day start (HH:MM)")
	dayEnd := flag.String("day-end", "18:00", "working day end (HH:MM)")
	slotMinutes := flag.Int("slot", 60, "slot length in minutes")
	minSection := flag.Int("min-section", 30, "minimum assumed section size")
	outPath := flag.String("out", "", "write the solved sessions to this CSV")
	flag.Parse()

	courses, err := loadCourses(*coursesPath)
	if err != nil {
		log.Fatalf("load courses: %v", err)
	}
	instructors, err := loadInstructors(*instructorsPath)
	if err != nil {
		log.Fatalf("load instructors: %v", err)
	}
	rooms, err := loadRooms(*roomsPath)
	if err != nil {
		log.Fatalf("load rooms: %v", err)
	}

	startMin, err := engine.ParseClock(*dayStart)
	if err != nil {
		log.Fatalf("parse day-start: %v", err)
	}
	endMin, err := engine.ParseClock(*dayEnd)
	if err != nil {
		log.Fatalf("parse day-end: %v", err)
	}
	working := models.TimeRange{Start: startMin, End: endMin}

	// The roster CSVs carry no availability windows, so every instructor
	// and room is assumed free for the whole working day, Monday to Friday.
	weekdays := []models.DayOfWeek{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday}
	for i := range instructors {
		instructors[i].Windows = weekdayWindows(instructors[i].ID, weekdays, working)
	}
	for i := range rooms {
		rooms[i].Windows = weekdayWindows(rooms[i].ID, weekdays, working)
	}

	expanded, err := engine.ExpandDemand(courses, instructors, rooms, *minSection)
	if err != nil {
		log.Fatalf("expand demand: %v", err)
	}

	matrix, err := engine.BuildMatrix(instructors, rooms, working, nil)
	if err != nil {
		log.Fatalf("build availability: %v", err)
	}

	grid, err := engine.BuildSlotGrid(models.TimetableConstraints{
		WorkingHours:   working,
		Days:           weekdays,
		SlotMinutes:    *slotMinutes,
		MinSectionSize: *minSection,
	})
	if err != nil {
		log.Fatalf("build slot grid: %v", err)
	}

	caps := make(map[string]int, len(instructors))
	for _, inst := range instructors {
		if inst.MaxHoursWeek > 0 {
			caps[inst.ID] = inst.MaxHoursWeek * 60
		}
	}

	result := engine.Solve(engine.SolveInput{
		Demands:          expanded.Demands,
		Matrix:           matrix,
		Grid:             grid,
		MaxWeeklyMinutes: caps,
	})

	color.Cyan("\n=== Timetable Solve (%d courses, %d instructors, %d rooms) ===",
		len(courses), len(instructors), len(rooms))
	fmt.Printf("status: %s, placed: %d, unresolved: %d\n\n",
		result.Status, len(result.Placements), len(result.Unresolved))

	printSchedule(result.Placements)

	for _, w := range append(expanded.Warnings, result.Warnings...) {
		color.Yellow("warning [%s]: %s", w.Code, w.Message)
	}
	for _, d := range result.Unresolved {
		color.Red("unresolved: %s #%d (%s)", d.CourseCode, d.Sequence, d.Type)
	}
	if result.Status == models.SolveComplete {
		color.Green("\nAll sessions placed.")
	}

	if *outPath != "" {
		if err := writeSchedule(*outPath, result.Placements); err != nil {
			log.Fatalf("write schedule: %v", err)
		}
		fmt.Printf("schedule written to %s\n", *outPath)
	}
}

func printSchedule(placements []engine.Placement) {
	sorted := make([]engine.Placement, len(placements))
	copy(sorted, placements)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Day != sorted[j].Day {
			return sorted[i].Day < sorted[j].Day
		}
		if sorted[i].Range.Start != sorted[j].Range.Start {
			return sorted[i].Range.Start < sorted[j].Range.Start
		}
		return sorted[i].Demand.CourseCode < sorted[j].Demand.CourseCode
	})

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Day", "Start", "End", "Course", "Type", "Room", "Instructor"})
	for _, p := range sorted {
		table.Append([]string{
			p.Day.String(),
			engine.FormatClock(p.Range.Start),
			engine.FormatClock(p.Range.End),
			p.Demand.CourseCode,
			string(p.Demand.Type),
			p.RoomID,
			p.InstructorID,
		})
	}
	table.Render()
}

func writeSchedule(path string, placements []engine.Placement) error {
	rows := make([]sessionCSVRow, 0, len(placements))
	for _, p := range placements {
		rows = append(rows, sessionCSVRow{
			Day:        p.Day.String(),
			Start:      engine.FormatClock(p.Range.Start),
			End:        engine.FormatClock(p.Range.End),
			Course:     p.Demand.CourseCode,
			Type:       string(p.Demand.Type),
			Room:       p.RoomID,
			Instructor: p.InstructorID,
		})
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	return gocsv.Marshal(&rows, f)
}

func loadCourses(path string) ([]models.Course, error) {
	var rows []dto.CourseCSVRow
	if err := unmarshalFile(path, &rows); err != nil {
		return nil, err
	}
	courses := make([]models.Course, 0, len(rows))
	for _, row := range rows {
		sessionType := models.SessionType(strings.ToUpper(strings.TrimSpace(row.SessionType)))
		if sessionType == "" {
			sessionType = models.SessionLecture
		}
		courses = append(courses, models.Course{
			ID:            row.Code,
			Code:          strings.TrimSpace(row.Code),
			Name:          strings.TrimSpace(row.Name),
			Credits:       row.Credits,
			SessionType:   sessionType,
			HoursPerWeek:  row.HoursPerWeek,
			Department:    strings.TrimSpace(row.Department),
			InstructorIDs: pq.StringArray(splitList(row.InstructorIDs)),
			SectionSize:   row.SectionSize,
		})
	}
	return courses, nil
}

// loadInstructors keys instructors by email so course instructor_ids columns
// can reference them without database-generated IDs.
func loadInstructors(path string) ([]models.Instructor, error) {
	var rows []dto.InstructorCSVRow
	if err := unmarshalFile(path, &rows); err != nil {
		return nil, err
	}
	instructors := make([]models.Instructor, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row.Email)
		if id == "" {
			id = strings.TrimSpace(row.Name)
		}
		instructors = append(instructors, models.Instructor{
			ID:           id,
			Name:         strings.TrimSpace(row.Name),
			Email:        strings.TrimSpace(row.Email),
			Department:   strings.TrimSpace(row.Department),
			MaxHoursWeek: row.MaxHoursWeek,
		})
	}
	return instructors, nil
}

func loadRooms(path string) ([]models.Room, error) {
	var rows []dto.RoomCSVRow
	if err := unmarshalFile(path, &rows); err != nil {
		return nil, err
	}
	seen := map[string]int{}
	rooms := make([]models.Room, 0, len(rows))
	for _, row := range rows {
		id := strings.TrimSpace(row.Building)
		seen[id]++
		if seen[id] > 1 {
			id = fmt.Sprintf("%s-%d", id, seen[id])
		}
		rooms = append(rooms, models.Room{
			ID:       id,
			Building: strings.TrimSpace(row.Building),
			Capacity: row.Capacity,
			Type:     models.RoomType(strings.ToUpper(strings.TrimSpace(row.RoomType))),
		})
	}
	return rooms, nil
}

func unmarshalFile(path string, out interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	return gocsv.Unmarshal(f, out)
}

func weekdayWindows(ownerID string, days []models.DayOfWeek, working models.TimeRange) []models.AvailabilityWindow {
	windows := make([]models.AvailabilityWindow, 0, len(days))
	for _, day := range days {
		windows = append(windows, models.AvailabilityWindow{OwnerID: ownerID, Day: day, Range: working})
	}
	return windows
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
