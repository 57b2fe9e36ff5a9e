package engine

import (
	"fmt"
	"sort"

	"github.com/campushub/scheduling-api/internal/models"
)

// ParseClock converts "HH:MM" into minutes since midnight.
func ParseClock(raw string) (int, error) {
	var h, m int
	if _, err := fmt.Sscanf(raw, "%d:%d", &h, &m); err != nil {
		return 0, fmt.Errorf("parse clock %q: %w", raw, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("parse clock %q: out of range", raw)
	}
	return h*60 + m, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// SlotGrid enumerates the candidate time ranges per day that a timetable's
// constraints allow: working hours chopped into fixed-length slots, with any
// slot overlapping a configured break removed. Ranges are half-open, so a
// session ending exactly at a break's start never collides with it.
type SlotGrid struct {
	Days  []models.DayOfWeek
	Slots map[models.DayOfWeek][]models.TimeRange
}

// BuildSlotGrid derives the grid from timetable constraints.
func BuildSlotGrid(c models.TimetableConstraints) (*SlotGrid, error) {
	if !c.WorkingHours.Valid() {
		return nil, ErrInvalidWindow
	}
	if c.SlotMinutes <= 0 {
		return nil, fmt.Errorf("slot length must be positive, got %d", c.SlotMinutes)
	}

	days := c.Days
	if len(days) == 0 {
		days = []models.DayOfWeek{models.Monday, models.Tuesday, models.Wednesday, models.Thursday, models.Friday}
	}
	sorted := make([]models.DayOfWeek, len(days))
	copy(sorted, days)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	breaksByDay := make(map[models.DayOfWeek][]models.TimeRange)
	for _, b := range c.Breaks {
		if !b.Range.Valid() {
			return nil, ErrInvalidWindow
		}
		breaksByDay[b.Day] = append(breaksByDay[b.Day], b.Range)
	}

	grid := &SlotGrid{Days: sorted, Slots: make(map[models.DayOfWeek][]models.TimeRange, len(sorted))}
	for _, day := range sorted {
		var slots []models.TimeRange
		for start := c.WorkingHours.Start; start+c.SlotMinutes <= c.WorkingHours.End; start += c.SlotMinutes {
			slot := models.TimeRange{Start: start, End: start + c.SlotMinutes}
			blocked := false
			for _, br := range breaksByDay[day] {
				if slot.Overlaps(br) {
					blocked = true
					break
				}
			}
			if !blocked {
				slots = append(slots, slot)
			}
		}
		grid.Slots[day] = slots
	}
	return grid, nil
}

// SlotCount returns the total number of (day, slot) combinations.
func (g *SlotGrid) SlotCount() int {
	total := 0
	for _, day := range g.Days {
		total += len(g.Slots[day])
	}
	return total
}
