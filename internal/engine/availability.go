package engine

import (
	"fmt"
	"sort"

	"github.com/campushub/scheduling-api/internal/models"
)

// Matrix answers availability queries for instructors and rooms. It is built
// once per solve from declared windows, unavailable overrides, breaks and the
// global working hours; queries are O(log n) in the entity's window count.
type Matrix struct {
	windows map[string]*[7][]models.TimeRange
}

// BuildMatrix merges every entity's declared windows, subtracts its overrides
// and the shared break list, and clamps the result to the working-hours
// window. Overrides always subtract, even when a later window re-declares the
// same span.
func BuildMatrix(
	instructors []models.Instructor,
	rooms []models.Room,
	working models.TimeRange,
	breaks []models.BreakTime,
) (*Matrix, error) {
	if !working.Valid() {
		return nil, fmt.Errorf("working hours: %w", ErrInvalidWindow)
	}
	for _, b := range breaks {
		if !b.Range.Valid() {
			return nil, fmt.Errorf("break on %s: %w", b.Day, ErrInvalidWindow)
		}
	}

	m := &Matrix{windows: make(map[string]*[7][]models.TimeRange, len(instructors)+len(rooms))}

	for _, inst := range instructors {
		days, err := buildEntityDays(inst.Windows, inst.Unavailable, working, breaks)
		if err != nil {
			return nil, fmt.Errorf("instructor %s: %w", inst.ID, err)
		}
		m.windows[inst.ID] = days
	}
	for _, room := range rooms {
		days, err := buildEntityDays(room.Windows, nil, working, breaks)
		if err != nil {
			return nil, fmt.Errorf("room %s: %w", room.ID, err)
		}
		m.windows[room.ID] = days
	}
	return m, nil
}

// Available reports whether the owner can host the full range on the day.
// Unknown owners are never available.
func (m *Matrix) Available(ownerID string, day models.DayOfWeek, r models.TimeRange) bool {
	days, ok := m.windows[ownerID]
	if !ok || day < models.Monday || day > models.Sunday {
		return false
	}
	windows := days[day]
	// First window starting after r.Start cannot contain it; check its predecessor.
	idx := sort.Search(len(windows), func(i int) bool { return windows[i].Start > r.Start })
	if idx == 0 {
		return false
	}
	return windows[idx-1].Contains(r)
}

// Knows reports whether the owner was part of the build inputs.
func (m *Matrix) Knows(ownerID string) bool {
	_, ok := m.windows[ownerID]
	return ok
}

func buildEntityDays(
	windows []models.AvailabilityWindow,
	overrides []models.UnavailableOverride,
	working models.TimeRange,
	breaks []models.BreakTime,
) (*[7][]models.TimeRange, error) {
	var days [7][]models.TimeRange
	for _, w := range windows {
		if !w.Range.Valid() {
			return nil, fmt.Errorf("window on %s: %w", w.Day, ErrInvalidWindow)
		}
		if w.Day < models.Monday || w.Day > models.Sunday {
			continue
		}
		clamped := intersect(w.Range, working)
		if clamped.Valid() {
			days[w.Day] = append(days[w.Day], clamped)
		}
	}

	for d := range days {
		days[d] = mergeRanges(days[d])
	}

	for _, o := range overrides {
		if !o.Range.Valid() {
			return nil, fmt.Errorf("override on %s: %w", o.Day, ErrInvalidWindow)
		}
		if o.Day < models.Monday || o.Day > models.Sunday {
			continue
		}
		days[o.Day] = subtractRange(days[o.Day], o.Range)
	}

	for _, b := range breaks {
		if b.Day < models.Monday || b.Day > models.Sunday {
			continue
		}
		days[b.Day] = subtractRange(days[b.Day], b.Range)
	}

	return &days, nil
}

func intersect(a, b models.TimeRange) models.TimeRange {
	out := models.TimeRange{Start: a.Start, End: a.End}
	if b.Start > out.Start {
		out.Start = b.Start
	}
	if b.End < out.End {
		out.End = b.End
	}
	return out
}

// mergeRanges returns a sorted list of disjoint ranges covering the input.
func mergeRanges(ranges []models.TimeRange) []models.TimeRange {
	if len(ranges) <= 1 {
		return ranges
	}
	sorted := make([]models.TimeRange, len(ranges))
	copy(sorted, ranges)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	merged := sorted[:1]
	for _, r := range sorted[1:] {
		last := &merged[len(merged)-1]
		if r.Start <= last.End {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		merged = append(merged, r)
	}
	return merged
}

// subtractRange removes cut from each range, splitting where needed.
func subtractRange(ranges []models.TimeRange, cut models.TimeRange) []models.TimeRange {
	var out []models.TimeRange
	for _, r := range ranges {
		if !r.Overlaps(cut) {
			out = append(out, r)
			continue
		}
		if r.Start < cut.Start {
			out = append(out, models.TimeRange{Start: r.Start, End: cut.Start})
		}
		if cut.End < r.End {
			out = append(out, models.TimeRange{Start: cut.End, End: r.End})
		}
	}
	return out
}
