package engine

import (
	"fmt"
	"sort"

	"github.com/campushub/scheduling-api/internal/models"
)

// Placement is a demand bound to a concrete (day, slot, room, instructor).
type Placement struct {
	Demand       SessionDemand    `json:"demand"`
	Day          models.DayOfWeek `json:"day_of_week"`
	Range        models.TimeRange `json:"range"`
	RoomID       string           `json:"room_id"`
	InstructorID string           `json:"instructor_id"`
}

// SolveInput is an immutable snapshot of everything one solve pass needs.
type SolveInput struct {
	Demands []SessionDemand
	Matrix  *Matrix
	Grid    *SlotGrid
	// MaxWeeklyMinutes caps instructor load per week; 0 means uncapped.
	// Exceeding the cap is recorded as a warning, never a rejection.
	MaxWeeklyMinutes map[string]int
}

// SolveResult reports every demand's fate. Unresolved demands are surfaced,
// never silently dropped.
type SolveResult struct {
	Status     models.SolveStatus `json:"status"`
	Placements []Placement        `json:"placements"`
	Unresolved []SessionDemand    `json:"unresolved"`
	Warnings   []Warning          `json:"warnings"`
}

// Solve assigns each demand to the first candidate tuple satisfying every
// hard constraint, trying the most constrained demands first. Demands that
// exhaust their candidates go onto a deferred list; each deferred demand gets
// one backtracking retry that may evict the least constrained placed session
// blocking it. No randomness anywhere: identical inputs produce identical
// output.
func Solve(in SolveInput) SolveResult {
	demands := orderByConstrainedness(in)
	state := newSolveState()

	var deferred []SessionDemand
	for _, d := range demands {
		if cand, ok := firstCandidate(in, state, d); ok {
			state.place(Placement{Demand: d, Day: cand.day, Range: cand.slot, RoomID: cand.room, InstructorID: cand.instructor})
		} else {
			deferred = append(deferred, d)
		}
	}

	var unresolved []SessionDemand
	for _, d := range deferred {
		placed, displaced := retryWithEviction(in, state, d)
		if !placed {
			unresolved = append(unresolved, d)
		}
		if displaced != nil {
			unresolved = append(unresolved, *displaced)
		}
	}

	result := SolveResult{
		Placements: state.placements,
		Unresolved: unresolved,
		Warnings:   overloadWarnings(state, in.MaxWeeklyMinutes),
	}
	if len(unresolved) == 0 {
		result.Status = models.SolveComplete
	} else {
		result.Status = models.SolvePartial
	}
	return result
}

// --- Demand ordering ---

// orderByConstrainedness sorts most-constrained-first: ascending product of
// acceptable instructors, acceptable rooms and feasible day/slot combinations,
// with course code then sequence as the deterministic tie-break.
func orderByConstrainedness(in SolveInput) []SessionDemand {
	type scored struct {
		demand SessionDemand
		score  int
	}
	items := make([]scored, len(in.Demands))
	for i, d := range in.Demands {
		items[i] = scored{demand: d, score: len(d.Instructors) * len(d.Rooms) * feasibleCombos(in, d)}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].score != items[j].score {
			return items[i].score < items[j].score
		}
		if items[i].demand.CourseCode != items[j].demand.CourseCode {
			return items[i].demand.CourseCode < items[j].demand.CourseCode
		}
		return items[i].demand.Sequence < items[j].demand.Sequence
	})
	out := make([]SessionDemand, len(items))
	for i, it := range items {
		out[i] = it.demand
	}
	return out
}

// feasibleCombos counts (day, slot) pairs where at least one acceptable
// instructor and one acceptable room are available, ignoring bookings.
func feasibleCombos(in SolveInput, d SessionDemand) int {
	count := 0
	for _, day := range in.Grid.Days {
		for _, slot := range in.Grid.Slots[day] {
			if anyAvailable(in.Matrix, d.Instructors, day, slot) && anyAvailable(in.Matrix, d.Rooms, day, slot) {
				count++
			}
		}
	}
	return count
}

func anyAvailable(m *Matrix, ids []string, day models.DayOfWeek, slot models.TimeRange) bool {
	for _, id := range ids {
		if m.Available(id, day, slot) {
			return true
		}
	}
	return false
}

// --- Candidate enumeration ---

type candidate struct {
	day        models.DayOfWeek
	slot       models.TimeRange
	room       string
	instructor string
}

// firstCandidate walks the canonical order (day ascending, slot start
// ascending, room id ascending, instructor preference order) and returns the
// first tuple passing every hard constraint against the placed sessions.
func firstCandidate(in SolveInput, state *solveState, d SessionDemand) (candidate, bool) {
	for _, day := range in.Grid.Days {
		for _, slot := range in.Grid.Slots[day] {
			for _, room := range d.Rooms {
				if !in.Matrix.Available(room, day, slot) || state.roomBusy(room, day, slot) {
					continue
				}
				for _, instructor := range d.Instructors {
					if !in.Matrix.Available(instructor, day, slot) || state.instructorBusy(instructor, day, slot) {
						continue
					}
					return candidate{day: day, slot: slot, room: room, instructor: instructor}, true
				}
			}
		}
	}
	return candidate{}, false
}

// candidateCount tallies every remaining valid tuple for a demand; used to
// pick the least-constrained placed session as the eviction victim.
func candidateCount(in SolveInput, state *solveState, d SessionDemand) int {
	count := 0
	for _, day := range in.Grid.Days {
		for _, slot := range in.Grid.Slots[day] {
			for _, room := range d.Rooms {
				if !in.Matrix.Available(room, day, slot) || state.roomBusy(room, day, slot) {
					continue
				}
				for _, instructor := range d.Instructors {
					if !in.Matrix.Available(instructor, day, slot) || state.instructorBusy(instructor, day, slot) {
						continue
					}
					count++
				}
			}
		}
	}
	return count
}

// --- Backtracking retry ---

// retryWithEviction gives a deferred demand one shot: evict the placed
// session with the most remaining candidates among those whose removal frees
// a tuple for the demand, place the demand, then re-place the victim. At most
// one eviction, no cascading. Returns whether the demand was placed and, if
// the victim could not be re-placed, the victim's demand.
func retryWithEviction(in SolveInput, state *solveState, d SessionDemand) (bool, *SessionDemand) {
	victimIdx := -1
	victimScore := -1
	for idx := range state.placements {
		p := state.placements[idx]
		state.remove(idx)
		_, frees := firstCandidate(in, state, d)
		score := 0
		if frees {
			score = candidateCount(in, state, p.Demand)
		}
		state.insert(idx, p)
		if !frees {
			continue
		}
		if score > victimScore || (score == victimScore && lessDemand(p.Demand, state.placements[victimIdx].Demand)) {
			victimIdx = idx
			victimScore = score
		}
	}
	if victimIdx < 0 {
		return false, nil
	}

	victim := state.placements[victimIdx]
	state.remove(victimIdx)

	cand, ok := firstCandidate(in, state, d)
	if !ok {
		state.insert(victimIdx, victim)
		return false, nil
	}
	state.place(Placement{Demand: d, Day: cand.day, Range: cand.slot, RoomID: cand.room, InstructorID: cand.instructor})

	if recand, ok := firstCandidate(in, state, victim.Demand); ok {
		state.place(Placement{Demand: victim.Demand, Day: recand.day, Range: recand.slot, RoomID: recand.room, InstructorID: recand.instructor})
		return true, nil
	}
	displaced := victim.Demand
	return true, &displaced
}

func lessDemand(a, b SessionDemand) bool {
	if a.CourseCode != b.CourseCode {
		return a.CourseCode < b.CourseCode
	}
	return a.Sequence < b.Sequence
}

// --- Solve state ---

type dayKey struct {
	id  string
	day models.DayOfWeek
}

type solveState struct {
	placements      []Placement
	instructorSlots map[dayKey][]models.TimeRange
	roomSlots       map[dayKey][]models.TimeRange
}

func newSolveState() *solveState {
	return &solveState{
		instructorSlots: make(map[dayKey][]models.TimeRange),
		roomSlots:       make(map[dayKey][]models.TimeRange),
	}
}

func (s *solveState) instructorBusy(id string, day models.DayOfWeek, r models.TimeRange) bool {
	return overlapsAny(s.instructorSlots[dayKey{id, day}], r)
}

func (s *solveState) roomBusy(id string, day models.DayOfWeek, r models.TimeRange) bool {
	return overlapsAny(s.roomSlots[dayKey{id, day}], r)
}

func overlapsAny(ranges []models.TimeRange, r models.TimeRange) bool {
	for _, existing := range ranges {
		if existing.Overlaps(r) {
			return true
		}
	}
	return false
}

func (s *solveState) place(p Placement) {
	s.insert(len(s.placements), p)
}

func (s *solveState) insert(idx int, p Placement) {
	s.placements = append(s.placements, Placement{})
	copy(s.placements[idx+1:], s.placements[idx:])
	s.placements[idx] = p

	ik := dayKey{p.InstructorID, p.Day}
	s.instructorSlots[ik] = append(s.instructorSlots[ik], p.Range)
	rk := dayKey{p.RoomID, p.Day}
	s.roomSlots[rk] = append(s.roomSlots[rk], p.Range)
}

func (s *solveState) remove(idx int) {
	p := s.placements[idx]
	s.placements = append(s.placements[:idx], s.placements[idx+1:]...)

	ik := dayKey{p.InstructorID, p.Day}
	s.instructorSlots[ik] = removeRange(s.instructorSlots[ik], p.Range)
	rk := dayKey{p.RoomID, p.Day}
	s.roomSlots[rk] = removeRange(s.roomSlots[rk], p.Range)
}

func removeRange(ranges []models.TimeRange, r models.TimeRange) []models.TimeRange {
	for i, existing := range ranges {
		if existing == r {
			return append(ranges[:i], ranges[i+1:]...)
		}
	}
	return ranges
}

// --- Soft constraints ---

func overloadWarnings(state *solveState, caps map[string]int) []Warning {
	minutes := make(map[string]int)
	for _, p := range state.placements {
		minutes[p.InstructorID] += p.Range.End - p.Range.Start
	}

	ids := make([]string, 0, len(minutes))
	for id := range minutes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var warnings []Warning
	for _, id := range ids {
		cap := caps[id]
		if cap <= 0 || minutes[id] <= cap {
			continue
		}
		warnings = append(warnings, Warning{
			Code:    WarnInstructorOverload,
			Message: fmt.Sprintf("instructor %s assigned %d weekly minutes, cap is %d", id, minutes[id], cap),
			Meta:    map[string]any{"instructor": id, "assigned_minutes": minutes[id], "cap_minutes": cap},
		})
	}
	return warnings
}
