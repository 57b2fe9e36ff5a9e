package models

// TimeRange is a half-open [Start, End) interval in minutes since midnight.
type TimeRange struct {
	Start int `db:"start_minute" json:"start_minute"`
	End   int `db:"end_minute" json:"end_minute"`
}

// Overlaps reports whether two half-open ranges intersect.
func (r TimeRange) Overlaps(o TimeRange) bool {
	return r.Start < o.End && o.Start < r.End
}

// Contains reports whether o lies fully inside r.
func (r TimeRange) Contains(o TimeRange) bool {
	return r.Start <= o.Start && o.End <= r.End
}

// Valid reports whether the range has positive length.
func (r TimeRange) Valid() bool {
	return r.Start < r.End
}

// AvailabilityWindow declares when an entity can be scheduled.
type AvailabilityWindow struct {
	ID      string    `db:"id" json:"id"`
	OwnerID string    `db:"owner_id" json:"owner_id"`
	Day     DayOfWeek `db:"day_of_week" json:"day_of_week"`
	Range   TimeRange `db:"range" json:"range"`
}

// UnavailableOverride subtracts a window from declared availability.
type UnavailableOverride struct {
	ID      string    `db:"id" json:"id"`
	OwnerID string    `db:"owner_id" json:"owner_id"`
	Day     DayOfWeek `db:"day_of_week" json:"day_of_week"`
	Range   TimeRange `db:"range" json:"range"`
	Reason  string    `db:"reason" json:"reason,omitempty"`
}

// BreakTime blocks a window for everyone (lunch, assembly).
type BreakTime struct {
	Day   DayOfWeek `json:"day_of_week"`
	Range TimeRange `json:"range"`
}
