package dto

// CourseCSVRow mirrors one line of a course roster upload.
type CourseCSVRow struct {
	Code          string  `csv:"code"`
	Name          string  `csv:"name"`
	Credits       int     `csv:"credits"`
	SessionType   string  `csv:"session_type"`
	HoursPerWeek  float64 `csv:"hours_per_week"`
	Department    string  `csv:"department"`
	InstructorIDs string  `csv:"instructor_ids"`
	SectionSize   int     `csv:"section_size"`
}

// InstructorCSVRow mirrors one line of an instructor roster upload.
type InstructorCSVRow struct {
	Name         string `csv:"name"`
	Email        string `csv:"email"`
	Department   string `csv:"department"`
	MaxHoursWeek int    `csv:"max_hours_week"`
}

// RoomCSVRow mirrors one line of a room inventory upload.
type RoomCSVRow struct {
	Building  string `csv:"building"`
	Capacity  int    `csv:"capacity"`
	RoomType  string `csv:"room_type"`
	Equipment string `csv:"equipment"`
}

// StudentCSVRow mirrors one line of a student roster upload.
type StudentCSVRow struct {
	RollNumber string `csv:"roll_number"`
	Name       string `csv:"name"`
	Program    string `csv:"program"`
	Batch      string `csv:"batch"`
	Section    string `csv:"section"`
}

// ImportSummary reports the outcome of a roster upload.
type ImportSummary struct {
	Kind     string   `json:"kind"`
	Imported int      `json:"imported"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Skip records one rejected row and its reason.
func (s *ImportSummary) Skip(reason string) {
	s.Skipped++
	s.Errors = append(s.Errors, reason)
}
