package dto

// CreateCourseRequest registers a course offering.
type CreateCourseRequest struct {
	Code          string   `json:"code" validate:"required,min=2,max=16"`
	Name          string   `json:"name" validate:"required,min=1,max=160"`
	Credits       int      `json:"credits" validate:"omitempty,min=1,max=10"`
	SessionType   string   `json:"sessionType" validate:"required,oneof=LECTURE LAB TUTORIAL"`
	HoursPerWeek  float64  `json:"hoursPerWeek" validate:"required,gt=0,lte=20"`
	Department    string   `json:"department" validate:"required"`
	InstructorIDs []string `json:"instructorIds" validate:"omitempty,dive,min=1"`
	Prerequisites []string `json:"prerequisites" validate:"omitempty,dive,min=1"`
	SectionSize   int      `json:"sectionSize" validate:"omitempty,min=1"`
}

// AvailabilityWindowRequest declares one weekly availability span.
type AvailabilityWindowRequest struct {
	Day   int    `json:"dayOfWeek" validate:"min=0,max=6"`
	Start string `json:"start" validate:"required"`
	End   string `json:"end" validate:"required"`
}

// UnavailableOverrideRequest blocks part of an instructor's declared windows.
type UnavailableOverrideRequest struct {
	Day    int    `json:"dayOfWeek" validate:"min=0,max=6"`
	Start  string `json:"start" validate:"required"`
	End    string `json:"end" validate:"required"`
	Reason string `json:"reason" validate:"omitempty,max=200"`
}

// CreateInstructorRequest registers an instructor with availability.
type CreateInstructorRequest struct {
	Name         string                       `json:"name" validate:"required,min=1,max=120"`
	Email        string                       `json:"email" validate:"required,email"`
	Department   string                       `json:"department" validate:"required"`
	MaxHoursWeek int                          `json:"maxHoursWeek" validate:"omitempty,min=1,max=60"`
	Windows      []AvailabilityWindowRequest  `json:"windows" validate:"omitempty,dive"`
	Unavailable  []UnavailableOverrideRequest `json:"unavailable" validate:"omitempty,dive"`
}

// CreateRoomRequest registers a schedulable room.
type CreateRoomRequest struct {
	Building  string                      `json:"building" validate:"required"`
	Capacity  int                         `json:"capacity" validate:"required,min=1"`
	RoomType  string                      `json:"roomType" validate:"required,oneof=LECTURE_HALL LAB TUTORIAL_ROOM"`
	Equipment []string                    `json:"equipment" validate:"omitempty,dive,min=1"`
	Windows   []AvailabilityWindowRequest `json:"windows" validate:"omitempty,dive"`
}

// CreateStudentRequest registers a student.
type CreateStudentRequest struct {
	RollNumber string `json:"rollNumber" validate:"required,min=1,max=32"`
	Name       string `json:"name" validate:"required,min=1,max=120"`
	Program    string `json:"program" validate:"omitempty,max=80"`
	Batch      string `json:"batch" validate:"required"`
	Section    string `json:"section" validate:"omitempty,max=8"`
}

// EnrollRequest links students to a course.
type EnrollRequest struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1,dive,min=1"`
}
