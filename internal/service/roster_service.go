package service

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/models"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
)

type courseWriter interface {
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
}

type instructorWriter interface {
	Create(ctx context.Context, instructor *models.Instructor) error
}

type roomWriter interface {
	Create(ctx context.Context, room *models.Room) error
}

type studentWriter interface {
	ExistsByRollNumber(ctx context.Context, rollNumber string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
}

// RosterService ingests CSV uploads of courses, instructors, rooms and
// students. Rows that fail validation are skipped and reported, never
// aborting the whole upload.
type RosterService struct {
	courses     courseWriter
	instructors instructorWriter
	rooms       roomWriter
	students    studentWriter
	logger      *zap.Logger
}

// NewRosterService wires the import dependencies.
func NewRosterService(courses courseWriter, instructors instructorWriter, rooms roomWriter, students studentWriter, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{courses: courses, instructors: instructors, rooms: rooms, students: students, logger: logger}
}

// ImportCourses parses and persists a course roster CSV.
func (s *RosterService) ImportCourses(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []dto.CourseCSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "parse course csv")
	}

	summary := &dto.ImportSummary{Kind: "courses"}
	for i, row := range rows {
		if row.Code == "" || row.Name == "" || row.HoursPerWeek <= 0 {
			summary.Skip(fmt.Sprintf("row %d: code, name and hours_per_week are required", i+1))
			continue
		}
		sessionType := models.SessionType(strings.ToUpper(strings.TrimSpace(row.SessionType)))
		if sessionType != models.SessionLecture && sessionType != models.SessionLab && sessionType != models.SessionTutorial {
			summary.Skip(fmt.Sprintf("row %d: unknown session type %q", i+1, row.SessionType))
			continue
		}
		exists, err := s.courses.ExistsByCode(ctx, row.Code)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check course code")
		}
		if exists {
			summary.Skip(fmt.Sprintf("row %d: course %s already exists", i+1, row.Code))
			continue
		}
		course := &models.Course{
			Code:          strings.TrimSpace(row.Code),
			Name:          strings.TrimSpace(row.Name),
			Credits:       row.Credits,
			SessionType:   sessionType,
			HoursPerWeek:  row.HoursPerWeek,
			Department:    strings.TrimSpace(row.Department),
			InstructorIDs: splitList(row.InstructorIDs),
			SectionSize:   row.SectionSize,
		}
		if err := s.courses.Create(ctx, course); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create course")
		}
		summary.Imported++
	}
	s.logImport(summary)
	return summary, nil
}

// ImportInstructors parses and persists an instructor roster CSV.
func (s *RosterService) ImportInstructors(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []dto.InstructorCSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "parse instructor csv")
	}

	summary := &dto.ImportSummary{Kind: "instructors"}
	for i, row := range rows {
		if row.Name == "" || row.Email == "" {
			summary.Skip(fmt.Sprintf("row %d: name and email are required", i+1))
			continue
		}
		instructor := &models.Instructor{
			Name:         strings.TrimSpace(row.Name),
			Email:        strings.TrimSpace(row.Email),
			Department:   strings.TrimSpace(row.Department),
			MaxHoursWeek: row.MaxHoursWeek,
		}
		if err := s.instructors.Create(ctx, instructor); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create instructor")
		}
		summary.Imported++
	}
	s.logImport(summary)
	return summary, nil
}

// ImportRooms parses and persists a room inventory CSV.
func (s *RosterService) ImportRooms(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []dto.RoomCSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "parse room csv")
	}

	summary := &dto.ImportSummary{Kind: "rooms"}
	for i, row := range rows {
		if row.Capacity <= 0 {
			summary.Skip(fmt.Sprintf("row %d: capacity must be positive", i+1))
			continue
		}
		roomType := models.RoomType(strings.ToUpper(strings.TrimSpace(row.RoomType)))
		if roomType != models.RoomLectureHall && roomType != models.RoomLab && roomType != models.RoomTutorialRoom {
			summary.Skip(fmt.Sprintf("row %d: unknown room type %q", i+1, row.RoomType))
			continue
		}
		room := &models.Room{
			Building:  strings.TrimSpace(row.Building),
			Capacity:  row.Capacity,
			Type:      roomType,
			Equipment: splitList(row.Equipment),
		}
		if err := s.rooms.Create(ctx, room); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create room")
		}
		summary.Imported++
	}
	s.logImport(summary)
	return summary, nil
}

// ImportStudents parses and persists a student roster CSV.
func (s *RosterService) ImportStudents(ctx context.Context, r io.Reader) (*dto.ImportSummary, error) {
	var rows []dto.StudentCSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "parse student csv")
	}

	summary := &dto.ImportSummary{Kind: "students"}
	for i, row := range rows {
		if row.RollNumber == "" || row.Name == "" || row.Batch == "" {
			summary.Skip(fmt.Sprintf("row %d: roll_number, name and batch are required", i+1))
			continue
		}
		exists, err := s.students.ExistsByRollNumber(ctx, row.RollNumber)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check roll number")
		}
		if exists {
			summary.Skip(fmt.Sprintf("row %d: roll number %s already exists", i+1, row.RollNumber))
			continue
		}
		student := &models.Student{
			RollNumber: strings.TrimSpace(row.RollNumber),
			Name:       strings.TrimSpace(row.Name),
			Program:    strings.TrimSpace(row.Program),
			Batch:      strings.TrimSpace(row.Batch),
			Section:    strings.TrimSpace(row.Section),
		}
		if err := s.students.Create(ctx, student); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create student")
		}
		summary.Imported++
	}
	s.logImport(summary)
	return summary, nil
}

func (s *RosterService) logImport(summary *dto.ImportSummary) {
	s.logger.Info("roster import finished",
		zap.String("kind", summary.Kind),
		zap.Int("imported", summary.Imported),
		zap.Int("skipped", summary.Skipped),
	)
}

func splitList(raw string) pq.StringArray {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ";")
	out := make(pq.StringArray, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
