package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/engine"
	"github.com/campushub/scheduling-api/internal/models"
	"github.com/campushub/scheduling-api/internal/repository"
	"github.com/campushub/scheduling-api/pkg/config"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
)

type examStore interface {
	ReplaceSchedule(ctx context.Context, exams []models.Exam, duties []models.InvigilationDuty) error
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	ListAll(ctx context.Context) ([]models.Exam, error)
	ReplaceSeating(ctx context.Context, examID string, seats []models.SeatingAssignment) error
	ListSeating(ctx context.Context, examID string) ([]models.SeatingAssignment, error)
	ListDuties(ctx context.Context) ([]models.InvigilationDuty, error)
}

type enrollmentReader interface {
	EnrollmentSummaries(ctx context.Context, courseIDs []string) ([]repository.EnrollmentSummary, error)
	ListEnrolledByCourse(ctx context.Context, courseID string) ([]models.Student, error)
}

type examRoomReader interface {
	ListAllWithAvailability(ctx context.Context) ([]models.Room, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Room, error)
}

type examInstructorReader interface {
	ListAllWithAvailability(ctx context.Context) ([]models.Instructor, error)
}

// ExamService schedules exams and lays out seat grids.
type ExamService struct {
	exams       examStore
	enrollments enrollmentReader
	rooms       examRoomReader
	instructors examInstructorReader
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         config.ExamConfig
	seating     config.SeatingConfig
	locks       *operationLocks
}

// NewExamService wires the exam scheduling dependencies.
func NewExamService(
	exams examStore,
	enrollments enrollmentReader,
	rooms examRoomReader,
	instructors examInstructorReader,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.ExamConfig,
	seating config.SeatingConfig,
) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{
		exams:       exams,
		enrollments: enrollments,
		rooms:       rooms,
		instructors: instructors,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		seating:     seating,
		locks:       newOperationLocks(),
	}
}

// examScheduleLock guards the single global exam schedule.
const examScheduleLock = "exam-schedule"

// Schedule builds a batch-clash-free exam schedule and persists it
// wholesale, replacing any previous schedule.
func (s *ExamService) Schedule(ctx context.Context, req dto.ScheduleExamsRequest) (*dto.ScheduleExamsResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam schedule payload")
	}
	if !s.locks.tryAcquire(examScheduleLock) {
		return nil, appErrors.ErrOperationInProgress
	}
	defer s.locks.release(examScheduleLock)

	summaries, err := s.enrollments.EnrollmentSummaries(ctx, req.CourseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load enrollments")
	}
	if len(req.CourseIDs) > 0 && len(summaries) < len(req.CourseIDs) {
		return nil, appErrors.Clone(appErrors.ErrUnknownEntityReference, "one or more courses have no enrollments or do not exist")
	}

	demands := make([]engine.ExamDemand, 0, len(summaries))
	for _, summary := range summaries {
		demands = append(demands, engine.ExamDemand{
			CourseID:   summary.CourseID,
			CourseCode: summary.CourseCode,
			Enrolled:   summary.Enrolled,
			Batches:    summary.Batches,
		})
	}

	rooms, err := s.loadRooms(ctx, req.RoomIDs)
	if err != nil {
		return nil, err
	}

	slots, err := s.buildSlotGrid(req)
	if err != nil {
		return nil, err
	}

	var invigilators []string
	if s.cfg.Invigilators {
		instructors, err := s.instructors.ListAllWithAvailability(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list instructors")
		}
		for _, inst := range instructors {
			invigilators = append(invigilators, inst.ID)
		}
	}

	result := engine.ScheduleExams(demands, slots, rooms, invigilators)

	exams := make([]models.Exam, 0, len(result.Exams))
	var duties []models.InvigilationDuty
	for _, scheduled := range result.Exams {
		exam := models.Exam{
			ID:         uuid.NewString(),
			CourseID:   scheduled.CourseID,
			CourseCode: scheduled.CourseCode,
			Date:       scheduled.Slot.Date,
			Range:      scheduled.Slot.Range,
			Flagged:    scheduled.Flagged,
		}
		for i, alloc := range scheduled.Allocations {
			exam.Allocations = append(exam.Allocations, models.ExamRoomAllocation{
				RoomID:       alloc.RoomID,
				CapacityUsed: alloc.CapacityUsed,
			})
			if i < len(scheduled.Invigilators) {
				duties = append(duties, models.InvigilationDuty{
					ExamID:       exam.ID,
					RoomID:       alloc.RoomID,
					InstructorID: scheduled.Invigilators[i],
				})
			}
		}
		exams = append(exams, exam)
	}

	if err := s.exams.ReplaceSchedule(ctx, exams, duties); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist exam schedule")
	}

	if s.metrics != nil {
		s.metrics.ObserveExamsScheduled(len(exams))
	}
	s.logger.Info("exam schedule generated",
		zap.Int("exams", len(exams)),
		zap.Int("unscheduled", len(result.Unscheduled)),
		zap.Int("duties", len(duties)),
	)

	return &dto.ScheduleExamsResponse{
		Exams:       exams,
		Duties:      duties,
		Unscheduled: result.Unscheduled,
		Warnings:    result.Warnings,
	}, nil
}

// List returns the current exam schedule.
func (s *ExamService) List(ctx context.Context) ([]models.Exam, error) {
	exams, err := s.exams.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list exams")
	}
	return exams, nil
}

// AllocateSeating fills the exam's allocated rooms with a deterministic,
// batch-interleaved seat grid and persists it.
func (s *ExamService) AllocateSeating(ctx context.Context, examID string, req dto.AllocateSeatingRequest) (*dto.AllocateSeatingResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid seating payload")
	}

	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load exam")
	}

	if !s.locks.tryAcquire(examID) {
		return nil, appErrors.ErrOperationInProgress
	}
	defer s.locks.release(examID)

	students, err := s.enrollments.ListEnrolledByCourse(ctx, exam.CourseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load enrolled students")
	}

	allocations := make([]engine.RoomAllocation, 0, len(exam.Allocations))
	for _, alloc := range exam.Allocations {
		allocations = append(allocations, engine.RoomAllocation{
			RoomID:       alloc.RoomID,
			CapacityUsed: alloc.CapacityUsed,
		})
	}

	columns := req.Columns
	if columns <= 0 {
		columns = s.seating.Columns
	}
	result := engine.AllocateSeating(allocations, students, columns)

	seats := make([]models.SeatingAssignment, 0, len(result.Assignments))
	for _, seat := range result.Assignments {
		seats = append(seats, models.SeatingAssignment{
			ExamID:    examID,
			RoomID:    seat.RoomID,
			StudentID: seat.StudentID,
			Row:       seat.Row,
			Column:    seat.Column,
		})
	}
	if err := s.exams.ReplaceSeating(ctx, examID, seats); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist seating")
	}

	return &dto.AllocateSeatingResponse{
		ExamID:      examID,
		Assignments: seats,
		Unseated:    result.Unseated,
		Warnings:    result.Warnings,
	}, nil
}

// Seating returns the persisted seat grid for an exam.
func (s *ExamService) Seating(ctx context.Context, examID string) ([]models.SeatingAssignment, error) {
	seats, err := s.exams.ListSeating(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list seating")
	}
	return seats, nil
}

// ClearSchedule discards the whole exam schedule, including allocations,
// seating and duties.
func (s *ExamService) ClearSchedule(ctx context.Context) error {
	if !s.locks.tryAcquire(examScheduleLock) {
		return appErrors.ErrOperationInProgress
	}
	defer s.locks.release(examScheduleLock)

	if err := s.exams.ReplaceSchedule(ctx, nil, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "clear exam schedule")
	}
	s.logger.Info("exam schedule cleared")
	return nil
}

// ClearSeating discards one exam's seat grid.
func (s *ExamService) ClearSeating(ctx context.Context, examID string) error {
	if _, err := s.exams.FindByID(ctx, examID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load exam")
	}
	if !s.locks.tryAcquire(examID) {
		return appErrors.ErrOperationInProgress
	}
	defer s.locks.release(examID)

	if err := s.exams.ReplaceSeating(ctx, examID, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "clear seating")
	}
	return nil
}

// Duties returns every invigilation duty of the current schedule.
func (s *ExamService) Duties(ctx context.Context) ([]models.InvigilationDuty, error) {
	duties, err := s.exams.ListDuties(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list duties")
	}
	return duties, nil
}

func (s *ExamService) loadRooms(ctx context.Context, ids []string) ([]models.Room, error) {
	if len(ids) == 0 {
		rooms, err := s.rooms.ListAllWithAvailability(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list rooms")
		}
		return rooms, nil
	}
	rooms, err := s.rooms.ListByIDs(ctx, ids)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list rooms")
	}
	if len(rooms) < len(ids) {
		return nil, appErrors.Clone(appErrors.ErrUnknownEntityReference, "one or more rooms do not exist")
	}
	return rooms, nil
}

// buildSlotGrid expands the request into concrete dated slots, weekends
// included; exam periods commonly run through Saturdays.
func (s *ExamService) buildSlotGrid(req dto.ScheduleExamsRequest) ([]engine.ExamSlot, error) {
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid startDate")
	}

	horizon := req.HorizonDays
	if horizon <= 0 {
		horizon = s.cfg.HorizonDays
	}
	perDay := req.SlotsPerDay
	if perDay <= 0 {
		perDay = s.cfg.SlotsPerDay
	}
	slotMinutes := req.SlotMinutes
	if slotMinutes <= 0 {
		slotMinutes = s.cfg.SlotMinutes
	}
	dayStart := req.DayStart
	if dayStart == "" {
		dayStart = s.cfg.DayStart
	}
	first, err := engine.ParseClock(dayStart)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid dayStart")
	}

	// Slots within a day are back to back with a one-hour gap.
	const gapMinutes = 60
	var slots []engine.ExamSlot
	for day := 0; day < horizon; day++ {
		date := start.AddDate(0, 0, day)
		begin := first
		for slot := 0; slot < perDay; slot++ {
			if begin+slotMinutes > 24*60 {
				break
			}
			slots = append(slots, engine.ExamSlot{
				Date:  date,
				Range: models.TimeRange{Start: begin, End: begin + slotMinutes},
			})
			begin += slotMinutes + gapMinutes
		}
	}
	return slots, nil
}
