package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/models"
	"github.com/campushub/scheduling-api/internal/repository"
	"github.com/campushub/scheduling-api/pkg/config"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
)

type examStoreStub struct {
	exams   map[string]*models.Exam
	duties  []models.InvigilationDuty
	seating map[string][]models.SeatingAssignment
}

func newExamStoreStub() *examStoreStub {
	return &examStoreStub{
		exams:   map[string]*models.Exam{},
		seating: map[string][]models.SeatingAssignment{},
	}
}

func (s *examStoreStub) ReplaceSchedule(ctx context.Context, exams []models.Exam, duties []models.InvigilationDuty) error {
	s.exams = map[string]*models.Exam{}
	for i := range exams {
		exam := exams[i]
		s.exams[exam.ID] = &exam
	}
	s.duties = duties
	return nil
}

func (s *examStoreStub) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	exam, ok := s.exams[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *exam
	return &copied, nil
}

func (s *examStoreStub) ListAll(ctx context.Context) ([]models.Exam, error) {
	out := make([]models.Exam, 0, len(s.exams))
	for _, exam := range s.exams {
		out = append(out, *exam)
	}
	return out, nil
}

func (s *examStoreStub) ReplaceSeating(ctx context.Context, examID string, seats []models.SeatingAssignment) error {
	s.seating[examID] = seats
	return nil
}

func (s *examStoreStub) ListSeating(ctx context.Context, examID string) ([]models.SeatingAssignment, error) {
	return s.seating[examID], nil
}

func (s *examStoreStub) ListDuties(ctx context.Context) ([]models.InvigilationDuty, error) {
	return s.duties, nil
}

type enrollmentStub struct {
	summaries []repository.EnrollmentSummary
	students  map[string][]models.Student
}

func (e enrollmentStub) EnrollmentSummaries(ctx context.Context, courseIDs []string) ([]repository.EnrollmentSummary, error) {
	if len(courseIDs) == 0 {
		return e.summaries, nil
	}
	wanted := make(map[string]struct{}, len(courseIDs))
	for _, id := range courseIDs {
		wanted[id] = struct{}{}
	}
	var out []repository.EnrollmentSummary
	for _, summary := range e.summaries {
		if _, ok := wanted[summary.CourseID]; ok {
			out = append(out, summary)
		}
	}
	return out, nil
}

func (e enrollmentStub) ListEnrolledByCourse(ctx context.Context, courseID string) ([]models.Student, error) {
	return e.students[courseID], nil
}

type examRoomStub struct{ rooms []models.Room }

func (r examRoomStub) ListAllWithAvailability(ctx context.Context) ([]models.Room, error) {
	return r.rooms, nil
}

func (r examRoomStub) ListByIDs(ctx context.Context, ids []string) ([]models.Room, error) {
	wanted := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		wanted[id] = struct{}{}
	}
	var out []models.Room
	for _, room := range r.rooms {
		if _, ok := wanted[room.ID]; ok {
			out = append(out, room)
		}
	}
	return out, nil
}

type examInstructorStub struct{ instructors []models.Instructor }

func (i examInstructorStub) ListAllWithAvailability(ctx context.Context) ([]models.Instructor, error) {
	return i.instructors, nil
}

func examTestConfig() config.ExamConfig {
	return config.ExamConfig{
		SlotsPerDay:  2,
		SlotMinutes:  180,
		DayStart:     "09:00",
		HorizonDays:  10,
		Invigilators: true,
	}
}

func newExamServiceForTest(t *testing.T) (*ExamService, *examStoreStub) {
	t.Helper()
	store := newExamStoreStub()
	enrollments := enrollmentStub{
		summaries: []repository.EnrollmentSummary{
			{CourseID: "course-cs101", CourseCode: "CS101", Enrolled: 60, Batches: pq.StringArray{"2024-CS"}},
			{CourseID: "course-cs201", CourseCode: "CS201", Enrolled: 45, Batches: pq.StringArray{"2024-CS"}},
		},
		students: map[string][]models.Student{},
	}
	rooms := examRoomStub{rooms: []models.Room{
		{ID: "hall-1", Capacity: 100, Type: models.RoomLectureHall},
	}}
	instructors := examInstructorStub{instructors: []models.Instructor{
		{ID: "inst-1", Name: "Prof A"},
		{ID: "inst-2", Name: "Prof B"},
	}}
	svc := NewExamService(store, enrollments, rooms, instructors, nil, nil, zap.NewNop(), examTestConfig(), config.SeatingConfig{Columns: 6})
	return svc, store
}

func TestExamServiceSchedulePersistsClashFreeSlots(t *testing.T) {
	svc, store := newExamServiceForTest(t)

	resp, err := svc.Schedule(context.Background(), dto.ScheduleExamsRequest{StartDate: "2026-12-07"})
	require.NoError(t, err)
	require.Len(t, resp.Exams, 2)
	assert.Empty(t, resp.Unscheduled)
	assert.Len(t, store.exams, 2)

	// Both courses share a batch so their slots must differ.
	first, second := resp.Exams[0], resp.Exams[1]
	sameSlot := first.Date.Equal(second.Date) && first.Range == second.Range
	assert.False(t, sameSlot)

	for _, exam := range resp.Exams {
		require.NotEmpty(t, exam.ID)
		require.NotEmpty(t, exam.Allocations)
		assert.Equal(t, "hall-1", exam.Allocations[0].RoomID)
	}
	require.NotEmpty(t, resp.Duties)
	for _, duty := range resp.Duties {
		assert.Contains(t, store.exams, duty.ExamID)
	}
}

func TestExamServiceSlotGridKeepsWeekendDates(t *testing.T) {
	svc, _ := newExamServiceForTest(t)

	// Monday start, ten-day horizon: the grid must reach across the
	// intervening Saturday and Sunday.
	slots, err := svc.buildSlotGrid(dto.ScheduleExamsRequest{StartDate: "2026-12-07"})
	require.NoError(t, err)
	require.NotEmpty(t, slots)

	days := map[time.Weekday]bool{}
	for _, slot := range slots {
		days[slot.Date.Weekday()] = true
	}
	assert.True(t, days[time.Saturday])
	assert.True(t, days[time.Sunday])
}

func TestExamServiceScheduleUnknownCourse(t *testing.T) {
	svc, _ := newExamServiceForTest(t)

	_, err := svc.Schedule(context.Background(), dto.ScheduleExamsRequest{
		StartDate: "2026-12-07",
		CourseIDs: []string{"course-cs101", "course-ghost"},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnknownEntityReference.Code, appErr.Code)
}

func TestExamServiceScheduleRejectsConcurrent(t *testing.T) {
	svc, _ := newExamServiceForTest(t)

	require.True(t, svc.locks.tryAcquire(examScheduleLock))
	defer svc.locks.release(examScheduleLock)

	_, err := svc.Schedule(context.Background(), dto.ScheduleExamsRequest{StartDate: "2026-12-07"})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrOperationInProgress.Code, appErr.Code)
}

func TestExamServiceAllocateSeatingPersists(t *testing.T) {
	svc, store := newExamServiceForTest(t)
	store.exams["exam-1"] = &models.Exam{
		ID:         "exam-1",
		CourseID:   "course-cs101",
		CourseCode: "CS101",
		Date:       time.Date(2026, time.December, 7, 0, 0, 0, 0, time.UTC),
		Range:      models.TimeRange{Start: 540, End: 720},
		Allocations: []models.ExamRoomAllocation{
			{ExamID: "exam-1", RoomID: "hall-1", CapacityUsed: 4},
		},
	}
	enrollments := enrollmentStub{students: map[string][]models.Student{
		"course-cs101": {
			{ID: "s-1", RollNumber: "2024-CS-01", Batch: "2024-CS"},
			{ID: "s-2", RollNumber: "2024-CS-02", Batch: "2024-CS"},
			{ID: "s-3", RollNumber: "2024-EE-01", Batch: "2024-EE"},
			{ID: "s-4", RollNumber: "2024-EE-02", Batch: "2024-EE"},
		},
	}}
	svc.enrollments = enrollments

	resp, err := svc.AllocateSeating(context.Background(), "exam-1", dto.AllocateSeatingRequest{Columns: 2})
	require.NoError(t, err)
	require.Len(t, resp.Assignments, 4)
	assert.Empty(t, resp.Unseated)
	require.Len(t, store.seating["exam-1"], 4)
	for _, seat := range store.seating["exam-1"] {
		assert.Equal(t, "exam-1", seat.ExamID)
		assert.Equal(t, "hall-1", seat.RoomID)
	}
}

func TestExamServiceAllocateSeatingNotFound(t *testing.T) {
	svc, _ := newExamServiceForTest(t)

	_, err := svc.AllocateSeating(context.Background(), "missing", dto.AllocateSeatingRequest{})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestExamServiceClearSchedule(t *testing.T) {
	svc, store := newExamServiceForTest(t)

	_, err := svc.Schedule(context.Background(), dto.ScheduleExamsRequest{StartDate: "2026-12-07"})
	require.NoError(t, err)
	require.NotEmpty(t, store.exams)

	require.NoError(t, svc.ClearSchedule(context.Background()))
	assert.Empty(t, store.exams)
	assert.Empty(t, store.duties)
}

func TestExamServiceClearSeating(t *testing.T) {
	svc, store := newExamServiceForTest(t)
	store.exams["exam-1"] = &models.Exam{ID: "exam-1", CourseID: "course-cs101"}
	store.seating["exam-1"] = []models.SeatingAssignment{
		{ExamID: "exam-1", RoomID: "hall-1", StudentID: "s-1"},
	}

	require.NoError(t, svc.ClearSeating(context.Background(), "exam-1"))
	assert.Empty(t, store.seating["exam-1"])

	err := svc.ClearSeating(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
