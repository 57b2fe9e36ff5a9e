package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/models"
	"github.com/campushub/scheduling-api/pkg/config"
	"github.com/campushub/scheduling-api/pkg/jobs"
	"github.com/campushub/scheduling-api/pkg/storage"
)

type exportTimetableStub struct {
	timetable *models.Timetable
	sessions  []models.Session
}

func (s exportTimetableStub) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	if s.timetable == nil || s.timetable.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.timetable, nil
}

func (s exportTimetableStub) ListSessions(ctx context.Context, id string) ([]models.Session, error) {
	return s.sessions, nil
}

type exportExamStub struct {
	exams   map[string]*models.Exam
	seating map[string][]models.SeatingAssignment
}

func (s exportExamStub) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	exam, ok := s.exams[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return exam, nil
}

func (s exportExamStub) ListAll(ctx context.Context) ([]models.Exam, error) {
	out := make([]models.Exam, 0, len(s.exams))
	for _, exam := range s.exams {
		out = append(out, *exam)
	}
	return out, nil
}

func (s exportExamStub) ListSeating(ctx context.Context, examID string) ([]models.SeatingAssignment, error) {
	return s.seating[examID], nil
}

type queueStub struct {
	jobs []jobs.Job
	err  error
}

func (q *queueStub) Enqueue(job jobs.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type exportRosterStub struct{ students []models.Student }

func (s exportRosterStub) ListEnrolledByCourse(ctx context.Context, courseID string) ([]models.Student, error) {
	return s.students, nil
}

func newExportServiceForTest(t *testing.T) *ExportService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	signer := storage.NewDownloadSigner("test-secret", time.Hour)

	timetables := exportTimetableStub{
		timetable: &models.Timetable{ID: "tt-1", Name: "Autumn", Semester: "2026-ODD"},
		sessions: []models.Session{
			{TimetableID: "tt-1", CourseCode: "CS101", Type: models.SessionLecture, Day: models.Monday, Range: models.TimeRange{Start: 540, End: 600}, RoomID: "hall-1", InstructorID: "inst-1", SectionSize: 40},
			{TimetableID: "tt-1", CourseCode: "CS201", Type: models.SessionLab, Day: models.Tuesday, Range: models.TimeRange{Start: 840, End: 960}, RoomID: "lab-1", InstructorID: "inst-2", SectionSize: 30},
		},
	}
	exams := exportExamStub{
		exams: map[string]*models.Exam{
			"exam-1": {
				ID:         "exam-1",
				CourseID:   "course-cs101",
				CourseCode: "CS101",
				Date:       time.Date(2026, time.December, 7, 0, 0, 0, 0, time.UTC),
				Range:      models.TimeRange{Start: 540, End: 720},
				Allocations: []models.ExamRoomAllocation{
					{ExamID: "exam-1", RoomID: "hall-1", CapacityUsed: 3},
				},
			},
		},
		seating: map[string][]models.SeatingAssignment{
			"exam-1": {
				{ExamID: "exam-1", RoomID: "hall-1", StudentID: "s-1", Row: 0, Column: 0},
				{ExamID: "exam-1", RoomID: "hall-1", StudentID: "s-2", Row: 0, Column: 1},
				{ExamID: "exam-1", RoomID: "hall-1", StudentID: "s-3", Row: 1, Column: 0},
			},
		},
	}
	roster := exportRosterStub{students: []models.Student{
		{ID: "s-1", RollNumber: "2024-CS-01"},
		{ID: "s-2", RollNumber: "2024-CS-02"},
		{ID: "s-3", RollNumber: "2024-EE-01"},
	}}

	return NewExportService(timetables, exams, roster, store, signer, "/api/v1", zap.NewNop())
}

func TestExportServiceGenerateTimetableCSV(t *testing.T) {
	svc := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:       "job-1",
		Kind:     models.ExportKindTimetable,
		Format:   models.ExportFormatCSV,
		TargetID: "tt-1",
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/download/"))
	assert.True(t, result.ExpiresAt.After(time.Now()))

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	buf := make([]byte, 4096)
	n, _ := file.Read(buf)
	content := string(buf[:n])
	assert.Contains(t, content, "Day,Start,End,Course")
	assert.Contains(t, content, "Mon,09:00,10:00,CS101")
	assert.Contains(t, content, "Tue,14:00,16:00,CS201")
}

func TestExportServiceGenerateSeatingChartPDF(t *testing.T) {
	svc := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:       "job-2",
		Kind:     models.ExportKindSeatingChart,
		Format:   models.ExportFormatPDF,
		TargetID: "exam-1",
	}

	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	file, err := svc.Open(result.RelativePath)
	require.NoError(t, err)
	defer file.Close()
	header := make([]byte, 4)
	_, err = file.Read(header)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(header))
}

func TestExportServiceGenerateUnknownTimetable(t *testing.T) {
	svc := newExportServiceForTest(t)
	job := &models.ExportJob{
		ID:       "job-3",
		Kind:     models.ExportKindTimetable,
		Format:   models.ExportFormatCSV,
		TargetID: "missing",
	}

	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}

func exportJobTestConfig() config.ExportConfig {
	return config.ExportConfig{
		PDFEnabled: true,
		SignSecret: "test-secret",
		ResultTTL:  time.Hour,
		Workers:    1,
	}
}

func TestExportJobLifecycle(t *testing.T) {
	generator := newExportServiceForTest(t)
	queue := &queueStub{}
	svc, worker := NewExportJobService(queue, generator, nil, nil, zap.NewNop(), exportJobTestConfig())

	resp, err := svc.CreateJob(context.Background(), dto.ExportRequest{
		Kind:     "timetable",
		Format:   "csv",
		TargetID: "tt-1",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.JobID)
	assert.Equal(t, string(models.ExportStatusQueued), resp.Status)
	require.Len(t, queue.jobs, 1)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: resp.JobID}))

	status, err := svc.Status(resp.JobID)
	require.NoError(t, err)
	assert.Equal(t, string(models.ExportStatusFinished), status.Status)
	require.NotEmpty(t, status.URL)
	require.NotNil(t, status.ExpiresAt)

	token := status.URL[strings.LastIndex(status.URL, "/")+1:]
	download, err := svc.ResolveDownload(token)
	require.NoError(t, err)
	assert.NotEmpty(t, download.Filename)
	download.File.Close()
}

func TestExportJobCreateRejectsMissingTarget(t *testing.T) {
	generator := newExportServiceForTest(t)
	svc, _ := NewExportJobService(&queueStub{}, generator, nil, nil, zap.NewNop(), exportJobTestConfig())

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{Kind: "timetable", Format: "csv"})
	require.Error(t, err)
}

func TestExportJobCreateRejectsDisabledPDF(t *testing.T) {
	generator := newExportServiceForTest(t)
	cfg := exportJobTestConfig()
	cfg.PDFEnabled = false
	svc, _ := NewExportJobService(&queueStub{}, generator, nil, nil, zap.NewNop(), cfg)

	_, err := svc.CreateJob(context.Background(), dto.ExportRequest{Kind: "timetable", Format: "pdf", TargetID: "tt-1"})
	require.Error(t, err)
}
