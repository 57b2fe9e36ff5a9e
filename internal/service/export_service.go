package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campushub/scheduling-api/internal/engine"
	"github.com/campushub/scheduling-api/internal/models"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
	"github.com/campushub/scheduling-api/pkg/export"
	"github.com/campushub/scheduling-api/pkg/storage"
)

type exportTimetableSource interface {
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	ListSessions(ctx context.Context, id string) ([]models.Session, error)
}

type exportExamSource interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	ListAll(ctx context.Context) ([]models.Exam, error)
	ListSeating(ctx context.Context, examID string) ([]models.SeatingAssignment, error)
}

type exportRosterSource interface {
	ListEnrolledByCourse(ctx context.Context, courseID string) ([]models.Student, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
	RenderSeatingChart(title string, grids []export.SeatingGrid) ([]byte, error)
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	ExpiresAt    time.Time
}

// ExportService renders timetable and exam artifacts and persists them on
// disk behind signed download tokens.
type ExportService struct {
	timetables exportTimetableSource
	exams      exportExamSource
	roster     exportRosterSource
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.DownloadSigner
	logger     *zap.Logger
	apiPrefix  string
}

// NewExportService constructs an ExportService.
func NewExportService(
	timetables exportTimetableSource,
	exams exportExamSource,
	roster exportRosterSource,
	store fileStorage,
	signer *storage.DownloadSigner,
	apiPrefix string,
	logger *zap.Logger,
) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		timetables: timetables,
		exams:      exams,
		roster:     roster,
		storage:    store,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
		signer:     signer,
		logger:     logger,
		apiPrefix:  apiPrefix,
	}
}

// Generate renders the artifact described by the job and stores the result.
func (s *ExportService) Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	var payload []byte
	var err error
	if job.Kind == models.ExportKindSeatingChart && job.Format == models.ExportFormatPDF {
		payload, err = s.renderSeatingChart(ctx, job.TargetID)
	} else {
		var dataset export.Dataset
		var title string
		dataset, title, err = s.buildDataset(ctx, job)
		if err == nil {
			switch job.Format {
			case models.ExportFormatCSV:
				payload, err = s.csv.Render(dataset)
			case models.ExportFormatPDF:
				payload, err = s.pdf.Render(dataset, title)
			default:
				err = fmt.Errorf("unsupported format %s", job.Format)
			}
		}
	}
	if err != nil {
		return nil, err
	}

	filename := buildExportFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	prefix := strings.TrimRight(s.apiPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/download/%s", prefix, token),
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes stored files older than ttl.
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ExportJob) (export.Dataset, string, error) {
	switch job.Kind {
	case models.ExportKindTimetable:
		return s.buildTimetableDataset(ctx, job.TargetID)
	case models.ExportKindExamSchedule:
		return s.buildExamDataset(ctx, job.TargetID)
	case models.ExportKindSeatingChart:
		return s.buildSeatingDataset(ctx, job.TargetID)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported export kind %s", job.Kind)
	}
}

func (s *ExportService) buildTimetableDataset(ctx context.Context, timetableID string) (export.Dataset, string, error) {
	timetable, err := s.timetables.FindByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return export.Dataset{}, "", appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return export.Dataset{}, "", err
	}
	sessions, err := s.timetables.ListSessions(ctx, timetableID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := []string{"Day", "Start", "End", "Course", "Type", "Room", "Instructor", "Section Size"}
	rows := make([]map[string]string, 0, len(sessions))
	for _, session := range sessions {
		rows = append(rows, map[string]string{
			"Day":          session.Day.String(),
			"Start":        engine.FormatClock(session.Range.Start),
			"End":          engine.FormatClock(session.Range.End),
			"Course":       session.CourseCode,
			"Type":         string(session.Type),
			"Room":         session.RoomID,
			"Instructor":   session.InstructorID,
			"Section Size": fmt.Sprintf("%d", session.SectionSize),
		})
	}
	title := fmt.Sprintf("Timetable %s (%s)", timetable.Name, timetable.Semester)
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) buildExamDataset(ctx context.Context, examID string) (export.Dataset, string, error) {
	exams, err := s.loadExams(ctx, examID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := []string{"Date", "Start", "End", "Course", "Rooms", "Seated", "Flagged"}
	rows := make([]map[string]string, 0, len(exams))
	for _, exam := range exams {
		roomIDs := make([]string, 0, len(exam.Allocations))
		seated := 0
		for _, alloc := range exam.Allocations {
			roomIDs = append(roomIDs, alloc.RoomID)
			seated += alloc.CapacityUsed
		}
		rows = append(rows, map[string]string{
			"Date":    exam.Date.Format("2006-01-02"),
			"Start":   engine.FormatClock(exam.Range.Start),
			"End":     engine.FormatClock(exam.Range.End),
			"Course":  exam.CourseCode,
			"Rooms":   strings.Join(roomIDs, "; "),
			"Seated":  fmt.Sprintf("%d", seated),
			"Flagged": fmt.Sprintf("%t", exam.Flagged),
		})
	}
	return export.Dataset{Headers: headers, Rows: rows}, "Exam Schedule", nil
}

func (s *ExportService) buildSeatingDataset(ctx context.Context, examID string) (export.Dataset, string, error) {
	exam, seats, rolls, err := s.loadSeating(ctx, examID)
	if err != nil {
		return export.Dataset{}, "", err
	}

	headers := []string{"Room", "Row", "Column", "Roll Number"}
	rows := make([]map[string]string, 0, len(seats))
	for _, seat := range seats {
		rows = append(rows, map[string]string{
			"Room":        seat.RoomID,
			"Row":         fmt.Sprintf("%d", seat.Row),
			"Column":      fmt.Sprintf("%d", seat.Column),
			"Roll Number": rolls[seat.StudentID],
		})
	}
	title := fmt.Sprintf("Seating Chart %s %s", exam.CourseCode, exam.Date.Format("2006-01-02"))
	return export.Dataset{Headers: headers, Rows: rows}, title, nil
}

func (s *ExportService) renderSeatingChart(ctx context.Context, examID string) ([]byte, error) {
	exam, seats, rolls, err := s.loadSeating(ctx, examID)
	if err != nil {
		return nil, err
	}

	byRoom := make(map[string]*export.SeatingGrid)
	for _, seat := range seats {
		grid, ok := byRoom[seat.RoomID]
		if !ok {
			grid = &export.SeatingGrid{RoomID: seat.RoomID, Cells: make(map[string]string)}
			byRoom[seat.RoomID] = grid
		}
		if seat.Row+1 > grid.Rows {
			grid.Rows = seat.Row + 1
		}
		if seat.Column+1 > grid.Columns {
			grid.Columns = seat.Column + 1
		}
		grid.Cells[export.GridCellKey(seat.Row, seat.Column)] = rolls[seat.StudentID]
	}

	grids := make([]export.SeatingGrid, 0, len(byRoom))
	for _, grid := range byRoom {
		grids = append(grids, *grid)
	}
	sort.Slice(grids, func(i, j int) bool { return grids[i].RoomID < grids[j].RoomID })

	title := fmt.Sprintf("Seating Chart %s %s", exam.CourseCode, exam.Date.Format("2006-01-02"))
	return s.pdf.RenderSeatingChart(title, grids)
}

func (s *ExportService) loadExams(ctx context.Context, examID string) ([]models.Exam, error) {
	if examID == "" {
		return s.exams.ListAll(ctx)
	}
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, err
	}
	return []models.Exam{*exam}, nil
}

func (s *ExportService) loadSeating(ctx context.Context, examID string) (*models.Exam, []models.SeatingAssignment, map[string]string, error) {
	exam, err := s.exams.FindByID(ctx, examID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, nil, nil, err
	}
	seats, err := s.exams.ListSeating(ctx, examID)
	if err != nil {
		return nil, nil, nil, err
	}
	students, err := s.roster.ListEnrolledByCourse(ctx, exam.CourseID)
	if err != nil {
		return nil, nil, nil, err
	}

	rolls := make(map[string]string, len(students))
	for _, student := range students {
		rolls[student.ID] = student.RollNumber
	}
	// Fall back to the raw ID when the enrollment record is gone.
	for _, seat := range seats {
		if _, ok := rolls[seat.StudentID]; !ok {
			rolls[seat.StudentID] = seat.StudentID
		}
	}
	return exam, seats, rolls, nil
}

func buildExportFilename(job *models.ExportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	target := sanitizeFilename(job.TargetID)
	return fmt.Sprintf("%s_%s_%s.%s", job.Kind, target, timestamp, job.Format)
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "all"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
