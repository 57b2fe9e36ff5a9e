package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/scheduling-api/internal/models"
)

const examColumns = `id, course_id, course_code, exam_date,
start_minute AS "range.start_minute", end_minute AS "range.end_minute",
flagged, created_at`

// ExamRepository manages exam schedules, room allocations, seating and
// invigilation duties.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

// ReplaceSchedule swaps the whole exam schedule in one transaction: existing
// exams for the covered courses go away along with their allocations,
// seating and duties.
func (r *ExamRepository) ReplaceSchedule(ctx context.Context, exams []models.Exam, duties []models.InvigilationDuty) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace exam schedule: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM exams`); err != nil {
		return fmt.Errorf("clear exams: %w", err)
	}

	const insertExam = `INSERT INTO exams (id, course_id, course_code, exam_date, start_minute, end_minute, flagged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	const insertAlloc = `INSERT INTO exam_room_allocations (id, exam_id, room_id, capacity_used)
		VALUES ($1, $2, $3, $4)`
	now := time.Now().UTC()

	for i := range exams {
		exam := &exams[i]
		if exam.ID == "" {
			exam.ID = uuid.NewString()
		}
		if exam.CreatedAt.IsZero() {
			exam.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, insertExam,
			exam.ID, exam.CourseID, exam.CourseCode, exam.Date,
			exam.Range.Start, exam.Range.End, exam.Flagged, exam.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert exam: %w", err)
		}
		for j := range exam.Allocations {
			alloc := &exam.Allocations[j]
			if alloc.ID == "" {
				alloc.ID = uuid.NewString()
			}
			alloc.ExamID = exam.ID
			if _, err := tx.ExecContext(ctx, insertAlloc, alloc.ID, alloc.ExamID, alloc.RoomID, alloc.CapacityUsed); err != nil {
				return fmt.Errorf("insert exam allocation: %w", err)
			}
		}
	}

	const insertDuty = `INSERT INTO invigilation_duties (id, exam_id, room_id, instructor_id)
		VALUES ($1, $2, $3, $4)`
	for i := range duties {
		duty := &duties[i]
		if duty.ID == "" {
			duty.ID = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, insertDuty, duty.ID, duty.ExamID, duty.RoomID, duty.InstructorID); err != nil {
			return fmt.Errorf("insert invigilation duty: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace exam schedule: %w", err)
	}
	return nil
}

// FindByID fetches an exam with its room allocations.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE id = $1", examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}

	const allocQuery = `SELECT id, exam_id, room_id, capacity_used FROM exam_room_allocations WHERE exam_id = $1 ORDER BY capacity_used DESC, room_id ASC`
	if err := r.db.SelectContext(ctx, &exam.Allocations, allocQuery, id); err != nil {
		return nil, fmt.Errorf("list exam allocations: %w", err)
	}
	return &exam, nil
}

// ListAll returns every exam with allocations attached, ordered by date and
// start time.
func (r *ExamRepository) ListAll(ctx context.Context) ([]models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams ORDER BY exam_date ASC, start_minute ASC, course_code ASC", examColumns)
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	if len(exams) == 0 {
		return exams, nil
	}

	const allocQuery = `SELECT id, exam_id, room_id, capacity_used FROM exam_room_allocations ORDER BY exam_id ASC, capacity_used DESC, room_id ASC`
	var allocations []models.ExamRoomAllocation
	if err := r.db.SelectContext(ctx, &allocations, allocQuery); err != nil {
		return nil, fmt.Errorf("list exam allocations: %w", err)
	}
	byExam := make(map[string][]models.ExamRoomAllocation)
	for _, alloc := range allocations {
		byExam[alloc.ExamID] = append(byExam[alloc.ExamID], alloc)
	}
	for i := range exams {
		exams[i].Allocations = byExam[exams[i].ID]
	}
	return exams, nil
}

// ReplaceSeating swaps one exam's seat assignments wholesale.
func (r *ExamRepository) ReplaceSeating(ctx context.Context, examID string, seats []models.SeatingAssignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace seating: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM seating_assignments WHERE exam_id = $1`, examID); err != nil {
		return fmt.Errorf("clear seating: %w", err)
	}

	const insert = `INSERT INTO seating_assignments (id, exam_id, room_id, student_id, row_index, col_index)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for i := range seats {
		seat := &seats[i]
		if seat.ID == "" {
			seat.ID = uuid.NewString()
		}
		seat.ExamID = examID
		if _, err := tx.ExecContext(ctx, insert, seat.ID, seat.ExamID, seat.RoomID, seat.StudentID, seat.Row, seat.Column); err != nil {
			return fmt.Errorf("insert seat assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace seating: %w", err)
	}
	return nil
}

// ListSeating returns an exam's seat assignments in grid order.
func (r *ExamRepository) ListSeating(ctx context.Context, examID string) ([]models.SeatingAssignment, error) {
	const query = `SELECT id, exam_id, room_id, student_id, row_index, col_index
FROM seating_assignments WHERE exam_id = $1 ORDER BY room_id ASC, row_index ASC, col_index ASC`
	var seats []models.SeatingAssignment
	if err := r.db.SelectContext(ctx, &seats, query, examID); err != nil {
		return nil, fmt.Errorf("list seating: %w", err)
	}
	return seats, nil
}

// ListDuties returns every invigilation duty ordered by exam.
func (r *ExamRepository) ListDuties(ctx context.Context) ([]models.InvigilationDuty, error) {
	const query = `SELECT id, exam_id, room_id, instructor_id FROM invigilation_duties ORDER BY exam_id ASC, room_id ASC`
	var duties []models.InvigilationDuty
	if err := r.db.SelectContext(ctx, &duties, query); err != nil {
		return nil, fmt.Errorf("list invigilation duties: %w", err)
	}
	return duties, nil
}
