package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"

	"github.com/campushub/scheduling-api/internal/models"
)

const timetableColumns = "id, name, semester, sections, status, is_generated, generated_at, constraints, created_at, updated_at"

const sessionColumns = `id, timetable_id, course_code, sequence, session_type, day_of_week,
start_minute AS "range.start_minute", end_minute AS "range.end_minute",
room_id, instructor_id, section_size, color_tag, created_at`

// TimetableRepository manages timetables and their sessions.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs a TimetableRepository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

// List returns timetables matching filters along with total count.
func (r *TimetableRepository) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	base := "FROM timetables WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Semester != "" {
		conditions = append(conditions, fmt.Sprintf("semester = $%d", len(args)+1))
		args = append(args, filter.Semester)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", timetableColumns, base, size, offset)
	var timetables []models.Timetable
	if err := r.db.SelectContext(ctx, &timetables, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timetables: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timetables: %w", err)
	}

	return timetables, total, nil
}

// FindByID fetches a timetable by ID.
func (r *TimetableRepository) FindByID(ctx context.Context, id string) (*models.Timetable, error) {
	query := fmt.Sprintf("SELECT %s FROM timetables WHERE id = $1", timetableColumns)
	var timetable models.Timetable
	if err := r.db.GetContext(ctx, &timetable, query, id); err != nil {
		return nil, err
	}
	return &timetable, nil
}

// Create inserts a new timetable record.
func (r *TimetableRepository) Create(ctx context.Context, timetable *models.Timetable) error {
	if timetable.ID == "" {
		timetable.ID = uuid.NewString()
	}
	if timetable.Status == "" {
		timetable.Status = models.SolveUnsolved
	}
	now := time.Now().UTC()
	if timetable.CreatedAt.IsZero() {
		timetable.CreatedAt = now
	}
	timetable.UpdatedAt = now

	const query = `INSERT INTO timetables (id, name, semester, sections, status, is_generated, generated_at, constraints, created_at, updated_at)
		VALUES (:id, :name, :semester, :sections, :status, :is_generated, :generated_at, :constraints, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, timetable); err != nil {
		return fmt.Errorf("create timetable: %w", err)
	}
	return nil
}

// UpdateStatus moves the timetable through the solve lifecycle.
func (r *TimetableRepository) UpdateStatus(ctx context.Context, id string, status models.SolveStatus) error {
	const query = `UPDATE timetables SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update timetable status: %w", err)
	}
	return nil
}

// ReplaceSessions swaps the timetable's sessions and solve outcome in one
// transaction. Readers never observe a half-written timetable.
func (r *TimetableRepository) ReplaceSessions(ctx context.Context, id string, status models.SolveStatus, sessions []models.Session) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace sessions: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE timetable_id = $1`, id); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}

	const insert = `INSERT INTO sessions (id, timetable_id, course_code, sequence, session_type, day_of_week, start_minute, end_minute, room_id, instructor_id, section_size, color_tag, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	now := time.Now().UTC()
	for i := range sessions {
		s := &sessions[i]
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		s.TimetableID = id
		if s.CreatedAt.IsZero() {
			s.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, insert,
			s.ID, s.TimetableID, s.CourseCode, s.Sequence, s.Type, s.Day,
			s.Range.Start, s.Range.End, s.RoomID, s.InstructorID, s.SectionSize, s.ColorTag, s.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert session: %w", err)
		}
	}

	generated := status == models.SolveComplete || status == models.SolvePartial
	const update = `UPDATE timetables SET status = $2, is_generated = $3, generated_at = $4, updated_at = $4 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, update, id, status, generated, now); err != nil {
		return fmt.Errorf("update timetable outcome: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace sessions: %w", err)
	}
	return nil
}

// ListSessions returns a timetable's sessions in canonical display order.
func (r *TimetableRepository) ListSessions(ctx context.Context, id string) ([]models.Session, error) {
	query := fmt.Sprintf("SELECT %s FROM sessions WHERE timetable_id = $1 ORDER BY day_of_week ASC, start_minute ASC, room_id ASC", sessionColumns)
	var sessions []models.Session
	if err := r.db.SelectContext(ctx, &sessions, query, id); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// DeleteSessions clears every session of the timetable and resets its solve
// state. It reports how many sessions were removed.
func (r *TimetableRepository) DeleteSessions(ctx context.Context, id string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin clear timetable: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	res, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE timetable_id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("delete sessions: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count deleted sessions: %w", err)
	}

	const reset = `UPDATE timetables SET status = $2, is_generated = FALSE, generated_at = NULL, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, reset, id, models.SolveUnsolved, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("reset timetable: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit clear timetable: %w", err)
	}
	return int(deleted), nil
}

// UpdateConstraints stores a new constraint document for the timetable.
func (r *TimetableRepository) UpdateConstraints(ctx context.Context, id string, constraints types.JSONText) error {
	const query = `UPDATE timetables SET constraints = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, constraints, time.Now().UTC()); err != nil {
		return fmt.Errorf("update timetable constraints: %w", err)
	}
	return nil
}
