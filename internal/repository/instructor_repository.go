package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushub/scheduling-api/internal/models"
)

const instructorColumns = "id, name, email, department, max_hours_week, created_at, updated_at"

// InstructorRepository manages persistence for instructors and their
// availability declarations.
type InstructorRepository struct {
	db *sqlx.DB
}

// NewInstructorRepository constructs an InstructorRepository.
func NewInstructorRepository(db *sqlx.DB) *InstructorRepository {
	return &InstructorRepository{db: db}
}

// List returns instructors matching filters along with total count.
func (r *InstructorRepository) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error) {
	base := "FROM instructors WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(email) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, search)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY name ASC LIMIT %d OFFSET %d", instructorColumns, base, size, offset)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list instructors: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count instructors: %w", err)
	}

	return instructors, total, nil
}

// FindByID fetches an instructor by ID.
func (r *InstructorRepository) FindByID(ctx context.Context, id string) (*models.Instructor, error) {
	query := fmt.Sprintf("SELECT %s FROM instructors WHERE id = $1", instructorColumns)
	var instructor models.Instructor
	if err := r.db.GetContext(ctx, &instructor, query, id); err != nil {
		return nil, err
	}
	return &instructor, nil
}

// ListAllWithAvailability returns every instructor with windows and
// overrides attached, ready for matrix building.
func (r *InstructorRepository) ListAllWithAvailability(ctx context.Context) ([]models.Instructor, error) {
	query := fmt.Sprintf("SELECT %s FROM instructors ORDER BY id ASC", instructorColumns)
	var instructors []models.Instructor
	if err := r.db.SelectContext(ctx, &instructors, query); err != nil {
		return nil, fmt.Errorf("list instructors: %w", err)
	}
	if len(instructors) == 0 {
		return instructors, nil
	}

	const windowQuery = `SELECT id, owner_id, day_of_week, start_minute AS "range.start_minute", end_minute AS "range.end_minute"
FROM availability_windows ORDER BY owner_id ASC, day_of_week ASC, start_minute ASC`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, windowQuery); err != nil {
		return nil, fmt.Errorf("list availability windows: %w", err)
	}

	const overrideQuery = `SELECT id, owner_id, day_of_week, start_minute AS "range.start_minute", end_minute AS "range.end_minute", reason
FROM unavailable_overrides ORDER BY owner_id ASC, day_of_week ASC, start_minute ASC`
	var overrides []models.UnavailableOverride
	if err := r.db.SelectContext(ctx, &overrides, overrideQuery); err != nil {
		return nil, fmt.Errorf("list unavailable overrides: %w", err)
	}

	windowsByOwner := make(map[string][]models.AvailabilityWindow)
	for _, w := range windows {
		windowsByOwner[w.OwnerID] = append(windowsByOwner[w.OwnerID], w)
	}
	overridesByOwner := make(map[string][]models.UnavailableOverride)
	for _, o := range overrides {
		overridesByOwner[o.OwnerID] = append(overridesByOwner[o.OwnerID], o)
	}
	for i := range instructors {
		instructors[i].Windows = windowsByOwner[instructors[i].ID]
		instructors[i].Unavailable = overridesByOwner[instructors[i].ID]
	}
	return instructors, nil
}

// Create inserts a new instructor and its availability windows.
func (r *InstructorRepository) Create(ctx context.Context, instructor *models.Instructor) error {
	if instructor.ID == "" {
		instructor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if instructor.CreatedAt.IsZero() {
		instructor.CreatedAt = now
	}
	instructor.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create instructor: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO instructors (id, name, email, department, max_hours_week, created_at, updated_at)
		VALUES (:id, :name, :email, :department, :max_hours_week, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, instructor); err != nil {
		return fmt.Errorf("create instructor: %w", err)
	}
	if err := insertWindows(ctx, tx, instructor.ID, instructor.Windows); err != nil {
		return err
	}
	if err := insertOverrides(ctx, tx, instructor.ID, instructor.Unavailable); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create instructor: %w", err)
	}
	return nil
}

// ReplaceWindows swaps an instructor's declared availability wholesale.
func (r *InstructorRepository) ReplaceWindows(ctx context.Context, ownerID string, windows []models.AvailabilityWindow) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace windows: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_windows WHERE owner_id = $1`, ownerID); err != nil {
		return fmt.Errorf("clear availability windows: %w", err)
	}
	if err := insertWindows(ctx, tx, ownerID, windows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace windows: %w", err)
	}
	return nil
}

// AddOverride records one unavailable span for an instructor.
func (r *InstructorRepository) AddOverride(ctx context.Context, override *models.UnavailableOverride) error {
	if override.ID == "" {
		override.ID = uuid.NewString()
	}
	const query = `INSERT INTO unavailable_overrides (id, owner_id, day_of_week, start_minute, end_minute, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := r.db.ExecContext(ctx, query, override.ID, override.OwnerID, override.Day, override.Range.Start, override.Range.End, override.Reason); err != nil {
		return fmt.Errorf("add unavailable override: %w", err)
	}
	return nil
}

// Delete removes an instructor and its availability rows.
func (r *InstructorRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM instructors WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete instructor: %w", err)
	}
	return nil
}

func insertWindows(ctx context.Context, tx *sqlx.Tx, ownerID string, windows []models.AvailabilityWindow) error {
	const query = `INSERT INTO availability_windows (id, owner_id, day_of_week, start_minute, end_minute)
		VALUES ($1, $2, $3, $4, $5)`
	for _, w := range windows {
		id := w.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query, id, ownerID, w.Day, w.Range.Start, w.Range.End); err != nil {
			return fmt.Errorf("insert availability window: %w", err)
		}
	}
	return nil
}

func insertOverrides(ctx context.Context, tx *sqlx.Tx, ownerID string, overrides []models.UnavailableOverride) error {
	const query = `INSERT INTO unavailable_overrides (id, owner_id, day_of_week, start_minute, end_minute, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`
	for _, o := range overrides {
		id := o.ID
		if id == "" {
			id = uuid.NewString()
		}
		if _, err := tx.ExecContext(ctx, query, id, ownerID, o.Day, o.Range.Start, o.Range.End, o.Reason); err != nil {
			return fmt.Errorf("insert unavailable override: %w", err)
		}
	}
	return nil
}
