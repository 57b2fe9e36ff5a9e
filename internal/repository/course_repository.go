package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushub/scheduling-api/internal/models"
)

const courseColumns = "id, code, name, credits, session_type, hours_per_week, department, instructor_ids, prerequisites, section_size, created_at, updated_at"

// CourseRepository manages persistence for course offerings.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses matching filters along with total count.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	base := "FROM courses WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Department != "" {
		conditions = append(conditions, fmt.Sprintf("department = $%d", len(args)+1))
		args = append(args, filter.Department)
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("session_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(code) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY code ASC LIMIT %d OFFSET %d", courseColumns, base, size, offset)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}

	return courses, total, nil
}

// ListAll returns every course ordered by code.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses ORDER BY code ASC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list all courses: %w", err)
	}
	return courses, nil
}

// ListByIDs returns the courses with the given IDs.
func (r *CourseRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Course, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = ANY($1) ORDER BY code ASC", courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list courses by ids: %w", err)
	}
	return courses, nil
}

// FindByID fetches a course by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf("SELECT %s FROM courses WHERE id = $1", courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		return nil, err
	}
	return &course, nil
}

// ExistsByCode checks whether a course already uses the code.
func (r *CourseRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM courses WHERE code = $1)`
	if err := r.db.GetContext(ctx, &exists, query, code); err != nil {
		return false, fmt.Errorf("check course code: %w", err)
	}
	return exists, nil
}

// Create inserts a new course record.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if course.CreatedAt.IsZero() {
		course.CreatedAt = now
	}
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, code, name, credits, session_type, hours_per_week, department, instructor_ids, prerequisites, section_size, created_at, updated_at)
		VALUES (:id, :code, :name, :credits, :session_type, :hours_per_week, :department, :instructor_ids, :prerequisites, :section_size, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies an existing course record.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, credits = :credits, session_type = :session_type, hours_per_week = :hours_per_week, department = :department, instructor_ids = :instructor_ids, prerequisites = :prerequisites, section_size = :section_size, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete removes a course record.
func (r *CourseRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM courses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return nil
}
