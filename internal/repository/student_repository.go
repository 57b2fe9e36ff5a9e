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

const studentColumns = "id, roll_number, name, program, batch, section, created_at, updated_at"

// EnrollmentSummary aggregates one course's enrollment for exam planning.
type EnrollmentSummary struct {
	CourseID   string         `db:"course_id"`
	CourseCode string         `db:"course_code"`
	Enrolled   int            `db:"enrolled"`
	Batches    pq.StringArray `db:"batches"`
}

// StudentRepository manages persistence for students and enrollments.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching filters along with total count.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	base := "FROM students WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Batch != "" {
		conditions = append(conditions, fmt.Sprintf("batch = $%d", len(args)+1))
		args = append(args, filter.Batch)
	}
	if filter.Section != "" {
		conditions = append(conditions, fmt.Sprintf("section = $%d", len(args)+1))
		args = append(args, filter.Section)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(name) LIKE $%d OR LOWER(roll_number) LIKE $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY roll_number ASC LIMIT %d OFFSET %d", studentColumns, base, size, offset)
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}

	return students, total, nil
}

// FindByID fetches a student by ID.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		return nil, err
	}
	return &student, nil
}

// ExistsByRollNumber checks whether a roll number is already taken.
func (r *StudentRepository) ExistsByRollNumber(ctx context.Context, rollNumber string) (bool, error) {
	var exists bool
	const query = `SELECT EXISTS (SELECT 1 FROM students WHERE roll_number = $1)`
	if err := r.db.GetContext(ctx, &exists, query, rollNumber); err != nil {
		return false, fmt.Errorf("check roll number: %w", err)
	}
	return exists, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if student.CreatedAt.IsZero() {
		student.CreatedAt = now
	}
	student.UpdatedAt = now

	const query = `INSERT INTO students (id, roll_number, name, program, batch, section, created_at, updated_at)
		VALUES (:id, :roll_number, :name, :program, :batch, :section, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Enroll links the students to the course, skipping existing pairs.
func (r *StudentRepository) Enroll(ctx context.Context, courseID string, studentIDs []string) (int, error) {
	const query = `INSERT INTO enrollments (id, course_id, student_id, created_at)
		VALUES ($1, $2, $3, $4) ON CONFLICT (course_id, student_id) DO NOTHING`
	now := time.Now().UTC()
	inserted := 0
	for _, studentID := range studentIDs {
		res, err := r.db.ExecContext(ctx, query, uuid.NewString(), courseID, studentID, now)
		if err != nil {
			return inserted, fmt.Errorf("enroll student %s: %w", studentID, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

// ListEnrolledByCourse returns the students enrolled in a course ordered by
// roll number.
func (r *StudentRepository) ListEnrolledByCourse(ctx context.Context, courseID string) ([]models.Student, error) {
	const query = `SELECT s.id, s.roll_number, s.name, s.program, s.batch, s.section, s.created_at, s.updated_at
FROM students s JOIN enrollments e ON e.student_id = s.id
WHERE e.course_id = $1 ORDER BY s.roll_number ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, courseID); err != nil {
		return nil, fmt.Errorf("list enrolled students: %w", err)
	}
	return students, nil
}

// EnrollmentSummaries rolls enrollments up per course. An empty courseIDs
// slice covers every course that has at least one enrollment.
func (r *StudentRepository) EnrollmentSummaries(ctx context.Context, courseIDs []string) ([]EnrollmentSummary, error) {
	query := `SELECT c.id AS course_id, c.code AS course_code, COUNT(e.id) AS enrolled, ARRAY_AGG(DISTINCT s.batch) AS batches
FROM courses c
JOIN enrollments e ON e.course_id = c.id
JOIN students s ON s.id = e.student_id`
	var args []interface{}
	if len(courseIDs) > 0 {
		query += " WHERE c.id = ANY($1)"
		args = append(args, pq.Array(courseIDs))
	}
	query += " GROUP BY c.id, c.code ORDER BY c.code ASC"

	var summaries []EnrollmentSummary
	if err := r.db.SelectContext(ctx, &summaries, query, args...); err != nil {
		return nil, fmt.Errorf("enrollment summaries: %w", err)
	}
	return summaries, nil
}
