package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/models"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
)

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByRollNumber(ctx context.Context, rollNumber string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Enroll(ctx context.Context, courseID string, studentIDs []string) (int, error)
	ListEnrolledByCourse(ctx context.Context, courseID string) ([]models.Student, error)
}

type enrollmentCourseChecker interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

// StudentService handles student registry and enrollment use-cases.
type StudentService struct {
	repo      studentRepository
	courses   enrollmentCourseChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, courses enrollmentCourseChecker, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, courses: courses, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list students")
	}
	return students, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load student")
	}
	return student, nil
}

// Create registers a student.
func (s *StudentService) Create(ctx context.Context, req dto.CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	exists, err := s.repo.ExistsByRollNumber(ctx, req.RollNumber)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check roll number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "roll number already used")
	}
	student := &models.Student{
		RollNumber: req.RollNumber,
		Name:       req.Name,
		Program:    req.Program,
		Batch:      req.Batch,
		Section:    req.Section,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create student")
	}
	return student, nil
}

// Enroll links students to a course, skipping rows already enrolled.
func (s *StudentService) Enroll(ctx context.Context, courseID string, req dto.EnrollRequest) (int, error) {
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load course")
	}
	enrolled, err := s.repo.Enroll(ctx, courseID, req.StudentIDs)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enroll students")
	}
	return enrolled, nil
}

// Enrolled lists the students of one course ordered by roll number.
func (s *StudentService) Enrolled(ctx context.Context, courseID string) ([]models.Student, error) {
	students, err := s.repo.ListEnrolledByCourse(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list enrolled students")
	}
	return students, nil
}
