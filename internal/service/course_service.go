package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/models"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
)

type courseRepository interface {
	List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error)
	FindByID(ctx context.Context, id string) (*models.Course, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	Delete(ctx context.Context, id string) error
}

// CourseService handles course catalog use-cases.
type CourseService struct {
	repo      courseRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the course service.
func NewCourseService(repo courseRepository, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, validator: validate, logger: logger}
}

// List returns courses and pagination metadata.
func (s *CourseService) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, *models.Pagination, error) {
	courses, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list courses")
	}
	return courses, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load course")
	}
	return course, nil
}

// Create registers a new course.
func (s *CourseService) Create(ctx context.Context, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	exists, err := s.repo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "check course code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "course code already used")
	}
	course := &models.Course{
		Code:          req.Code,
		Name:          req.Name,
		Credits:       req.Credits,
		SessionType:   models.SessionType(req.SessionType),
		HoursPerWeek:  req.HoursPerWeek,
		Department:    req.Department,
		InstructorIDs: pq.StringArray(req.InstructorIDs),
		Prerequisites: pq.StringArray(req.Prerequisites),
		SectionSize:   req.SectionSize,
	}
	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create course")
	}
	return course, nil
}

// Update replaces a course's mutable fields.
func (s *CourseService) Update(ctx context.Context, id string, req dto.CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}
	course, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	course.Code = req.Code
	course.Name = req.Name
	course.Credits = req.Credits
	course.SessionType = models.SessionType(req.SessionType)
	course.HoursPerWeek = req.HoursPerWeek
	course.Department = req.Department
	course.InstructorIDs = pq.StringArray(req.InstructorIDs)
	course.Prerequisites = pq.StringArray(req.Prerequisites)
	course.SectionSize = req.SectionSize
	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "update course")
	}
	return course, nil
}

// Delete removes a course.
func (s *CourseService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete course")
	}
	return nil
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
