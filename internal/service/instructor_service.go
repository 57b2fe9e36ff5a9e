package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/engine"
	"github.com/campushub/scheduling-api/internal/models"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
)

type instructorRepository interface {
	List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, int, error)
	FindByID(ctx context.Context, id string) (*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
	ReplaceWindows(ctx context.Context, ownerID string, windows []models.AvailabilityWindow) error
	AddOverride(ctx context.Context, override *models.UnavailableOverride) error
	Delete(ctx context.Context, id string) error
}

// InstructorService handles instructor roster use-cases.
type InstructorService struct {
	repo      instructorRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewInstructorService constructs the instructor service.
func NewInstructorService(repo instructorRepository, validate *validator.Validate, logger *zap.Logger) *InstructorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InstructorService{repo: repo, validator: validate, logger: logger}
}

// List returns instructors and pagination metadata.
func (s *InstructorService) List(ctx context.Context, filter models.InstructorFilter) ([]models.Instructor, *models.Pagination, error) {
	instructors, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list instructors")
	}
	return instructors, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one instructor.
func (s *InstructorService) Get(ctx context.Context, id string) (*models.Instructor, error) {
	instructor, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load instructor")
	}
	return instructor, nil
}

// Create registers an instructor with their weekly availability.
func (s *InstructorService) Create(ctx context.Context, req dto.CreateInstructorRequest) (*models.Instructor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid instructor payload")
	}
	windows, err := toWindowModels(req.Windows)
	if err != nil {
		return nil, err
	}
	overrides, err := toOverrideModels(req.Unavailable)
	if err != nil {
		return nil, err
	}
	instructor := &models.Instructor{
		Name:         req.Name,
		Email:        req.Email,
		Department:   req.Department,
		MaxHoursWeek: req.MaxHoursWeek,
		Windows:      windows,
		Unavailable:  overrides,
	}
	if err := s.repo.Create(ctx, instructor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create instructor")
	}
	return instructor, nil
}

// ReplaceWindows swaps the instructor's declared availability wholesale.
func (s *InstructorService) ReplaceWindows(ctx context.Context, id string, reqs []dto.AvailabilityWindowRequest) (*models.Instructor, error) {
	instructor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	windows, err := toWindowModels(reqs)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ReplaceWindows(ctx, id, windows); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "replace windows")
	}
	instructor.Windows = windows
	return instructor, nil
}

// AddOverride blocks part of the instructor's declared availability.
func (s *InstructorService) AddOverride(ctx context.Context, id string, req dto.UnavailableOverrideRequest) (*models.UnavailableOverride, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid override payload")
	}
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	span, err := toRange(req.Start, req.End)
	if err != nil {
		return nil, err
	}
	override := &models.UnavailableOverride{
		OwnerID: id,
		Day:     models.DayOfWeek(req.Day),
		Range:   span,
		Reason:  req.Reason,
	}
	if err := s.repo.AddOverride(ctx, override); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "add override")
	}
	return override, nil
}

// Delete removes an instructor.
func (s *InstructorService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete instructor")
	}
	return nil
}

func toRange(start, end string) (models.TimeRange, error) {
	from, err := engine.ParseClock(start)
	if err != nil {
		return models.TimeRange{}, appErrors.Clone(appErrors.ErrValidation, "invalid start time")
	}
	to, err := engine.ParseClock(end)
	if err != nil {
		return models.TimeRange{}, appErrors.Clone(appErrors.ErrValidation, "invalid end time")
	}
	span := models.TimeRange{Start: from, End: to}
	if !span.Valid() {
		return models.TimeRange{}, appErrors.ErrInvalidAvailabilityWindow
	}
	return span, nil
}

func toWindowModels(reqs []dto.AvailabilityWindowRequest) ([]models.AvailabilityWindow, error) {
	windows := make([]models.AvailabilityWindow, 0, len(reqs))
	for _, req := range reqs {
		span, err := toRange(req.Start, req.End)
		if err != nil {
			return nil, err
		}
		windows = append(windows, models.AvailabilityWindow{
			Day:   models.DayOfWeek(req.Day),
			Range: span,
		})
	}
	return windows, nil
}

func toOverrideModels(reqs []dto.UnavailableOverrideRequest) ([]models.UnavailableOverride, error) {
	overrides := make([]models.UnavailableOverride, 0, len(reqs))
	for _, req := range reqs {
		span, err := toRange(req.Start, req.End)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, models.UnavailableOverride{
			Day:    models.DayOfWeek(req.Day),
			Range:  span,
			Reason: req.Reason,
		})
	}
	return overrides, nil
}
