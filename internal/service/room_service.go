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

type roomRepository interface {
	List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error)
	FindByID(ctx context.Context, id string) (*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
	Delete(ctx context.Context, id string) error
}

// RoomService handles room inventory use-cases.
type RoomService struct {
	repo      roomRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRoomService constructs the room service.
func NewRoomService(repo roomRepository, validate *validator.Validate, logger *zap.Logger) *RoomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoomService{repo: repo, validator: validate, logger: logger}
}

// List returns rooms and pagination metadata.
func (s *RoomService) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, *models.Pagination, error) {
	rooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list rooms")
	}
	return rooms, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one room.
func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load room")
	}
	return room, nil
}

// Create registers a room with optional availability windows.
func (s *RoomService) Create(ctx context.Context, req dto.CreateRoomRequest) (*models.Room, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room payload")
	}
	windows, err := toWindowModels(req.Windows)
	if err != nil {
		return nil, err
	}
	room := &models.Room{
		Building:  req.Building,
		Capacity:  req.Capacity,
		Type:      models.RoomType(req.RoomType),
		Equipment: pq.StringArray(req.Equipment),
		Windows:   windows,
	}
	if err := s.repo.Create(ctx, room); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create room")
	}
	return room, nil
}

// Delete removes a room.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "delete room")
	}
	return nil
}
