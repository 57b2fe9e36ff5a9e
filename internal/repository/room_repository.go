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

const roomColumns = "id, building, capacity, room_type, equipment, created_at, updated_at"

// RoomRepository manages persistence for rooms.
type RoomRepository struct {
	db *sqlx.DB
}

// NewRoomRepository constructs a RoomRepository.
func NewRoomRepository(db *sqlx.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

// List returns rooms matching filters along with total count.
func (r *RoomRepository) List(ctx context.Context, filter models.RoomFilter) ([]models.Room, int, error) {
	base := "FROM rooms WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("room_type = $%d", len(args)+1))
		args = append(args, filter.Type)
	}
	if filter.MinCapacity > 0 {
		conditions = append(conditions, fmt.Sprintf("capacity >= $%d", len(args)+1))
		args = append(args, filter.MinCapacity)
	}
	if filter.Building != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(building) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Building)+"%")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY building ASC, id ASC LIMIT %d OFFSET %d", roomColumns, base, size, offset)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list rooms: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count rooms: %w", err)
	}

	return rooms, total, nil
}

// FindByID fetches a room by ID.
func (r *RoomRepository) FindByID(ctx context.Context, id string) (*models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE id = $1", roomColumns)
	var room models.Room
	if err := r.db.GetContext(ctx, &room, query, id); err != nil {
		return nil, err
	}
	return &room, nil
}

// ListByIDs returns the rooms with the given IDs.
func (r *RoomRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Room, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf("SELECT %s FROM rooms WHERE id = ANY($1) ORDER BY id ASC", roomColumns)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list rooms by ids: %w", err)
	}
	return rooms, nil
}

// ListAllWithAvailability returns every room with its windows attached.
func (r *RoomRepository) ListAllWithAvailability(ctx context.Context) ([]models.Room, error) {
	query := fmt.Sprintf("SELECT %s FROM rooms ORDER BY id ASC", roomColumns)
	var rooms []models.Room
	if err := r.db.SelectContext(ctx, &rooms, query); err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	if len(rooms) == 0 {
		return rooms, nil
	}

	ids := make([]string, len(rooms))
	for i, room := range rooms {
		ids[i] = room.ID
	}
	const windowQuery = `SELECT id, owner_id, day_of_week, start_minute AS "range.start_minute", end_minute AS "range.end_minute"
FROM availability_windows WHERE owner_id = ANY($1) ORDER BY owner_id ASC, day_of_week ASC, start_minute ASC`
	var windows []models.AvailabilityWindow
	if err := r.db.SelectContext(ctx, &windows, windowQuery, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list room windows: %w", err)
	}

	byOwner := make(map[string][]models.AvailabilityWindow)
	for _, w := range windows {
		byOwner[w.OwnerID] = append(byOwner[w.OwnerID], w)
	}
	for i := range rooms {
		rooms[i].Windows = byOwner[rooms[i].ID]
	}
	return rooms, nil
}

// Create inserts a new room and its availability windows.
func (r *RoomRepository) Create(ctx context.Context, room *models.Room) error {
	if room.ID == "" {
		room.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if room.CreatedAt.IsZero() {
		room.CreatedAt = now
	}
	room.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create room: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO rooms (id, building, capacity, room_type, equipment, created_at, updated_at)
		VALUES (:id, :building, :capacity, :room_type, :equipment, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, room); err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	if err := insertWindows(ctx, tx, room.ID, room.Windows); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create room: %w", err)
	}
	return nil
}

// Delete removes a room record.
func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM rooms WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete room: %w", err)
	}
	return nil
}
