package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/engine"
	"github.com/campushub/scheduling-api/internal/models"
	"github.com/campushub/scheduling-api/pkg/config"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
)

type timetableStore interface {
	List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	Create(ctx context.Context, timetable *models.Timetable) error
	UpdateStatus(ctx context.Context, id string, status models.SolveStatus) error
	ReplaceSessions(ctx context.Context, id string, status models.SolveStatus, sessions []models.Session) error
	ListSessions(ctx context.Context, id string) ([]models.Session, error)
	DeleteSessions(ctx context.Context, id string) (int, error)
}

type courseCatalog interface {
	ListAll(ctx context.Context) ([]models.Course, error)
}

type instructorRoster interface {
	ListAllWithAvailability(ctx context.Context) ([]models.Instructor, error)
}

type roomInventory interface {
	ListAllWithAvailability(ctx context.Context) ([]models.Room, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// operationLocks serialises mutating operations per timetable. A second
// caller does not queue behind the first; it is rejected immediately.
type operationLocks struct {
	mu     sync.Mutex
	locked map[string]struct{}
}

func newOperationLocks() *operationLocks {
	return &operationLocks{locked: make(map[string]struct{})}
}

func (l *operationLocks) tryAcquire(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.locked[id]; busy {
		return false
	}
	l.locked[id] = struct{}{}
	return true
}

func (l *operationLocks) release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.locked, id)
}

// TimetableService owns the solve, inspect and clear lifecycle of
// timetables.
type TimetableService struct {
	timetables  timetableStore
	courses     courseCatalog
	instructors instructorRoster
	rooms       roomInventory
	cache       statsCache
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         config.SolverConfig
	locks       *operationLocks
}

// NewTimetableService wires the solver dependencies.
func NewTimetableService(
	timetables timetableStore,
	courses courseCatalog,
	instructors instructorRoster,
	rooms roomInventory,
	cache statsCache,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.SolverConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimetableService{
		timetables:  timetables,
		courses:     courses,
		instructors: instructors,
		rooms:       rooms,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		locks:       newOperationLocks(),
	}
}

// Create registers a new empty timetable.
func (s *TimetableService) Create(ctx context.Context, req dto.CreateTimetableRequest) (*models.Timetable, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable payload")
	}

	constraints, err := s.constraintsFromCreate(req)
	if err != nil {
		return nil, err
	}
	doc, err := json.Marshal(constraints)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "encode constraints")
	}

	timetable := &models.Timetable{
		Name:        req.Name,
		Semester:    req.Semester,
		Sections:    pq.StringArray(req.Sections),
		Status:      models.SolveUnsolved,
		Constraints: types.JSONText(doc),
	}
	if err := s.timetables.Create(ctx, timetable); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "create timetable")
	}
	return timetable, nil
}

// List returns timetables with pagination metadata.
func (s *TimetableService) List(ctx context.Context, filter models.TimetableFilter) ([]models.Timetable, int, error) {
	timetables, total, err := s.timetables.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list timetables")
	}
	return timetables, total, nil
}

// Get fetches one timetable with its sessions attached.
func (s *TimetableService) Get(ctx context.Context, id string) (*models.Timetable, []models.Session, error) {
	timetable, err := s.findTimetable(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	sessions, err := s.timetables.ListSessions(ctx, id)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list sessions")
	}
	return timetable, sessions, nil
}

// Solve runs one full solve pass for the timetable and atomically replaces
// its sessions. While a solve is running, other mutating calls for the same
// timetable are rejected with OPERATION_IN_PROGRESS.
func (s *TimetableService) Solve(ctx context.Context, id string, req dto.SolveTimetableRequest) (*dto.SolveTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid solve payload")
	}

	timetable, err := s.findTimetable(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.locks.tryAcquire(id) {
		return nil, appErrors.ErrOperationInProgress
	}
	defer s.locks.release(id)

	constraints, err := s.resolveConstraints(timetable, req)
	if err != nil {
		return nil, err
	}

	if err := s.timetables.UpdateStatus(ctx, id, models.SolveSolving); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "mark timetable solving")
	}

	started := time.Now()
	result, sessions, err := s.runSolve(ctx, id, constraints)
	if err != nil {
		// Roll the lifecycle back so the timetable is not stuck in SOLVING.
		if stErr := s.timetables.UpdateStatus(ctx, id, timetable.Status); stErr != nil {
			s.logger.Error("restore timetable status", zap.String("timetable_id", id), zap.Error(stErr))
		}
		return nil, err
	}

	if err := s.timetables.ReplaceSessions(ctx, id, result.Status, sessions); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "persist sessions")
	}
	s.invalidateStats(ctx, id)
	if s.metrics != nil {
		s.metrics.ObserveSolve(string(result.Status), time.Since(started), len(sessions), len(result.Unresolved))
	}

	s.logger.Info("timetable solved",
		zap.String("timetable_id", id),
		zap.String("status", string(result.Status)),
		zap.Int("sessions", len(sessions)),
		zap.Int("unresolved", len(result.Unresolved)),
		zap.Duration("took", time.Since(started)),
	)

	return &dto.SolveTimetableResponse{
		TimetableID: id,
		Status:      result.Status,
		Sessions:    sessions,
		Unresolved:  result.Unresolved,
		Warnings:    result.Warnings,
	}, nil
}

// Conflicts scans the timetable's persisted sessions for invariant
// violations without mutating anything.
func (s *TimetableService) Conflicts(ctx context.Context, id string) (*dto.ConflictsResponse, error) {
	timetable, err := s.findTimetable(ctx, id)
	if err != nil {
		return nil, err
	}
	sessions, err := s.timetables.ListSessions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list sessions")
	}
	rooms, err := s.rooms.ListAllWithAvailability(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list rooms")
	}
	roomsByID := make(map[string]models.Room, len(rooms))
	for _, room := range rooms {
		roomsByID[room.ID] = room
	}

	constraints, err := decodeConstraints(timetable.Constraints)
	if err != nil {
		return nil, err
	}

	conflicts := engine.DetectConflicts(sessions, roomsByID, constraints)
	if s.metrics != nil {
		s.metrics.ObserveConflictScan(len(conflicts))
	}
	return &dto.ConflictsResponse{TimetableID: id, Conflicts: conflicts}, nil
}

// Statistics aggregates the timetable rollup, served from cache when fresh.
func (s *TimetableService) Statistics(ctx context.Context, id string) (*dto.StatisticsResponse, error) {
	if _, err := s.findTimetable(ctx, id); err != nil {
		return nil, err
	}

	key := statsCacheKey(id)
	if s.cfg.StatisticsCached && s.cache != nil {
		var cached engine.Statistics
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &dto.StatisticsResponse{TimetableID: id, Cached: true, Statistics: cached}, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("statistics cache read failed", zap.String("timetable_id", id), zap.Error(err))
		}
	}

	sessions, err := s.timetables.ListSessions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list sessions")
	}
	stats := engine.ComputeStatistics(sessions)

	if s.cfg.StatisticsCached && s.cache != nil {
		if err := s.cache.Set(ctx, key, stats, s.cfg.StatisticsTTL); err != nil {
			s.logger.Warn("statistics cache write failed", zap.String("timetable_id", id), zap.Error(err))
		}
	}
	return &dto.StatisticsResponse{TimetableID: id, Cached: false, Statistics: stats}, nil
}

// Clear removes every session of the timetable and resets its solve state.
func (s *TimetableService) Clear(ctx context.Context, id string) (*dto.ClearTimetableResponse, error) {
	if _, err := s.findTimetable(ctx, id); err != nil {
		return nil, err
	}
	if !s.locks.tryAcquire(id) {
		return nil, appErrors.ErrOperationInProgress
	}
	defer s.locks.release(id)

	deleted, err := s.timetables.DeleteSessions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "clear timetable")
	}
	s.invalidateStats(ctx, id)
	return &dto.ClearTimetableResponse{TimetableID: id, SessionsDeleted: deleted}, nil
}

// --- Internals ---

func (s *TimetableService) runSolve(ctx context.Context, id string, constraints models.TimetableConstraints) (*engine.SolveResult, []models.Session, error) {
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list courses")
	}
	instructors, err := s.instructors.ListAllWithAvailability(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list instructors")
	}
	rooms, err := s.rooms.ListAllWithAvailability(ctx)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "list rooms")
	}

	matrix, err := engine.BuildMatrix(instructors, rooms, constraints.WorkingHours, constraints.Breaks)
	if err != nil {
		return nil, nil, translateEngineError(err)
	}
	expanded, err := engine.ExpandDemand(courses, instructors, rooms, constraints.MinSectionSize)
	if err != nil {
		return nil, nil, translateEngineError(err)
	}
	grid, err := engine.BuildSlotGrid(constraints)
	if err != nil {
		return nil, nil, translateEngineError(err)
	}

	caps := make(map[string]int, len(instructors))
	for _, inst := range instructors {
		if inst.MaxHoursWeek > 0 {
			caps[inst.ID] = inst.MaxHoursWeek * 60
		}
	}

	result := engine.Solve(engine.SolveInput{
		Demands:          expanded.Demands,
		Matrix:           matrix,
		Grid:             grid,
		MaxWeeklyMinutes: caps,
	})
	result.Warnings = append(expanded.Warnings, result.Warnings...)

	sessions := make([]models.Session, 0, len(result.Placements))
	for _, p := range result.Placements {
		sessions = append(sessions, models.Session{
			TimetableID:  id,
			CourseCode:   p.Demand.CourseCode,
			Sequence:     p.Demand.Sequence,
			Type:         p.Demand.Type,
			Day:          p.Day,
			Range:        p.Range,
			RoomID:       p.RoomID,
			InstructorID: p.InstructorID,
			SectionSize:  p.Demand.SectionSize,
			ColorTag:     p.Demand.ColorTag,
		})
	}
	return &result, sessions, nil
}

func (s *TimetableService) findTimetable(ctx context.Context, id string) (*models.Timetable, error) {
	timetable, err := s.timetables.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "load timetable")
	}
	return timetable, nil
}

// resolveConstraints layers request overrides over the stored constraint
// document, falling back to server defaults for anything still unset.
func (s *TimetableService) resolveConstraints(timetable *models.Timetable, req dto.SolveTimetableRequest) (models.TimetableConstraints, error) {
	constraints, err := decodeConstraints(timetable.Constraints)
	if err != nil {
		return models.TimetableConstraints{}, err
	}

	if req.WorkingHoursStart != "" {
		start, err := engine.ParseClock(req.WorkingHoursStart)
		if err != nil {
			return models.TimetableConstraints{}, appErrors.Clone(appErrors.ErrValidation, "invalid workingHoursStart")
		}
		constraints.WorkingHours.Start = start
	}
	if req.WorkingHoursEnd != "" {
		end, err := engine.ParseClock(req.WorkingHoursEnd)
		if err != nil {
			return models.TimetableConstraints{}, appErrors.Clone(appErrors.ErrValidation, "invalid workingHoursEnd")
		}
		constraints.WorkingHours.End = end
	}
	if req.SlotMinutes > 0 {
		constraints.SlotMinutes = req.SlotMinutes
	}
	if len(req.Days) > 0 {
		constraints.Days = toDays(req.Days)
	}
	if len(req.Breaks) > 0 {
		breaks, err := toBreaks(req.Breaks)
		if err != nil {
			return models.TimetableConstraints{}, err
		}
		constraints.Breaks = breaks
	}
	if req.MinSectionSize > 0 {
		constraints.MinSectionSize = req.MinSectionSize
	}

	s.applyDefaults(&constraints)
	if !constraints.WorkingHours.Valid() {
		return models.TimetableConstraints{}, appErrors.ErrInvalidAvailabilityWindow
	}
	return constraints, nil
}

func (s *TimetableService) constraintsFromCreate(req dto.CreateTimetableRequest) (models.TimetableConstraints, error) {
	constraints := models.TimetableConstraints{
		SlotMinutes:    req.SlotMinutes,
		Days:           toDays(req.Days),
		MinSectionSize: req.MinSectionSize,
	}
	if len(req.Breaks) > 0 {
		breaks, err := toBreaks(req.Breaks)
		if err != nil {
			return models.TimetableConstraints{}, err
		}
		constraints.Breaks = breaks
	}
	s.applyDefaults(&constraints)
	return constraints, nil
}

func (s *TimetableService) applyDefaults(constraints *models.TimetableConstraints) {
	if constraints.WorkingHours.Start == 0 && constraints.WorkingHours.End == 0 {
		if start, err := engine.ParseClock(s.cfg.WorkingDayStart); err == nil {
			constraints.WorkingHours.Start = start
		}
		if end, err := engine.ParseClock(s.cfg.WorkingDayEnd); err == nil {
			constraints.WorkingHours.End = end
		}
	}
	if constraints.SlotMinutes <= 0 {
		constraints.SlotMinutes = s.cfg.SlotMinutes
	}
	if constraints.MinSectionSize <= 0 {
		constraints.MinSectionSize = s.cfg.MinSectionSize
	}
}

func (s *TimetableService) invalidateStats(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, statsCacheKey(id)); err != nil {
		s.logger.Warn("statistics cache invalidation failed", zap.String("timetable_id", id), zap.Error(err))
	}
}

func statsCacheKey(id string) string {
	return fmt.Sprintf("timetable:%s:stats", id)
}

func decodeConstraints(doc types.JSONText) (models.TimetableConstraints, error) {
	var constraints models.TimetableConstraints
	if len(doc) == 0 {
		return constraints, nil
	}
	if err := json.Unmarshal(doc, &constraints); err != nil {
		return constraints, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "decode constraints")
	}
	return constraints, nil
}

func translateEngineError(err error) error {
	switch {
	case errors.Is(err, engine.ErrInvalidWindow):
		return appErrors.Wrap(err, appErrors.ErrInvalidAvailabilityWindow.Code, appErrors.ErrInvalidAvailabilityWindow.Status, appErrors.ErrInvalidAvailabilityWindow.Message)
	case errors.Is(err, engine.ErrUnknownEntity):
		return appErrors.Wrap(err, appErrors.ErrUnknownEntityReference.Code, appErrors.ErrUnknownEntityReference.Status, appErrors.ErrUnknownEntityReference.Message)
	default:
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
}

func toDays(raw []int) []models.DayOfWeek {
	if len(raw) == 0 {
		return nil
	}
	days := make([]models.DayOfWeek, 0, len(raw))
	for _, d := range raw {
		days = append(days, models.DayOfWeek(d))
	}
	return days
}

func toBreaks(raw []dto.BreakTimeRequest) ([]models.BreakTime, error) {
	breaks := make([]models.BreakTime, 0, len(raw))
	for _, b := range raw {
		start, err := engine.ParseClock(b.Start)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid break start")
		}
		end, err := engine.ParseClock(b.End)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid break end")
		}
		breaks = append(breaks, models.BreakTime{
			Day:   models.DayOfWeek(b.Day),
			Range: models.TimeRange{Start: start, End: end},
		})
	}
	return breaks, nil
}
