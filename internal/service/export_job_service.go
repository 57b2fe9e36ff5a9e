package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushub/scheduling-api/internal/dto"
	"github.com/campushub/scheduling-api/internal/models"
	"github.com/campushub/scheduling-api/pkg/config"
	appErrors "github.com/campushub/scheduling-api/pkg/errors"
	"github.com/campushub/scheduling-api/pkg/jobs"
)

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type exportGenerator interface {
	Generate(ctx context.Context, job *models.ExportJob) (*ExportResult, error)
}

// exportJobStore keeps job records in memory. Rendered files on disk are the
// durable output; job metadata does not survive a restart.
type exportJobStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.ExportJob
}

func newExportJobStore() *exportJobStore {
	return &exportJobStore{jobs: make(map[string]*models.ExportJob)}
}

func (s *exportJobStore) put(job *models.ExportJob) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *exportJobStore) get(id string) (*models.ExportJob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, false
	}
	copied := *job
	return &copied, true
}

func (s *exportJobStore) update(id string, fn func(job *models.ExportJob)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if job, ok := s.jobs[id]; ok {
		fn(job)
	}
}

func (s *exportJobStore) pruneOlderThan(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pruned := 0
	for id, job := range s.jobs {
		if job.CreatedAt.Before(cutoff) && (job.Status == models.ExportStatusFinished || job.Status == models.ExportStatusFailed) {
			delete(s.jobs, id)
			pruned++
		}
	}
	return pruned
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// ExportJobService owns the export job lifecycle: accept a request, hand it
// to the queue, track status, and resolve signed downloads.
type ExportJobService struct {
	store     *exportJobStore
	queue     jobDispatcher
	generator *ExportService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       config.ExportConfig
}

// NewExportJobService constructs the orchestrator.
func NewExportJobService(
	queue jobDispatcher,
	generator *ExportService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg config.ExportConfig,
) (*ExportJobService, *ExportWorker) {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	store := newExportJobStore()
	svc := &ExportJobService{
		store:     store,
		queue:     queue,
		generator: generator,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
	worker := &ExportWorker{
		store:     store,
		generator: generator,
		metrics:   metrics,
		logger:    logger,
	}
	return svc, worker
}

// SetQueue attaches the dispatcher after queue construction. The queue needs
// the worker handler before it exists, so wiring happens in two steps.
func (s *ExportJobService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// CreateJob validates the request, records the job and enqueues rendering.
func (s *ExportJobService) CreateJob(ctx context.Context, req dto.ExportRequest) (*dto.ExportJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export payload")
	}
	kind := models.ExportKind(req.Kind)
	format := models.ExportFormat(req.Format)
	if format == models.ExportFormatPDF && !s.cfg.PDFEnabled {
		return nil, appErrors.Clone(appErrors.ErrValidation, "pdf export is disabled")
	}
	if req.TargetID == "" && kind != models.ExportKindExamSchedule {
		return nil, appErrors.Clone(appErrors.ErrValidation, "targetId is required")
	}

	job := &models.ExportJob{
		ID:        uuid.NewString(),
		Kind:      kind,
		Format:    format,
		TargetID:  req.TargetID,
		Status:    models.ExportStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	s.store.put(job)

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Kind)}); err != nil {
		s.store.update(job.ID, func(j *models.ExportJob) {
			j.Status = models.ExportStatusFailed
			j.Error = "failed to enqueue export"
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "enqueue export job")
	}

	return &dto.ExportJobResponse{JobID: job.ID, Status: string(job.Status)}, nil
}

// Status reports job progress and the signed URL once finished.
func (s *ExportJobService) Status(id string) (*dto.ExportJobResponse, error) {
	job, ok := s.store.get(id)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &dto.ExportJobResponse{
		JobID:     job.ID,
		Status:    string(job.Status),
		URL:       job.ResultURL,
		ExpiresAt: job.ExpiresAt,
		Error:     job.Error,
	}, nil
}

// ResolveDownload validates the token and opens the stored file.
func (s *ExportJobService) ResolveDownload(token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.generator.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, ok := s.store.get(jobID)
	if ok {
		if job.Status != models.ExportStatusFinished {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
		}
		if !strings.HasSuffix(job.ResultURL, token) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
		}
	}
	file, err := s.generator.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "open export file")
	}
	return &ExportDownload{
		File:      file,
		Filename:  filepath.Base(relPath),
		ExpiresAt: expiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired files and job records.
func (s *ExportJobService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.generator.Cleanup(s.cfg.ResultTTL)
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				pruned := s.store.pruneOlderThan(time.Now().Add(-s.cfg.ResultTTL))
				if len(removed) > 0 || pruned > 0 {
					s.logger.Info("export cleanup",
						zap.Int("files_removed", len(removed)),
						zap.Int("jobs_pruned", pruned),
					)
				}
			}
		}
	}()
}

// ExportWorker bridges queue jobs to the generator.
type ExportWorker struct {
	store     *exportJobStore
	generator exportGenerator
	metrics   *MetricsService
	logger    *zap.Logger
}

// Handle processes one queued export.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, ok := w.store.get(job.ID)
	if !ok {
		w.logger.Warn("export job vanished", zap.String("job_id", job.ID))
		return nil
	}
	w.store.update(job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportStatusProcessing
	})

	result, err := w.generator.Generate(ctx, record)
	if err != nil {
		w.store.update(job.ID, func(j *models.ExportJob) {
			j.Status = models.ExportStatusFailed
			j.Error = err.Error()
		})
		if w.metrics != nil {
			w.metrics.ObserveExport(string(record.Kind), "failure")
		}
		w.logger.Error("export failed",
			zap.String("job_id", job.ID),
			zap.String("kind", string(record.Kind)),
			zap.Error(err),
		)
		return err
	}

	w.store.update(job.ID, func(j *models.ExportJob) {
		j.Status = models.ExportStatusFinished
		j.ResultURL = result.URL
		j.ExpiresAt = &result.ExpiresAt
		j.Error = ""
	})
	if w.metrics != nil {
		w.metrics.ObserveExport(string(record.Kind), "success")
	}
	w.logger.Info("export finished",
		zap.String("job_id", job.ID),
		zap.String("kind", string(record.Kind)),
		zap.String("file", result.RelativePath),
	)
	return nil
}
