package service

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/greentrace/greentrace-api/internal/models"
	"github.com/greentrace/greentrace-api/internal/repository"
	appErrors "github.com/greentrace/greentrace-api/pkg/errors"
	"github.com/greentrace/greentrace-api/pkg/jobs"
)

const reportJobType = "footprint-report"

type reportJobRepository interface {
	Create(ctx context.Context, job *models.ReportJob) error
	GetByID(ctx context.Context, id string) (*models.ReportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

type reportMetrics interface {
	RecordReportJob(format, outcome string)
}

// ReportService owns the asynchronous export workflow: jobs are persisted
// QUEUED, dispatched to the worker pool, and transition to FINISHED or FAILED
// exactly once.
type ReportService struct {
	repo    reportJobRepository
	exports *ExportService
	queue   jobEnqueuer
	metrics reportMetrics
	logger  *zap.Logger
}

// NewReportService constructs a ReportService. The queue is wired afterwards
// because the queue handler needs the service.
func NewReportService(repo reportJobRepository, exports *ExportService, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{repo: repo, exports: exports, logger: logger}
}

// SetQueue wires the background dispatcher. Must be called before CreateJob.
func (s *ReportService) SetQueue(queue jobEnqueuer) {
	s.queue = queue
}

// SetMetrics wires report outcome metrics. Optional.
func (s *ReportService) SetMetrics(m reportMetrics) {
	s.metrics = m
}

// CreateJob persists a QUEUED export job for the company and dispatches it.
// The row survives a crash between persist and dispatch; recovery re-enqueues
// it on startup.
func (s *ReportService) CreateJob(ctx context.Context, companyID string, format models.ReportFormat) (*models.ReportJob, error) {
	if format != models.ReportFormatCSV && format != models.ReportFormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "report exports are disabled")
	}

	job := &models.ReportJob{
		CompanyID: companyID,
		Format:    format,
		Status:    models.ReportStatusQueued,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType}); err != nil {
		s.logger.Warn("failed to dispatch report job, will be recovered", zap.String("job_id", job.ID), zap.Error(err))
	}
	return job, nil
}

// GetStatus returns a job's state, scoped to the owning company.
func (s *ReportService) GetStatus(ctx context.Context, companyID, jobID string) (*models.ReportJob, error) {
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report job")
	}
	if job.CompanyID != companyID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
	}
	return job, nil
}

// ResolveDownload validates a signed token and opens the underlying file.
func (s *ReportService) ResolveDownload(token string) (*os.File, models.ReportFormat, error) {
	file, format, err := s.exports.Open(token)
	if err != nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "download link is invalid or expired")
	}
	return file, format, nil
}

// Process is the queue handler: it generates the export and finalises the job
// row. A failed generation marks the job FAILED; the queue's retry policy is
// not used because the row already records the terminal outcome.
func (s *ReportService) Process(ctx context.Context, queued jobs.Job) error {
	job, err := s.repo.GetByID(ctx, queued.ID)
	if err != nil {
		s.logger.Error("report job disappeared", zap.String("job_id", queued.ID), zap.Error(err))
		return nil
	}
	if job.Status != models.ReportStatusQueued {
		return nil
	}

	processing := models.ReportStatusProcessing
	if err := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{Status: &processing}); err != nil {
		s.logger.Error("failed to mark report job processing", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}

	result, genErr := s.exports.Generate(ctx, job)
	now := time.Now().UTC()

	if genErr != nil {
		failed := models.ReportStatusFailed
		message := genErr.Error()
		if err := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
			Status:       &failed,
			ErrorMessage: &message,
			FinishedAt:   &now,
		}); err != nil {
			s.logger.Error("failed to mark report job failed", zap.String("job_id", job.ID), zap.Error(err))
		}
		if s.metrics != nil {
			s.metrics.RecordReportJob(string(job.Format), "failed")
		}
		s.logger.Warn("report generation failed", zap.String("job_id", job.ID), zap.Error(genErr))
		return nil
	}

	finished := models.ReportStatusFinished
	if err := s.repo.Update(ctx, job.ID, repository.UpdateReportJobParams{
		Status:     &finished,
		ResultURL:  &result.URL,
		FinishedAt: &now,
	}); err != nil {
		s.logger.Error("failed to finalise report job", zap.String("job_id", job.ID), zap.Error(err))
		return nil
	}
	if s.metrics != nil {
		s.metrics.RecordReportJob(string(job.Format), "finished")
	}
	return nil
}

// RecoverPendingJobs re-enqueues QUEUED rows left over from a previous run.
func (s *ReportService) RecoverPendingJobs(ctx context.Context) error {
	if s.queue == nil {
		return nil
	}
	pending, err := s.repo.ListQueued(ctx, 100)
	if err != nil {
		return err
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: reportJobType}); err != nil {
			s.logger.Warn("failed to recover report job", zap.String("job_id", job.ID), zap.Error(err))
		}
	}
	if len(pending) > 0 {
		s.logger.Info("recovered pending report jobs", zap.Int("count", len(pending)))
	}
	return nil
}

// StartCleanup periodically removes expired export files until the context is
// cancelled.
func (s *ReportService) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := s.exports.Cleanup()
				if err != nil {
					s.logger.Warn("export cleanup failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					s.logger.Info("expired exports removed", zap.Int("count", removed))
				}
			}
		}
	}()
}
