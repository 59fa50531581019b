package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greentrace/greentrace-api/internal/models"
	"github.com/greentrace/greentrace-api/internal/repository"
	appErrors "github.com/greentrace/greentrace-api/pkg/errors"
	"github.com/greentrace/greentrace-api/pkg/jobs"
)

type reportRepoStub struct {
	rows map[string]*models.ReportJob
}

func newReportRepoStub() *reportRepoStub {
	return &reportRepoStub{rows: map[string]*models.ReportJob{}}
}

func (s *reportRepoStub) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now().UTC()
	}
	clone := *job
	s.rows[job.ID] = &clone
	return nil
}

func (s *reportRepoStub) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := s.rows[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *job
	return &clone, nil
}

func (s *reportRepoStub) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := s.rows[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *reportRepoStub) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	queued := make([]models.ReportJob, 0)
	for _, job := range s.rows {
		if job.Status == models.ReportStatusQueued && len(queued) < limit {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

type queueStub struct {
	enqueued []jobs.Job
}

func (s *queueStub) Enqueue(job jobs.Job) error {
	s.enqueued = append(s.enqueued, job)
	return nil
}

func newReportServiceForTest(t *testing.T) (*ReportService, *reportRepoStub, *queueStub) {
	t.Helper()
	repo := newReportRepoStub()
	queue := &queueStub{}
	svc := NewReportService(repo, newExportServiceForTest(t), zap.NewNop())
	svc.SetQueue(queue)
	return svc, repo, queue
}

func TestCreateJobPersistsAndDispatches(t *testing.T) {
	svc, repo, queue := newReportServiceForTest(t)

	job, err := svc.CreateJob(context.Background(), "co-1", models.ReportFormatCSV)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusQueued, job.Status)
	require.NotEmpty(t, job.ID)

	stored, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, "co-1", stored.CompanyID)

	require.Len(t, queue.enqueued, 1)
	require.Equal(t, job.ID, queue.enqueued[0].ID)
}

func TestCreateJobRejectsUnknownFormat(t *testing.T) {
	svc, _, _ := newReportServiceForTest(t)

	_, err := svc.CreateJob(context.Background(), "co-1", models.ReportFormat("xlsx"))
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProcessFinishesJob(t *testing.T) {
	svc, repo, queue := newReportServiceForTest(t)

	job, err := svc.CreateJob(context.Background(), "co-1", models.ReportFormatCSV)
	require.NoError(t, err)

	require.NoError(t, svc.Process(context.Background(), queue.enqueued[0]))

	finished, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusFinished, finished.Status)
	require.NotNil(t, finished.ResultURL)
	require.Contains(t, *finished.ResultURL, "/export/")
	require.NotNil(t, finished.FinishedAt)
}

func TestProcessMarksFailedJob(t *testing.T) {
	svc, repo, _ := newReportServiceForTest(t)

	// Seed a row with a format the renderer does not support.
	bad := &models.ReportJob{ID: "job-bad", CompanyID: "co-1", Format: models.ReportFormat("xlsx"), Status: models.ReportStatusQueued}
	require.NoError(t, repo.Create(context.Background(), bad))

	require.NoError(t, svc.Process(context.Background(), jobs.Job{ID: "job-bad"}))

	failed, err := repo.GetByID(context.Background(), "job-bad")
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusFailed, failed.Status)
	require.NotNil(t, failed.ErrorMessage)
	require.NotNil(t, failed.FinishedAt)
}

func TestProcessSkipsNonQueuedJob(t *testing.T) {
	svc, repo, queue := newReportServiceForTest(t)

	job, err := svc.CreateJob(context.Background(), "co-1", models.ReportFormatCSV)
	require.NoError(t, err)
	require.NoError(t, svc.Process(context.Background(), queue.enqueued[0]))

	// A duplicate delivery must not regress the terminal state.
	require.NoError(t, svc.Process(context.Background(), queue.enqueued[0]))
	stored, err := repo.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	require.Equal(t, models.ReportStatusFinished, stored.Status)
}

func TestGetStatusEnforcesOwnership(t *testing.T) {
	svc, _, _ := newReportServiceForTest(t)

	job, err := svc.CreateJob(context.Background(), "co-owner", models.ReportFormatPDF)
	require.NoError(t, err)

	_, err = svc.GetStatus(context.Background(), "co-other", job.ID)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	found, err := svc.GetStatus(context.Background(), "co-owner", job.ID)
	require.NoError(t, err)
	require.Equal(t, job.ID, found.ID)
}

func TestRecoverPendingJobsRequeues(t *testing.T) {
	svc, repo, queue := newReportServiceForTest(t)

	require.NoError(t, repo.Create(context.Background(), &models.ReportJob{ID: "job-x", CompanyID: "co-1", Format: models.ReportFormatCSV, Status: models.ReportStatusQueued}))

	require.NoError(t, svc.RecoverPendingJobs(context.Background()))
	require.Len(t, queue.enqueued, 1)
	require.Equal(t, "job-x", queue.enqueued[0].ID)
}
