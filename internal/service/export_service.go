package service

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/greentrace/greentrace-api/internal/models"
	"github.com/greentrace/greentrace-api/pkg/export"
	"github.com/greentrace/greentrace-api/pkg/storage"
)

type exportHistoryReader interface {
	ListAllByCompany(ctx context.Context, companyID string) ([]models.FootprintRecord, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService renders a company's footprint history into downloadable
// report files.
type ExportService struct {
	footprints exportHistoryReader
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(footprints exportHistoryReader, files fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		footprints: footprints,
		storage:    files,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate builds the dataset for a job, renders it and stores the file,
// returning the signed download metadata.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}

	dataset, err := s.buildDataset(ctx, job.CompanyID)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, "Carbon Footprint History")
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("reports/%s.%s", job.ID, job.Format)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}

	result := &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          fmt.Sprintf("%s/export/%s", s.cfg.APIPrefix, token),
		Format:       job.Format,
		ExpiresAt:    expiresAt,
	}

	s.logger.Info("report generated",
		zap.String("job_id", job.ID),
		zap.String("company_id", job.CompanyID),
		zap.String("format", string(job.Format)),
		zap.Int("bytes", len(payload)),
	)
	return result, nil
}

// Open resolves a signed token to the stored file.
func (s *ExportService) Open(token string) (*os.File, models.ReportFormat, error) {
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", err
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", err
	}
	format := models.ReportFormatCSV
	if len(relPath) > 4 && relPath[len(relPath)-4:] == ".pdf" {
		format = models.ReportFormatPDF
	}
	return file, format, nil
}

// Cleanup removes export files older than the result TTL.
func (s *ExportService) Cleanup() (int, error) {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		return 0, err
	}
	return len(deleted), nil
}

func (s *ExportService) buildDataset(ctx context.Context, companyID string) (export.Dataset, error) {
	records, err := s.footprints.ListAllByCompany(ctx, companyID)
	if err != nil {
		return export.Dataset{}, fmt.Errorf("load footprint history: %w", err)
	}

	dataset := export.Dataset{
		Headers: []string{"Period", "Calculated At", "Scope 1 (kg CO2)", "Scope 2 (kg CO2)", "Scope 3 (kg CO2)", "Total (kg CO2)"},
		Rows:    make([][]string, 0, len(records)),
	}
	for _, record := range records {
		dataset.Rows = append(dataset.Rows, []string{
			record.CalculationPeriod,
			record.CreatedAt.UTC().Format(time.RFC3339),
			formatEmissions(record.Scope1Emissions),
			formatEmissions(record.Scope2Emissions),
			formatEmissions(record.Scope3Emissions),
			formatEmissions(record.TotalEmissions),
		})
	}
	return dataset, nil
}

func formatEmissions(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
