package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/greentrace/greentrace-api/internal/models"
	appErrors "github.com/greentrace/greentrace-api/pkg/errors"
)

const (
	awardReasonCalculation    = "CALCULATION"
	awardDescriptionEarned    = "Points earned for carbon footprint calculation"
	participationFloorPoints  = 50
	pointsPerSavedPercentUnit = 10
)

// BenchmarkTable maps industries to their reference monthly emissions
// (kg CO2). Industries without an explicit entry fall back to Default.
type BenchmarkTable struct {
	Benchmarks map[models.Industry]float64
	Default    float64
}

// DefaultBenchmarks returns the standard benchmark set.
func DefaultBenchmarks() BenchmarkTable {
	return BenchmarkTable{
		Benchmarks: map[models.Industry]float64{
			models.IndustryTechnology:    15000,
			models.IndustryManufacturing: 45000,
			models.IndustryRetail:        25000,
		},
		Default: 25000,
	}
}

// For returns the benchmark for an industry, falling back to the default.
func (t BenchmarkTable) For(industry models.Industry) float64 {
	if benchmark, ok := t.Benchmarks[industry]; ok {
		return benchmark
	}
	return t.Default
}

type pointsLedgerReader interface {
	ListByCompany(ctx context.Context, companyID string, page, pageSize int) ([]models.PointsTransaction, int, error)
	ListAllByCompany(ctx context.Context, companyID string) ([]models.PointsTransaction, error)
	SumByCompany(ctx context.Context, companyID string) (int, error)
}

type balanceReader interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
}

// PointsService owns the rewards policy and the points ledger read side.
type PointsService struct {
	ledger     pointsLedgerReader
	companies  balanceReader
	benchmarks BenchmarkTable
	logger     *zap.Logger
}

// NewPointsService constructs a PointsService.
func NewPointsService(ledger pointsLedgerReader, companies balanceReader, benchmarks BenchmarkTable, logger *zap.Logger) *PointsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PointsService{ledger: ledger, companies: companies, benchmarks: benchmarks, logger: logger}
}

// BuildAward converts a calculation outcome into a points ledger entry.
// Below the industry benchmark, the award is 10 points per percent saved,
// truncated toward zero; at or above it, a flat participation floor. A
// non-positive award yields no entry.
func (s *PointsService) BuildAward(industry models.Industry, totalEmissions float64) *models.PointsTransaction {
	points := s.calculatePoints(industry, totalEmissions)
	if points <= 0 {
		return nil
	}
	description := awardDescriptionEarned
	reason := awardReasonCalculation
	return &models.PointsTransaction{
		Points:      points,
		Type:        models.TransactionEarned,
		Description: &description,
		Reason:      &reason,
	}
}

func (s *PointsService) calculatePoints(industry models.Industry, totalEmissions float64) int {
	benchmark := s.benchmarks.For(industry)
	if totalEmissions < benchmark {
		savingsPercent := (benchmark - totalEmissions) / benchmark * 100
		return int(savingsPercent * pointsPerSavedPercentUnit)
	}
	return participationFloorPoints
}

// Balance returns the company's current green points balance.
func (s *PointsService) Balance(ctx context.Context, companyID string) (int, error) {
	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	return company.GreenPoints, nil
}

// LedgerSum returns the signed sum of the company's points ledger. Equals the
// cached balance unless the store has been tampered with out of band.
func (s *PointsService) LedgerSum(ctx context.Context, companyID string) (int, error) {
	sum, err := s.ledger.SumByCompany(ctx, companyID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sum points ledger")
	}
	return sum, nil
}

// History returns a page of the company's points ledger, newest first.
func (s *PointsService) History(ctx context.Context, companyID string, page, pageSize int) ([]models.PointsTransaction, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	transactions, total, err := s.ledger.ListByCompany(ctx, companyID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load points history")
	}
	return transactions, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// AllTransactions returns the company's full points ledger, newest first.
func (s *PointsService) AllTransactions(ctx context.Context, companyID string) ([]models.PointsTransaction, error) {
	transactions, err := s.ledger.ListAllByCompany(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load points transactions")
	}
	return transactions, nil
}
