package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/greentrace/greentrace-api/internal/models"
	appErrors "github.com/greentrace/greentrace-api/pkg/errors"
)

type ledgerStub struct {
	transactions []models.PointsTransaction
	sum          int
}

func (s ledgerStub) ListByCompany(ctx context.Context, companyID string, page, pageSize int) ([]models.PointsTransaction, int, error) {
	return s.transactions, len(s.transactions), nil
}

func (s ledgerStub) ListAllByCompany(ctx context.Context, companyID string) ([]models.PointsTransaction, error) {
	return s.transactions, nil
}

func (s ledgerStub) SumByCompany(ctx context.Context, companyID string) (int, error) {
	return s.sum, nil
}

type balanceStub struct {
	company *models.Company
	err     error
}

func (s balanceStub) FindByID(ctx context.Context, id string) (*models.Company, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.company, nil
}

func TestBuildAwardBelowBenchmark(t *testing.T) {
	svc := NewPointsService(nil, nil, DefaultBenchmarks(), zap.NewNop())

	// (15000-7500)/15000*100 = 50% saved, times 10 is 500 points.
	award := svc.BuildAward(models.IndustryTechnology, 7500)
	require.NotNil(t, award)
	require.Equal(t, 500, award.Points)
	require.Equal(t, models.TransactionEarned, award.Type)
	require.NotNil(t, award.Reason)
	require.Equal(t, "CALCULATION", *award.Reason)
}

func TestBuildAwardTruncatesTowardZero(t *testing.T) {
	svc := NewPointsService(nil, nil, DefaultBenchmarks(), zap.NewNop())

	// (15000-920)/15000*100*10 = 938.666..., truncated to 938.
	award := svc.BuildAward(models.IndustryTechnology, 920)
	require.NotNil(t, award)
	require.Equal(t, 938, award.Points)
}

func TestBuildAwardAtOrAboveBenchmark(t *testing.T) {
	svc := NewPointsService(nil, nil, DefaultBenchmarks(), zap.NewNop())

	exact := svc.BuildAward(models.IndustryTechnology, 15000)
	require.NotNil(t, exact)
	require.Equal(t, 50, exact.Points)

	above := svc.BuildAward(models.IndustryManufacturing, 90000)
	require.NotNil(t, above)
	require.Equal(t, 50, above.Points)
}

func TestBuildAwardUsesDefaultBenchmark(t *testing.T) {
	svc := NewPointsService(nil, nil, DefaultBenchmarks(), zap.NewNop())

	// FINANCE has no explicit benchmark; the default of 25000 applies.
	award := svc.BuildAward(models.IndustryFinance, 12500)
	require.NotNil(t, award)
	require.Equal(t, 500, award.Points)
}

func TestBuildAwardZeroEmissions(t *testing.T) {
	svc := NewPointsService(nil, nil, DefaultBenchmarks(), zap.NewNop())

	award := svc.BuildAward(models.IndustryRetail, 0)
	require.NotNil(t, award)
	require.Equal(t, 1000, award.Points)
}

func TestBalanceReadsCompanyAggregate(t *testing.T) {
	companies := balanceStub{company: &models.Company{ID: "co-1", GreenPoints: 1234}}
	svc := NewPointsService(ledgerStub{}, companies, DefaultBenchmarks(), zap.NewNop())

	balance, err := svc.Balance(context.Background(), "co-1")
	require.NoError(t, err)
	require.Equal(t, 1234, balance)
}

func TestBalanceCompanyNotFound(t *testing.T) {
	svc := NewPointsService(ledgerStub{}, balanceStub{err: sql.ErrNoRows}, DefaultBenchmarks(), zap.NewNop())

	_, err := svc.Balance(context.Background(), "missing")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestBalanceMatchesLedgerSum(t *testing.T) {
	companies := balanceStub{company: &models.Company{ID: "co-1", GreenPoints: 988}}
	svc := NewPointsService(ledgerStub{sum: 988}, companies, DefaultBenchmarks(), zap.NewNop())

	balance, err := svc.Balance(context.Background(), "co-1")
	require.NoError(t, err)
	sum, err := svc.LedgerSum(context.Background(), "co-1")
	require.NoError(t, err)
	require.Equal(t, balance, sum)
}

func TestHistoryClampsPaging(t *testing.T) {
	svc := NewPointsService(ledgerStub{}, balanceStub{}, DefaultBenchmarks(), zap.NewNop())

	_, pagination, err := svc.History(context.Background(), "co-1", -3, 5000)
	require.NoError(t, err)
	require.Equal(t, 1, pagination.Page)
	require.Equal(t, 10, pagination.PageSize)
}
