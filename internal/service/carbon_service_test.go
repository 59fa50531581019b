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

type companyStub struct {
	company *models.Company
	err     error
}

func (s companyStub) FindByID(ctx context.Context, id string) (*models.Company, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.company, nil
}

type footprintStoreStub struct {
	savedRecord *models.FootprintRecord
	savedAward  *models.PointsTransaction
	record      *models.FootprintRecord
	findErr     error
}

func (s *footprintStoreStub) SaveCalculation(ctx context.Context, record *models.FootprintRecord, award *models.PointsTransaction) error {
	record.ID = "fp-1"
	s.savedRecord = record
	s.savedAward = award
	return nil
}

func (s *footprintStoreStub) FindByID(ctx context.Context, id string) (*models.FootprintRecord, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.record, nil
}

func (s *footprintStoreStub) ListByCompany(ctx context.Context, companyID string, page, pageSize int) ([]models.FootprintRecord, int, error) {
	return nil, 0, nil
}

func (s *footprintStoreStub) ListAllByCompany(ctx context.Context, companyID string) ([]models.FootprintRecord, error) {
	return nil, nil
}

func ptr(v float64) *float64 {
	return &v
}

func newCarbonServiceForTest(company *models.Company, store *footprintStoreStub) *CarbonService {
	rewards := NewPointsService(nil, nil, DefaultBenchmarks(), zap.NewNop())
	return NewCarbonService(companyStub{company: company}, store, rewards, DefaultFactors(), nil, zap.NewNop())
}

func TestCalculateElectricityOnly(t *testing.T) {
	company := &models.Company{ID: "co-1", Industry: models.IndustryTechnology}
	store := &footprintStoreStub{}
	svc := newCarbonServiceForTest(company, store)

	result, err := svc.Calculate(context.Background(), "co-1", models.ActivityInput{
		Electricity:       ptr(1000),
		CalculationPeriod: "2026-01",
	})
	require.NoError(t, err)

	require.InDelta(t, 920.0, result.TotalEmissions, 1e-9)
	require.InDelta(t, 920.0, result.Scope2Emissions, 1e-9)
	require.Zero(t, result.Scope1Emissions)
	require.Zero(t, result.Scope3Emissions)
	require.InDelta(t, 920.0, result.Breakdown[models.CategoryElectricity], 1e-9)

	// (15000-920)/15000*100 = 93.8666...%, times 10 truncates to 938.
	require.Equal(t, 938, result.PointsAwarded)
	require.NotNil(t, store.savedAward)
	require.Equal(t, 938, store.savedAward.Points)
	require.Equal(t, models.TransactionEarned, store.savedAward.Type)
}

func TestCalculateScopeAssignment(t *testing.T) {
	company := &models.Company{ID: "co-1", Industry: models.IndustryOther}
	store := &footprintStoreStub{}
	svc := newCarbonServiceForTest(company, store)

	result, err := svc.Calculate(context.Background(), "co-1", models.ActivityInput{
		Electricity:       ptr(100),
		FuelPetrol:        ptr(50),
		FuelDiesel:        ptr(50),
		TransportTruck:    ptr(200),
		Water:             ptr(10),
		CalculationPeriod: "2026-02",
	})
	require.NoError(t, err)

	require.InDelta(t, 50*2.31+50*2.68, result.Scope1Emissions, 1e-9)
	require.InDelta(t, 100*0.92, result.Scope2Emissions, 1e-9)
	require.InDelta(t, 200*0.285+10*0.344, result.Scope3Emissions, 1e-9)
	require.InDelta(t, result.Scope1Emissions+result.Scope2Emissions+result.Scope3Emissions, result.TotalEmissions, 1e-9)
}

func TestCalculateZeroValueExcludedFromBreakdown(t *testing.T) {
	company := &models.Company{ID: "co-1", Industry: models.IndustryRetail}
	store := &footprintStoreStub{}
	svc := newCarbonServiceForTest(company, store)

	result, err := svc.Calculate(context.Background(), "co-1", models.ActivityInput{
		Electricity:       ptr(0),
		Paper:             ptr(10),
		CalculationPeriod: "2026-03",
	})
	require.NoError(t, err)

	_, hasElectricity := result.Breakdown[models.CategoryElectricity]
	require.False(t, hasElectricity)
	require.InDelta(t, 18.0, result.Breakdown[models.CategoryPaper], 1e-9)

	// The zero value still lands in the input snapshot.
	require.Contains(t, store.savedRecord.Inputs, models.CategoryElectricity)
	require.Zero(t, store.savedRecord.Inputs[models.CategoryElectricity])
	_, hasWater := store.savedRecord.Inputs[models.CategoryWater]
	require.False(t, hasWater)
}

func TestCalculateEmptyInput(t *testing.T) {
	company := &models.Company{ID: "co-1", Industry: models.IndustryTechnology}
	store := &footprintStoreStub{}
	svc := newCarbonServiceForTest(company, store)

	result, err := svc.Calculate(context.Background(), "co-1", models.ActivityInput{CalculationPeriod: "2026-04"})
	require.NoError(t, err)

	require.Zero(t, result.TotalEmissions)
	require.Empty(t, result.Breakdown)
	require.Empty(t, store.savedRecord.Inputs)
	// Zero emissions is a full saving against the benchmark.
	require.Equal(t, 1000, result.PointsAwarded)
}

func TestCalculateRejectsNegativeInput(t *testing.T) {
	company := &models.Company{ID: "co-1", Industry: models.IndustryTechnology}
	store := &footprintStoreStub{}
	svc := newCarbonServiceForTest(company, store)

	_, err := svc.Calculate(context.Background(), "co-1", models.ActivityInput{
		Electricity:       ptr(-5),
		CalculationPeriod: "2026-05",
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Nil(t, store.savedRecord)
}

func TestCalculateRequiresPeriod(t *testing.T) {
	company := &models.Company{ID: "co-1", Industry: models.IndustryTechnology}
	svc := newCarbonServiceForTest(company, &footprintStoreStub{})

	_, err := svc.Calculate(context.Background(), "co-1", models.ActivityInput{Electricity: ptr(10)})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCalculateCompanyNotFound(t *testing.T) {
	store := &footprintStoreStub{}
	rewards := NewPointsService(nil, nil, DefaultBenchmarks(), zap.NewNop())
	svc := NewCarbonService(companyStub{err: sql.ErrNoRows}, store, rewards, DefaultFactors(), nil, zap.NewNop())

	_, err := svc.Calculate(context.Background(), "missing", models.ActivityInput{CalculationPeriod: "2026-06"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestComputeMonotonicInInput(t *testing.T) {
	svc := newCarbonServiceForTest(&models.Company{}, &footprintStoreStub{})

	low := svc.compute(models.ActivityInput{Electricity: ptr(100), CalculationPeriod: "p"})
	high := svc.compute(models.ActivityInput{Electricity: ptr(200), CalculationPeriod: "p"})
	require.Greater(t, high.Total, low.Total)
}

func TestGetByIDEnforcesOwnership(t *testing.T) {
	store := &footprintStoreStub{record: &models.FootprintRecord{ID: "fp-1", CompanyID: "co-owner"}}
	svc := newCarbonServiceForTest(&models.Company{ID: "co-other"}, store)

	_, err := svc.GetByID(context.Background(), "co-other", "fp-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	record, err := svc.GetByID(context.Background(), "co-owner", "fp-1")
	require.NoError(t, err)
	require.Equal(t, "fp-1", record.ID)
}
