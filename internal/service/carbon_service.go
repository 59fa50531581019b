package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/greentrace/greentrace-api/internal/models"
	appErrors "github.com/greentrace/greentrace-api/pkg/errors"
)

// FactorTable holds the emission factors (kg CO2 per unit) applied to each
// activity category. Injected at construction so tests can substitute
// alternative factor sets.
type FactorTable struct {
	Electricity        float64 // per kWh
	FuelPetrol         float64 // per litre
	FuelDiesel         float64 // per litre
	TransportCarPetrol float64 // per km
	TransportCarDiesel float64 // per km
	TransportTruck     float64 // per km
	WasteLandfill      float64 // per kg
	WasteRecycled      float64 // per kg
	Water              float64 // per m3
	Paper              float64 // per kg
}

// DefaultFactors returns the standard factor set.
func DefaultFactors() FactorTable {
	return FactorTable{
		Electricity:        0.92,
		FuelPetrol:         2.31,
		FuelDiesel:         2.68,
		TransportCarPetrol: 0.192,
		TransportCarDiesel: 0.171,
		TransportTruck:     0.285,
		WasteLandfill:      0.5,
		WasteRecycled:      0.1,
		Water:              0.344,
		Paper:              1.8,
	}
}

type companyReader interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
}

type footprintStore interface {
	SaveCalculation(ctx context.Context, record *models.FootprintRecord, award *models.PointsTransaction) error
	FindByID(ctx context.Context, id string) (*models.FootprintRecord, error)
	ListByCompany(ctx context.Context, companyID string, page, pageSize int) ([]models.FootprintRecord, int, error)
	ListAllByCompany(ctx context.Context, companyID string) ([]models.FootprintRecord, error)
}

type awardBuilder interface {
	BuildAward(industry models.Industry, totalEmissions float64) *models.PointsTransaction
}

type leaderboardInvalidator interface {
	Invalidate(ctx context.Context)
}

type calculationRecorder interface {
	RecordCalculation(pointsAwarded int)
}

// CarbonService owns the footprint calculation workflow: compute emissions,
// persist the ledger entry and company aggregate, and award green points —
// all in one transaction.
type CarbonService struct {
	companies   companyReader
	footprints  footprintStore
	rewards     awardBuilder
	factors     FactorTable
	leaderboard leaderboardInvalidator
	metrics     calculationRecorder
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewCarbonService constructs a CarbonService.
func NewCarbonService(companies companyReader, footprints footprintStore, rewards awardBuilder, factors FactorTable, validate *validator.Validate, logger *zap.Logger) *CarbonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CarbonService{
		companies:  companies,
		footprints: footprints,
		rewards:    rewards,
		factors:    factors,
		validator:  validate,
		logger:     logger,
	}
}

// SetLeaderboardInvalidator wires leaderboard cache invalidation. Optional.
func (s *CarbonService) SetLeaderboardInvalidator(inv leaderboardInvalidator) {
	s.leaderboard = inv
}

// SetMetrics wires calculation metrics. Optional.
func (s *CarbonService) SetMetrics(m calculationRecorder) {
	s.metrics = m
}

// emissionTotals is the pure output of one factor-table application.
type emissionTotals struct {
	Scope1    float64
	Scope2    float64
	Scope3    float64
	Total     float64
	Breakdown models.EmissionBreakdown
	Inputs    models.EmissionBreakdown
}

// compute applies the factor table to the input. Scope assignment is fixed:
// electricity is scope 2 (purchased energy), fuels are scope 1 (direct
// combustion), everything else is scope 3. Absent or zero categories are
// omitted from the breakdown; every present value, zero included, is
// snapshotted into Inputs. No rounding is applied.
func (s *CarbonService) compute(input models.ActivityInput) emissionTotals {
	totals := emissionTotals{
		Breakdown: models.EmissionBreakdown{},
		Inputs:    models.EmissionBreakdown{},
	}

	apply := func(category string, value *float64, factor float64, scope *float64) {
		if value == nil {
			return
		}
		totals.Inputs[category] = *value
		if *value <= 0 {
			return
		}
		emissions := *value * factor
		totals.Breakdown[category] = emissions
		*scope += emissions
	}

	apply(models.CategoryElectricity, input.Electricity, s.factors.Electricity, &totals.Scope2)
	apply(models.CategoryFuelPetrol, input.FuelPetrol, s.factors.FuelPetrol, &totals.Scope1)
	apply(models.CategoryFuelDiesel, input.FuelDiesel, s.factors.FuelDiesel, &totals.Scope1)
	apply(models.CategoryTransportCarPetrol, input.TransportCarPetrol, s.factors.TransportCarPetrol, &totals.Scope3)
	apply(models.CategoryTransportCarDiesel, input.TransportCarDiesel, s.factors.TransportCarDiesel, &totals.Scope3)
	apply(models.CategoryTransportTruck, input.TransportTruck, s.factors.TransportTruck, &totals.Scope3)
	apply(models.CategoryWasteLandfill, input.WasteLandfill, s.factors.WasteLandfill, &totals.Scope3)
	apply(models.CategoryWasteRecycled, input.WasteRecycled, s.factors.WasteRecycled, &totals.Scope3)
	apply(models.CategoryWater, input.Water, s.factors.Water, &totals.Scope3)
	apply(models.CategoryPaper, input.Paper, s.factors.Paper, &totals.Scope3)

	totals.Total = totals.Scope1 + totals.Scope2 + totals.Scope3
	return totals
}

// Calculate runs one footprint calculation for the company and returns the
// persisted result. The footprint insert, aggregate overwrite, points ledger
// insert and balance increment commit or roll back as a unit.
func (s *CarbonService) Calculate(ctx context.Context, companyID string, input models.ActivityInput) (*models.CalculationResult, error) {
	if err := s.validator.Struct(input); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity input")
	}

	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}

	totals := s.compute(input)
	award := s.rewards.BuildAward(company.Industry, totals.Total)

	record := &models.FootprintRecord{
		CompanyID:         company.ID,
		TotalEmissions:    totals.Total,
		Scope1Emissions:   totals.Scope1,
		Scope2Emissions:   totals.Scope2,
		Scope3Emissions:   totals.Scope3,
		CalculationPeriod: input.CalculationPeriod,
		Breakdown:         totals.Breakdown,
		Inputs:            totals.Inputs,
	}

	if err := s.footprints.SaveCalculation(ctx, record, award); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist calculation")
	}

	pointsAwarded := 0
	if award != nil {
		pointsAwarded = award.Points
	}
	if s.metrics != nil {
		s.metrics.RecordCalculation(pointsAwarded)
	}
	if s.leaderboard != nil {
		s.leaderboard.Invalidate(ctx)
	}

	s.logger.Info("footprint calculated",
		zap.String("company_id", company.ID),
		zap.String("period", input.CalculationPeriod),
		zap.Float64("total_emissions", totals.Total),
		zap.Int("points_awarded", pointsAwarded),
	)

	return &models.CalculationResult{
		ID:                record.ID,
		TotalEmissions:    record.TotalEmissions,
		Scope1Emissions:   record.Scope1Emissions,
		Scope2Emissions:   record.Scope2Emissions,
		Scope3Emissions:   record.Scope3Emissions,
		Breakdown:         record.Breakdown,
		CalculationPeriod: record.CalculationPeriod,
		PointsAwarded:     pointsAwarded,
		CreatedAt:         record.CreatedAt,
	}, nil
}

// History returns a page of the company's footprint ledger, newest first.
func (s *CarbonService) History(ctx context.Context, companyID string, page, pageSize int) ([]models.FootprintRecord, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	records, total, err := s.footprints.ListByCompany(ctx, companyID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load footprint history")
	}
	return records, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// AllHistory returns the company's full footprint ledger, newest first.
func (s *CarbonService) AllHistory(ctx context.Context, companyID string) ([]models.FootprintRecord, error) {
	records, err := s.footprints.ListAllByCompany(ctx, companyID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load footprint history")
	}
	return records, nil
}

// GetByID returns one footprint record, scoped to the owning company.
func (s *CarbonService) GetByID(ctx context.Context, companyID, id string) (*models.FootprintRecord, error) {
	record, err := s.footprints.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "carbon footprint not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load footprint")
	}
	if record.CompanyID != companyID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "carbon footprint not found")
	}
	return record, nil
}
