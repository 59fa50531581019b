package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/greentrace/greentrace-api/internal/models"
)

const footprintColumns = `id, company_id, total_emissions, scope1_emissions, scope2_emissions, scope3_emissions,
	calculation_period, breakdown, inputs, created_at`

// FootprintRepository persists the append-only footprint ledger.
type FootprintRepository struct {
	db *sqlx.DB
}

// NewFootprintRepository creates a new footprint repository.
func NewFootprintRepository(db *sqlx.DB) *FootprintRepository {
	return &FootprintRepository{db: db}
}

// SaveCalculation persists one calculation as a single transaction: the new
// footprint row, the company aggregate overwrite, and (when points were
// awarded) the points ledger row plus the balance increment. The increment
// runs SQL-side so concurrent calculations for one company cannot lose
// updates.
func (r *FootprintRepository) SaveCalculation(ctx context.Context, record *models.FootprintRecord, award *models.PointsTransaction) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin calculation tx: %w", err)
	}

	const insertFootprint = `INSERT INTO carbon_footprints (id, company_id, total_emissions, scope1_emissions, scope2_emissions, scope3_emissions, calculation_period, breakdown, inputs, created_at)
		VALUES (:id, :company_id, :total_emissions, :scope1_emissions, :scope2_emissions, :scope3_emissions, :calculation_period, :breakdown, :inputs, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertFootprint, record); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert footprint: %w", err)
	}

	const updateAggregate = `UPDATE companies SET total_footprint = $1, last_calculation_date = $2, updated_at = $2 WHERE id = $3`
	if _, err := tx.ExecContext(ctx, updateAggregate, record.TotalEmissions, record.CreatedAt, record.CompanyID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("update company footprint: %w", err)
	}

	if award != nil && award.Points != 0 {
		if award.ID == "" {
			award.ID = uuid.NewString()
		}
		if award.CreatedAt.IsZero() {
			award.CreatedAt = now
		}
		award.CompanyID = record.CompanyID

		const insertAward = `INSERT INTO green_points_transactions (id, company_id, points, type, description, reason, created_at)
			VALUES (:id, :company_id, :points, :type, :description, :reason, :created_at)`
		if _, err := tx.NamedExecContext(ctx, insertAward, award); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert points transaction: %w", err)
		}

		const incrementBalance = `UPDATE companies SET green_points = green_points + $1, updated_at = $2 WHERE id = $3`
		if _, err := tx.ExecContext(ctx, incrementBalance, award.Points, now, record.CompanyID); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("increment green points: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit calculation: %w", err)
	}
	return nil
}

// FindByID returns one footprint record.
func (r *FootprintRepository) FindByID(ctx context.Context, id string) (*models.FootprintRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM carbon_footprints WHERE id = $1 LIMIT 1", footprintColumns)
	var record models.FootprintRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByCompany returns a page of a company's footprint history, newest
// first, plus the total row count.
func (r *FootprintRepository) ListByCompany(ctx context.Context, companyID string, page, pageSize int) ([]models.FootprintRecord, int, error) {
	offset := (page - 1) * pageSize
	query := fmt.Sprintf("SELECT %s FROM carbon_footprints WHERE company_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3", footprintColumns)
	var records []models.FootprintRecord
	if err := r.db.SelectContext(ctx, &records, query, companyID, pageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("list footprints: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM carbon_footprints WHERE company_id = $1", companyID); err != nil {
		return nil, 0, fmt.Errorf("count footprints: %w", err)
	}
	return records, total, nil
}

// ListAllByCompany returns a company's full footprint history, newest first.
func (r *FootprintRepository) ListAllByCompany(ctx context.Context, companyID string) ([]models.FootprintRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM carbon_footprints WHERE company_id = $1 ORDER BY created_at DESC, id DESC", footprintColumns)
	var records []models.FootprintRecord
	if err := r.db.SelectContext(ctx, &records, query, companyID); err != nil {
		return nil, fmt.Errorf("list all footprints: %w", err)
	}
	return records, nil
}
