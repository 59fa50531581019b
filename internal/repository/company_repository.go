package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/greentrace/greentrace-api/internal/models"
)

const companyColumns = `id, user_id, name, industry, size, description, website, address, phone, logo_url,
	green_points, total_footprint, last_calculation_date, created_at, updated_at`

// Rankings order companies by balance, breaking ties by registration order so
// the leaderboard is stable across reads.
const rankedOrder = "ORDER BY green_points DESC, created_at ASC, id ASC"

// CompanyRepository handles company aggregate persistence.
type CompanyRepository struct {
	db *sqlx.DB
}

// NewCompanyRepository creates a new company repository.
func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// FindByID returns a company by its identifier.
func (r *CompanyRepository) FindByID(ctx context.Context, id string) (*models.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM companies WHERE id = $1 LIMIT 1", companyColumns)
	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, id); err != nil {
		return nil, err
	}
	return &company, nil
}

// FindByUserID returns the company owned by the given user.
func (r *CompanyRepository) FindByUserID(ctx context.Context, userID string) (*models.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM companies WHERE user_id = $1 LIMIT 1", companyColumns)
	var company models.Company
	if err := r.db.GetContext(ctx, &company, query, userID); err != nil {
		return nil, err
	}
	return &company, nil
}

// UpdateProfile persists mutable profile fields.
func (r *CompanyRepository) UpdateProfile(ctx context.Context, company *models.Company) error {
	company.UpdatedAt = time.Now().UTC()
	const query = `UPDATE companies
		SET name = :name, industry = :industry, size = :size, description = :description,
			website = :website, address = :address, phone = :phone, logo_url = :logo_url,
			updated_at = :updated_at
		WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, company); err != nil {
		return fmt.Errorf("update company: %w", err)
	}
	return nil
}

// TopByGreenPoints returns the leaderboard head, limited to the given size.
func (r *CompanyRepository) TopByGreenPoints(ctx context.Context, limit int) ([]models.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM companies %s LIMIT $1", companyColumns, rankedOrder)
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query, limit); err != nil {
		return nil, fmt.Errorf("top companies: %w", err)
	}
	return companies, nil
}

// TopByIndustry returns the leaderboard head within one industry.
func (r *CompanyRepository) TopByIndustry(ctx context.Context, industry models.Industry, limit int) ([]models.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM companies WHERE industry = $1 %s LIMIT $2", companyColumns, rankedOrder)
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query, industry, limit); err != nil {
		return nil, fmt.Errorf("top companies by industry: %w", err)
	}
	return companies, nil
}

// ListRanked returns every company in leaderboard order.
func (r *CompanyRepository) ListRanked(ctx context.Context) ([]models.Company, error) {
	query := fmt.Sprintf("SELECT %s FROM companies %s", companyColumns, rankedOrder)
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query); err != nil {
		return nil, fmt.Errorf("list ranked companies: %w", err)
	}
	return companies, nil
}

// ListByIndustry returns a page of companies in one industry, ranked, with
// the total count for pagination.
func (r *CompanyRepository) ListByIndustry(ctx context.Context, industry models.Industry, page, pageSize int) ([]models.Company, int, error) {
	offset := (page - 1) * pageSize
	query := fmt.Sprintf("SELECT %s FROM companies WHERE industry = $1 %s LIMIT $2 OFFSET $3", companyColumns, rankedOrder)
	var companies []models.Company
	if err := r.db.SelectContext(ctx, &companies, query, industry, pageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("list companies by industry: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM companies WHERE industry = $1", industry); err != nil {
		return nil, 0, fmt.Errorf("count companies by industry: %w", err)
	}
	return companies, total, nil
}

// AverageFootprintByIndustry returns the mean of the latest footprints within
// an industry. Companies that never calculated contribute zero.
func (r *CompanyRepository) AverageFootprintByIndustry(ctx context.Context, industry models.Industry) (float64, error) {
	const query = "SELECT COALESCE(AVG(total_footprint), 0) FROM companies WHERE industry = $1"
	var avg float64
	if err := r.db.GetContext(ctx, &avg, query, industry); err != nil {
		return 0, fmt.Errorf("industry average footprint: %w", err)
	}
	return avg, nil
}
