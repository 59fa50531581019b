package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/greentrace/greentrace-api/internal/models"
)

const pointsColumns = "id, company_id, points, type, description, reason, created_at"

// PointsRepository reads the append-only points ledger. Writes happen inside
// the calculation transaction owned by FootprintRepository.
type PointsRepository struct {
	db *sqlx.DB
}

// NewPointsRepository creates a new points repository.
func NewPointsRepository(db *sqlx.DB) *PointsRepository {
	return &PointsRepository{db: db}
}

// ListByCompany returns a page of a company's points history, newest first,
// plus the total row count.
func (r *PointsRepository) ListByCompany(ctx context.Context, companyID string, page, pageSize int) ([]models.PointsTransaction, int, error) {
	offset := (page - 1) * pageSize
	query := fmt.Sprintf("SELECT %s FROM green_points_transactions WHERE company_id = $1 ORDER BY created_at DESC, id DESC LIMIT $2 OFFSET $3", pointsColumns)
	var transactions []models.PointsTransaction
	if err := r.db.SelectContext(ctx, &transactions, query, companyID, pageSize, offset); err != nil {
		return nil, 0, fmt.Errorf("list points transactions: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM green_points_transactions WHERE company_id = $1", companyID); err != nil {
		return nil, 0, fmt.Errorf("count points transactions: %w", err)
	}
	return transactions, total, nil
}

// ListAllByCompany returns a company's full points history, newest first.
func (r *PointsRepository) ListAllByCompany(ctx context.Context, companyID string) ([]models.PointsTransaction, error) {
	query := fmt.Sprintf("SELECT %s FROM green_points_transactions WHERE company_id = $1 ORDER BY created_at DESC, id DESC", pointsColumns)
	var transactions []models.PointsTransaction
	if err := r.db.SelectContext(ctx, &transactions, query, companyID); err != nil {
		return nil, fmt.Errorf("list all points transactions: %w", err)
	}
	return transactions, nil
}

// SumByCompany returns the signed ledger sum. The company's green_points
// column caches this value; the sum is the source of truth.
func (r *PointsRepository) SumByCompany(ctx context.Context, companyID string) (int, error) {
	const query = "SELECT COALESCE(SUM(points), 0) FROM green_points_transactions WHERE company_id = $1"
	var sum int
	if err := r.db.GetContext(ctx, &sum, query, companyID); err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return sum, nil
}
