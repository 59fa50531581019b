package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/greentrace/greentrace-api/internal/models"
)

const userColumns = "id, email, password_hash, role, active, created_at, updated_at"

// UserRepository handles user account persistence.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a user by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE email = $1 LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf("SELECT %s FROM users WHERE id = $1 LIMIT 1", userColumns)
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateWithCompany inserts the user and its company tenant atomically.
// Registration either creates both rows or neither.
func (r *UserRepository) CreateWithCompany(ctx context.Context, user *models.User, company *models.Company) error {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now

	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	company.UserID = user.ID
	company.CreatedAt = now
	company.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin registration tx: %w", err)
	}

	const insertUser = `INSERT INTO users (id, email, password_hash, role, active, created_at, updated_at)
		VALUES (:id, :email, :password_hash, :role, :active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertUser, user); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert user: %w", err)
	}

	const insertCompany = `INSERT INTO companies (id, user_id, name, industry, size, description, website, address, phone, logo_url, green_points, total_footprint, last_calculation_date, created_at, updated_at)
		VALUES (:id, :user_id, :name, :industry, :size, :description, :website, :address, :phone, :logo_url, :green_points, :total_footprint, :last_calculation_date, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertCompany, company); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert company: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}
	return nil
}
