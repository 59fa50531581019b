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

type companyProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.Company, error)
	FindByUserID(ctx context.Context, userID string) (*models.Company, error)
	UpdateProfile(ctx context.Context, company *models.Company) error
}

// CompanyService exposes company profile reads and updates.
type CompanyService struct {
	companies companyProfileRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCompanyService constructs a CompanyService.
func NewCompanyService(companies companyProfileRepository, validate *validator.Validate, logger *zap.Logger) *CompanyService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CompanyService{companies: companies, validator: validate, logger: logger}
}

// Get returns the company by its identifier.
func (s *CompanyService) Get(ctx context.Context, companyID string) (*models.Company, error) {
	company, err := s.companies.FindByID(ctx, companyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	return company, nil
}

// GetByUser returns the company owned by the given user account.
func (s *CompanyService) GetByUser(ctx context.Context, userID string) (*models.Company, error) {
	company, err := s.companies.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "company not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load company")
	}
	return company, nil
}

// UpdateProfile applies a partial profile update. Nil fields are left
// unchanged; point balances and footprint aggregates are never writable here.
func (s *CompanyService) UpdateProfile(ctx context.Context, companyID string, req models.UpdateCompanyRequest) (*models.Company, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	company, err := s.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		company.Name = *req.Name
	}
	if req.Industry != nil {
		company.Industry = *req.Industry
	}
	if req.Size != nil {
		company.Size = *req.Size
	}
	if req.Description != nil {
		company.Description = req.Description
	}
	if req.Website != nil {
		company.Website = req.Website
	}
	if req.Address != nil {
		company.Address = req.Address
	}
	if req.Phone != nil {
		company.Phone = req.Phone
	}
	if req.LogoURL != nil {
		company.LogoURL = req.LogoURL
	}

	if err := s.companies.UpdateProfile(ctx, company); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update company")
	}

	s.logger.Info("company profile updated", zap.String("company_id", company.ID))
	return company, nil
}
