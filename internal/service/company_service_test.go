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

type profileRepoStub struct {
	company *models.Company
	updated *models.Company
}

func (s *profileRepoStub) FindByID(ctx context.Context, id string) (*models.Company, error) {
	if s.company == nil || s.company.ID != id {
		return nil, sql.ErrNoRows
	}
	clone := *s.company
	return &clone, nil
}

func (s *profileRepoStub) FindByUserID(ctx context.Context, userID string) (*models.Company, error) {
	if s.company == nil || s.company.UserID != userID {
		return nil, sql.ErrNoRows
	}
	clone := *s.company
	return &clone, nil
}

func (s *profileRepoStub) UpdateProfile(ctx context.Context, company *models.Company) error {
	s.updated = company
	return nil
}

func strPtr(s string) *string {
	return &s
}

func TestUpdateProfilePartial(t *testing.T) {
	website := "https://acme.test"
	repo := &profileRepoStub{company: &models.Company{
		ID:          "co-1",
		UserID:      "u-1",
		Name:        "Acme",
		Industry:    models.IndustryTechnology,
		Size:        models.SizeSmall,
		Website:     &website,
		GreenPoints: 500,
	}}
	svc := NewCompanyService(repo, nil, zap.NewNop())

	updated, err := svc.UpdateProfile(context.Background(), "co-1", models.UpdateCompanyRequest{
		Name: strPtr("Acme Renewables"),
	})
	require.NoError(t, err)

	require.Equal(t, "Acme Renewables", updated.Name)
	// Omitted fields stay untouched.
	require.Equal(t, models.IndustryTechnology, updated.Industry)
	require.NotNil(t, updated.Website)
	require.Equal(t, website, *updated.Website)
	require.Equal(t, 500, updated.GreenPoints)
	require.Same(t, updated, repo.updated)
}

func TestUpdateProfileRejectsUnknownIndustry(t *testing.T) {
	repo := &profileRepoStub{company: &models.Company{ID: "co-1"}}
	svc := NewCompanyService(repo, nil, zap.NewNop())

	bogus := models.Industry("SPACE_MINING")
	_, err := svc.UpdateProfile(context.Background(), "co-1", models.UpdateCompanyRequest{Industry: &bogus})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	require.Nil(t, repo.updated)
}

func TestGetByUser(t *testing.T) {
	repo := &profileRepoStub{company: &models.Company{ID: "co-1", UserID: "u-1", Name: "Acme"}}
	svc := NewCompanyService(repo, nil, zap.NewNop())

	company, err := svc.GetByUser(context.Background(), "u-1")
	require.NoError(t, err)
	require.Equal(t, "co-1", company.ID)

	_, err = svc.GetByUser(context.Background(), "u-unknown")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
