package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/greentrace/greentrace-api/internal/models"
	appErrors "github.com/greentrace/greentrace-api/pkg/errors"
)

type userRepoStub struct {
	users     map[string]*models.User
	createErr error
	created   *models.Company
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.users[email]; ok {
		return user, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	for _, user := range s.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) CreateWithCompany(ctx context.Context, user *models.User, company *models.Company) error {
	if s.createErr != nil {
		return s.createErr
	}
	if s.users == nil {
		s.users = map[string]*models.User{}
	}
	s.users[user.Email] = user
	s.created = company
	return nil
}

type companyRepoStub struct {
	company *models.Company
}

func (s companyRepoStub) FindByUserID(ctx context.Context, userID string) (*models.Company, error) {
	if s.company == nil {
		return nil, sql.ErrNoRows
	}
	return s.company, nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{Secret: "test-secret", Expiry: time.Hour, Issuer: "greentrace-api"}
}

func validRegisterRequest() models.RegisterRequest {
	return models.RegisterRequest{
		Email:       "owner@acme.test",
		Password:    "s3cret-pass",
		CompanyName: "Acme",
		Industry:    models.IndustryTechnology,
		Size:        models.SizeSmall,
	}
}

func TestRegisterIssuesToken(t *testing.T) {
	users := &userRepoStub{}
	svc := NewAuthService(users, companyRepoStub{}, nil, zap.NewNop(), testAuthConfig())

	res, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)
	require.NotEmpty(t, res.Token)
	require.Equal(t, "Bearer", res.Type)
	require.Equal(t, "Acme", res.CompanyName)
	require.Equal(t, models.RoleCompany, res.Role)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	require.Equal(t, res.UserID, claims.UserID)
	require.Equal(t, res.CompanyID, claims.CompanyID)
	require.Equal(t, "greentrace-api", claims.Issuer)

	// The stored password hash must verify against the raw password.
	stored := users.users["owner@acme.test"]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("s3cret-pass")))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	users := &userRepoStub{createErr: &pq.Error{Code: pqUniqueViolation}}
	svc := NewAuthService(users, companyRepoStub{}, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Register(context.Background(), validRegisterRequest())
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := NewAuthService(&userRepoStub{}, companyRepoStub{}, nil, zap.NewNop(), testAuthConfig())

	req := validRegisterRequest()
	req.Password = "short"
	_, err := svc.Register(context.Background(), req)
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestLoginSuccess(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &userRepoStub{users: map[string]*models.User{
		"owner@acme.test": {ID: "u-1", Email: "owner@acme.test", PasswordHash: string(hash), Role: models.RoleCompany, Active: true},
	}}
	companies := companyRepoStub{company: &models.Company{ID: "co-1", UserID: "u-1", Name: "Acme"}}
	svc := NewAuthService(users, companies, nil, zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "owner@acme.test", Password: "s3cret-pass"})
	require.NoError(t, err)
	require.Equal(t, "co-1", res.CompanyID)

	claims, err := svc.ValidateToken(res.Token)
	require.NoError(t, err)
	require.Equal(t, "u-1", claims.UserID)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	users := &userRepoStub{users: map[string]*models.User{
		"owner@acme.test": {ID: "u-1", Email: "owner@acme.test", PasswordHash: string(hash), Active: true},
	}}
	svc := NewAuthService(users, companyRepoStub{}, nil, zap.NewNop(), testAuthConfig())

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "owner@acme.test", Password: "wrong"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(&userRepoStub{}, companyRepoStub{}, nil, zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@acme.test", Password: "whatever"})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc := NewAuthService(&userRepoStub{}, companyRepoStub{}, nil, zap.NewNop(), testAuthConfig())

	res, err := svc.Register(context.Background(), validRegisterRequest())
	require.NoError(t, err)

	_, err = svc.ValidateToken(res.Token + "x")
	require.Error(t, err)

	other := NewAuthService(&userRepoStub{}, companyRepoStub{}, nil, zap.NewNop(), AuthConfig{Secret: "other", Expiry: time.Hour})
	_, err = other.ValidateToken(res.Token)
	require.Error(t, err)
}
