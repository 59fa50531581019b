package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/greentrace/greentrace-api/internal/models"
)

func TestCreateWithCompanyCommitsBothRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO companies")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	user := &models.User{Email: "owner@acme.test", PasswordHash: "hash", Role: models.RoleCompany, Active: true}
	company := &models.Company{Name: "Acme", Industry: models.IndustryTechnology, Size: models.SizeSmall}
	require.NoError(t, repo.CreateWithCompany(context.Background(), user, company))

	require.NotEmpty(t, user.ID)
	require.NotEmpty(t, company.ID)
	require.Equal(t, user.ID, company.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateWithCompanyRollsBackOnCompanyFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO companies")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	user := &models.User{Email: "owner@acme.test", PasswordHash: "hash", Role: models.RoleCompany, Active: true}
	company := &models.Company{Name: "Acme", Industry: models.IndustryTechnology, Size: models.SizeSmall}
	require.Error(t, repo.CreateWithCompany(context.Background(), user, company))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "password_hash", "role", "active", "created_at", "updated_at"}).
		AddRow("u-1", "owner@acme.test", "hash", "COMPANY", true, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash, role, active, created_at, updated_at FROM users WHERE email = $1")).
		WithArgs("owner@acme.test").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "owner@acme.test")
	require.NoError(t, err)
	require.Equal(t, "u-1", user.ID)
	require.Equal(t, models.RoleCompany, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}
