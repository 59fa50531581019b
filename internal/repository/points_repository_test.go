package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

func TestPointsListByCompany(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPointsRepository(db)

	rows := sqlmock.NewRows([]string{"id", "company_id", "points", "type", "description", "reason", "created_at"}).
		AddRow("tx-2", "co-1", 500, "EARNED", "Points earned for carbon footprint calculation", "CALCULATION", time.Now()).
		AddRow("tx-1", "co-1", 938, "EARNED", nil, "CALCULATION", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, company_id, points, type, description, reason, created_at FROM green_points_transactions")).
		WithArgs("co-1", 10, 0).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM green_points_transactions")).
		WithArgs("co-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	transactions, total, err := repo.ListByCompany(context.Background(), "co-1", 1, 10)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	require.Equal(t, 2, total)
	require.Equal(t, 500, transactions[0].Points)
	require.Equal(t, "CALCULATION", *transactions[1].Reason)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsSumByCompany(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPointsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(points), 0) FROM green_points_transactions WHERE company_id = $1")).
		WithArgs("co-1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(1438))

	sum, err := repo.SumByCompany(context.Background(), "co-1")
	require.NoError(t, err)
	require.Equal(t, 1438, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPointsSumEmptyLedger(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewPointsRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(SUM(points), 0)")).
		WithArgs("co-empty").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(0))

	sum, err := repo.SumByCompany(context.Background(), "co-empty")
	require.NoError(t, err)
	require.Zero(t, sum)
	require.NoError(t, mock.ExpectationsWereMet())
}
