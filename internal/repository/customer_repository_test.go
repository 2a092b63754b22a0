package repository

import (
	"context"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/brightsend/campaign-engine/internal/errors"
	"github.com/brightsend/campaign-engine/internal/model"
	"github.com/brightsend/campaign-engine/internal/segment"
)

func spendAndVisitsFilter(t *testing.T) *segment.CompiledFilter {
	t.Helper()
	group := model.RuleGroup{
		Operator: model.LogicAnd,
		Rules: []model.Rule{
			{Field: "total_spend", Operator: model.OpGt, Value: float64(1000)},
			{Field: "visits", Operator: model.OpGte, Value: float64(5)},
		},
	}
	filter, err := segment.NewCompiler().Compile(group)
	require.NoError(t, err)
	return filter
}

func customerRows() *sqlmock.Rows {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "name", "email", "total_spend", "visits", "last_active_at"}).
		AddRow(1, "Asha Patel", "asha@example.com", 1200.0, 6, now).
		AddRow(3, "Carla Diaz", "carla@example.com", 2000.0, 5, now)
}

func TestCustomerCountMatching(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	filter := spendAndVisitsFilter(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM customers WHERE total_spend > $1 AND visits >= $2")).
		WithArgs(float64(1000), float64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	repo := &CustomerRepository{DB: db}
	count, err := repo.CountMatching(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerCountMatchingQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnError(fmt.Errorf("connection refused"))

	repo := &CustomerRepository{DB: db}
	count, err := repo.CountMatching(context.Background(), spendAndVisitsFilter(t))
	assert.Zero(t, count)
	require.Error(t, err)

	var qErr *appErrors.QueryError
	assert.ErrorAs(t, err, &qErr)
}

func TestCustomerListMatching(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, total_spend, visits, last_active_at FROM customers WHERE total_spend > $1 AND visits >= $2 ORDER BY id")).
		WithArgs(float64(1000), float64(5)).
		WillReturnRows(customerRows())

	repo := &CustomerRepository{DB: db}
	customers, err := repo.ListMatching(context.Background(), spendAndVisitsFilter(t))
	require.NoError(t, err)

	require.Len(t, customers, 2)
	assert.Equal(t, "Asha Patel", customers[0].Name)
	assert.Equal(t, 2000.0, customers[1].TotalSpend)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCustomerGetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM customers").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "total_spend", "visits", "last_active_at"}).
			AddRow(1, "Asha Patel", "asha@example.com", 1200.0, 6, now))

	repo := &CustomerRepository{DB: db}
	customer, err := repo.GetByID(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, customer)
	assert.Equal(t, "asha@example.com", customer.Email)
}

func TestCustomerGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT (.+) FROM customers").
		WithArgs(99).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "total_spend", "visits", "last_active_at"}))

	repo := &CustomerRepository{DB: db}
	customer, err := repo.GetByID(context.Background(), 99)
	require.NoError(t, err)
	assert.Nil(t, customer)
}
