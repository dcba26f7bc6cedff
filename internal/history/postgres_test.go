package history

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var calculationColumns = []string{
	"id", "title", "date", "property_price", "down_payment", "loan_term", "interest_rate",
	"payment_type", "monthly_payment", "loan_amount", "total_interest", "total_cost",
}

func newTestPostgresStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewPostgresStore(db), mock
}

func calculationRow(rows *sqlmock.Rows, calc Calculation) *sqlmock.Rows {
	return rows.AddRow(calc.ID, calc.Title, calc.Date, calc.PropertyPrice, calc.DownPayment,
		calc.LoanTermYears, calc.InterestRate, string(calc.PaymentType), calc.MonthlyPayment,
		calc.LoanAmount, calc.TotalInterest, calc.TotalCost)
}

func TestPostgresStoreEnsureSchema(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	mock.ExpectExec(regexp.QuoteMeta(createTableQuery)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.EnsureSchema(context.Background()))
}

func TestPostgresStoreSave(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	calc := sampleCalculation(1700000000000, "Квартира", 10000000)

	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).
		WithArgs(calc.ID, calc.Title, calc.Date, calc.PropertyPrice, calc.DownPayment, calc.LoanTermYears,
			calc.InterestRate, string(calc.PaymentType), calc.MonthlyPayment, calc.LoanAmount,
			calc.TotalInterest, calc.TotalCost).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Save(context.Background(), calc))
}

func TestPostgresStoreSaveError(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	mock.ExpectExec(regexp.QuoteMeta(upsertQuery)).WillReturnError(errors.New("connection reset"))

	err := store.Save(context.Background(), sampleCalculation(1, "x", 10000000))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestPostgresStoreGet(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	calc := sampleCalculation(7, "Дом", 15000000)

	mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
		WithArgs(int64(7)).
		WillReturnRows(calculationRow(sqlmock.NewRows(calculationColumns), calc))
	mock.ExpectQuery(regexp.QuoteMeta(getQuery)).
		WithArgs(int64(8)).
		WillReturnError(sql.ErrNoRows)

	got, err := store.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, calc, got)

	_, err = store.Get(context.Background(), 8)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPostgresStoreList(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	newer := sampleCalculation(2, "newer", 12000000)
	older := sampleCalculation(1, "older", 10000000)

	rows := sqlmock.NewRows(calculationColumns)
	calculationRow(rows, newer)
	calculationRow(rows, older)
	mock.ExpectQuery(regexp.QuoteMeta(listQuery)).WillReturnRows(rows)

	list, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Calculation{newer, older}, list)
}

func TestPostgresStoreDelete(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).WithArgs(int64(5)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(deleteQuery)).WithArgs(int64(6)).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, store.Delete(context.Background(), 5))
	assert.ErrorIs(t, store.Delete(context.Background(), 6), ErrNotFound)
}

func TestPostgresStoreClearAndTrim(t *testing.T) {
	store, mock := newTestPostgresStore(t)
	mock.ExpectExec(regexp.QuoteMeta(trimQuery)).WithArgs(10).WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(trimQuery)).WithArgs(0).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(clearQuery)).WillReturnResult(sqlmock.NewResult(0, 4))

	removed, err := store.Trim(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 3, removed)

	removed, err = store.Trim(context.Background(), -1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	require.NoError(t, store.Clear(context.Background()))
}
