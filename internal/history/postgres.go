package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	// Registers the "postgres" driver.
	_ "github.com/lib/pq"
)

const (
	createTableQuery = `
		CREATE TABLE IF NOT EXISTS calculations (
			id BIGINT PRIMARY KEY,
			title TEXT NOT NULL,
			date TEXT NOT NULL,
			property_price DOUBLE PRECISION NOT NULL,
			down_payment DOUBLE PRECISION NOT NULL,
			loan_term INTEGER NOT NULL,
			interest_rate DOUBLE PRECISION NOT NULL,
			payment_type TEXT NOT NULL,
			monthly_payment DOUBLE PRECISION NOT NULL,
			loan_amount DOUBLE PRECISION NOT NULL,
			total_interest DOUBLE PRECISION NOT NULL,
			total_cost DOUBLE PRECISION NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`

	upsertQuery = `
		INSERT INTO calculations (id, title, date, property_price, down_payment, loan_term,
			interest_rate, payment_type, monthly_payment, loan_amount, total_interest, total_cost, saved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			date = EXCLUDED.date,
			property_price = EXCLUDED.property_price,
			down_payment = EXCLUDED.down_payment,
			loan_term = EXCLUDED.loan_term,
			interest_rate = EXCLUDED.interest_rate,
			payment_type = EXCLUDED.payment_type,
			monthly_payment = EXCLUDED.monthly_payment,
			loan_amount = EXCLUDED.loan_amount,
			total_interest = EXCLUDED.total_interest,
			total_cost = EXCLUDED.total_cost,
			saved_at = CURRENT_TIMESTAMP`

	selectColumns = `SELECT id, title, date, property_price, down_payment, loan_term, interest_rate,
			payment_type, monthly_payment, loan_amount, total_interest, total_cost
		FROM calculations`

	getQuery    = selectColumns + ` WHERE id = $1`
	listQuery   = selectColumns + ` ORDER BY saved_at DESC, id DESC`
	deleteQuery = `DELETE FROM calculations WHERE id = $1`
	clearQuery  = `DELETE FROM calculations`
	trimQuery   = `
		DELETE FROM calculations WHERE id NOT IN (
			SELECT id FROM calculations ORDER BY saved_at DESC, id DESC LIMIT $1
		)`
)

// PostgresStore keeps calculations in the calculations table.
type PostgresStore struct {
	db *sql.DB
}

// OpenPostgresStore opens and pings the database at dsn.
func OpenPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an open database handle.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Close closes the database handle.
func (p *PostgresStore) Close() error {
	return p.db.Close()
}

// EnsureSchema creates the calculations table if it is missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, createTableQuery); err != nil {
		return fmt.Errorf("failed to create calculations table: %w", err)
	}
	return nil
}

// Save inserts calc, replacing any row with the same id.
func (p *PostgresStore) Save(ctx context.Context, calc Calculation) error {
	_, err := p.db.ExecContext(ctx, upsertQuery,
		calc.ID, calc.Title, calc.Date, calc.PropertyPrice, calc.DownPayment, calc.LoanTermYears,
		calc.InterestRate, string(calc.PaymentType), calc.MonthlyPayment, calc.LoanAmount,
		calc.TotalInterest, calc.TotalCost)
	if err != nil {
		return fmt.Errorf("failed to save calculation %d: %w", calc.ID, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCalculation(row scanner) (Calculation, error) {
	var calc Calculation
	var paymentType string
	err := row.Scan(&calc.ID, &calc.Title, &calc.Date, &calc.PropertyPrice, &calc.DownPayment,
		&calc.LoanTermYears, &calc.InterestRate, &paymentType, &calc.MonthlyPayment,
		&calc.LoanAmount, &calc.TotalInterest, &calc.TotalCost)
	calc.PaymentType = loans.PaymentType(paymentType)
	return calc, err
}

// Get returns the calculation with the given id.
func (p *PostgresStore) Get(ctx context.Context, id int64) (Calculation, error) {
	calc, err := scanCalculation(p.db.QueryRowContext(ctx, getQuery, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Calculation{}, ErrNotFound
	}
	if err != nil {
		return Calculation{}, fmt.Errorf("failed to get calculation %d: %w", id, err)
	}
	return calc, nil
}

// List returns all calculations, newest first.
func (p *PostgresStore) List(ctx context.Context) ([]Calculation, error) {
	rows, err := p.db.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	defer rows.Close()

	calcs := []Calculation{}
	for rows.Next() {
		calc, err := scanCalculation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan calculation: %w", err)
		}
		calcs = append(calcs, calc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list calculations: %w", err)
	}
	return calcs, nil
}

// Delete removes the calculation with the given id.
func (p *PostgresStore) Delete(ctx context.Context, id int64) error {
	res, err := p.db.ExecContext(ctx, deleteQuery, id)
	if err != nil {
		return fmt.Errorf("failed to delete calculation %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete calculation %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Clear removes every calculation.
func (p *PostgresStore) Clear(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, clearQuery); err != nil {
		return fmt.Errorf("failed to clear calculations: %w", err)
	}
	return nil
}

// Trim keeps the newest keep calculations.
func (p *PostgresStore) Trim(ctx context.Context, keep int) (int, error) {
	res, err := p.db.ExecContext(ctx, trimQuery, max(keep, 0))
	if err != nil {
		return 0, fmt.Errorf("failed to trim calculations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to trim calculations: %w", err)
	}
	return int(affected), nil
}
