// Package history persists saved calculations and answers queries over them.
package history

import (
	"context"
	"errors"

	"github.com/iwvelando/mortgage-calculator/pkg/loans"
)

// ErrNotFound is returned when no calculation has the requested id.
var ErrNotFound = errors.New("calculation not found")

// Calculation is one saved calculation. Only the parameters and the summary
// figures are kept; the schedule is recomputed on load.
type Calculation struct {
	ID             int64             `json:"id"`
	Title          string            `json:"title"`
	Date           string            `json:"date"`
	PropertyPrice  float64           `json:"propertyPrice"`
	DownPayment    float64           `json:"downPayment"`
	LoanTermYears  int               `json:"loanTerm"`
	InterestRate   float64           `json:"interestRate"`
	PaymentType    loans.PaymentType `json:"paymentType"`
	MonthlyPayment float64           `json:"monthlyPayment"`
	LoanAmount     float64           `json:"loanAmount"`
	TotalInterest  float64           `json:"totalInterest"`
	TotalCost      float64           `json:"totalCost"`
}

// Params returns the loan parameters the calculation was made with.
func (c Calculation) Params() loans.LoanParameters {
	return loans.LoanParameters{
		PropertyPrice: c.PropertyPrice,
		DownPayment:   c.DownPayment,
		LoanTermYears: c.LoanTermYears,
		InterestRate:  c.InterestRate,
		PaymentType:   c.PaymentType,
	}
}

// Store is the persistence backend for saved calculations. List returns the
// most recently saved calculation first.
type Store interface {
	Save(ctx context.Context, calc Calculation) error
	Get(ctx context.Context, id int64) (Calculation, error)
	List(ctx context.Context) ([]Calculation, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	// Trim keeps the newest keep calculations and returns how many were removed.
	Trim(ctx context.Context, keep int) (int, error)
}
