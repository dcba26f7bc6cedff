// Package loans provides the mortgage amortization engine and the analytics
// derived from its schedules.
package loans

import (
	"math"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
)

// PaymentType selects the amortization algorithm.
type PaymentType string

const (
	// Annuity keeps the total payment constant for the life of the loan.
	Annuity PaymentType = "annuity"
	// Differential keeps the principal portion constant; the total payment
	// falls as interest on the shrinking balance falls.
	Differential PaymentType = "differential"
)

// LoanParameters holds the inputs for one calculation.
type LoanParameters struct {
	PropertyPrice float64     `json:"propertyPrice" yaml:"propertyPrice" mapstructure:"propertyPrice"`
	DownPayment   float64     `json:"downPayment" yaml:"downPayment" mapstructure:"downPayment"`
	LoanTermYears int         `json:"loanTerm" yaml:"loanTerm" mapstructure:"loanTerm"`
	InterestRate  float64     `json:"interestRate" yaml:"interestRate" mapstructure:"interestRate"` // annual, percent
	PaymentType   PaymentType `json:"paymentType" yaml:"paymentType" mapstructure:"paymentType"`
}

// Payment holds the values for a given month of the schedule.
type Payment struct {
	Month     int     `json:"month"`
	Payment   float64 `json:"payment"`
	Principal float64 `json:"principal"`
	Interest  float64 `json:"interest"`
	Balance   float64 `json:"balance"`
}

// Result is the output of Compute.
type Result struct {
	// MonthlyPayment is the constant payment for an annuity and the mean of
	// all period payments for a differential loan.
	MonthlyPayment float64   `json:"monthlyPayment"`
	LoanAmount     float64   `json:"loanAmount"`
	TotalInterest  float64   `json:"totalInterest"`
	TotalCost      float64   `json:"totalCost"`
	Schedule       []Payment `json:"schedule"`
}

// LoanAmount returns the financed amount, price less down payment.
func (p LoanParameters) LoanAmount() float64 {
	return p.PropertyPrice - p.DownPayment
}

// TotalPeriods returns the number of monthly periods in the term.
func (p LoanParameters) TotalPeriods() int {
	return p.LoanTermYears * constants.MonthsPerYear
}

// MonthlyRate converts an annual percentage rate to a monthly fraction.
func MonthlyRate(annualInterestRate float64) float64 {
	return annualInterestRate / constants.PercentageMultiplier / constants.MonthsPerYear
}

// CalculateMonthlyPayment calculates the annuity payment using the standard amortization formula.
func CalculateMonthlyPayment(loanAmount, annualInterestRate float64, termMonths int) float64 {
	monthlyRate := MonthlyRate(annualInterestRate)
	if monthlyRate <= 0 {
		// For zero interest, simply divide the loan by term
		return loanAmount / float64(termMonths)
	}

	power := math.Pow(1.00+monthlyRate, float64(termMonths))
	return loanAmount * monthlyRate * power / (power - 1.00)
}

// CalculateInterestPayment calculates the interest portion of a payment.
func CalculateInterestPayment(balance, annualInterestRate float64) float64 {
	return balance * MonthlyRate(annualInterestRate)
}

// Compute builds the full amortization schedule and totals for params. It is
// pure: identical input always yields an identical Result.
//
// Compute does not validate. A zero term or a zero loan at zero rate yields
// non-finite fields instead of a panic; callers should run Validate first or
// check Result.IsFinite before display.
func Compute(params LoanParameters) Result {
	if params.PaymentType == Differential {
		return computeDifferential(params)
	}
	return computeAnnuity(params)
}

func computeAnnuity(params LoanParameters) Result {
	loanAmount := params.LoanAmount()
	totalPeriods := params.TotalPeriods()
	payment := CalculateMonthlyPayment(loanAmount, params.InterestRate, totalPeriods)

	schedule := make([]Payment, 0, max(totalPeriods, 0))
	balance := loanAmount
	for month := 1; month <= totalPeriods; month++ {
		interest := CalculateInterestPayment(balance, params.InterestRate)
		principal := payment - interest
		// The clamped balance is also the next month's opening balance.
		balance = math.Max(balance-principal, 0)
		schedule = append(schedule, Payment{
			Month:     month,
			Payment:   payment,
			Principal: principal,
			Interest:  interest,
			Balance:   balance,
		})
	}

	totalInterest := payment*float64(totalPeriods) - loanAmount
	return Result{
		MonthlyPayment: payment,
		LoanAmount:     loanAmount,
		TotalInterest:  totalInterest,
		TotalCost:      loanAmount + totalInterest,
		Schedule:       schedule,
	}
}

func computeDifferential(params LoanParameters) Result {
	loanAmount := params.LoanAmount()
	totalPeriods := params.TotalPeriods()
	principalPayment := loanAmount / float64(totalPeriods)

	schedule := make([]Payment, 0, max(totalPeriods, 0))
	balance := loanAmount
	totalPaid := 0.0
	for month := 1; month <= totalPeriods; month++ {
		interest := CalculateInterestPayment(balance, params.InterestRate)
		payment := principalPayment + interest
		balance = math.Max(balance-principalPayment, 0)
		schedule = append(schedule, Payment{
			Month:     month,
			Payment:   payment,
			Principal: principalPayment,
			Interest:  interest,
			Balance:   balance,
		})
		totalPaid += payment
	}

	monthlyPayment := totalPaid / float64(len(schedule))
	totalInterest := totalPaid - loanAmount
	return Result{
		MonthlyPayment: monthlyPayment,
		LoanAmount:     loanAmount,
		TotalInterest:  totalInterest,
		TotalCost:      loanAmount + totalInterest,
		Schedule:       schedule,
	}
}

// IsFinite reports whether every summary field of the result is a finite number.
func (r Result) IsFinite() bool {
	return mathutil.IsFinite(r.MonthlyPayment, r.LoanAmount, r.TotalInterest, r.TotalCost)
}
