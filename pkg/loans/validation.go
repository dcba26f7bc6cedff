package loans

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
)

// Validation errors returned by Validate. Use errors.Is to test for them.
var (
	ErrInvalidPropertyPrice = errors.New("property price must be positive")
	ErrInvalidDownPayment   = errors.New("down payment must be non-negative and below the property price")
	ErrInvalidTerm          = errors.New("loan term must be at least one year")
	ErrInvalidInterestRate  = errors.New("interest rate must be non-negative")
	ErrInvalidPaymentType   = errors.New("unknown payment type")
	ErrTermTooLong          = fmt.Errorf("loan term must not exceed %d years", constants.MaxLoanTermYears)
	ErrInterestRateTooHigh  = fmt.Errorf("interest rate must not exceed %g%%", constants.MaxInterestRate)
)

// ErrNonFinite is returned when a calculation overflows float64.
var ErrNonFinite = errors.New("calculation produced non-finite values")

// ParsePaymentType converts a user-supplied string into a PaymentType.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParsePaymentType(value string) (PaymentType, error) {
	switch PaymentType(strings.ToLower(strings.TrimSpace(value))) {
	case Annuity:
		return Annuity, nil
	case Differential:
		return Differential, nil
	default:
		return "", fmt.Errorf("%w: %q (expected %s or %s)", ErrInvalidPaymentType, value, Annuity, Differential)
	}
}

// Validate checks the preconditions Compute relies on. It returns the first
// violation found.
func Validate(params LoanParameters) error {
	if !(params.PropertyPrice > 0) || math.IsInf(params.PropertyPrice, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidPropertyPrice, params.PropertyPrice)
	}
	if !(params.DownPayment >= 0) || params.DownPayment >= params.PropertyPrice {
		return fmt.Errorf("%w: got %v for price %v", ErrInvalidDownPayment, params.DownPayment, params.PropertyPrice)
	}
	if params.LoanTermYears < 1 {
		return fmt.Errorf("%w: got %d", ErrInvalidTerm, params.LoanTermYears)
	}
	if params.LoanTermYears > constants.MaxLoanTermYears {
		return fmt.Errorf("%w: got %d", ErrTermTooLong, params.LoanTermYears)
	}
	if !(params.InterestRate >= 0) || math.IsInf(params.InterestRate, 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidInterestRate, params.InterestRate)
	}
	if params.InterestRate > constants.MaxInterestRate {
		return fmt.Errorf("%w: got %v", ErrInterestRateTooHigh, params.InterestRate)
	}
	if _, err := ParsePaymentType(string(params.PaymentType)); err != nil {
		return err
	}
	return nil
}
