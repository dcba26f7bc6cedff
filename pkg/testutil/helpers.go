// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
)

// DefaultParams returns the 10 000 000 price, 2 000 000 down, 20 year,
// 7.5% loan used throughout the tests.
func DefaultParams(paymentType loans.PaymentType) loans.LoanParameters {
	return loans.LoanParameters{
		PropertyPrice: 10000000,
		DownPayment:   2000000,
		LoanTermYears: 20,
		InterestRate:  7.5,
		PaymentType:   paymentType,
	}
}

// FindPeriod finds a payment by month number in the schedule.
// Returns a pointer to the payment if found, nil otherwise.
func FindPeriod(schedule []loans.Payment, month int) *loans.Payment {
	for i := range schedule {
		if schedule[i].Month == month {
			return &schedule[i]
		}
	}
	return nil
}
