package loans

import (
	"math"
	"reflect"
	"testing"
	"time"
)

func TestPerformance(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping performance test in short mode.")
	}

	params := LoanParameters{
		PropertyPrice: 50000000,
		DownPayment:   5000000,
		LoanTermYears: 50,
		InterestRate:  12,
	}

	start := time.Now()
	for i := 0; i < 1000; i++ {
		params.PaymentType = Annuity
		if i%2 == 1 {
			params.PaymentType = Differential
		}
		if got := len(Compute(params).Schedule); got != 600 {
			t.Fatalf("expected 600 periods, got %d", got)
		}
	}
	elapsed := time.Since(start)

	t.Logf("1000 fifty-year schedules in %v", elapsed)
	if elapsed > 5*time.Second {
		t.Errorf("processing time %v exceeds 5 second threshold", elapsed)
	}
}

// TestDataConsistency validates that multiple runs produce identical results
func TestDataConsistency(t *testing.T) {
	params := LoanParameters{
		PropertyPrice: 7300000,
		DownPayment:   1460000,
		LoanTermYears: 17,
		InterestRate:  11.3,
		PaymentType:   Differential,
	}

	first := Compute(params)
	for run := 1; run < 3; run++ {
		if again := Compute(params); !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d differs from the first run", run)
		}
	}
}

func TestConfigurationVariations(t *testing.T) {
	for _, paymentType := range []PaymentType{Annuity, Differential} {
		for _, years := range []int{1, 5, 30} {
			for _, rate := range []float64{0, 0.1, 7.5, 25} {
				params := LoanParameters{
					PropertyPrice: 3000000,
					DownPayment:   600000,
					LoanTermYears: years,
					InterestRate:  rate,
					PaymentType:   paymentType,
				}
				result := Compute(params)

				if len(result.Schedule) != years*12 {
					t.Errorf("%+v: %d periods", params, len(result.Schedule))
					continue
				}
				if !result.IsFinite() {
					t.Errorf("%+v: non-finite result", params)
				}
				var principal float64
				for _, p := range result.Schedule {
					principal += p.Principal
					if p.Balance < 0 {
						t.Errorf("%+v: negative balance in month %d", params, p.Month)
					}
				}
				if math.Abs(principal-result.LoanAmount) > 1e-3 {
					t.Errorf("%+v: principal sums to %v, expected %v", params, principal, result.LoanAmount)
				}
				if math.Abs(result.TotalCost-result.LoanAmount-result.TotalInterest) > 1e-6 {
					t.Errorf("%+v: total cost %v != loan %v + interest %v", params, result.TotalCost, result.LoanAmount, result.TotalInterest)
				}
			}
		}
	}
}
