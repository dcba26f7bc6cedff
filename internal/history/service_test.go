package history

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/iwvelando/mortgage-calculator/pkg/loans"
)

type stepClock struct {
	t time.Time
}

func (c *stepClock) now() time.Time {
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestService() *Service {
	clock := &stepClock{t: time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC)}
	return NewService(NewMemoryStore(), zap.NewNop()).WithClock(clock.now)
}

func saveSample(t *testing.T, s *Service, title string, price float64, paymentType loans.PaymentType) Calculation {
	t.Helper()
	params := loans.LoanParameters{
		PropertyPrice: price,
		DownPayment:   price / 5,
		LoanTermYears: 20,
		InterestRate:  7.5,
		PaymentType:   paymentType,
	}
	calc, err := s.Save(context.Background(), title, params, loans.Compute(params))
	if err != nil {
		t.Fatalf("Save(%q) error = %v", title, err)
	}
	return calc
}

func TestServiceSave(t *testing.T) {
	s := newTestService()
	calc := saveSample(t, s, "  Квартира  ", 10000000, loans.Annuity)

	if calc.Title != "Квартира" {
		t.Errorf("Title = %q, expected trimmed title", calc.Title)
	}
	expectedID := time.Date(2026, 3, 9, 12, 0, 1, 0, time.UTC).UnixMilli()
	if calc.ID != expectedID {
		t.Errorf("ID = %d, expected %d", calc.ID, expectedID)
	}
	if calc.Date != "09.03.2026, 12:00:01" {
		t.Errorf("Date = %q", calc.Date)
	}
	if calc.LoanAmount != 8000000 || calc.MonthlyPayment <= 0 {
		t.Errorf("unexpected summary: %+v", calc)
	}
}

func TestServiceSaveRejects(t *testing.T) {
	s := newTestService()
	valid := loans.LoanParameters{PropertyPrice: 100, DownPayment: 10, LoanTermYears: 1, InterestRate: 5, PaymentType: loans.Annuity}

	tests := []struct {
		name   string
		title  string
		params loans.LoanParameters
		target error
	}{
		{"Empty title", "", valid, ErrEmptyTitle},
		{"Blank title", "   ", valid, ErrEmptyTitle},
		{"Invalid term", "ok", loans.LoanParameters{PropertyPrice: 100, DownPayment: 10, InterestRate: 5, PaymentType: loans.Annuity}, loans.ErrInvalidTerm},
		{"Rate too high", "ok", loans.LoanParameters{PropertyPrice: 100, DownPayment: 10, LoanTermYears: 1, InterestRate: 100000, PaymentType: loans.Annuity}, loans.ErrInterestRateTooHigh},
		{"Overflowing totals", "ok", loans.LoanParameters{PropertyPrice: 1e308, LoanTermYears: 50, InterestRate: 10, PaymentType: loans.Annuity}, loans.ErrNonFinite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(context.Background(), tt.title, tt.params, loans.Compute(tt.params))
			if !errors.Is(err, tt.target) {
				t.Errorf("Save() error = %v, expected %v", err, tt.target)
			}
		})
	}

	_, err := s.Save(context.Background(), "ok", valid, loans.Result{MonthlyPayment: math.NaN()})
	if !errors.Is(err, loans.ErrNonFinite) {
		t.Errorf("Save() with NaN payment error = %v, expected %v", err, loans.ErrNonFinite)
	}

	list, _ := s.Store().List(context.Background())
	if len(list) != 0 {
		t.Errorf("rejected saves should not be stored, found %d", len(list))
	}
}

func TestServiceQuery(t *testing.T) {
	s := newTestService()
	flat := saveSample(t, s, "Квартира в центре", 10000000, loans.Annuity)
	house := saveSample(t, s, "Дом", 25000000, loans.Differential)
	studio := saveSample(t, s, "Студия", 6500000, loans.Annuity)

	tests := []struct {
		name     string
		filter   Filter
		expected []int64
	}{
		{"Default sort is newest first", Filter{}, []int64{studio.ID, house.ID, flat.ID}},
		{"Sort by price", Filter{Sort: SortByPrice}, []int64{house.ID, flat.ID, studio.ID}},
		{"Sort by payment", Filter{Sort: SortByPayment}, []int64{house.ID, flat.ID, studio.ID}},
		{"Unknown sort falls back to date", Filter{Sort: "title"}, []int64{studio.ID, house.ID, flat.ID}},
		{"Title search ignores case", Filter{Search: "КВАРТИРА"}, []int64{flat.ID}},
		{"Price search matches digits", Filter{Search: "65"}, []int64{studio.ID}},
		{"Price search matches several", Filter{Search: "500"}, []int64{studio.ID, house.ID}},
		{"No match", Filter{Search: "офис"}, []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Query(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("Query() error = %v", err)
			}
			gotIDs := ids(got)
			if len(gotIDs) != len(tt.expected) {
				t.Fatalf("Query() = %v, expected %v", gotIDs, tt.expected)
			}
			for i := range gotIDs {
				if gotIDs[i] != tt.expected[i] {
					t.Fatalf("Query() = %v, expected %v", gotIDs, tt.expected)
				}
			}
		})
	}
}

func TestServiceAverage(t *testing.T) {
	s := newTestService()
	ctx := context.Background()

	avg, err := s.Average(ctx)
	if err != nil || avg != 0 {
		t.Fatalf("Average() of empty history = %v, %v; expected 0, nil", avg, err)
	}

	a := saveSample(t, s, "a", 10000000, loans.Annuity)
	b := saveSample(t, s, "b", 20000000, loans.Annuity)

	avg, err = s.Average(ctx)
	if err != nil {
		t.Fatalf("Average() error = %v", err)
	}
	expected := (a.MonthlyPayment + b.MonthlyPayment) / 2
	if avg != expected {
		t.Errorf("Average() = %v, expected %v", avg, expected)
	}
}

func TestServiceLoad(t *testing.T) {
	s := newTestService()
	saved := saveSample(t, s, "Дом", 10000000, loans.Differential)

	calc, result, err := s.Load(context.Background(), saved.ID)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if calc != saved {
		t.Errorf("Load() calculation = %+v, expected %+v", calc, saved)
	}
	if len(result.Schedule) != 240 {
		t.Errorf("Load() schedule has %d rows, expected 240", len(result.Schedule))
	}
	if result.TotalInterest != saved.TotalInterest {
		t.Errorf("recomputed TotalInterest = %v, stored %v", result.TotalInterest, saved.TotalInterest)
	}

	if _, _, err := s.Load(context.Background(), 1); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load() of missing id error = %v, expected ErrNotFound", err)
	}
}

func TestServiceDeleteAndClear(t *testing.T) {
	s := newTestService()
	ctx := context.Background()
	a := saveSample(t, s, "a", 10000000, loans.Annuity)
	saveSample(t, s, "b", 20000000, loans.Annuity)

	if err := s.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := s.Delete(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, expected ErrNotFound", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	list, _ := s.Query(ctx, Filter{})
	if len(list) != 0 {
		t.Errorf("history not empty after Clear: %v", ids(list))
	}
}
