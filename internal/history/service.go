package history

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	"go.uber.org/zap"
)

// ErrEmptyTitle is returned when saving a calculation without a title.
var ErrEmptyTitle = errors.New("введите название расчета")

// Sort orders accepted by Query.
const (
	SortByDate    = "date"
	SortByPrice   = "price"
	SortByPayment = "payment"
)

// Filter narrows and orders the result of Query.
type Filter struct {
	// Search matches the title case-insensitively or the property price as a
	// digit substring. Empty matches everything.
	Search string
	// Sort is one of SortByDate, SortByPrice, SortByPayment; anything else
	// sorts by date.
	Sort string
}

// Service records calculations in a Store.
type Service struct {
	store  Store
	logger *zap.Logger
	now    func() time.Time
}

// NewService returns a Service over store.
func NewService(store Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// WithClock replaces the clock used for ids and dates.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Store returns the underlying store.
func (s *Service) Store() Store {
	return s.store
}

// Save records a calculation under the current time. A result with
// non-finite totals is rejected with loans.ErrNonFinite.
func (s *Service) Save(ctx context.Context, title string, params loans.LoanParameters, result loans.Result) (Calculation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Calculation{}, ErrEmptyTitle
	}
	if err := loans.Validate(params); err != nil {
		return Calculation{}, err
	}
	if !result.IsFinite() {
		return Calculation{}, loans.ErrNonFinite
	}

	now := s.now()
	calc := Calculation{
		ID:             now.UnixMilli(),
		Title:          title,
		Date:           now.Format(constants.DisplayDateLayout),
		PropertyPrice:  params.PropertyPrice,
		DownPayment:    params.DownPayment,
		LoanTermYears:  params.LoanTermYears,
		InterestRate:   params.InterestRate,
		PaymentType:    params.PaymentType,
		MonthlyPayment: result.MonthlyPayment,
		LoanAmount:     result.LoanAmount,
		TotalInterest:  result.TotalInterest,
		TotalCost:      result.TotalCost,
	}

	if err := s.store.Save(ctx, calc); err != nil {
		s.logger.Error("failed to save calculation",
			zap.String("op", "history.Save"),
			zap.Int64("id", calc.ID),
			zap.Error(err),
		)
		return Calculation{}, err
	}

	s.logger.Debug(fmt.Sprintf("saved calculation %q", calc.Title),
		zap.String("op", "history.Save"),
		zap.Int64("id", calc.ID),
	)
	return calc, nil
}

// Query returns the saved calculations matching f in the requested order.
func (s *Service) Query(ctx context.Context, f Filter) ([]Calculation, error) {
	calcs, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	search := strings.ToLower(strings.TrimSpace(f.Search))
	matched := make([]Calculation, 0, len(calcs))
	for _, calc := range calcs {
		if search == "" || matches(calc, search) {
			matched = append(matched, calc)
		}
	}

	switch f.Sort {
	case SortByPrice:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].PropertyPrice > matched[j].PropertyPrice
		})
	case SortByPayment:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].MonthlyPayment > matched[j].MonthlyPayment
		})
	default:
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].ID > matched[j].ID
		})
	}
	return matched, nil
}

func matches(calc Calculation, search string) bool {
	if strings.Contains(strings.ToLower(calc.Title), search) {
		return true
	}
	return strings.Contains(strconv.FormatFloat(calc.PropertyPrice, 'f', -1, 64), search)
}

// Average returns the mean monthly payment of calcs, or 0 when empty.
func Average(calcs []Calculation) float64 {
	if len(calcs) == 0 {
		return 0
	}
	var sum float64
	for _, calc := range calcs {
		sum += calc.MonthlyPayment
	}
	return sum / float64(len(calcs))
}

// Average returns the mean monthly payment over every saved calculation.
func (s *Service) Average(ctx context.Context) (float64, error) {
	calcs, err := s.store.List(ctx)
	if err != nil {
		return 0, err
	}
	return Average(calcs), nil
}

// Load returns a saved calculation with its schedule recomputed.
func (s *Service) Load(ctx context.Context, id int64) (Calculation, loans.Result, error) {
	calc, err := s.store.Get(ctx, id)
	if err != nil {
		return Calculation{}, loans.Result{}, err
	}
	return calc, loans.Compute(calc.Params()), nil
}

// Delete removes one saved calculation.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Debug("deleted calculation",
		zap.String("op", "history.Delete"),
		zap.Int64("id", id),
	)
	return nil
}

// Clear removes every saved calculation.
func (s *Service) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.logger.Info("cleared calculation history",
		zap.String("op", "history.Clear"),
	)
	return nil
}
