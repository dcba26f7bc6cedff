package loans

import (
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
)

// YearTotals summarises one year of a schedule.
type YearTotals struct {
	Year         int       `json:"year"`
	Payments     float64   `json:"payments"`
	Interest     float64   `json:"interest"`
	Principal    float64   `json:"principal"`
	FirstPayment float64   `json:"firstPayment"`
	LastPayment  float64   `json:"lastPayment"`
	Decrease     float64   `json:"decrease"`
	Rows         []Payment `json:"rows"`
}

// Analytics holds the cost breakdown shown alongside a result.
type Analytics struct {
	PrincipalShare           float64 `json:"principalShare"` // percent of total cost
	InterestShare            float64 `json:"interestShare"`  // percent of total cost
	OverpaymentPercent       float64 `json:"overpaymentPercent"`
	OverpaymentRatio         float64 `json:"overpaymentRatio"`
	YearlyOverpaymentPercent float64 `json:"yearlyOverpaymentPercent"`
	FirstYearInterest        float64 `json:"firstYearInterest"`
}

// YearSummary totals the months belonging to year (1-based). A year outside
// the schedule yields a summary with no rows.
func YearSummary(schedule []Payment, year int) YearTotals {
	totals := YearTotals{Year: year}
	if year < 1 {
		return totals
	}

	start := (year - 1) * constants.MonthsPerYear
	if start >= len(schedule) {
		return totals
	}
	end := min(start+constants.MonthsPerYear, len(schedule))

	rows := schedule[start:end]
	totals.Rows = append([]Payment(nil), rows...)
	for _, row := range rows {
		totals.Payments += row.Payment
		totals.Interest += row.Interest
		totals.Principal += row.Principal
	}
	totals.FirstPayment = rows[0].Payment
	totals.LastPayment = rows[len(rows)-1].Payment
	totals.Decrease = totals.FirstPayment - totals.LastPayment
	return totals
}

// YearCount returns the number of (possibly partial) years covered by the schedule.
func YearCount(schedule []Payment) int {
	return (len(schedule) + constants.MonthsPerYear - 1) / constants.MonthsPerYear
}

// Analyze derives the cost breakdown of a result.
func Analyze(result Result, loanTermYears int) Analytics {
	overpaymentRatio := mathutil.SafeDivide(result.TotalInterest, result.LoanAmount)
	overpaymentPercent := overpaymentRatio * constants.PercentageMultiplier

	return Analytics{
		PrincipalShare:           mathutil.CalculatePercentage(result.LoanAmount, result.TotalCost),
		InterestShare:            mathutil.CalculatePercentage(result.TotalInterest, result.TotalCost),
		OverpaymentPercent:       overpaymentPercent,
		OverpaymentRatio:         overpaymentRatio,
		YearlyOverpaymentPercent: mathutil.SafeDivide(overpaymentPercent, float64(loanTermYears)),
		FirstYearInterest:        YearSummary(result.Schedule, 1).Interest,
	}
}

// DownPaymentPercent returns the down payment as a percentage of the price.
func DownPaymentPercent(params LoanParameters) float64 {
	return mathutil.CalculatePercentage(params.DownPayment, params.PropertyPrice)
}
