// Package format renders amounts for display and export.
package format

import (
	"fmt"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/mathutil"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLanguage is the locale used by the package-level helpers.
var DefaultLanguage = language.Russian

// Formatter renders amounts using the grouping rules of one locale.
type Formatter struct {
	printer *message.Printer
}

// NewFormatter returns a Formatter for the given locale.
func NewFormatter(tag language.Tag) *Formatter {
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Whole rounds an amount to whole currency units, halves toward positive
// infinity (-2.5 becomes -2).
// Non-finite values round to zero.
func Whole(amount float64) int64 {
	if !mathutil.IsFinite(amount) {
		return 0
	}
	return decimal.NewFromFloat(amount).Add(decimal.New(5, -1)).Floor().IntPart()
}

// Number returns the amount rounded to whole units with locale thousands
// separators (e.g. "1 234 567").
func (f *Formatter) Number(amount float64) string {
	return f.printer.Sprintf("%d", Whole(amount))
}

// Currency returns the amount rounded to whole units with separators and the
// currency symbol (e.g. "1 234 567 ₽").
func (f *Formatter) Currency(amount float64) string {
	return f.Number(amount) + " " + constants.CurrencySymbol
}

// Currency formats an amount with the default locale.
func Currency(amount float64) string {
	return NewFormatter(DefaultLanguage).Currency(amount)
}

// Percent formats a percentage with a fixed number of decimals (e.g. "20.0%").
func Percent(value float64, decimals int) string {
	if !mathutil.IsFinite(value) {
		return "—"
	}
	return fmt.Sprintf("%.*f%%", decimals, value)
}
