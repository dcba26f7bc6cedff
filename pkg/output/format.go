// Package output provides utilities for formatting and exporting calculation results.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/format"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
)

// Delimiter separates CSV columns; a semicolon opens cleanly in spreadsheet
// applications using a comma decimal separator.
const Delimiter = ";"

const (
	byteOrderMark  = "\ufeff"
	untitled       = "Без названия"
	totalLabel     = "ИТОГО"
	disclaimerHead = "ПРИМЕЧАНИЕ:"
	disclaimer     = "Данный расчет является предварительным. Фактические условия кредитования могут отличаться."
)

var scheduleHeaders = []string{"Месяц", "Платеж (руб)", "Проценты (руб)", "Основной долг (руб)", "Остаток долга (руб)"}

// Report bundles one calculation with the metadata printed alongside it.
type Report struct {
	Title      string               `json:"title"`
	Params     loans.LoanParameters `json:"params"`
	Result     loans.Result         `json:"result"`
	ExportedAt time.Time            `json:"exportedAt"`
}

// PaymentTypeLabel returns the display name of a payment type.
func PaymentTypeLabel(paymentType loans.PaymentType) string {
	if paymentType == loans.Annuity {
		return "Аннуитетный"
	}
	return "Дифференцированный"
}

// ExportFileName returns the download name for a CSV export made at t.
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("график_платежей_%s.csv", t.Format(constants.DateTimeLayout))
}

// CsvString renders the report as the semicolon-delimited export: a header
// block with the loan parameters, the schedule with a totals row, and a
// closing note. Amounts are rounded to whole units.
func CsvString(report Report) string {
	var sb strings.Builder
	sb.WriteString(byteOrderMark)

	lines := []string{
		"ИПОТЕЧНЫЙ РАСЧЕТ",
		"Название: " + titleOrDefault(report.Title),
		"Дата экспорта: " + report.ExportedAt.Format("02.01.2006"),
		"",
		"ОСНОВНЫЕ ПАРАМЕТРЫ",
		fmt.Sprintf("Стоимость недвижимости: %d руб", format.Whole(report.Params.PropertyPrice)),
		fmt.Sprintf("Первоначальный взнос: %d руб", format.Whole(report.Params.DownPayment)),
		fmt.Sprintf("Срок кредита: %d лет", report.Params.LoanTermYears),
		"Процентная ставка: " + strconv.FormatFloat(report.Params.InterestRate, 'f', -1, 64) + "%",
		"Тип платежа: " + PaymentTypeLabel(report.Params.PaymentType),
		"",
		"ГРАФИК ПЛАТЕЖЕЙ",
		strings.Join(scheduleHeaders, Delimiter),
	}

	var totalPayment, totalInterest, totalPrincipal float64
	for _, row := range report.Result.Schedule {
		lines = append(lines, joinRow(
			strconv.Itoa(row.Month),
			wholeString(row.Payment),
			wholeString(row.Interest),
			wholeString(row.Principal),
			wholeString(row.Balance),
		))
		totalPayment += row.Payment
		totalInterest += row.Interest
		totalPrincipal += row.Principal
	}
	lines = append(lines,
		joinRow(totalLabel, wholeString(totalPayment), wholeString(totalInterest), wholeString(totalPrincipal), "0"),
		"",
		disclaimerHead,
		disclaimer,
	)

	sb.WriteString(strings.Join(lines, "\n"))
	return sb.String()
}

// CsvFormat writes the CSV export to w.
func CsvFormat(w io.Writer, report Report) error {
	_, err := io.WriteString(w, CsvString(report))
	return err
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, report Report) error {
	f := format.NewFormatter(format.DefaultLanguage)
	result := report.Result
	analytics := loans.Analyze(result, report.Params.LoanTermYears)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s ---\n", titleOrDefault(report.Title))
	summary := [][2]string{
		{"Тип платежа:", PaymentTypeLabel(report.Params.PaymentType)},
		{"Ежемесячный платеж:", f.Currency(result.MonthlyPayment)},
		{"Сумма кредита:", f.Currency(result.LoanAmount)},
		{"Общая переплата:", f.Currency(result.TotalInterest) + " (" + format.Percent(analytics.OverpaymentPercent, 1) + ")"},
		{"Общая стоимость:", f.Currency(result.TotalCost)},
	}
	for _, line := range summary {
		fmt.Fprintf(&sb, "%-20s %s\n", line[0], line[1])
	}
	sb.WriteString("\n")

	fmt.Fprintf(&sb, "Месяц | Платеж | Проценты | Основной долг | Остаток\n")
	fmt.Fprintf(&sb, "_____ | ______ | ________ | _____________ | _______\n")
	for _, row := range result.Schedule {
		fmt.Fprintf(&sb, "%5d | %s | %s | %s | %s\n",
			row.Month, f.Currency(row.Payment), f.Currency(row.Interest), f.Currency(row.Principal), f.Currency(row.Balance))
	}

	_, err := io.WriteString(w, sb.String())
	return err
}

// JSONFormat writes the report as indented JSON.
func JSONFormat(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// Write renders the report in the named output format.
func Write(w io.Writer, outputFormat string, report Report) error {
	switch outputFormat {
	case constants.OutputFormatCSV:
		return CsvFormat(w, report)
	case constants.OutputFormatJSON:
		return JSONFormat(w, report)
	case constants.OutputFormatPretty, "":
		return PrettyFormat(w, report)
	default:
		return fmt.Errorf("unsupported output format %q", outputFormat)
	}
}

func titleOrDefault(title string) string {
	if trimmed := strings.TrimSpace(title); trimmed != "" {
		return trimmed
	}
	return untitled
}

func wholeString(amount float64) string {
	return strconv.FormatInt(format.Whole(amount), 10)
}

func joinRow(cells ...string) string {
	return strings.Join(cells, Delimiter)
}
