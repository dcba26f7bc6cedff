// Package constants provides shared constants for the mortgage-calculator application.
package constants

import "time"

// DateTimeLayout is the layout used for export dates and file names.
const DateTimeLayout = "2006-01-02"

// DisplayDateLayout is the layout of the human-readable date stored with a
// saved calculation.
const DisplayDateLayout = "02.01.2006, 15:04:05"

// Financial constants
const (
	// MonthsPerYear is the number of months in a year
	MonthsPerYear = 12

	// DecimalPrecision is the precision for currency rounding (2 decimal places)
	DecimalPrecision = 100

	// PercentageMultiplier is used for percentage conversions
	PercentageMultiplier = 100.0

	// CurrencyTolerance is the tolerance for currency comparisons (1 kopeck)
	CurrencyTolerance = 0.01

	// CurrencySymbol is appended to formatted amounts
	CurrencySymbol = "₽"
)

// Default loan parameters, matching the initial state of the calculator form.
const (
	DefaultPropertyPrice = 10000000.0
	DefaultDownPayment   = 2000000.0
	DefaultLoanTermYears = 20
	DefaultInterestRate  = 7.5
	DefaultPaymentType   = "annuity"
	DefaultTitle         = "Новый расчет"
)

// Input bounds accepted by loan validation.
const (
	// MaxLoanTermYears is the longest accepted loan term
	MaxLoanTermYears = 50

	// MaxInterestRate is the highest accepted annual rate, in percent
	MaxInterestRate = 100.0
)

// Output format constants
const (
	// OutputFormatPretty is the human-readable output format
	OutputFormatPretty = "pretty"

	// OutputFormatCSV is the semicolon-delimited export format
	OutputFormatCSV = "csv"

	// OutputFormatJSON is the machine-readable output format
	OutputFormatJSON = "json"
)

// Configuration file constants
const (
	// DefaultConfigFile is the default configuration file name
	DefaultConfigFile = "config.yaml"

	// DefaultServerConfigFile is the default server configuration file name
	DefaultServerConfigFile = "server-config.yaml"

	// EnvPrefix is the prefix for environment overrides of config keys
	EnvPrefix = "MORTGAGE"
)

// Server configuration defaults
const (
	// DefaultServerAddress is the default HTTP listen address
	DefaultServerAddress = ":8080"

	// DefaultMaxBodySizeBytes is the default maximum request body size (64 KB)
	DefaultMaxBodySizeBytes int64 = 64 * 1024

	// DefaultShutdownTimeout bounds graceful shutdown
	DefaultShutdownTimeout = 10 * time.Second
)

// History defaults
const (
	// HistoryBackendMemory keeps saved calculations in process memory
	HistoryBackendMemory = "memory"

	// HistoryBackendRedis keeps saved calculations in Redis
	HistoryBackendRedis = "redis"

	// HistoryBackendPostgres keeps saved calculations in PostgreSQL
	HistoryBackendPostgres = "postgres"

	// DefaultHistoryKey is the storage key namespace for saved calculations
	DefaultHistoryKey = "mortgageCalculations"

	// DefaultRedisAddress is the default Redis address
	DefaultRedisAddress = "localhost:6379"
)

// Key rate defaults
const (
	// DefaultKeyRateURL is the Central Bank of Russia daily info web service
	DefaultKeyRateURL = "https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"

	// DefaultBankMargin is added on top of the key rate to suggest a mortgage rate
	DefaultBankMargin = 5.0

	// DefaultKeyRateLookbackDays is how far back the key rate request reaches
	DefaultKeyRateLookbackDays = 30
)
