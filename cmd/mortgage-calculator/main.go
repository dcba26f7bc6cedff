package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/iwvelando/mortgage-calculator/internal/config"
	"github.com/iwvelando/mortgage-calculator/internal/history"
	"github.com/iwvelando/mortgage-calculator/internal/keyrate"
	"github.com/iwvelando/mortgage-calculator/internal/logging"
	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	"github.com/iwvelando/mortgage-calculator/pkg/output"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
	"go.uber.org/zap"
)

// loadConfiguration reads the config file, falling back to built-in defaults
// when the default file is absent.
func loadConfiguration(path string, explicit bool) (*config.Configuration, error) {
	conf, err := config.LoadConfiguration(path)
	if err == nil {
		return conf, nil
	}
	if !explicit {
		if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
			return config.Default(), nil
		}
	}
	return nil, err
}

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, json")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	price := flag.Float64("price", 0, "property price")
	down := flag.Float64("down", 0, "down payment")
	years := flag.Int("years", 0, "loan term in years")
	rate := flag.Float64("rate", 0, "annual interest rate in percent")
	paymentTypeFlag := flag.String("type", "", "payment type: annuity or differential")
	title := flag.String("title", "", "calculation title")
	save := flag.Bool("save", false, "save the calculation to history")
	suggestRate := flag.Bool("suggest-rate", false, "use the central bank key rate plus the configured margin as the interest rate")
	flag.Parse()

	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	conf, err := loadConfiguration(*configLocation, set["config"])
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	// Initialize logging based on config and CLI override
	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if outputFormat == "" {
		outputFormat = constants.OutputFormatPretty
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}

	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}

	params := conf.Defaults.Params
	if set["price"] {
		params.PropertyPrice = *price
	}
	if set["down"] {
		params.DownPayment = *down
	}
	if set["years"] {
		params.LoanTermYears = *years
	}
	if set["rate"] {
		params.InterestRate = *rate
	}
	if set["type"] {
		params.PaymentType = loans.PaymentType(*paymentTypeFlag)
	}
	reportTitle := conf.Defaults.Title
	if set["title"] {
		reportTitle = *title
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *suggestRate {
		suggested, err := keyrate.NewClient(conf.KeyRate, logger).Fetch(ctx)
		if err != nil {
			logger.Fatal("failed to fetch key rate",
				zap.String("op", "main"),
				zap.Error(err),
			)
		}
		if set["rate"] {
			logger.Info(fmt.Sprintf("keeping -rate %.2f%%; suggested rate is %.2f%%", params.InterestRate, suggested.Suggested),
				zap.String("op", "main"),
			)
		} else {
			params.InterestRate = suggested.Suggested
		}
	}

	if err := loans.Validate(params); err != nil {
		logger.Fatal("invalid loan parameters",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	params.PaymentType, _ = loans.ParsePaymentType(string(params.PaymentType))

	result := loans.Compute(params)
	if !result.IsFinite() {
		logger.Fatal("calculation produced non-finite values",
			zap.String("op", "main"),
		)
	}

	report := output.Report{
		Title:      reportTitle,
		Params:     params,
		Result:     result,
		ExportedAt: time.Now(),
	}
	if err := output.Write(os.Stdout, outputFormat, report); err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	if !*save {
		return
	}

	store, closer, err := history.Open(ctx, logger, conf.History)
	if err != nil {
		logger.Fatal("failed to open calculation history",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer closer.Close()

	calc, err := history.NewService(store, logger).Save(ctx, reportTitle, params, result)
	if err != nil {
		logger.Fatal("failed to save calculation",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	logger.Info(fmt.Sprintf("saved calculation %q", calc.Title),
		zap.String("op", "main"),
		zap.Int64("id", calc.ID),
	)
}
