// Package config defines the data structures related to configuration and
// includes functions for loading and validating it.
package config

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/mortgage-calculator/pkg/constants"
	"github.com/iwvelando/mortgage-calculator/pkg/loans"
	"github.com/iwvelando/mortgage-calculator/pkg/validation"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for mortgage-calculator.
type Configuration struct {
	Logging  LoggingConfig  `yaml:"logging,omitempty" mapstructure:"logging"`
	Output   OutputConfig   `yaml:"output,omitempty" mapstructure:"output"`
	Defaults DefaultsConfig `yaml:"defaults,omitempty" mapstructure:"defaults"`
	History  HistoryConfig  `yaml:"history,omitempty" mapstructure:"history"`
	KeyRate  KeyRateConfig  `yaml:"keyRate,omitempty" mapstructure:"keyRate"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty" mapstructure:"level"`           // debug, info, warn, error
	Format     string `yaml:"format,omitempty" mapstructure:"format"`         // json, console
	OutputFile string `yaml:"outputFile,omitempty" mapstructure:"outputFile"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty" mapstructure:"format"` // pretty, csv, json
}

// DefaultsConfig holds the loan parameters used when none are given.
type DefaultsConfig struct {
	Title  string               `yaml:"title,omitempty" mapstructure:"title"`
	Params loans.LoanParameters `yaml:"params,omitempty" mapstructure:"params"`
}

// HistoryConfig selects and configures the saved calculation store.
type HistoryConfig struct {
	Backend           string `yaml:"backend,omitempty" mapstructure:"backend"` // memory, redis, postgres
	Key               string `yaml:"key,omitempty" mapstructure:"key"`
	RedisAddress      string `yaml:"redisAddress,omitempty" mapstructure:"redisAddress"`
	RedisPassword     string `yaml:"redisPassword,omitempty" mapstructure:"redisPassword"`
	RedisDB           int    `yaml:"redisDB,omitempty" mapstructure:"redisDB"`
	PostgresDSN       string `yaml:"postgresDSN,omitempty" mapstructure:"postgresDSN"`
	MaxEntries        int    `yaml:"maxEntries,omitempty" mapstructure:"maxEntries"`
	RetentionSchedule string `yaml:"retentionSchedule,omitempty" mapstructure:"retentionSchedule"` // cron spec
}

// KeyRateConfig configures the central bank key rate lookup.
type KeyRateConfig struct {
	URL          string        `yaml:"url,omitempty" mapstructure:"url"`
	Margin       float64       `yaml:"margin,omitempty" mapstructure:"margin"`
	LookbackDays int           `yaml:"lookbackDays,omitempty" mapstructure:"lookbackDays"`
	Timeout      time.Duration `yaml:"timeout,omitempty" mapstructure:"timeout"`
}

// newViper returns a viper instance with defaults and environment overrides
// (e.g. MORTGAGE_HISTORY_BACKEND) registered.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yml")
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("output.format", constants.OutputFormatPretty)
	v.SetDefault("defaults.title", constants.DefaultTitle)
	v.SetDefault("defaults.params.propertyPrice", constants.DefaultPropertyPrice)
	v.SetDefault("defaults.params.downPayment", constants.DefaultDownPayment)
	v.SetDefault("defaults.params.loanTerm", constants.DefaultLoanTermYears)
	v.SetDefault("defaults.params.interestRate", constants.DefaultInterestRate)
	v.SetDefault("defaults.params.paymentType", constants.DefaultPaymentType)
	v.SetDefault("history.backend", constants.HistoryBackendMemory)
	v.SetDefault("history.key", constants.DefaultHistoryKey)
	v.SetDefault("history.redisAddress", constants.DefaultRedisAddress)
	v.SetDefault("history.redisPassword", "")
	v.SetDefault("history.redisDB", 0)
	v.SetDefault("history.postgresDSN", "")
	v.SetDefault("history.maxEntries", 0)
	v.SetDefault("history.retentionSchedule", "")
	v.SetDefault("keyRate.url", constants.DefaultKeyRateURL)
	v.SetDefault("keyRate.margin", constants.DefaultBankMargin)
	v.SetDefault("keyRate.lookbackDays", constants.DefaultKeyRateLookbackDays)
	v.SetDefault("keyRate.timeout", 10*time.Second)
	return v
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads YAML configuration from r.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	v := newViper()
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("error reading config data, %s", err)
	}

	return decode(v)
}

// Default returns the configuration used when no file is present.
func Default() *Configuration {
	conf, err := decode(newViper())
	if err != nil {
		// Defaults are static and always decode.
		panic(err)
	}
	return conf
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.normalize()
	return &configuration, nil
}

func (c *Configuration) normalize() {
	c.History.Backend = strings.ToLower(strings.TrimSpace(c.History.Backend))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))
	c.Defaults.Params.PaymentType = loans.PaymentType(strings.ToLower(strings.TrimSpace(string(c.Defaults.Params.PaymentType))))
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var warnings []string

	if err := loans.Validate(c.Defaults.Params); err != nil {
		warnings = append(warnings, fmt.Sprintf("default loan parameters are invalid: %v", err))
	}

	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		warnings = append(warnings, err.Error())
	}

	if err := validation.ValidateHistoryBackend(c.History.Backend); err != nil {
		warnings = append(warnings, fmt.Sprintf("unknown history backend %q, falling back to %s",
			c.History.Backend, constants.HistoryBackendMemory))
	}

	switch c.History.Backend {
	case constants.HistoryBackendMemory:
		if c.History.MaxEntries > 0 || c.History.RetentionSchedule != "" {
			warnings = append(warnings, "history retention has no lasting effect with the memory backend")
		}
	case constants.HistoryBackendRedis:
		if c.History.RedisAddress == "" {
			warnings = append(warnings, "history backend is redis but no redisAddress is set")
		}
	case constants.HistoryBackendPostgres:
		if c.History.PostgresDSN == "" {
			warnings = append(warnings, "history backend is postgres but no postgresDSN is set")
		}
	}

	if c.History.RetentionSchedule != "" && c.History.MaxEntries <= 0 {
		warnings = append(warnings, "history retentionSchedule is set but maxEntries is not positive; retention is disabled")
	}

	if c.KeyRate.Margin < 0 {
		warnings = append(warnings, fmt.Sprintf("key rate margin %.2f is negative", c.KeyRate.Margin))
	}

	return warnings
}
