package config

import (
	"fmt"

	"golang-ledger-service/internal/matcher"
	"golang-ledger-service/internal/parsers"
	"golang-ledger-service/internal/reporter"
	"golang-ledger-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// CreateLoggerConfig creates a logger configuration from the root flags.
func CreateLoggerConfig(verbose bool, format string) *logger.Config {
	config := logger.DefaultConfig()
	if verbose {
		config = logger.DebugConfig()
	}

	switch format {
	case "json":
		config.Format = logger.JSONFormat
	case "text", "":
		config.Format = logger.TextFormat
	}

	return config
}

// CreateParseConfig creates the CSV parser configuration shared by all
// input files.
func CreateParseConfig() *parsers.ParseConfig {
	return parsers.DefaultParseConfig()
}

// CreateMatchConfig creates a matching configuration from the named profile
// with CLI overrides applied. Negative override values keep the profile's
// own setting.
func CreateMatchConfig(profile string, nearWindowDays int, budgetRatio float64) (*matcher.MatchConfig, error) {
	var config *matcher.MatchConfig

	switch profile {
	case "", "default":
		config = matcher.DefaultMatchConfig()
	case "strict":
		config = matcher.StrictMatchConfig()
	case "relaxed":
		config = matcher.RelaxedMatchConfig()
	default:
		return nil, fmt.Errorf("unknown matching profile '%s'. Valid profiles: default, strict, relaxed", profile)
	}

	// Apply CLI overrides
	if nearWindowDays >= 0 {
		config.NearWindowDays = nearWindowDays
	}
	if budgetRatio >= 0 {
		config.BudgetRatioCeiling = decimal.NewFromFloat(budgetRatio)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid matching config: %w", err)
	}

	return config, nil
}

// CreateReportConfig creates a report configuration for the specified
// output format.
func CreateReportConfig(format string, minConfidence float64, showReasons bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()
	config.MinConfidence = minConfidence
	config.ShowReasons = showReasons

	switch format {
	case "console":
		config.Format = reporter.FormatConsole
		config.UseColors = true
	case "json":
		config.Format = reporter.FormatJSON
		config.UseColors = false
	case "csv":
		config.Format = reporter.FormatCSV
		config.UseColors = false
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	}

	return config
}
