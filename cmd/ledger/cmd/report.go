package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang-ledger-service/cmd/ledger/config"
	"golang-ledger-service/internal/analytics"
	"golang-ledger-service/internal/models"
	"golang-ledger-service/internal/reporter"
	"golang-ledger-service/internal/stores"
	"golang-ledger-service/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	reportTransactionsFile string
	reportClientsFile      string
	reportProjectsFile     string
	reportOutputFormat     string
	reportOutputFile       string
	reportProjectID        string
	reportStatus           string
	reportClientID         string
	reportFromDate         string
	reportToDate           string
	reportSortBy           string
	reportLimit            int
	reportTrend            string
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Analyze per-project and portfolio profitability",
	Long: `Report computes profitability metrics from linked transactions: revenue,
expenses, net profit, margin, and ROI per project, plus portfolio aggregates,
rankings, and profit trends over time.

Examples:
  # Portfolio overview with rankings by net profit
  ledger report --transactions-file tx.csv --clients-file clients.csv --projects-file projects.csv

  # Single project with a monthly profit trend
  ledger report -t tx.csv --clients-file clients.csv --projects-file projects.csv \
    --project-id p-1042 --trend month

  # In-progress projects for one client, ranked by margin
  ledger report -t tx.csv --clients-file clients.csv --projects-file projects.csv \
    --status in_progress --client-id c-7 --sort-by margin --limit 10`,

	PreRunE: validateReportFlags,
	RunE:    runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)

	// Required flags
	reportCmd.Flags().StringVarP(&reportTransactionsFile, "transactions-file", "t", "", "path to transactions CSV file (required)")
	reportCmd.Flags().StringVar(&reportClientsFile, "clients-file", "", "path to clients CSV file (required)")
	reportCmd.Flags().StringVar(&reportProjectsFile, "projects-file", "", "path to projects CSV file (required)")

	// Scope flags
	reportCmd.Flags().StringVar(&reportProjectID, "project-id", "", "report on a single project")
	reportCmd.Flags().StringVar(&reportStatus, "status", "", "filter projects by status: planning, in_progress, completed, cancelled")
	reportCmd.Flags().StringVar(&reportClientID, "client-id", "", "filter projects by client id")
	reportCmd.Flags().StringVar(&reportFromDate, "from", "", "filter projects starting on or after this date (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportToDate, "to", "", "filter projects starting on or before this date (YYYY-MM-DD)")

	// Ranking and trend flags
	reportCmd.Flags().StringVar(&reportSortBy, "sort-by", "profit", "ranking key: profit, margin, roi, revenue")
	reportCmd.Flags().IntVar(&reportLimit, "limit", 0, "maximum number of ranked projects (0 for all)")
	reportCmd.Flags().StringVar(&reportTrend, "trend", "", "profit trend bucketing: day, week, month (requires --project-id)")

	// Output flags
	reportCmd.Flags().StringVarP(&reportOutputFormat, "output-format", "f", "console", "output format: console, json, csv")
	reportCmd.Flags().StringVarP(&reportOutputFile, "output-file", "o", "", "output file path (default: stdout)")

	// Mark required flags
	reportCmd.MarkFlagRequired("transactions-file")
	reportCmd.MarkFlagRequired("clients-file")
	reportCmd.MarkFlagRequired("projects-file")
}

func validateReportFlags(cmd *cobra.Command, args []string) error {
	// Validate input files
	if err := validateFileExists(reportTransactionsFile, "transactions file"); err != nil {
		return err
	}
	if err := validateFileExists(reportClientsFile, "clients file"); err != nil {
		return err
	}
	if err := validateFileExists(reportProjectsFile, "projects file"); err != nil {
		return err
	}

	// Validate output format
	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[reportOutputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", reportOutputFormat)
	}

	// Single-project mode excludes the portfolio filters
	if reportProjectID != "" {
		if reportStatus != "" || reportClientID != "" || reportFromDate != "" || reportToDate != "" {
			return fmt.Errorf("--project-id cannot be combined with --status, --client-id, --from, or --to")
		}
	}

	// Validate status filter
	if reportStatus != "" {
		if _, err := models.ParseProjectStatus(reportStatus); err != nil {
			return fmt.Errorf("invalid status '%s'. Valid statuses: planning, in_progress, completed, cancelled", reportStatus)
		}
	}

	// Validate dates
	if reportFromDate != "" {
		if _, err := time.Parse("2006-01-02", reportFromDate); err != nil {
			return fmt.Errorf("invalid from date format. Use YYYY-MM-DD: %w", err)
		}
	}
	if reportToDate != "" {
		if _, err := time.Parse("2006-01-02", reportToDate); err != nil {
			return fmt.Errorf("invalid to date format. Use YYYY-MM-DD: %w", err)
		}
	}

	// Validate date range
	if reportFromDate != "" && reportToDate != "" {
		from, _ := time.Parse("2006-01-02", reportFromDate)
		to, _ := time.Parse("2006-01-02", reportToDate)
		if from.After(to) {
			return fmt.Errorf("from date cannot be after to date")
		}
	}

	// Validate ranking key
	validSortKeys := map[string]bool{"profit": true, "margin": true, "roi": true, "revenue": true}
	if !validSortKeys[reportSortBy] {
		return fmt.Errorf("invalid sort key '%s'. Valid keys: profit, margin, roi, revenue", reportSortBy)
	}

	if reportLimit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}

	// Validate trend period
	if reportTrend != "" {
		validPeriods := map[string]bool{"day": true, "week": true, "month": true}
		if !validPeriods[reportTrend] {
			return fmt.Errorf("invalid trend period '%s'. Valid periods: day, week, month", reportTrend)
		}
		if reportProjectID == "" {
			return fmt.Errorf("--trend requires --project-id")
		}
	}

	// Validate output file directory exists if specified
	if reportOutputFile != "" {
		dir := filepath.Dir(reportOutputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting profitability report...\n")
		fmt.Fprintf(os.Stderr, "Transactions file: %s\n", reportTransactionsFile)
		fmt.Fprintf(os.Stderr, "Clients file: %s\n", reportClientsFile)
		fmt.Fprintf(os.Stderr, "Projects file: %s\n", reportProjectsFile)
		if reportProjectID != "" {
			fmt.Fprintf(os.Stderr, "Project: %s\n", reportProjectID)
		}
	}

	// Load reference and transaction data
	store, err := stores.LoadCSVStore(ctx, stores.CSVStoreFiles{
		Transactions: reportTransactionsFile,
		Clients:      reportClientsFile,
		Projects:     reportProjectsFile,
	}, config.CreateParseConfig())
	if err != nil {
		return err
	}

	calculator := analytics.NewProfitabilityCalculator(store, store, nil)
	aggregator := analytics.NewPortfolioAggregator(calculator, nil)

	report := &reporter.PortfolioReport{GeneratedAt: time.Now()}

	if reportProjectID != "" {
		profitability, err := calculator.Calculate(ctx, reportProjectID)
		if err != nil {
			return err
		}
		if profitability == nil {
			return errors.ValidationError(errors.CodeMissingField, "project-id", reportProjectID,
				fmt.Errorf("project not found")).
				WithSuggestion("Check the project id against the projects file")
		}
		report.Rankings = []*analytics.ProjectProfitability{profitability}

		if reportTrend != "" {
			trend, err := aggregator.Trend(ctx, reportProjectID, reportTrend)
			if err != nil {
				return err
			}
			report.Trend = trend
			report.TrendProjectID = reportProjectID
		}
	} else {
		filter := stores.ProjectFilter{
			Status:   models.ProjectStatus(reportStatus),
			ClientID: reportClientID,
		}
		if reportFromDate != "" {
			from, _ := time.Parse("2006-01-02", reportFromDate)
			filter.From = from
		}
		if reportToDate != "" {
			to, _ := time.Parse("2006-01-02", reportToDate)
			filter.To = to
		}

		aggregates, err := aggregator.Aggregates(ctx, filter)
		if err != nil {
			return err
		}
		rankings, err := aggregator.Ranking(ctx, filter, reportLimit, reportSortBy)
		if err != nil {
			return err
		}
		report.Aggregates = aggregates
		report.Rankings = rankings
	}

	// Generate report
	reportConfig := config.CreateReportConfig(reportOutputFormat, 0, true)
	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	// Determine output destination
	var output *os.File
	if reportOutputFile != "" {
		output, err = os.Create(reportOutputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	if err := reportGenerator.WritePortfolioReport(report, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nReport completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Covered %d projects.\n", len(report.Rankings))
	}

	return nil
}
