// Package reporter renders matching and profitability results for human and
// machine consumption.
//
// Supported output formats:
//   - Console: human-readable tabular output for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: flat rows for spreadsheet applications
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang-ledger-service/internal/analytics"
	"golang-ledger-service/internal/models"
	"golang-ledger-service/internal/reconciler"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// ShowReasons includes per-suggestion reason strings in the output.
	ShowReasons bool `json:"show_reasons"`

	// MinConfidence hides suggestions scoring below it. The summary always
	// covers the whole batch.
	MinConfidence float64 `json:"min_confidence"`

	// Console formatting options
	UseColors bool `json:"use_colors"`

	// CSV options
	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:        FormatConsole,
		ShowReasons:   true,
		MinConfidence: 0,
		UseColors:     true,
		CSVDelimiter:  ',',
		CSVHeaders:    true,
	}
}

// Validate validates the report configuration.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min confidence must be between 0.0 and 1.0, got %f", c.MinConfidence)
	}
	return nil
}

// BatchReport is the renderable outcome of one batch matching run.
type BatchReport struct {
	GeneratedAt time.Time
	Summary     *reconciler.BatchSummary
	Results     []*reconciler.MatchingResult
}

// PortfolioReport is the renderable outcome of a portfolio analytics run.
type PortfolioReport struct {
	GeneratedAt time.Time
	Aggregates  *analytics.PortfolioAggregates
	Rankings    []*analytics.ProjectProfitability

	// Trend is optional; TrendProjectID names the project it covers.
	Trend          []*analytics.TrendPoint
	TrendProjectID string
}

// ReportGenerator renders reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a report generator with the given
// configuration, defaulting when nil.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// WriteBatchReport renders a batch matching report to the writer.
func (rg *ReportGenerator) WriteBatchReport(report *BatchReport, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("batch report cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.batchConsole(report, writer)
	case FormatJSON:
		return rg.batchJSON(report, writer)
	case FormatCSV:
		return rg.batchCSV(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// WritePortfolioReport renders a portfolio analytics report to the writer.
func (rg *ReportGenerator) WritePortfolioReport(report *PortfolioReport, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("portfolio report cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.portfolioConsole(report, writer)
	case FormatJSON:
		return rg.portfolioJSON(report, writer)
	case FormatCSV:
		return rg.portfolioCSV(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) visibleResults(results []*reconciler.MatchingResult) []*reconciler.MatchingResult {
	if rg.config.MinConfidence <= 0 {
		return results
	}
	var visible []*reconciler.MatchingResult
	for _, result := range results {
		if result.Confidence >= rg.config.MinConfidence {
			visible = append(visible, result)
		}
	}
	return visible
}

func (rg *ReportGenerator) batchConsole(report *BatchReport, writer io.Writer) error {
	fmt.Fprintf(writer, "MATCHING REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", report.GeneratedAt.Format(time.RFC3339))
	if report.Summary != nil {
		fmt.Fprintf(writer, "Run ID: %s\n\n", report.Summary.RunID)

		fmt.Fprintf(writer, "=== SUMMARY ===\n")
		fmt.Fprintf(writer, "%-25s %d\n", "Total Transactions:", report.Summary.Total)
		for _, matchType := range []models.MatchType{
			models.MatchTypeExact, models.MatchTypeFuzzy, models.MatchTypeDateAmount, models.MatchTypeNone,
		} {
			fmt.Fprintf(writer, "%-25s %d\n",
				fmt.Sprintf("%s:", matchType), report.Summary.CountsByType[matchType])
		}
		fmt.Fprintf(writer, "%-25s %.2f\n\n", "Mean Confidence:", report.Summary.MeanConfidence)
	}

	visible := rg.visibleResults(report.Results)
	if len(visible) == 0 {
		return nil
	}

	fmt.Fprintf(writer, "=== SUGGESTIONS ===\n")
	for _, result := range visible {
		client, project := "-", "-"
		if result.Client != nil {
			client = result.Client.Name
		}
		if result.Project != nil {
			project = result.Project.Name
		}

		fmt.Fprintf(writer, "%-15s %-12s %.2f  %s -> %s / %s\n",
			result.Transaction.ID,
			rg.colorMatchType(result.MatchType),
			result.Confidence,
			result.Transaction.SupplierName,
			client,
			project,
		)
		if rg.config.ShowReasons && result.Reason != "" {
			fmt.Fprintf(writer, "    reason: %s\n", result.Reason)
		}
	}

	return nil
}

func (rg *ReportGenerator) colorMatchType(matchType models.MatchType) string {
	if !rg.config.UseColors {
		return string(matchType)
	}

	switch matchType {
	case models.MatchTypeExact:
		return "\033[32m" + string(matchType) + "\033[0m"
	case models.MatchTypeFuzzy:
		return "\033[33m" + string(matchType) + "\033[0m"
	case models.MatchTypeDateAmount:
		return "\033[36m" + string(matchType) + "\033[0m"
	default:
		return "\033[31m" + string(matchType) + "\033[0m"
	}
}

func (rg *ReportGenerator) batchJSON(report *BatchReport, writer io.Writer) error {
	payload := map[string]interface{}{
		"generated_at": report.GeneratedAt.Format(time.RFC3339),
	}

	if report.Summary != nil {
		counts := make(map[string]int, len(report.Summary.CountsByType))
		for matchType, count := range report.Summary.CountsByType {
			counts[string(matchType)] = count
		}
		payload["summary"] = map[string]interface{}{
			"run_id":          report.Summary.RunID,
			"total":           report.Summary.Total,
			"counts_by_type":  counts,
			"mean_confidence": report.Summary.MeanConfidence,
		}
	}

	var suggestions []map[string]interface{}
	for _, result := range rg.visibleResults(report.Results) {
		entry := map[string]interface{}{
			"transaction_id": result.Transaction.ID,
			"supplier_name":  result.Transaction.SupplierName,
			"match_type":     string(result.MatchType),
			"confidence":     result.Confidence,
		}
		if result.Client != nil {
			entry["client_id"] = result.Client.ID
			entry["client_name"] = result.Client.Name
		}
		if result.Project != nil {
			entry["project_id"] = result.Project.ID
			entry["project_name"] = result.Project.Name
		}
		if rg.config.ShowReasons {
			entry["reason"] = result.Reason
		}
		suggestions = append(suggestions, entry)
	}
	payload["suggestions"] = suggestions

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func (rg *ReportGenerator) batchCSV(report *BatchReport, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"transaction_id", "supplier_name", "match_type", "confidence",
			"client_id", "client_name", "project_id", "project_name",
		}
		if rg.config.ShowReasons {
			headers = append(headers, "reason")
		}
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
	}

	for _, result := range rg.visibleResults(report.Results) {
		clientID, clientName, projectID, projectName := "", "", "", ""
		if result.Client != nil {
			clientID, clientName = result.Client.ID, result.Client.Name
		}
		if result.Project != nil {
			projectID, projectName = result.Project.ID, result.Project.Name
		}

		row := []string{
			result.Transaction.ID,
			result.Transaction.SupplierName,
			string(result.MatchType),
			strconv.FormatFloat(result.Confidence, 'f', 4, 64),
			clientID, clientName, projectID, projectName,
		}
		if rg.config.ShowReasons {
			row = append(row, result.Reason)
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (rg *ReportGenerator) portfolioConsole(report *PortfolioReport, writer io.Writer) error {
	fmt.Fprintf(writer, "PORTFOLIO REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n\n", report.GeneratedAt.Format(time.RFC3339))

	if report.Aggregates != nil {
		a := report.Aggregates
		fmt.Fprintf(writer, "=== AGGREGATES ===\n")
		fmt.Fprintf(writer, "%-20s %d\n", "Projects:", a.ProjectCount)
		fmt.Fprintf(writer, "%-20s %s\n", "Total Revenue:", a.TotalRevenue)
		fmt.Fprintf(writer, "%-20s %s\n", "Total Expense:", a.TotalExpense)
		fmt.Fprintf(writer, "%-20s %s\n", "Total Profit:", a.TotalProfit)
		fmt.Fprintf(writer, "%-20s %.2f%%\n", "Mean Margin:", a.MeanMargin)
		fmt.Fprintf(writer, "%-20s %.2f%%\n", "Mean ROI:", a.MeanROI)
		if a.Best != nil {
			fmt.Fprintf(writer, "%-20s %s (%.2f%%)\n", "Best Margin:", a.Best.ProjectName, a.Best.ProfitMargin)
		}
		if a.Worst != nil {
			fmt.Fprintf(writer, "%-20s %s (%.2f%%)\n", "Worst Margin:", a.Worst.ProjectName, a.Worst.ProfitMargin)
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(report.Rankings) > 0 {
		fmt.Fprintf(writer, "=== RANKINGS ===\n")
		for i, p := range report.Rankings {
			fmt.Fprintf(writer, "%2d. %-25s profit=%-12s margin=%6.2f%% roi=%7.2f%% revenue=%s\n",
				i+1, p.ProjectName, p.NetProfit, p.ProfitMargin, p.ROI, p.Revenue)
		}
		fmt.Fprintf(writer, "\n")
	}

	if len(report.Trend) > 0 {
		fmt.Fprintf(writer, "=== TREND (%s) ===\n", report.TrendProjectID)
		for _, point := range report.Trend {
			fmt.Fprintf(writer, "%s  revenue=%-12s expense=%-12s profit=%-12s cumulative=%s\n",
				point.Bucket.Format("2006-01-02"),
				point.Revenue, point.Expense, point.Profit, point.CumulativeProfit)
		}
	}

	return nil
}

func (rg *ReportGenerator) portfolioJSON(report *PortfolioReport, writer io.Writer) error {
	payload := map[string]interface{}{
		"generated_at": report.GeneratedAt.Format(time.RFC3339),
	}

	if report.Aggregates != nil {
		a := report.Aggregates
		aggregates := map[string]interface{}{
			"project_count": a.ProjectCount,
			"total_revenue": a.TotalRevenue,
			"total_expense": a.TotalExpense,
			"total_profit":  a.TotalProfit,
			"mean_margin":   a.MeanMargin,
			"mean_roi":      a.MeanROI,
		}
		if a.Best != nil {
			aggregates["best_project"] = a.Best.ProjectID
		}
		if a.Worst != nil {
			aggregates["worst_project"] = a.Worst.ProjectID
		}
		payload["aggregates"] = aggregates
	}

	var rankings []map[string]interface{}
	for _, p := range report.Rankings {
		rankings = append(rankings, map[string]interface{}{
			"project_id":         p.ProjectID,
			"project_name":       p.ProjectName,
			"client_id":          p.ClientID,
			"status":             string(p.Status),
			"revenue":            p.Revenue,
			"expense":            p.Expense,
			"net_profit":         p.NetProfit,
			"profit_margin":      p.ProfitMargin,
			"roi":                p.ROI,
			"transaction_count":  p.TransactionCount,
			"completion_rate":    p.CompletionRate,
			"budget_utilization": p.BudgetUtilization,
		})
	}
	payload["rankings"] = rankings

	if len(report.Trend) > 0 {
		var trend []map[string]interface{}
		for _, point := range report.Trend {
			trend = append(trend, map[string]interface{}{
				"bucket":            point.Bucket.Format("2006-01-02"),
				"revenue":           point.Revenue,
				"expense":           point.Expense,
				"profit":            point.Profit,
				"cumulative_profit": point.CumulativeProfit,
			})
		}
		payload["trend"] = map[string]interface{}{
			"project_id": report.TrendProjectID,
			"points":     trend,
		}
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func (rg *ReportGenerator) portfolioCSV(report *PortfolioReport, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter
	defer csvWriter.Flush()

	if rg.config.CSVHeaders {
		headers := []string{
			"project_id", "project_name", "client_id", "status",
			"revenue", "expense", "net_profit", "profit_margin", "roi",
			"transaction_count", "completion_rate", "budget_utilization",
		}
		if err := csvWriter.Write(headers); err != nil {
			return err
		}
	}

	for _, p := range report.Rankings {
		row := []string{
			p.ProjectID,
			p.ProjectName,
			p.ClientID,
			string(p.Status),
			p.Revenue.String(),
			p.Expense.String(),
			p.NetProfit.String(),
			strconv.FormatFloat(p.ProfitMargin, 'f', 2, 64),
			strconv.FormatFloat(p.ROI, 'f', 2, 64),
			strconv.Itoa(p.TransactionCount),
			strconv.FormatFloat(p.CompletionRate, 'f', 2, 64),
			strconv.FormatFloat(p.BudgetUtilization, 'f', 2, 64),
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
