// Package analytics computes per-project profitability metrics and
// portfolio-level aggregations over linked transactions.
package analytics

import (
	"context"
	"time"

	"golang-ledger-service/internal/models"
	"golang-ledger-service/internal/stores"
	"golang-ledger-service/pkg/errors"
	"golang-ledger-service/pkg/logger"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ProjectProfitability holds the financial metrics of one project.
type ProjectProfitability struct {
	ProjectID   string
	ProjectName string
	ClientID    string
	Status      models.ProjectStatus

	Revenue   decimal.Decimal
	Expense   decimal.Decimal
	VAT       decimal.Decimal
	NetProfit decimal.Decimal

	// ProfitMargin and ROI are percentages; both are zero when their
	// denominator is zero.
	ProfitMargin float64
	ROI          float64

	TransactionCount int
	SaleCount        int
	PurchaseCount    int
	AvgTransaction   decimal.Decimal
	LastTransaction  *time.Time

	// CompletionRate estimates schedule progress as a percentage.
	CompletionRate float64

	// BudgetUtilization is expense over budget as a percentage, zero when
	// the project has no budget.
	BudgetUtilization float64
}

// ProfitabilityCalculator derives profitability metrics from stored
// transactions.
type ProfitabilityCalculator struct {
	refStore stores.ClientProjectStore
	txStore  stores.TransactionStore
	logger   logger.Logger

	// Now is the clock used for schedule progress; tests inject a fixed one.
	Now func() time.Time
}

// NewProfitabilityCalculator creates a calculator over the given stores.
func NewProfitabilityCalculator(refStore stores.ClientProjectStore, txStore stores.TransactionStore, log logger.Logger) *ProfitabilityCalculator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &ProfitabilityCalculator{
		refStore: refStore,
		txStore:  txStore,
		logger:   log.WithComponent("profitability"),
		Now:      time.Now,
	}
}

// Calculate computes the metrics for one project. An unknown project id
// returns (nil, nil); a project with no transactions returns zero-valued
// metrics.
func (pc *ProfitabilityCalculator) Calculate(ctx context.Context, projectID string) (*ProjectProfitability, error) {
	project, err := pc.refStore.GetProject(ctx, projectID)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreQueryFailed, "get project", err)
	}
	if project == nil {
		return nil, nil
	}

	transactions, err := pc.txStore.ListByProject(ctx, projectID)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreQueryFailed, "list project transactions", err)
	}

	result := &ProjectProfitability{
		ProjectID:   project.ID,
		ProjectName: project.Name,
		ClientID:    project.ClientID,
		Status:      project.Status,
	}

	for _, tx := range transactions {
		result.TransactionCount++
		result.VAT = result.VAT.Add(tx.VATAmount)

		if tx.IsSale() {
			result.SaleCount++
			result.Revenue = result.Revenue.Add(tx.TotalAmount)
		} else {
			result.PurchaseCount++
			result.Expense = result.Expense.Add(tx.TotalAmount)
		}

		if result.LastTransaction == nil || tx.TransactionDate.After(*result.LastTransaction) {
			date := tx.TransactionDate
			result.LastTransaction = &date
		}
	}

	result.NetProfit = result.Revenue.Sub(result.Expense)

	if !result.Revenue.IsZero() {
		result.ProfitMargin, _ = result.NetProfit.Div(result.Revenue).Mul(hundred).Float64()
	}
	if !result.Expense.IsZero() {
		result.ROI, _ = result.NetProfit.Div(result.Expense).Mul(hundred).Float64()
	}
	if result.TransactionCount > 0 {
		volume := result.Revenue.Add(result.Expense)
		result.AvgTransaction = volume.Div(decimal.NewFromInt(int64(result.TransactionCount)))
	}

	result.CompletionRate = pc.completionRate(project)

	if project.HasBudget() && !project.Budget.IsZero() {
		result.BudgetUtilization, _ = result.Expense.Div(*project.Budget).Mul(hundred).Float64()
	}

	pc.logger.WithFields(logger.Fields{
		"project_id":   projectID,
		"transactions": result.TransactionCount,
		"net_profit":   result.NetProfit.String(),
	}).Debug("Calculated project profitability")

	return result, nil
}

// completionRate estimates how far along a project is. Completed projects
// are 100%; in-progress projects interpolate elapsed time over the planned
// window, clamped to [0, 100].
func (pc *ProfitabilityCalculator) completionRate(project *models.Project) float64 {
	switch project.Status {
	case models.ProjectStatusCompleted:
		return 100
	case models.ProjectStatusInProgress:
		if project.StartDate.IsZero() {
			return 0
		}

		now := pc.Now()
		end := now
		if project.EndDate != nil {
			end = *project.EndDate
		}

		window := end.Sub(project.StartDate)
		if window <= 0 {
			return 0
		}

		elapsed := now.Sub(project.StartDate)
		rate := float64(elapsed) / float64(window) * 100
		if rate < 0 {
			return 0
		}
		if rate > 100 {
			return 100
		}
		return rate
	default:
		return 0
	}
}
