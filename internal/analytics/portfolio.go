package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang-ledger-service/internal/models"
	"golang-ledger-service/internal/stores"
	"golang-ledger-service/pkg/errors"
	"golang-ledger-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// Ranking sort keys.
const (
	SortByProfit  = "profit"
	SortByMargin  = "margin"
	SortByROI     = "roi"
	SortByRevenue = "revenue"
)

// Trend bucket periods.
const (
	PeriodDay   = "day"
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// PortfolioAggregates sums profitability across a set of projects.
type PortfolioAggregates struct {
	ProjectCount int

	TotalRevenue decimal.Decimal
	TotalExpense decimal.Decimal
	TotalProfit  decimal.Decimal

	// MeanMargin and MeanROI are simple means over the projects.
	MeanMargin float64
	MeanROI    float64

	// Best and Worst rank by profit margin; ties keep the first seen.
	Best  *ProjectProfitability
	Worst *ProjectProfitability
}

// TrendPoint is one time bucket of a project's profit trend.
type TrendPoint struct {
	Bucket  time.Time
	Revenue decimal.Decimal
	Expense decimal.Decimal
	Profit  decimal.Decimal

	// CumulativeProfit is the running profit up to and including this bucket.
	CumulativeProfit decimal.Decimal
}

// PortfolioAggregator computes portfolio-level views on top of the
// profitability calculator.
type PortfolioAggregator struct {
	calculator *ProfitabilityCalculator
	refStore   stores.ClientProjectStore
	txStore    stores.TransactionStore
	logger     logger.Logger
}

// NewPortfolioAggregator creates an aggregator sharing the calculator's
// stores.
func NewPortfolioAggregator(calculator *ProfitabilityCalculator, log logger.Logger) *PortfolioAggregator {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &PortfolioAggregator{
		calculator: calculator,
		refStore:   calculator.refStore,
		txStore:    calculator.txStore,
		logger:     log.WithComponent("portfolio"),
	}
}

// CalculateMany computes profitability for the given project ids, in input
// order. Unknown ids are skipped.
func (pa *PortfolioAggregator) CalculateMany(ctx context.Context, projectIDs []string) ([]*ProjectProfitability, error) {
	var results []*ProjectProfitability
	for _, id := range projectIDs {
		result, err := pa.calculator.Calculate(ctx, id)
		if err != nil {
			return nil, err
		}
		if result == nil {
			pa.logger.WithField("project_id", id).Warn("Skipping unknown project")
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// CalculateFiltered computes profitability for every project passing the
// filter.
func (pa *PortfolioAggregator) CalculateFiltered(ctx context.Context, filter stores.ProjectFilter) ([]*ProjectProfitability, error) {
	projects, err := stores.ListProjectsFiltered(ctx, pa.refStore, filter)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreQueryFailed, "list projects", err)
	}

	var results []*ProjectProfitability
	for _, project := range projects {
		result, err := pa.calculator.Calculate(ctx, project.ID)
		if err != nil {
			return nil, err
		}
		if result == nil {
			continue
		}
		results = append(results, result)
	}
	return results, nil
}

// Aggregates sums the filtered portfolio into one summary.
func (pa *PortfolioAggregator) Aggregates(ctx context.Context, filter stores.ProjectFilter) (*PortfolioAggregates, error) {
	results, err := pa.CalculateFiltered(ctx, filter)
	if err != nil {
		return nil, err
	}

	aggregates := &PortfolioAggregates{ProjectCount: len(results)}
	if len(results) == 0 {
		return aggregates, nil
	}

	var marginSum, roiSum float64
	for _, result := range results {
		aggregates.TotalRevenue = aggregates.TotalRevenue.Add(result.Revenue)
		aggregates.TotalExpense = aggregates.TotalExpense.Add(result.Expense)
		aggregates.TotalProfit = aggregates.TotalProfit.Add(result.NetProfit)
		marginSum += result.ProfitMargin
		roiSum += result.ROI

		if aggregates.Best == nil || result.ProfitMargin > aggregates.Best.ProfitMargin {
			aggregates.Best = result
		}
		if aggregates.Worst == nil || result.ProfitMargin < aggregates.Worst.ProfitMargin {
			aggregates.Worst = result
		}
	}

	aggregates.MeanMargin = marginSum / float64(len(results))
	aggregates.MeanROI = roiSum / float64(len(results))

	return aggregates, nil
}

// Ranking returns the filtered portfolio sorted descending by the given
// key, truncated to limit. A non-positive or oversized limit returns all.
func (pa *PortfolioAggregator) Ranking(ctx context.Context, filter stores.ProjectFilter, limit int, sortBy string) ([]*ProjectProfitability, error) {
	key, err := rankingKey(sortBy)
	if err != nil {
		return nil, err
	}

	results, err := pa.CalculateFiltered(ctx, filter)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return key(results[i]) > key(results[j])
	})

	if limit > 0 && limit < len(results) {
		results = results[:limit]
	}
	return results, nil
}

func rankingKey(sortBy string) (func(*ProjectProfitability) float64, error) {
	switch sortBy {
	case SortByProfit, "":
		return func(p *ProjectProfitability) float64 {
			value, _ := p.NetProfit.Float64()
			return value
		}, nil
	case SortByMargin:
		return func(p *ProjectProfitability) float64 { return p.ProfitMargin }, nil
	case SortByROI:
		return func(p *ProjectProfitability) float64 { return p.ROI }, nil
	case SortByRevenue:
		return func(p *ProjectProfitability) float64 {
			value, _ := p.Revenue.Float64()
			return value
		}, nil
	default:
		return nil, errors.AnalyticsError(errors.CodeAggregationFailed, "ranking",
			fmt.Errorf("unknown sort key: %s", sortBy))
	}
}

// Trend buckets a project's transactions by period and returns the buckets
// chronologically with running cumulative profit. An unknown project id
// returns (nil, nil).
func (pa *PortfolioAggregator) Trend(ctx context.Context, projectID, period string) ([]*TrendPoint, error) {
	bucketOf, err := bucketFunc(period)
	if err != nil {
		return nil, err
	}

	project, err := pa.refStore.GetProject(ctx, projectID)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreQueryFailed, "get project", err)
	}
	if project == nil {
		return nil, nil
	}

	transactions, err := pa.txStore.ListByProject(ctx, projectID)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreQueryFailed, "list project transactions", err)
	}

	buckets := make(map[time.Time]*TrendPoint)
	for _, tx := range transactions {
		key := bucketOf(tx.TransactionDate)
		point, exists := buckets[key]
		if !exists {
			point = &TrendPoint{Bucket: key}
			buckets[key] = point
		}

		if tx.IsSale() {
			point.Revenue = point.Revenue.Add(tx.TotalAmount)
		} else {
			point.Expense = point.Expense.Add(tx.TotalAmount)
		}
	}

	points := make([]*TrendPoint, 0, len(buckets))
	for _, point := range buckets {
		point.Profit = point.Revenue.Sub(point.Expense)
		points = append(points, point)
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Bucket.Before(points[j].Bucket)
	})

	var cumulative decimal.Decimal
	for _, point := range points {
		cumulative = cumulative.Add(point.Profit)
		point.CumulativeProfit = cumulative
	}

	return points, nil
}

func bucketFunc(period string) (func(time.Time) time.Time, error) {
	switch period {
	case PeriodDay, "":
		return models.DateOnly, nil
	case PeriodWeek:
		// Weeks start on the calendar Sunday.
		return func(t time.Time) time.Time {
			day := models.DateOnly(t)
			return day.AddDate(0, 0, -int(day.Weekday()))
		}, nil
	case PeriodMonth:
		return func(t time.Time) time.Time {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		}, nil
	default:
		return nil, errors.AnalyticsError(errors.CodeAggregationFailed, "trend",
			fmt.Errorf("unknown period: %s", period))
	}
}
