package analytics

import (
	"context"
	"testing"
	"time"

	"golang-ledger-service/internal/models"
	"golang-ledger-service/internal/stores"
)

func portfolioFixture(now time.Time) (*PortfolioAggregator, *fakeRefStore, *fakeTxStore) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	refStore := &fakeRefStore{projects: []*models.Project{
		{ID: "p1", Name: "Alpha", ClientID: "c1", Status: models.ProjectStatusCompleted, StartDate: start},
		{ID: "p2", Name: "Beta", ClientID: "c1", Status: models.ProjectStatusCompleted, StartDate: start},
		{ID: "p3", Name: "Gamma", ClientID: "c2", Status: models.ProjectStatusInProgress, StartDate: start},
	}}

	txStore := &fakeTxStore{transactions: []*models.Transaction{
		// p1: revenue 11000, expense 1100, profit 9900, margin 90%
		projectTx("t1", "p1", models.TransactionTypeSale, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 10000, 1000),
		projectTx("t2", "p1", models.TransactionTypePurchase, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), 1000, 100),
		// p2: revenue 5500, expense 4400, profit 1100, margin 20%
		projectTx("t3", "p2", models.TransactionTypeSale, time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC), 5000, 500),
		projectTx("t4", "p2", models.TransactionTypePurchase, time.Date(2024, 2, 8, 0, 0, 0, 0, time.UTC), 4000, 400),
		// p3: expense only, profit -2200
		projectTx("t5", "p3", models.TransactionTypePurchase, time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC), 2000, 200),
	}}

	calc := newTestCalculator(refStore, txStore, now)
	return NewPortfolioAggregator(calc, nil), refStore, txStore
}

func TestCalculateManyPreservesOrderAndSkipsUnknown(t *testing.T) {
	aggregator, _, _ := portfolioFixture(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	results, err := aggregator.CalculateMany(context.Background(), []string{"p2", "missing", "p1"})
	if err != nil {
		t.Fatalf("CalculateMany failed: %v", err)
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].ProjectID != "p2" || results[1].ProjectID != "p1" {
		t.Errorf("results out of input order: %s, %s", results[0].ProjectID, results[1].ProjectID)
	}
}

func TestCalculateFiltered(t *testing.T) {
	aggregator, _, _ := portfolioFixture(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	results, err := aggregator.CalculateFiltered(context.Background(), stores.ProjectFilter{
		Status: models.ProjectStatusCompleted,
	})
	if err != nil {
		t.Fatalf("CalculateFiltered failed: %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected 2 completed projects, got %d", len(results))
	}
}

func TestAggregates(t *testing.T) {
	aggregator, _, _ := portfolioFixture(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	aggregates, err := aggregator.Aggregates(context.Background(), stores.ProjectFilter{})
	if err != nil {
		t.Fatalf("Aggregates failed: %v", err)
	}

	if aggregates.ProjectCount != 3 {
		t.Errorf("ProjectCount = %d, want 3", aggregates.ProjectCount)
	}
	if aggregates.TotalRevenue.String() != "16500" {
		t.Errorf("TotalRevenue = %s, want 16500", aggregates.TotalRevenue)
	}
	if aggregates.TotalExpense.String() != "7700" {
		t.Errorf("TotalExpense = %s, want 7700", aggregates.TotalExpense)
	}
	if aggregates.TotalProfit.String() != "8800" {
		t.Errorf("TotalProfit = %s, want 8800", aggregates.TotalProfit)
	}

	if aggregates.Best == nil || aggregates.Best.ProjectID != "p1" {
		t.Errorf("Best = %v, want p1", aggregates.Best)
	}
	if aggregates.Worst == nil || aggregates.Worst.ProjectID != "p3" {
		t.Errorf("Worst = %v, want p3", aggregates.Worst)
	}
}

func TestAggregatesEmptyPortfolio(t *testing.T) {
	aggregator, _, _ := portfolioFixture(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	aggregates, err := aggregator.Aggregates(context.Background(), stores.ProjectFilter{
		ClientID: "no-such-client",
	})
	if err != nil {
		t.Fatalf("Aggregates failed: %v", err)
	}

	if aggregates.ProjectCount != 0 {
		t.Errorf("ProjectCount = %d, want 0", aggregates.ProjectCount)
	}
	if aggregates.Best != nil || aggregates.Worst != nil {
		t.Error("empty portfolio must not nominate best or worst projects")
	}
	approxFloat(t, "MeanMargin", aggregates.MeanMargin, 0)
}

func TestRanking(t *testing.T) {
	aggregator, _, _ := portfolioFixture(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	ctx := context.Background()

	byProfit, err := aggregator.Ranking(ctx, stores.ProjectFilter{}, 0, SortByProfit)
	if err != nil {
		t.Fatalf("Ranking failed: %v", err)
	}
	if len(byProfit) != 3 {
		t.Fatalf("expected 3 ranked projects, got %d", len(byProfit))
	}
	wantOrder := []string{"p1", "p2", "p3"}
	for i, want := range wantOrder {
		if byProfit[i].ProjectID != want {
			t.Errorf("rank %d = %s, want %s", i, byProfit[i].ProjectID, want)
		}
	}

	top, err := aggregator.Ranking(ctx, stores.ProjectFilter{}, 1, SortByRevenue)
	if err != nil {
		t.Fatalf("Ranking failed: %v", err)
	}
	if len(top) != 1 || top[0].ProjectID != "p1" {
		t.Errorf("top by revenue = %v, want [p1]", top)
	}

	if _, err := aggregator.Ranking(ctx, stores.ProjectFilter{}, 0, "bogus"); err == nil {
		t.Error("expected error for unknown sort key")
	}
}

func TestRankingLimitLargerThanPortfolio(t *testing.T) {
	aggregator, _, _ := portfolioFixture(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	results, err := aggregator.Ranking(context.Background(), stores.ProjectFilter{}, 10, SortByMargin)
	if err != nil {
		t.Fatalf("Ranking failed: %v", err)
	}
	if len(results) != 3 {
		t.Errorf("oversized limit must return everything, got %d", len(results))
	}
}

func TestTrendMonthly(t *testing.T) {
	aggregator, _, txStore := portfolioFixture(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	// Spread p1 over three months with a loss in the middle.
	txStore.transactions = []*models.Transaction{
		projectTx("t1", "p1", models.TransactionTypeSale, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), 10000, 1000),
		projectTx("t2", "p1", models.TransactionTypePurchase, time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC), 15000, 1500),
		projectTx("t3", "p1", models.TransactionTypeSale, time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC), 2000, 200),
		projectTx("t4", "p1", models.TransactionTypeSale, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 8000, 800),
	}

	points, err := aggregator.Trend(context.Background(), "p1", PeriodMonth)
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("expected 3 monthly buckets, got %d", len(points))
	}

	if points[0].Bucket.Month() != 1 || points[1].Bucket.Month() != 2 || points[2].Bucket.Month() != 3 {
		t.Errorf("buckets out of order: %v, %v, %v",
			points[0].Bucket, points[1].Bucket, points[2].Bucket)
	}

	if points[0].Profit.String() != "11000" {
		t.Errorf("January profit = %s, want 11000", points[0].Profit)
	}
	if points[1].Profit.String() != "-14300" {
		t.Errorf("February profit = %s, want -14300", points[1].Profit)
	}

	wantCumulative := []string{"11000", "-3300", "5500"}
	for i, want := range wantCumulative {
		if points[i].CumulativeProfit.String() != want {
			t.Errorf("cumulative[%d] = %s, want %s", i, points[i].CumulativeProfit, want)
		}
	}
}

func TestTrendWeeklyBucketsStartSunday(t *testing.T) {
	aggregator, _, txStore := portfolioFixture(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	// 2024-03-13 is a Wednesday; its week starts Sunday 2024-03-10.
	txStore.transactions = []*models.Transaction{
		projectTx("t1", "p1", models.TransactionTypeSale, time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC), 1000, 100),
	}

	points, err := aggregator.Trend(context.Background(), "p1", PeriodWeek)
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}
	if len(points) != 1 {
		t.Fatalf("expected 1 weekly bucket, got %d", len(points))
	}

	want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	if !points[0].Bucket.Equal(want) {
		t.Errorf("week bucket = %v, want %v", points[0].Bucket, want)
	}
	if points[0].Bucket.Weekday() != time.Sunday {
		t.Errorf("week bucket starts on %v, want Sunday", points[0].Bucket.Weekday())
	}
}

func TestTrendAbsentProject(t *testing.T) {
	aggregator, _, _ := portfolioFixture(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	points, err := aggregator.Trend(context.Background(), "missing", PeriodDay)
	if err != nil {
		t.Fatalf("absent project must not error: %v", err)
	}
	if points != nil {
		t.Errorf("expected nil points, got %v", points)
	}
}

func TestTrendUnknownPeriod(t *testing.T) {
	aggregator, _, _ := portfolioFixture(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	if _, err := aggregator.Trend(context.Background(), "p1", "quarter"); err == nil {
		t.Error("expected error for unknown period")
	}
}
