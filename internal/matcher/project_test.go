package matcher

import (
	"math"
	"strings"
	"testing"
	"time"

	"golang-ledger-service/internal/models"

	"github.com/shopspring/decimal"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func testProject(id, clientID string, status models.ProjectStatus, start time.Time, end *time.Time) *models.Project {
	return &models.Project{
		ID:        id,
		Name:      "Project " + id,
		ClientID:  clientID,
		Status:    status,
		StartDate: start,
		EndDate:   end,
	}
}

func datePtr(t time.Time) *time.Time { return &t }

func approx(t *testing.T, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("confidence = %f, want %f", got, want)
	}
}

func TestMatchProjectEmptyList(t *testing.T) {
	tx := testTransaction("Acme", "")
	result := MatchProject(tx, nil, nil, DefaultMatchConfig())

	if result.Project != nil {
		t.Errorf("expected nil project, got %v", result.Project)
	}
	if result.Reason != "no active projects" {
		t.Errorf("unexpected reason: %q", result.Reason)
	}
}

func TestMatchProjectSignalAccumulation(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.Now = fixedClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))

	client := testClient("c1", "Acme", "")
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 9, 30, 0, 0, 0, 0, time.UTC)

	budget := decimal.NewFromInt(100000)
	project := testProject("p1", "c1", models.ProjectStatusInProgress, start, datePtr(end))
	project.Budget = &budget

	// Transaction inside the period, owned client, active project, amount
	// well within budget: every signal fires.
	tx := testTransaction("Acme", "")
	tx.TransactionDate = time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	tx.TotalAmount = decimal.NewFromInt(20000)

	result := MatchProject(tx, client, []*models.Project{project}, cfg)

	if result.Project == nil || result.Project.ID != "p1" {
		t.Fatalf("expected project p1, got %v", result.Project)
	}
	approx(t, result.Confidence, cfg.ClientLinkBonus+cfg.DateWindowBonus+cfg.InProgressBonus+cfg.BudgetBonus)

	wantReasons := []string{"client match", "within project period", "active project", "within budget range"}
	if result.Reason != strings.Join(wantReasons, ", ") {
		t.Errorf("reason = %q, want %q", result.Reason, strings.Join(wantReasons, ", "))
	}
}

func TestMatchProjectScoreMayExceedOne(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.Now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	// Full default bonuses sum to 1.0; a relaxed profile with a bigger
	// client link bonus pushes past it. The score is reported as-is.
	cfg.ClientLinkBonus = 0.5

	client := testClient("c1", "Acme", "")
	budget := decimal.NewFromInt(100000)
	project := testProject("p1", "c1", models.ProjectStatusInProgress,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)
	project.Budget = &budget

	tx := testTransaction("Acme", "")
	tx.TransactionDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	tx.TotalAmount = decimal.NewFromInt(1000)

	result := MatchProject(tx, client, []*models.Project{project}, cfg)

	if result.Confidence <= 1.0 {
		t.Errorf("expected unnormalized score above 1.0, got %f", result.Confidence)
	}
}

func TestMatchProjectDateSignals(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		txDate     time.Time
		endDate    *time.Time
		wantBonus  float64
		wantReason string
	}{
		{
			name:       "inside period",
			txDate:     time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			endDate:    datePtr(end),
			wantBonus:  0.4,
			wantReason: "within project period",
		},
		{
			name:       "on start boundary",
			txDate:     start,
			endDate:    datePtr(end),
			wantBonus:  0.4,
			wantReason: "within project period",
		},
		{
			name:       "on end boundary",
			txDate:     end,
			endDate:    datePtr(end),
			wantBonus:  0.4,
			wantReason: "within project period",
		},
		{
			name:       "shortly before start",
			txDate:     time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC),
			endDate:    datePtr(end),
			wantBonus:  0.2,
			wantReason: "10 days before start",
		},
		{
			name:       "shortly after end",
			txDate:     time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC),
			endDate:    datePtr(end),
			wantBonus:  0.2,
			wantReason: "5 days after end",
		},
		{
			name:      "far before start",
			txDate:    time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC),
			endDate:   datePtr(end),
			wantBonus: 0,
		},
		{
			name:      "far after end",
			txDate:    time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC),
			endDate:   datePtr(end),
			wantBonus: 0,
		},
		{
			name:       "open ended period extends to now",
			txDate:     time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
			endDate:    nil,
			wantBonus:  0.4,
			wantReason: "within project period",
		},
		{
			name:      "open ended period has no after-end window",
			txDate:    time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			endDate:   nil,
			wantBonus: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultMatchConfig()
			cfg.Now = fixedClock(now)

			project := testProject("p1", "c1", models.ProjectStatusCompleted, start, tt.endDate)
			bonus, reason := dateSignal(tt.txDate, project, cfg)

			approx(t, bonus, tt.wantBonus)
			if tt.wantReason != "" && reason != tt.wantReason {
				t.Errorf("reason = %q, want %q", reason, tt.wantReason)
			}
		})
	}
}

func TestMatchProjectStatusSignals(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.Now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	// Transaction date far outside the period so only the status signal fires.
	tx := testTransaction("Acme", "")
	tx.TransactionDate = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		status     models.ProjectStatus
		wantScore  float64
		wantReason string
	}{
		{models.ProjectStatusInProgress, 0.2, "active project"},
		{models.ProjectStatusPlanning, 0.1, "planned project"},
		{models.ProjectStatusCompleted, 0, ""},
		{models.ProjectStatusCancelled, 0, ""},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			project := testProject("p1", "other-client", tt.status, start, nil)
			score, reasons := scoreProject(tx, nil, project, cfg)

			approx(t, score, tt.wantScore)
			if tt.wantReason != "" {
				if len(reasons) != 1 || reasons[0] != tt.wantReason {
					t.Errorf("reasons = %v, want [%q]", reasons, tt.wantReason)
				}
			} else if len(reasons) != 0 {
				t.Errorf("expected no reasons, got %v", reasons)
			}
		})
	}
}

func TestMatchProjectBudgetSignal(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.Now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2020, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		budget  *decimal.Decimal
		amount  decimal.Decimal
		wantHit bool
	}{
		{
			name:    "well within budget",
			budget:  decimalPtr(decimal.NewFromInt(100000)),
			amount:  decimal.NewFromInt(10000),
			wantHit: true,
		},
		{
			name:    "exactly at ceiling",
			budget:  decimalPtr(decimal.NewFromInt(100000)),
			amount:  decimal.NewFromInt(30000),
			wantHit: true,
		},
		{
			name:    "above ceiling",
			budget:  decimalPtr(decimal.NewFromInt(100000)),
			amount:  decimal.NewFromInt(30001),
			wantHit: false,
		},
		{
			name:    "no budget",
			budget:  nil,
			amount:  decimal.NewFromInt(1),
			wantHit: false,
		},
		{
			name:    "zero budget never divides",
			budget:  decimalPtr(decimal.Zero),
			amount:  decimal.NewFromInt(1),
			wantHit: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Outside the period, cancelled, unowned: only budget can score.
			project := testProject("p1", "other", models.ProjectStatusCancelled, start, datePtr(end))
			project.Budget = tt.budget

			tx := testTransaction("Acme", "")
			tx.TransactionDate = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
			tx.TotalAmount = tt.amount

			score, reasons := scoreProject(tx, nil, project, cfg)

			if tt.wantHit {
				approx(t, score, cfg.BudgetBonus)
				if len(reasons) != 1 || reasons[0] != "within budget range" {
					t.Errorf("reasons = %v, want [within budget range]", reasons)
				}
			} else {
				approx(t, score, 0)
			}
		})
	}
}

func TestMatchProjectTiesKeepFirstSeen(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.Now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	client := testClient("c1", "Acme", "")
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	first := testProject("p1", "c1", models.ProjectStatusCompleted, start, nil)
	second := testProject("p2", "c1", models.ProjectStatusCompleted, start, nil)

	tx := testTransaction("Acme", "")
	tx.TransactionDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	result := MatchProject(tx, client, []*models.Project{first, second}, cfg)

	if result.Project == nil || result.Project.ID != "p1" {
		t.Errorf("expected first-seen project on tie, got %v", result.Project)
	}
}

func TestMatchProjectNilClientSkipsOwnershipSignal(t *testing.T) {
	cfg := DefaultMatchConfig()
	cfg.Now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	project := testProject("p1", "c1", models.ProjectStatusInProgress,
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), nil)

	tx := testTransaction("Unknown Vendor", "")
	tx.TransactionDate = time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	result := MatchProject(tx, nil, []*models.Project{project}, cfg)

	approx(t, result.Confidence, cfg.DateWindowBonus+cfg.InProgressBonus)
	if strings.Contains(result.Reason, "client match") {
		t.Errorf("ownership signal must not fire without a client, reason: %q", result.Reason)
	}
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
