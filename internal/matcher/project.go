package matcher

import (
	"fmt"
	"strings"
	"time"

	"golang-ledger-service/internal/models"
)

// ProjectMatch is the outcome of scoring a transaction against project
// candidates. Project is nil when no candidate scored above zero.
type ProjectMatch struct {
	Project    *models.Project
	Confidence float64
	Reason     string
}

// MatchProject scores every candidate project against the transaction and
// returns the best one. Signals are additive and independent: client
// ownership, date proximity, project status, and budget plausibility each
// contribute a fixed bonus. The total is deliberately not normalized, so a
// project hitting every signal can exceed 1.0.
//
// client may be nil; the client ownership signal then never fires but date
// and status signals still apply.
func MatchProject(tx *models.Transaction, client *models.Client, projects []*models.Project, cfg *MatchConfig) ProjectMatch {
	if cfg == nil {
		cfg = DefaultMatchConfig()
	}

	if len(projects) == 0 {
		return ProjectMatch{Confidence: 0, Reason: "no active projects"}
	}

	best := ProjectMatch{}
	for _, project := range projects {
		score, reasons := scoreProject(tx, client, project, cfg)
		if score > best.Confidence {
			best = ProjectMatch{
				Project:    project,
				Confidence: score,
				Reason:     strings.Join(reasons, ", "),
			}
		}
	}

	return best
}

// scoreProject applies the signal chain to a single candidate and returns
// the accumulated score with the reasons in award order.
func scoreProject(tx *models.Transaction, client *models.Client, project *models.Project, cfg *MatchConfig) (float64, []string) {
	score := 0.0
	reasons := make([]string, 0, 4)

	if client != nil && project.ClientID == client.ID {
		score += cfg.ClientLinkBonus
		reasons = append(reasons, "client match")
	}

	if bonus, reason := dateSignal(tx.TransactionDate, project, cfg); bonus > 0 {
		score += bonus
		reasons = append(reasons, reason)
	}

	switch project.Status {
	case models.ProjectStatusInProgress:
		score += cfg.InProgressBonus
		reasons = append(reasons, "active project")
	case models.ProjectStatusPlanning:
		score += cfg.PlanningBonus
		reasons = append(reasons, "planned project")
	}

	if project.HasBudget() && !project.Budget.IsZero() {
		ratio := tx.TotalAmount.Div(*project.Budget)
		if ratio.LessThanOrEqual(cfg.BudgetRatioCeiling) {
			score += cfg.BudgetBonus
			reasons = append(reasons, "within budget range")
		}
	}

	return score, reasons
}

// dateSignal grades how close the transaction date falls to the project
// period. Transactions inside the period earn the full bonus; transactions
// within the near window before the start or after the end earn a reduced
// one. The period is open-ended at now when the project has no end date.
func dateSignal(txDate time.Time, project *models.Project, cfg *MatchConfig) (float64, string) {
	day := models.DateOnly(txDate)
	start := models.DateOnly(project.StartDate)

	end := models.DateOnly(cfg.now())
	hasEnd := project.EndDate != nil
	if hasEnd {
		end = models.DateOnly(*project.EndDate)
	}

	if !day.Before(start) && !day.After(end) {
		return cfg.DateWindowBonus, "within project period"
	}

	window := time.Duration(cfg.NearWindowDays) * 24 * time.Hour

	if day.Before(start) {
		gap := start.Sub(day)
		if gap <= window {
			days := int(gap / (24 * time.Hour))
			return cfg.NearWindowBonus, fmt.Sprintf("%d days before start", days)
		}
		return 0, ""
	}

	if hasEnd {
		gap := day.Sub(end)
		if gap <= window {
			days := int(gap / (24 * time.Hour))
			return cfg.NearWindowBonus, fmt.Sprintf("%d days after end", days)
		}
	}

	return 0, ""
}
