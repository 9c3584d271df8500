// Package matcher infers which client and project a bookkeeping transaction
// belongs to, using fuzzy name matching and multi-factor confidence scoring.
//
// Matching is a pure read-compute-suggest pipeline: it never mutates the
// transaction or the reference data, and "no match" is a normal outcome
// expressed as confidence 0 rather than an error. A human is expected to
// confirm or override every suggestion.
//
// Client resolution runs as an ordered rule chain (identifier exact match,
// name similarity, substring containment), where the first decisive rule
// short-circuits and otherwise the best-scoring candidate wins. Project
// resolution accumulates independent weighted signals (client linkage, date
// window, status, budget plausibility) per candidate.
//
// Example usage:
//
//	cfg := matcher.DefaultMatchConfig()
//	clientMatch := matcher.MatchClient(tx, clients, cfg)
//	projectMatch := matcher.MatchProject(tx, clientMatch.Client, projects, cfg)
package matcher

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MatchConfig holds the thresholds and weights for client and project
// matching. The date-window days and budget ratio are business constants
// with no derivation behind them; they are kept configurable so deployments
// can tune them rather than treating them as self-evident rules.
type MatchConfig struct {
	// HighSimilarity is the name-similarity score above which a candidate is
	// considered a confident fuzzy match; the substring fallback only runs
	// when no candidate reaches it.
	HighSimilarity float64 `json:"high_similarity"`

	// MediumSimilarity bounds the middle reason band for name matches.
	MediumSimilarity float64 `json:"medium_similarity"`

	// PartialMatchConfidence is the fixed confidence assigned when one name
	// contains the other but similarity stayed below HighSimilarity.
	PartialMatchConfidence float64 `json:"partial_match_confidence"`

	// Project scoring bonuses, additive per candidate. The sum is not
	// normalized and can exceed 1.0; the combined confidence formula does
	// not assume a bound.
	ClientLinkBonus float64 `json:"client_link_bonus"`
	DateWindowBonus float64 `json:"date_window_bonus"`
	NearWindowBonus float64 `json:"near_window_bonus"`
	InProgressBonus float64 `json:"in_progress_bonus"`
	PlanningBonus   float64 `json:"planning_bonus"`
	BudgetBonus     float64 `json:"budget_bonus"`

	// NearWindowDays is how far outside the project period a transaction
	// date may fall and still earn the reduced date bonus.
	NearWindowDays int `json:"near_window_days"`

	// BudgetRatioCeiling is the maximum transaction-total to budget ratio
	// considered plausible for the budget bonus.
	BudgetRatioCeiling decimal.Decimal `json:"budget_ratio_ceiling"`

	// Weights for combining client and project confidence into a single
	// per-transaction score.
	ClientWeight  float64 `json:"client_weight"`
	ProjectWeight float64 `json:"project_weight"`

	// Thresholds for deriving the match type from component confidences.
	FuzzyThreshold      float64 `json:"fuzzy_threshold"`
	DateAmountThreshold float64 `json:"date_amount_threshold"`

	// Now supplies the current time for open-ended project windows.
	// Overridden in tests for deterministic date scoring.
	Now func() time.Time `json:"-"`
}

// DefaultMatchConfig returns a configuration with the standard weights
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		HighSimilarity:         0.8,
		MediumSimilarity:       0.6,
		PartialMatchConfidence: 0.7,
		ClientLinkBonus:        0.3,
		DateWindowBonus:        0.4,
		NearWindowBonus:        0.2,
		InProgressBonus:        0.2,
		PlanningBonus:          0.1,
		BudgetBonus:            0.1,
		NearWindowDays:         30,
		BudgetRatioCeiling:     decimal.NewFromFloat(0.3),
		ClientWeight:           0.6,
		ProjectWeight:          0.4,
		FuzzyThreshold:         0.7,
		DateAmountThreshold:    0.5,
		Now:                    time.Now,
	}
}

// StrictMatchConfig returns a configuration that narrows the date window
// and budget ratio, for books where suggestions should err conservative.
func StrictMatchConfig() *MatchConfig {
	config := DefaultMatchConfig()
	config.HighSimilarity = 0.9
	config.MediumSimilarity = 0.75
	config.NearWindowDays = 7
	config.BudgetRatioCeiling = decimal.NewFromFloat(0.15)
	config.FuzzyThreshold = 0.8
	return config
}

// RelaxedMatchConfig returns a configuration that widens the date window,
// for exploratory matching over poorly labelled imports.
func RelaxedMatchConfig() *MatchConfig {
	config := DefaultMatchConfig()
	config.HighSimilarity = 0.7
	config.MediumSimilarity = 0.5
	config.NearWindowDays = 60
	config.BudgetRatioCeiling = decimal.NewFromFloat(0.5)
	config.FuzzyThreshold = 0.6
	return config
}

// Validate checks if the matching configuration is valid
func (mc *MatchConfig) Validate() error {
	unitRange := []struct {
		name  string
		value float64
	}{
		{"high_similarity", mc.HighSimilarity},
		{"medium_similarity", mc.MediumSimilarity},
		{"partial_match_confidence", mc.PartialMatchConfidence},
		{"client_link_bonus", mc.ClientLinkBonus},
		{"date_window_bonus", mc.DateWindowBonus},
		{"near_window_bonus", mc.NearWindowBonus},
		{"in_progress_bonus", mc.InProgressBonus},
		{"planning_bonus", mc.PlanningBonus},
		{"budget_bonus", mc.BudgetBonus},
		{"client_weight", mc.ClientWeight},
		{"project_weight", mc.ProjectWeight},
		{"fuzzy_threshold", mc.FuzzyThreshold},
		{"date_amount_threshold", mc.DateAmountThreshold},
	}

	for _, field := range unitRange {
		if field.value < 0.0 || field.value > 1.0 {
			return fmt.Errorf("%s must be between 0.0 and 1.0: %f", field.name, field.value)
		}
	}

	if mc.MediumSimilarity >= mc.HighSimilarity {
		return fmt.Errorf("medium_similarity (%f) must be below high_similarity (%f)",
			mc.MediumSimilarity, mc.HighSimilarity)
	}

	if mc.NearWindowDays < 0 {
		return fmt.Errorf("near_window_days cannot be negative: %d", mc.NearWindowDays)
	}

	if mc.BudgetRatioCeiling.IsNegative() || mc.BudgetRatioCeiling.GreaterThan(decimal.NewFromInt(1)) {
		return fmt.Errorf("budget_ratio_ceiling must be between 0.0 and 1.0: %s", mc.BudgetRatioCeiling)
	}

	total := mc.ClientWeight + mc.ProjectWeight
	if total < 0.9 || total > 1.1 {
		return fmt.Errorf("client and project weights should sum to approximately 1.0, got %f", total)
	}

	return nil
}

// Clone creates a copy of the matching configuration
func (mc *MatchConfig) Clone() *MatchConfig {
	if mc == nil {
		return nil
	}

	clone := *mc
	return &clone
}

// now returns the configured clock, defaulting to time.Now.
func (mc *MatchConfig) now() time.Time {
	if mc.Now != nil {
		return mc.Now()
	}
	return time.Now()
}

// String returns a human-readable description of the configuration
func (mc *MatchConfig) String() string {
	return fmt.Sprintf("MatchConfig{HighSimilarity: %.2f, NearWindowDays: %d, BudgetRatio: %s, Weights: %.1f/%.1f}",
		mc.HighSimilarity, mc.NearWindowDays, mc.BudgetRatioCeiling, mc.ClientWeight, mc.ProjectWeight)
}
