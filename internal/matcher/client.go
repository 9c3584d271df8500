package matcher

import (
	"fmt"

	"golang-ledger-service/internal/models"
	"golang-ledger-service/internal/similarity"
)

// ClientMatch is the outcome of resolving a transaction's supplier against
// the registered clients. Client is nil when no candidate scored above zero.
type ClientMatch struct {
	Client     *models.Client
	Confidence float64
	Reason     string
}

// clientRule evaluates one resolution strategy over the candidate list.
// A decisive result short-circuits the remaining rules.
type clientRule func(tx *models.Transaction, clients []*models.Client, cfg *MatchConfig) (ClientMatch, bool)

// MatchClient finds the best-candidate client for a transaction using an
// ordered rule chain: identifier exact match, name similarity, substring
// containment. The first decisive rule wins outright; otherwise the
// highest-scoring candidate across all rules is kept.
func MatchClient(tx *models.Transaction, clients []*models.Client, cfg *MatchConfig) ClientMatch {
	if cfg == nil {
		cfg = DefaultMatchConfig()
	}

	if len(clients) == 0 {
		return ClientMatch{Confidence: 0, Reason: "no registered clients"}
	}

	rules := []clientRule{
		matchByIdentifier,
		matchByNameSimilarity,
		matchByContainment,
	}

	best := ClientMatch{}
	for _, rule := range rules {
		result, decisive := rule(tx, clients, cfg)
		if decisive {
			return result
		}
		if result.Confidence > best.Confidence {
			best = result
		}
	}

	if best.Client == nil {
		return ClientMatch{Confidence: best.Confidence, Reason: "no similar client name"}
	}

	return best
}

// matchByIdentifier compares normalized business numbers. An exact match is
// decisive at full confidence regardless of how dissimilar the names are.
func matchByIdentifier(tx *models.Transaction, clients []*models.Client, _ *MatchConfig) (ClientMatch, bool) {
	txNumber := models.NormalizeBusinessNumber(tx.SupplierBusinessNumber)
	if txNumber == "" {
		return ClientMatch{}, false
	}

	for _, client := range clients {
		clientNumber := models.NormalizeBusinessNumber(client.BusinessNumber)
		if clientNumber != "" && clientNumber == txNumber {
			return ClientMatch{
				Client:     client,
				Confidence: 1.0,
				Reason:     "identifier exact match",
			}, true
		}
	}

	return ClientMatch{}, false
}

// matchByNameSimilarity scores every candidate by edit-distance similarity
// between the supplier name and the client name, keeping the maximum.
func matchByNameSimilarity(tx *models.Transaction, clients []*models.Client, cfg *MatchConfig) (ClientMatch, bool) {
	best := ClientMatch{}

	for _, client := range clients {
		score := similarity.Score(tx.SupplierName, client.Name)
		if score > best.Confidence {
			best = ClientMatch{
				Client:     client,
				Confidence: score,
				Reason:     similarityReason(score, cfg),
			}
		}
	}

	if best.Client == nil {
		return ClientMatch{}, false
	}

	return best, false
}

// matchByContainment assigns a fixed partial-match confidence when either
// name contains the other. It only contributes when name similarity stayed
// below the high band; the fold keeps it only if it beats the prior best.
func matchByContainment(tx *models.Transaction, clients []*models.Client, cfg *MatchConfig) (ClientMatch, bool) {
	// If any candidate already reached a high similarity score, the fallback
	// cannot improve on it.
	for _, client := range clients {
		if similarity.Score(tx.SupplierName, client.Name) >= cfg.HighSimilarity {
			return ClientMatch{}, false
		}
	}

	for _, client := range clients {
		if similarity.Contains(tx.SupplierName, client.Name) {
			return ClientMatch{
				Client:     client,
				Confidence: cfg.PartialMatchConfidence,
				Reason:     "name partial match",
			}, false
		}
	}

	return ClientMatch{}, false
}

// similarityReason bands a similarity score into a human-readable reason,
// annotated with the rounded percentage.
func similarityReason(score float64, cfg *MatchConfig) string {
	percent := score * 100

	switch {
	case score == 1.0:
		return fmt.Sprintf("name exact match (%.0f%%)", percent)
	case score > cfg.HighSimilarity:
		return fmt.Sprintf("high name similarity (%.0f%%)", percent)
	case score > cfg.MediumSimilarity:
		return fmt.Sprintf("medium name similarity (%.0f%%)", percent)
	default:
		return fmt.Sprintf("low name similarity (%.0f%%)", percent)
	}
}
