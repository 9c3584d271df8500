// Package reconciler orchestrates transaction-to-project matching. It pulls
// reference data from a store, runs the client and project matchers, and
// combines their scores into per-transaction suggestions a human can confirm.
package reconciler

import (
	"context"
	"fmt"
	"strings"

	"golang-ledger-service/internal/matcher"
	"golang-ledger-service/internal/models"
	"golang-ledger-service/internal/stores"
	"golang-ledger-service/pkg/errors"
	"golang-ledger-service/pkg/logger"

	"github.com/google/uuid"
)

// MatchingResult is the suggestion produced for one transaction.
type MatchingResult struct {
	Transaction *models.Transaction
	Client      *models.Client
	Project     *models.Project

	ClientConfidence  float64
	ProjectConfidence float64
	Confidence        float64
	MatchType         models.MatchType
	Reason            string
}

// BatchSummary aggregates one batch matching run.
type BatchSummary struct {
	RunID          string
	Total          int
	CountsByType   map[models.MatchType]int
	MeanConfidence float64
}

// MatchService runs matching against a reference-data store.
type MatchService struct {
	store  stores.ClientProjectStore
	config *matcher.MatchConfig
	logger logger.Logger
}

// NewMatchService creates a match service. A nil config selects the default
// matching profile.
func NewMatchService(store stores.ClientProjectStore, config *matcher.MatchConfig, log logger.Logger) *MatchService {
	if config == nil {
		config = matcher.DefaultMatchConfig()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &MatchService{
		store:  store,
		config: config,
		logger: log.WithComponent("match_service"),
	}
}

// AutoMatch produces a suggestion for a single transaction, fetching the
// reference data it needs from the store.
func (ms *MatchService) AutoMatch(ctx context.Context, tx *models.Transaction) (*MatchingResult, error) {
	clients, err := ms.store.ListClients(ctx)
	if err != nil {
		return nil, errors.StoreError(errors.CodeStoreQueryFailed, "list clients", err)
	}

	clientMatch := matcher.MatchClient(tx, clients, ms.config)

	// Project signals only apply once a client is resolved. An unresolved
	// supplier keeps project confidence at zero.
	var projectMatch matcher.ProjectMatch
	if clientMatch.Client != nil {
		projects, err := ms.store.ListProjects(ctx, clientMatch.Client.ID)
		if err != nil {
			return nil, errors.StoreError(errors.CodeStoreQueryFailed, "list projects", err)
		}
		projectMatch = matcher.MatchProject(tx, clientMatch.Client, projects, ms.config)
	}

	result := ms.combine(tx, clientMatch, projectMatch)

	ms.logger.WithFields(logger.Fields{
		"transaction_id": tx.ID,
		"match_type":     result.MatchType,
		"confidence":     fmt.Sprintf("%.2f", result.Confidence),
	}).Debug("Matched transaction")

	return result, nil
}

// BatchAutoMatch produces suggestions for a whole slice of transactions.
// Reference data is fetched once for the batch, both lists concurrently,
// and every transaction is scored against the cached indexes. Results come
// back in input order. A failure while scoring one transaction degrades
// that record to an unmatched result instead of aborting the batch.
func (ms *MatchService) BatchAutoMatch(ctx context.Context, txs []*models.Transaction) ([]*MatchingResult, *BatchSummary, error) {
	runID := uuid.New().String()
	log := ms.logger.WithField("run_id", runID)

	var (
		clients     []*models.Client
		projects    []*models.Project
		clientsErr  error
		projectsErr error
	)

	done := make(chan struct{}, 2)
	go func() {
		clients, clientsErr = ms.store.ListClients(ctx)
		done <- struct{}{}
	}()
	go func() {
		projects, projectsErr = ms.store.ListProjects(ctx, "")
		done <- struct{}{}
	}()
	<-done
	<-done

	if clientsErr != nil {
		return nil, nil, errors.StoreError(errors.CodeStoreQueryFailed, "list clients", clientsErr)
	}
	if projectsErr != nil {
		return nil, nil, errors.StoreError(errors.CodeStoreQueryFailed, "list projects", projectsErr)
	}

	clientIndex := matcher.NewClientIndex(clients)
	projectIndex := matcher.NewProjectIndex(projects)

	stats := matcher.GetStats(clientIndex, projectIndex)
	log.WithFields(logger.Fields{
		"transactions":    len(txs),
		"clients":         stats.TotalClients,
		"indexed_numbers": stats.IndexedNumbers,
		"projects":        stats.TotalProjects,
	}).Info("Starting batch matching")

	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "batch_matching",
		Total:     int64(len(txs)),
		Logger:    log,
	})

	results := make([]*MatchingResult, len(txs))
	for i, tx := range txs {
		results[i] = ms.matchOne(tx, clientIndex, projectIndex, log)
		progress.Increment()
	}
	progress.Complete()

	summary := summarize(runID, results)
	log.WithFields(logger.Fields{
		"total":           summary.Total,
		"exact":           summary.CountsByType[models.MatchTypeExact],
		"fuzzy":           summary.CountsByType[models.MatchTypeFuzzy],
		"date_amount":     summary.CountsByType[models.MatchTypeDateAmount],
		"none":            summary.CountsByType[models.MatchTypeNone],
		"mean_confidence": fmt.Sprintf("%.2f", summary.MeanConfidence),
	}).Info("Batch matching complete")

	return results, summary, nil
}

// matchOne scores a single transaction against the cached indexes,
// degrading to an unmatched result if scoring panics.
func (ms *MatchService) matchOne(tx *models.Transaction, clientIndex *matcher.ClientIndex, projectIndex *matcher.ProjectIndex, log logger.Logger) (result *MatchingResult) {
	defer func() {
		if r := recover(); r != nil {
			txID := ""
			if tx != nil {
				txID = tx.ID
			}
			log.WithFields(logger.Fields{
				"transaction_id": txID,
				"panic":          fmt.Sprintf("%v", r),
			}).Error("Matching failed for transaction")

			result = &MatchingResult{
				Transaction: tx,
				MatchType:   models.MatchTypeNone,
				Reason:      "matching failed",
			}
		}
	}()

	// The index resolves the decisive identifier rule without scanning.
	var clientMatch matcher.ClientMatch
	if client := clientIndex.GetByBusinessNumber(tx.SupplierBusinessNumber); client != nil {
		clientMatch = matcher.ClientMatch{
			Client:     client,
			Confidence: 1.0,
			Reason:     "identifier exact match",
		}
	} else {
		clientMatch = matcher.MatchClient(tx, clientIndex.AllClients, ms.config)
	}

	// Project signals only apply once a client is resolved.
	var projectMatch matcher.ProjectMatch
	if clientMatch.Client != nil {
		candidates := projectIndex.GetByClient(clientMatch.Client.ID)
		projectMatch = matcher.MatchProject(tx, clientMatch.Client, candidates, ms.config)
	}

	return ms.combine(tx, clientMatch, projectMatch)
}

// combine folds the component scores into the final suggestion.
func (ms *MatchService) combine(tx *models.Transaction, clientMatch matcher.ClientMatch, projectMatch matcher.ProjectMatch) *MatchingResult {
	confidence := ms.config.ClientWeight*clientMatch.Confidence + ms.config.ProjectWeight*projectMatch.Confidence

	var matchType models.MatchType
	switch {
	case clientMatch.Confidence == 1.0:
		matchType = models.MatchTypeExact
	// Inclusive so the fixed partial-match confidence still counts as fuzzy.
	case clientMatch.Confidence >= ms.config.FuzzyThreshold:
		matchType = models.MatchTypeFuzzy
	case projectMatch.Confidence > ms.config.DateAmountThreshold:
		matchType = models.MatchTypeDateAmount
	default:
		matchType = models.MatchTypeNone
	}

	var reasons []string
	if clientMatch.Reason != "" {
		reasons = append(reasons, clientMatch.Reason)
	}
	if projectMatch.Reason != "" {
		reasons = append(reasons, projectMatch.Reason)
	}

	return &MatchingResult{
		Transaction:       tx,
		Client:            clientMatch.Client,
		Project:           projectMatch.Project,
		ClientConfidence:  clientMatch.Confidence,
		ProjectConfidence: projectMatch.Confidence,
		Confidence:        confidence,
		MatchType:         matchType,
		Reason:            strings.Join(reasons, " | "),
	}
}

// ConfirmMatch persists a suggestion as a real link. Suggestions without a
// project, or with no match at all, are refused.
func (ms *MatchService) ConfirmMatch(ctx context.Context, writer stores.LinkWriter, result *MatchingResult) error {
	if result == nil || result.Transaction == nil {
		return errors.MatchingError(errors.CodeMatchingFailed, "confirm match",
			fmt.Errorf("no result to confirm"))
	}
	if result.MatchType == models.MatchTypeNone || result.Project == nil {
		return errors.MatchingError(errors.CodeMatchingFailed, "confirm match",
			fmt.Errorf("result for transaction %s has no suggested project", result.Transaction.ID))
	}

	clientID := ""
	if result.Client != nil {
		clientID = result.Client.ID
	}

	if err := writer.Link(ctx, result.Transaction.ID, result.Project.ID, clientID); err != nil {
		return errors.StoreError(errors.CodeLinkFailed, "confirm match", err)
	}

	ms.logger.WithFields(logger.Fields{
		"transaction_id": result.Transaction.ID,
		"project_id":     result.Project.ID,
	}).Info("Confirmed match")

	return nil
}

// RejectMatch removes a previously confirmed link.
func (ms *MatchService) RejectMatch(ctx context.Context, writer stores.LinkWriter, transactionID string) error {
	if err := writer.Unlink(ctx, transactionID); err != nil {
		return errors.StoreError(errors.CodeLinkFailed, "reject match", err)
	}

	ms.logger.WithField("transaction_id", transactionID).Info("Rejected match")
	return nil
}

func summarize(runID string, results []*MatchingResult) *BatchSummary {
	summary := &BatchSummary{
		RunID:        runID,
		Total:        len(results),
		CountsByType: make(map[models.MatchType]int),
	}

	var totalConfidence float64
	for _, result := range results {
		summary.CountsByType[result.MatchType]++
		totalConfidence += result.Confidence
	}
	if summary.Total > 0 {
		summary.MeanConfidence = totalConfidence / float64(summary.Total)
	}

	return summary
}
