package stores

import (
	"context"
	"fmt"
	"sync"

	"golang-ledger-service/internal/models"
	"golang-ledger-service/internal/parsers"
	"golang-ledger-service/pkg/errors"
	"golang-ledger-service/pkg/logger"
)

// CSVStore serves the store interfaces from CSV files loaded into memory.
// Link and Unlink mutate the in-memory copy only; applied links are tracked
// so reports can show what a run changed.
type CSVStore struct {
	mu           sync.RWMutex
	transactions []*models.Transaction
	clients      []*models.Client
	projects     []*models.Project
	byProjectID  map[string]*models.Project
	byTxID       map[string]*models.Transaction

	appliedLinks map[string]string // transaction id -> project id

	logger logger.Logger
}

// CSVStoreFiles names the input files for LoadCSVStore. Clients and
// projects are required for matching; Transactions may be empty when the
// store is only used as reference data.
type CSVStoreFiles struct {
	Transactions string
	Clients      string
	Projects     string
}

// LoadCSVStore parses the given files and builds a store. Per-record parse
// failures are logged and skipped; file-level failures abort the load.
func LoadCSVStore(ctx context.Context, files CSVStoreFiles, config *parsers.ParseConfig) (*CSVStore, error) {
	log := logger.GetGlobalLogger().WithComponent("csv_store")

	store := &CSVStore{
		byProjectID:  make(map[string]*models.Project),
		byTxID:       make(map[string]*models.Transaction),
		appliedLinks: make(map[string]string),
		logger:       log,
	}

	if files.Clients != "" {
		clients, stats, err := parsers.NewClientParser(config).ParseFile(ctx, files.Clients)
		if err != nil {
			return nil, err
		}
		logSkipped(log, files.Clients, stats)
		store.clients = clients
	}

	if files.Projects != "" {
		projects, stats, err := parsers.NewProjectParser(config).ParseFile(ctx, files.Projects)
		if err != nil {
			return nil, err
		}
		logSkipped(log, files.Projects, stats)
		store.projects = projects
		for _, project := range projects {
			store.byProjectID[project.ID] = project
		}
	}

	if files.Transactions != "" {
		transactions, stats, err := parsers.NewTransactionParser(config).ParseFile(ctx, files.Transactions)
		if err != nil {
			return nil, err
		}
		logSkipped(log, files.Transactions, stats)
		store.transactions = transactions
		for _, tx := range transactions {
			store.byTxID[tx.ID] = tx
		}
	}

	log.WithFields(logger.Fields{
		"transactions": len(store.transactions),
		"clients":      len(store.clients),
		"projects":     len(store.projects),
	}).Info("Loaded CSV store")

	return store, nil
}

func logSkipped(log logger.Logger, file string, stats *parsers.ParseStats) {
	if stats == nil || !stats.HasErrors() {
		return
	}
	log.WithFields(logger.Fields{
		"file_path": file,
		"skipped":   len(stats.Errors),
	}).Warn("Skipped malformed records while loading")
}

// ListByProject returns the transactions linked to the project.
func (s *CSVStore) ListByProject(_ context.Context, projectID string) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Transaction
	for _, tx := range s.transactions {
		if tx.ProjectID == projectID && projectID != "" {
			result = append(result, tx)
		}
	}
	return result, nil
}

// ListUnlinked returns transactions without a project link.
func (s *CSVStore) ListUnlinked(_ context.Context) ([]*models.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*models.Transaction
	for _, tx := range s.transactions {
		if !tx.IsLinked() {
			result = append(result, tx)
		}
	}
	return result, nil
}

// ListClients returns all registered clients.
func (s *CSVStore) ListClients(_ context.Context) ([]*models.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clients, nil
}

// ListProjects returns the projects owned by clientID, or all projects when
// clientID is empty.
func (s *CSVStore) ListProjects(_ context.Context, clientID string) ([]*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if clientID == "" {
		return s.projects, nil
	}

	var result []*models.Project
	for _, project := range s.projects {
		if project.ClientID == clientID {
			result = append(result, project)
		}
	}
	return result, nil
}

// GetProject returns the project with the given id, or (nil, nil) when it
// does not exist.
func (s *CSVStore) GetProject(_ context.Context, id string) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byProjectID[id], nil
}

// Link records a confirmed transaction-project link in memory.
func (s *CSVStore) Link(_ context.Context, transactionID, projectID, clientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.byTxID[transactionID]
	if !exists {
		return errors.StoreError(errors.CodeLinkFailed, "link",
			fmt.Errorf("transaction not found: %s", transactionID))
	}
	if _, exists := s.byProjectID[projectID]; !exists {
		return errors.StoreError(errors.CodeLinkFailed, "link",
			fmt.Errorf("project not found: %s", projectID))
	}

	tx.ProjectID = projectID
	tx.ClientID = clientID
	s.appliedLinks[transactionID] = projectID
	return nil
}

// Unlink removes a transaction's project link in memory.
func (s *CSVStore) Unlink(_ context.Context, transactionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, exists := s.byTxID[transactionID]
	if !exists {
		return errors.StoreError(errors.CodeLinkFailed, "unlink",
			fmt.Errorf("transaction not found: %s", transactionID))
	}

	tx.ProjectID = ""
	tx.ClientID = ""
	delete(s.appliedLinks, transactionID)
	return nil
}

// AppliedLinks returns a copy of the links applied through this store.
func (s *CSVStore) AppliedLinks() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	links := make(map[string]string, len(s.appliedLinks))
	for tx, project := range s.appliedLinks {
		links[tx] = project
	}
	return links
}

// Transactions returns all loaded transactions.
func (s *CSVStore) Transactions() []*models.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.transactions
}
