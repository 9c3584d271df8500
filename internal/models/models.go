// Package models defines the core records handled by the ledger service:
// bookkeeping transactions, clients, projects, and the parsing helpers
// used to construct them from external data.
package models

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes sales (revenue) from purchases (expense).
type TransactionType string

const (
	// TransactionTypeSale represents a sales record (outgoing invoice).
	TransactionTypeSale TransactionType = "sale"
	// TransactionTypePurchase represents a purchase record (incoming invoice).
	TransactionTypePurchase TransactionType = "purchase"
)

// String returns the string representation of TransactionType
func (t TransactionType) String() string {
	return string(t)
}

// IsValid checks if the transaction type is valid
func (t TransactionType) IsValid() bool {
	return t == TransactionTypeSale || t == TransactionTypePurchase
}

// ProjectStatus represents the lifecycle stage of a project.
type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "planning"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusCancelled  ProjectStatus = "cancelled"
)

// String returns the string representation of ProjectStatus
func (s ProjectStatus) String() string {
	return string(s)
}

// IsValid checks if the project status is valid
func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectStatusPlanning, ProjectStatusInProgress, ProjectStatusCompleted, ProjectStatusCancelled:
		return true
	default:
		return false
	}
}

// Transaction is a single bookkeeping entry, entered manually or imported
// from a spreadsheet. ProjectID and ClientID are empty until a suggested
// match is confirmed by a human; nothing in this module sets them.
type Transaction struct {
	ID                     string          `json:"id" csv:"id"`
	TransactionDate        time.Time       `json:"transaction_date" csv:"transaction_date"`
	Type                   TransactionType `json:"transaction_type" csv:"transaction_type"`
	SupplierName           string          `json:"supplier_name" csv:"supplier_name"`
	SupplierBusinessNumber string          `json:"supplier_business_number,omitempty" csv:"supplier_business_number"`
	SupplyAmount           decimal.Decimal `json:"supply_amount" csv:"supply_amount"`
	VATAmount              decimal.Decimal `json:"vat_amount" csv:"vat_amount"`
	TotalAmount            decimal.Decimal `json:"total_amount" csv:"total_amount"`
	ProjectID              string          `json:"project_id,omitempty" csv:"project_id"`
	ClientID               string          `json:"client_id,omitempty" csv:"client_id"`
	Description            string          `json:"description,omitempty" csv:"description"`
}

// Validate performs basic validation on the Transaction. An empty supplier
// name is tolerated; matching treats it as a zero-similarity input.
func (t *Transaction) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("transaction ID cannot be empty")
	}

	if !t.Type.IsValid() {
		return fmt.Errorf("invalid transaction type: %s", t.Type)
	}

	if t.TransactionDate.IsZero() {
		return fmt.Errorf("transaction date cannot be zero")
	}

	if t.SupplyAmount.IsNegative() || t.VATAmount.IsNegative() || t.TotalAmount.IsNegative() {
		return fmt.Errorf("transaction amounts cannot be negative")
	}

	return nil
}

// IsSale returns true if the transaction is a sales record
func (t *Transaction) IsSale() bool {
	return t.Type == TransactionTypeSale
}

// IsPurchase returns true if the transaction is a purchase record
func (t *Transaction) IsPurchase() bool {
	return t.Type == TransactionTypePurchase
}

// IsLinked reports whether the transaction has been confirmed against a project.
func (t *Transaction) IsLinked() bool {
	return t.ProjectID != ""
}

// String returns a string representation of the Transaction
func (t *Transaction) String() string {
	return fmt.Sprintf("Transaction{ID: %s, Date: %s, Type: %s, Supplier: %s, Total: %s}",
		t.ID, t.TransactionDate.Format("2006-01-02"), t.Type, t.SupplierName, t.TotalAmount.String())
}

// Client is read-only reference data describing a known business partner.
type Client struct {
	ID             string `json:"id" csv:"id"`
	Name           string `json:"name" csv:"name"`
	BusinessNumber string `json:"business_number,omitempty" csv:"business_number"`
	ContactName    string `json:"contact_name,omitempty" csv:"contact_name"`
	ContactEmail   string `json:"contact_email,omitempty" csv:"contact_email"`
}

// Validate performs basic validation on the Client
func (c *Client) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return fmt.Errorf("client ID cannot be empty")
	}

	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("client name cannot be empty")
	}

	return nil
}

// String returns a string representation of the Client
func (c *Client) String() string {
	return fmt.Sprintf("Client{ID: %s, Name: %s}", c.ID, c.Name)
}

// Project is read-only reference data describing an engagement for a client.
// EndDate is nil while the project is open-ended; Budget is nil when no
// budget has been agreed.
type Project struct {
	ID        string           `json:"id" csv:"id"`
	Name      string           `json:"name" csv:"name"`
	ClientID  string           `json:"client_id" csv:"client_id"`
	Status    ProjectStatus    `json:"status" csv:"status"`
	StartDate time.Time        `json:"start_date" csv:"start_date"`
	EndDate   *time.Time       `json:"end_date,omitempty" csv:"end_date"`
	Budget    *decimal.Decimal `json:"budget,omitempty" csv:"budget"`
}

// Validate performs basic validation on the Project
func (p *Project) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("project ID cannot be empty")
	}

	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("project name cannot be empty")
	}

	if strings.TrimSpace(p.ClientID) == "" {
		return fmt.Errorf("project client ID cannot be empty")
	}

	if !p.Status.IsValid() {
		return fmt.Errorf("invalid project status: %s", p.Status)
	}

	if p.StartDate.IsZero() {
		return fmt.Errorf("project start date cannot be zero")
	}

	if p.EndDate != nil && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("project end date cannot be before start date")
	}

	if p.Budget != nil && p.Budget.IsNegative() {
		return fmt.Errorf("project budget cannot be negative")
	}

	return nil
}

// ActiveWindow returns the inclusive date window the project covers.
// An open-ended project runs through now.
func (p *Project) ActiveWindow(now time.Time) (time.Time, time.Time) {
	if p.EndDate != nil {
		return p.StartDate, *p.EndDate
	}
	return p.StartDate, now
}

// HasBudget reports whether a positive budget has been set.
func (p *Project) HasBudget() bool {
	return p.Budget != nil && p.Budget.IsPositive()
}

// String returns a string representation of the Project
func (p *Project) String() string {
	return fmt.Sprintf("Project{ID: %s, Name: %s, Client: %s, Status: %s}",
		p.ID, p.Name, p.ClientID, p.Status)
}

// MatchType summarizes which evidence tier produced a suggestion.
type MatchType string

const (
	// MatchTypeExact means the client was resolved by an exact identifier match.
	MatchTypeExact MatchType = "exact"
	// MatchTypeFuzzy means the client was resolved by name similarity.
	MatchTypeFuzzy MatchType = "fuzzy"
	// MatchTypeDateAmount means only project-side signals (date window, budget)
	// carried the suggestion.
	MatchTypeDateAmount MatchType = "date_amount"
	// MatchTypeNone means no tier produced a usable suggestion.
	MatchTypeNone MatchType = "none"
)

// String returns the string representation of MatchType
func (m MatchType) String() string {
	return string(m)
}

// IsValid checks if the match type is valid
func (m MatchType) IsValid() bool {
	switch m {
	case MatchTypeExact, MatchTypeFuzzy, MatchTypeDateAmount, MatchTypeNone:
		return true
	default:
		return false
	}
}

// Utility functions for parsing and normalization

// ParseAmount parses a currency amount from a string, tolerating common
// currency symbols and thousands separators.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("amount string cannot be empty")
	}

	for _, symbol := range []string{"$", "₩", "€", "£", ","} {
		s = strings.ReplaceAll(s, symbol, "")
	}
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount format '%s': %w", s, err)
	}

	return d, nil
}

// ParseTransactionType parses and validates a transaction type from string
func ParseTransactionType(s string) (TransactionType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sale", "sales", "revenue", "s":
		return TransactionTypeSale, nil
	case "purchase", "purchases", "expense", "p":
		return TransactionTypePurchase, nil
	default:
		return "", fmt.Errorf("invalid transaction type '%s': must be sale or purchase", s)
	}
}

// ParseProjectStatus parses and validates a project status from string
func ParseProjectStatus(s string) (ProjectStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "planning", "planned":
		return ProjectStatusPlanning, nil
	case "in_progress", "in-progress", "active":
		return ProjectStatusInProgress, nil
	case "completed", "done":
		return ProjectStatusCompleted, nil
	case "cancelled", "canceled":
		return ProjectStatusCancelled, nil
	default:
		return "", fmt.Errorf("invalid project status '%s'", s)
	}
}

// ParseDateWithFormats attempts to parse a calendar date using the formats
// commonly found in bookkeeping exports.
func ParseDateWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date string cannot be empty")
	}

	formats := []string{
		"2006-01-02",
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006/01/02",
		"01/02/2006",
		"02-01-2006",
		"Jan 2, 2006",
	}

	var lastErr error
	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		} else {
			lastErr = err
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date '%s': %w", s, lastErr)
}

// NormalizeBusinessNumber strips separator characters from a business
// identifier so that differently formatted copies of the same number
// compare equal (e.g. "123-45-67890" and "123 45 67890").
func NormalizeBusinessNumber(id string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(id) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// DateOnly truncates a time to midnight UTC, keeping only the calendar date.
// Matching and trend bucketing compare at date resolution.
func DateOnly(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
