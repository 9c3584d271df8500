package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DatasetGenerator generates linked client, project, and transaction CSV
// files for exercising matching and profitability reports.
type DatasetGenerator struct {
	Clients      int
	Projects     int
	Transactions int
	StartDate    time.Time
	EndDate      time.Time
	MinAmount    decimal.Decimal
	MaxAmount    decimal.Decimal
	LinkedShare  float64
	NoisyNames   bool

	rng *rand.Rand
}

type clientRecord struct {
	ID             string
	Name           string
	BusinessNumber string
}

type projectRecord struct {
	ID        string
	Name      string
	ClientID  string
	Status    string
	StartDate time.Time
	EndDate   *time.Time
	Budget    decimal.Decimal
}

type transactionRecord struct {
	ID           string
	Date         time.Time
	Type         string
	SupplierName string
	SupplierNo   string
	SupplyAmount decimal.Decimal
	VATAmount    decimal.Decimal
	ProjectID    string
	Description  string
}

var companyNames = []string{
	"Acme Heavy Industries", "Borealis Consulting", "Cedar Point Logistics",
	"Daehan Trading", "Evergreen Media", "Fathom Analytics",
	"Granite Construction", "Hanbit Software", "Ironwood Design",
	"Juniper Catering", "Kestrel Security", "Lumen Printing",
}

var projectKinds = []string{
	"Website Redesign", "Mobile App", "Annual Audit", "Brand Refresh",
	"Office Fit-out", "Data Migration", "Marketing Campaign", "ERP Rollout",
}

var statuses = []string{"planning", "in_progress", "in_progress", "completed", "cancelled"}

func main() {
	var (
		outputDir    = flag.String("output-dir", "../generated", "Output directory for generated files")
		clients      = flag.Int("clients", 20, "Number of clients to generate")
		projects     = flag.Int("projects", 40, "Number of projects to generate")
		transactions = flag.Int("transactions", 1000, "Number of transactions to generate")
		startDate    = flag.String("start-date", "2024-01-01", "Start date (YYYY-MM-DD)")
		endDate      = flag.String("end-date", "2024-12-31", "End date (YYYY-MM-DD)")
		minAmount    = flag.Float64("min-amount", 10.00, "Minimum supply amount")
		maxAmount    = flag.Float64("max-amount", 50000.00, "Maximum supply amount")
		linkedShare  = flag.Float64("linked-share", 0.6, "Share of transactions pre-linked to a project (0.0-1.0)")
		noisyNames   = flag.Bool("noisy-names", true, "Vary supplier names against client names for fuzzy matching")
		seed         = flag.Int64("seed", time.Now().UnixNano(), "Random seed for reproducible generation")
	)
	flag.Parse()

	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		log.Fatalf("Invalid start date: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endDate)
	if err != nil {
		log.Fatalf("Invalid end date: %v", err)
	}
	if *linkedShare < 0 || *linkedShare > 1 {
		log.Fatalf("linked-share must be between 0.0 and 1.0")
	}

	generator := &DatasetGenerator{
		Clients:      *clients,
		Projects:     *projects,
		Transactions: *transactions,
		StartDate:    start,
		EndDate:      end,
		MinAmount:    decimal.NewFromFloat(*minAmount),
		MaxAmount:    decimal.NewFromFloat(*maxAmount),
		LinkedShare:  *linkedShare,
		NoisyNames:   *noisyNames,
		rng:          rand.New(rand.NewSource(*seed)),
	}

	clientRecords := generator.GenerateClients()
	projectRecords := generator.GenerateProjects(clientRecords)
	transactionRecords := generator.GenerateTransactions(clientRecords, projectRecords)

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	if err := generator.WriteClients(filepath.Join(*outputDir, "clients.csv"), clientRecords); err != nil {
		log.Fatalf("Failed to write clients CSV: %v", err)
	}
	if err := generator.WriteProjects(filepath.Join(*outputDir, "projects.csv"), projectRecords); err != nil {
		log.Fatalf("Failed to write projects CSV: %v", err)
	}
	if err := generator.WriteTransactions(filepath.Join(*outputDir, "transactions.csv"), transactionRecords); err != nil {
		log.Fatalf("Failed to write transactions CSV: %v", err)
	}

	linked := 0
	for _, tx := range transactionRecords {
		if tx.ProjectID != "" {
			linked++
		}
	}

	fmt.Printf("Generated %d clients, %d projects, %d transactions in %s\n",
		len(clientRecords), len(projectRecords), len(transactionRecords), *outputDir)
	fmt.Printf("Date range: %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("Linked transactions: %d (%.0f%%)\n", linked, float64(linked)/float64(len(transactionRecords))*100)
	fmt.Printf("Seed used: %d\n", *seed)
}

// GenerateClients creates client records with unique business numbers.
func (dg *DatasetGenerator) GenerateClients() []clientRecord {
	records := make([]clientRecord, dg.Clients)

	for i := range records {
		name := companyNames[i%len(companyNames)]
		if i >= len(companyNames) {
			name = fmt.Sprintf("%s %d", name, i/len(companyNames)+1)
		}

		records[i] = clientRecord{
			ID:             fmt.Sprintf("c-%03d", i+1),
			Name:           name,
			BusinessNumber: fmt.Sprintf("%03d-%02d-%05d", dg.rng.Intn(900)+100, dg.rng.Intn(90)+10, dg.rng.Intn(90000)+10000),
		}
	}

	return records
}

// GenerateProjects creates projects spread across the clients. Roughly one
// project in five is left open-ended.
func (dg *DatasetGenerator) GenerateProjects(clients []clientRecord) []projectRecord {
	records := make([]projectRecord, dg.Projects)
	span := int(dg.EndDate.Sub(dg.StartDate) / (24 * time.Hour))

	for i := range records {
		client := clients[dg.rng.Intn(len(clients))]
		start := dg.StartDate.AddDate(0, 0, dg.rng.Intn(span))

		var end *time.Time
		if dg.rng.Float64() < 0.8 {
			e := start.AddDate(0, 0, 30+dg.rng.Intn(180))
			end = &e
		}

		budget := decimal.NewFromInt(int64(10000 + dg.rng.Intn(490000)))

		records[i] = projectRecord{
			ID:        fmt.Sprintf("p-%03d", i+1),
			Name:      fmt.Sprintf("%s %s", client.Name, projectKinds[dg.rng.Intn(len(projectKinds))]),
			ClientID:  client.ID,
			Status:    statuses[dg.rng.Intn(len(statuses))],
			StartDate: start,
			EndDate:   end,
			Budget:    budget,
		}
	}

	return records
}

// GenerateTransactions creates sales and purchases. The linked share gets a
// project id from the pool; the rest stay unlinked for the matcher to score.
func (dg *DatasetGenerator) GenerateTransactions(clients []clientRecord, projects []projectRecord) []transactionRecord {
	records := make([]transactionRecord, dg.Transactions)
	duration := dg.EndDate.Sub(dg.StartDate)

	for i := range records {
		date := dg.StartDate.Add(time.Duration(dg.rng.Int63n(int64(duration))))

		amountRange := dg.MaxAmount.Sub(dg.MinAmount)
		supply := decimal.NewFromFloat(dg.rng.Float64()).Mul(amountRange).Add(dg.MinAmount).Round(2)
		vat := supply.Mul(decimal.NewFromFloat(0.1)).Round(2)

		txType := "sale"
		if dg.rng.Float64() < 0.45 {
			txType = "purchase"
		}

		client := clients[dg.rng.Intn(len(clients))]
		supplierName := client.Name
		supplierNo := client.BusinessNumber
		if dg.NoisyNames {
			supplierName = dg.noisyName(client.Name)
			// Drop the business number sometimes so name matching has to work
			if dg.rng.Float64() < 0.5 {
				supplierNo = ""
			}
		}

		projectID := ""
		if dg.rng.Float64() < dg.LinkedShare {
			projectID = projects[dg.rng.Intn(len(projects))].ID
		}

		records[i] = transactionRecord{
			ID:           uuid.New().String(),
			Date:         date,
			Type:         txType,
			SupplierName: supplierName,
			SupplierNo:   supplierNo,
			SupplyAmount: supply,
			VATAmount:    vat,
			ProjectID:    projectID,
			Description:  fmt.Sprintf("%s invoice %04d", txType, i+1),
		}
	}

	return records
}

// noisyName perturbs a client name the way invoices tend to: suffixes,
// casing, and the occasional abbreviation.
func (dg *DatasetGenerator) noisyName(name string) string {
	switch dg.rng.Intn(5) {
	case 0:
		return name + " Co., Ltd."
	case 1:
		return name + " Inc"
	case 2:
		if len(name) > 8 {
			return name[:8]
		}
		return name
	case 3:
		return name + " (HQ)"
	default:
		return name
	}
}

// WriteClients writes client records to a CSV file.
func (dg *DatasetGenerator) WriteClients(path string, records []clientRecord) error {
	return writeCSV(path, []string{"id", "name", "business_number"}, len(records), func(i int) []string {
		c := records[i]
		return []string{c.ID, c.Name, c.BusinessNumber}
	})
}

// WriteProjects writes project records to a CSV file.
func (dg *DatasetGenerator) WriteProjects(path string, records []projectRecord) error {
	return writeCSV(path, []string{"id", "name", "client_id", "status", "start_date", "end_date", "budget"}, len(records), func(i int) []string {
		p := records[i]
		end := ""
		if p.EndDate != nil {
			end = p.EndDate.Format("2006-01-02")
		}
		return []string{p.ID, p.Name, p.ClientID, p.Status, p.StartDate.Format("2006-01-02"), end, p.Budget.String()}
	})
}

// WriteTransactions writes transaction records to a CSV file.
func (dg *DatasetGenerator) WriteTransactions(path string, records []transactionRecord) error {
	headers := []string{"id", "transaction_date", "type", "supplier_name", "supplier_business_number", "supply_amount", "vat_amount", "total_amount", "project_id", "description"}
	return writeCSV(path, headers, len(records), func(i int) []string {
		tx := records[i]
		total := tx.SupplyAmount.Add(tx.VATAmount)
		return []string{
			tx.ID,
			tx.Date.Format("2006-01-02"),
			tx.Type,
			tx.SupplierName,
			tx.SupplierNo,
			tx.SupplyAmount.String(),
			tx.VATAmount.String(),
			total.String(),
			tx.ProjectID,
			tx.Description,
		}
	})
}

func writeCSV(path string, headers []string, count int, row func(i int) []string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i := 0; i < count; i++ {
		if err := writer.Write(row(i)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i+1, err)
		}
	}

	return nil
}
