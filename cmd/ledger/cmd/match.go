package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang-ledger-service/cmd/ledger/config"
	"golang-ledger-service/internal/reconciler"
	"golang-ledger-service/internal/reporter"
	"golang-ledger-service/internal/stores"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	transactionsFile string
	clientsFile      string
	projectsFile     string
	outputFormat     string
	outputFile       string
	minConfidence    float64
	nearWindowDays   int
	budgetRatio      float64
	matchProfile     string
	showProgress     bool
	showReasons      bool
)

// matchCmd represents the match command
var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Match unlinked transactions to clients and projects",
	Long: `Match scores every unlinked transaction against the client and project
reference data and suggests the most plausible assignment for each, with a
confidence score and the reasons behind it.

Examples:
  # Basic matching with console output
  ledger match --transactions-file tx.csv --clients-file clients.csv --projects-file projects.csv

  # JSON output written to a file, hiding low-confidence suggestions
  ledger match -t tx.csv --clients-file clients.csv --projects-file projects.csv \
    --output-format json --output-file suggestions.json --min-confidence 0.7

  # Stricter matching profile with a narrower date window
  ledger match -t tx.csv --clients-file clients.csv --projects-file projects.csv \
    --profile strict --near-window-days 7

  # With progress indicators
  ledger match -t tx.csv --clients-file clients.csv --projects-file projects.csv --progress`,

	PreRunE: validateMatchFlags,
	RunE:    runMatch,
}

func init() {
	rootCmd.AddCommand(matchCmd)

	// Required flags
	matchCmd.Flags().StringVarP(&transactionsFile, "transactions-file", "t", "", "path to transactions CSV file (required)")
	matchCmd.Flags().StringVar(&clientsFile, "clients-file", "", "path to clients CSV file (required)")
	matchCmd.Flags().StringVar(&projectsFile, "projects-file", "", "path to projects CSV file (required)")

	// Output flags
	matchCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	matchCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	matchCmd.Flags().Float64Var(&minConfidence, "min-confidence", 0.0, "hide suggestions below this confidence (0.0-1.0)")
	matchCmd.Flags().BoolVar(&showReasons, "show-reasons", true, "include match reasons in the output")

	// Matching configuration flags
	matchCmd.Flags().StringVar(&matchProfile, "profile", "default", "matching profile: default, strict, relaxed")
	matchCmd.Flags().IntVar(&nearWindowDays, "near-window-days", -1, "days outside the project period still earning a date bonus (profile default if unset)")
	matchCmd.Flags().Float64Var(&budgetRatio, "budget-ratio", -1, "maximum transaction-to-budget ratio for the budget bonus (profile default if unset)")

	// UI flags
	matchCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	// Mark required flags
	matchCmd.MarkFlagRequired("transactions-file")
	matchCmd.MarkFlagRequired("clients-file")
	matchCmd.MarkFlagRequired("projects-file")

	// Bind flags to viper
	viper.BindPFlag("transactions-file", matchCmd.Flags().Lookup("transactions-file"))
	viper.BindPFlag("clients-file", matchCmd.Flags().Lookup("clients-file"))
	viper.BindPFlag("projects-file", matchCmd.Flags().Lookup("projects-file"))
	viper.BindPFlag("output-format", matchCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", matchCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("min-confidence", matchCmd.Flags().Lookup("min-confidence"))
	viper.BindPFlag("show-reasons", matchCmd.Flags().Lookup("show-reasons"))
	viper.BindPFlag("profile", matchCmd.Flags().Lookup("profile"))
	viper.BindPFlag("near-window-days", matchCmd.Flags().Lookup("near-window-days"))
	viper.BindPFlag("budget-ratio", matchCmd.Flags().Lookup("budget-ratio"))
	viper.BindPFlag("progress", matchCmd.Flags().Lookup("progress"))
}

func validateMatchFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	transactionsFile = viper.GetString("transactions-file")
	clientsFile = viper.GetString("clients-file")
	projectsFile = viper.GetString("projects-file")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	minConfidence = viper.GetFloat64("min-confidence")
	showReasons = viper.GetBool("show-reasons")
	matchProfile = viper.GetString("profile")
	nearWindowDays = viper.GetInt("near-window-days")
	budgetRatio = viper.GetFloat64("budget-ratio")
	showProgress = viper.GetBool("progress")

	// Validate input files
	if err := validateFileExists(transactionsFile, "transactions file"); err != nil {
		return err
	}
	if err := validateFileExists(clientsFile, "clients file"); err != nil {
		return err
	}
	if err := validateFileExists(projectsFile, "projects file"); err != nil {
		return err
	}

	// Validate output format
	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	// Validate confidence threshold
	if minConfidence < 0.0 || minConfidence > 1.0 {
		return fmt.Errorf("min-confidence must be between 0.0 and 1.0")
	}

	// Validate matching profile
	validProfiles := map[string]bool{"default": true, "strict": true, "relaxed": true}
	if !validProfiles[matchProfile] {
		return fmt.Errorf("invalid profile '%s'. Valid profiles: default, strict, relaxed", matchProfile)
	}

	// Validate budget ratio override (-1 means keep the profile default)
	if budgetRatio > 1.0 {
		return fmt.Errorf("budget-ratio must be between 0.0 and 1.0")
	}

	// Validate output file directory exists if specified
	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runMatch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Starting transaction matching...\n")
		fmt.Fprintf(os.Stderr, "Transactions file: %s\n", transactionsFile)
		fmt.Fprintf(os.Stderr, "Clients file: %s\n", clientsFile)
		fmt.Fprintf(os.Stderr, "Projects file: %s\n", projectsFile)
		fmt.Fprintf(os.Stderr, "Output format: %s\n", outputFormat)
		if outputFile != "" {
			fmt.Fprintf(os.Stderr, "Output file: %s\n", outputFile)
		}
	}

	// Create configurations
	matchConfig, err := config.CreateMatchConfig(matchProfile, nearWindowDays, budgetRatio)
	if err != nil {
		return fmt.Errorf("failed to create matching config: %w", err)
	}

	// Load reference and transaction data
	store, err := stores.LoadCSVStore(ctx, stores.CSVStoreFiles{
		Transactions: transactionsFile,
		Clients:      clientsFile,
		Projects:     projectsFile,
	}, config.CreateParseConfig())
	if err != nil {
		return err
	}

	unlinked, err := store.ListUnlinked(ctx)
	if err != nil {
		return err
	}

	if showProgress {
		fmt.Fprintf(os.Stderr, "Matching %d unlinked transactions...\n", len(unlinked))
	}

	// Run the batch
	service := reconciler.NewMatchService(store, matchConfig, nil)
	results, summary, err := service.BatchAutoMatch(ctx, unlinked)
	if err != nil {
		return err
	}

	// Generate report
	reportConfig := config.CreateReportConfig(outputFormat, minConfidence, showReasons)
	reportGenerator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return fmt.Errorf("failed to create report generator: %w", err)
	}

	// Determine output destination
	var output *os.File
	if outputFile != "" {
		output, err = os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer output.Close()
	} else {
		output = os.Stdout
	}

	report := &reporter.BatchReport{
		GeneratedAt: time.Now(),
		Summary:     summary,
		Results:     results,
	}
	if err := reportGenerator.WriteBatchReport(report, output); err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	// Show completion message
	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nMatching completed successfully.\n")
		fmt.Fprintf(os.Stderr, "Scored %d transactions with mean confidence %.2f.\n",
			summary.Total, summary.MeanConfidence)
	}

	return nil
}
