// Package parsers provides CSV parsing for ledger reference and transaction data.
//
// The package reads the three CSV file kinds the ledger works with: tax
// transactions, registered clients, and projects. It tolerates the header and
// formatting variations found in exported accounting data: different date
// formats, amounts with currency symbols and thousands separators, optional
// columns, and empty rows.
//
// Parser types:
//   - TransactionParser: tax transaction files
//   - ClientParser: registered client files
//   - ProjectParser: project files
//
// Example usage:
//
//	parser, err := NewTransactionParser(DefaultParseConfig())
//	transactions, stats, err := parser.ParseFile(ctx, "transactions.csv")
package parsers

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"golang-ledger-service/pkg/errors"
	"golang-ledger-service/pkg/logger"
)

// ParseConfig holds configuration shared by all CSV parsers.
type ParseConfig struct {
	HasHeader        bool
	Delimiter        rune
	TrimLeadingSpace bool
	SkipEmptyRows    bool
}

// DefaultParseConfig returns a configuration with sensible defaults.
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		HasHeader:        true,
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
	}
}

// baseParser provides the CSV plumbing shared by the concrete parsers.
type baseParser struct {
	config *ParseConfig
	logger logger.Logger
}

func newBaseParser(config *ParseConfig, component string) *baseParser {
	if config == nil {
		config = DefaultParseConfig()
	}
	return &baseParser{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent(component),
	}
}

// parseContext tracks position and header layout while reading one file.
type parseContext struct {
	File       string
	LineNumber int
	Headers    []string
	HeaderMap  map[string]int
	ctx        context.Context
}

func newParseContext(ctx context.Context, file string) *parseContext {
	if ctx == nil {
		ctx = context.Background()
	}
	return &parseContext{
		File:      file,
		HeaderMap: make(map[string]int),
		ctx:       ctx,
	}
}

func (pc *parseContext) cancelled() bool {
	select {
	case <-pc.ctx.Done():
		return true
	default:
		return false
	}
}

// columnIndex returns the index of a column by name, or -1. Lookup falls
// back to case-insensitive comparison to tolerate header casing variations.
func (pc *parseContext) columnIndex(name string) int {
	if index, exists := pc.HeaderMap[name]; exists {
		return index
	}

	lowerName := strings.ToLower(name)
	for header, index := range pc.HeaderMap {
		if strings.ToLower(header) == lowerName {
			return index
		}
	}

	return -1
}

// openFile opens a CSV file and returns a configured reader.
func (bp *baseParser) openFile(filePath string) (*os.File, *csv.Reader, error) {
	file, err := os.Open(filePath)
	if err != nil {
		bp.logger.WithError(err).WithField("file_path", filePath).Error("Failed to open CSV file")
		if os.IsNotExist(err) {
			return nil, nil, errors.ParseError(errors.CodeFileNotFound, filePath, 0, "", "", err)
		}
		return nil, nil, errors.ParseError(errors.CodeInvalidFormat, filePath, 0, "", "", err)
	}

	reader := csv.NewReader(file)
	reader.Comma = bp.config.Delimiter
	reader.TrimLeadingSpace = bp.config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	bp.logger.WithField("file_path", filePath).Debug("Opened CSV file")
	return file, reader, nil
}

// readHeaders reads the header row and verifies the required columns exist.
func (bp *baseParser) readHeaders(reader *csv.Reader, parseCtx *parseContext, required []string) error {
	if !bp.config.HasHeader {
		parseCtx.Headers = append([]string(nil), required...)
		bp.buildHeaderMap(parseCtx)
		return nil
	}

	headers, err := reader.Read()
	if err != nil {
		if err == io.EOF {
			return errors.ParseError(
				errors.CodeInvalidFormat,
				parseCtx.File,
				0,
				"headers",
				"",
				fmt.Errorf("file is empty"),
			).WithSuggestion("Ensure the file contains header and data rows")
		}
		return errors.ParseError(errors.CodeInvalidFormat, parseCtx.File, 1, "headers", "", err)
	}

	parseCtx.LineNumber++
	parseCtx.Headers = make([]string, len(headers))
	for i, header := range headers {
		parseCtx.Headers[i] = strings.TrimSpace(header)
	}
	bp.buildHeaderMap(parseCtx)

	var missing []string
	for _, name := range required {
		if parseCtx.columnIndex(name) == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		bp.logger.WithFields(logger.Fields{
			"missing_headers":   missing,
			"available_headers": parseCtx.Headers,
		}).Error("Required headers are missing")

		return errors.ParseError(
			errors.CodeMissingColumn,
			parseCtx.File,
			parseCtx.LineNumber,
			"headers",
			strings.Join(missing, ", "),
			nil,
		).WithSuggestion(fmt.Sprintf("Ensure the CSV file contains these headers: %s", strings.Join(missing, ", ")))
	}

	return nil
}

func (bp *baseParser) buildHeaderMap(parseCtx *parseContext) {
	parseCtx.HeaderMap = make(map[string]int, len(parseCtx.Headers))
	for i, header := range parseCtx.Headers {
		parseCtx.HeaderMap[header] = i
	}
}

// readRecord reads the next data record, skipping empty rows.
func (bp *baseParser) readRecord(reader *csv.Reader, parseCtx *parseContext) ([]string, error) {
	for {
		if parseCtx.cancelled() {
			return nil, parseCtx.ctx.Err()
		}

		record, err := reader.Read()
		if err != nil {
			if err == io.EOF {
				return nil, err
			}
			bp.logger.WithError(err).WithField("line_number", parseCtx.LineNumber+1).Warn("Failed to read CSV record")
			return nil, err
		}

		parseCtx.LineNumber++

		if bp.config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}

		return record, nil
	}
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// fieldValue retrieves a trimmed field value by column name. Missing
// optional columns yield an empty string.
func (pc *parseContext) fieldValue(record []string, name string) string {
	index := pc.columnIndex(name)
	if index == -1 || index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

// ParseStats summarizes one parsing run.
type ParseStats struct {
	TotalLines    int
	RecordsParsed int
	RecordsValid  int
	Errors        []*errors.LedgerError
}

// AddError records a per-record parse failure.
func (ps *ParseStats) AddError(err *errors.LedgerError) {
	ps.Errors = append(ps.Errors, err)
}

// HasErrors reports whether any record failed to parse.
func (ps *ParseStats) HasErrors() bool {
	return len(ps.Errors) > 0
}

// String returns a human-readable summary of the run.
func (ps *ParseStats) String() string {
	return fmt.Sprintf("Parsed %d lines, %d records (%d valid), %d errors",
		ps.TotalLines, ps.RecordsParsed, ps.RecordsValid, len(ps.Errors))
}
