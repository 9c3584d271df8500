package parsers

import (
	"context"
	"fmt"
	"io"

	"golang-ledger-service/internal/models"
	"golang-ledger-service/pkg/errors"
	"golang-ledger-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// Transaction CSV column names.
const (
	ColTransactionID   = "id"
	ColTransactionDate = "transaction_date"
	ColTransactionType = "type"
	ColSupplierName    = "supplier_name"
	ColSupplierNumber  = "supplier_business_number"
	ColSupplyAmount    = "supply_amount"
	ColVATAmount       = "vat_amount"
	ColTotalAmount     = "total_amount"
	ColProjectID       = "project_id"
	ColClientID        = "client_id"
	ColDescription     = "description"
)

var transactionRequiredColumns = []string{
	ColTransactionDate,
	ColTransactionType,
	ColSupplierName,
	ColSupplyAmount,
}

// TransactionParser reads tax transaction CSV files.
type TransactionParser struct {
	*baseParser
}

// NewTransactionParser creates a transaction parser with the given
// configuration, falling back to defaults when config is nil.
func NewTransactionParser(config *ParseConfig) *TransactionParser {
	return &TransactionParser{
		baseParser: newBaseParser(config, "transaction_parser"),
	}
}

// ParseFile reads every transaction in the file. Records that fail to parse
// or validate are skipped and reported through the returned stats; only file
// level failures return an error.
func (tp *TransactionParser) ParseFile(ctx context.Context, filePath string) ([]*models.Transaction, *ParseStats, error) {
	file, reader, err := tp.openFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := newParseContext(ctx, filePath)
	stats := &ParseStats{}

	if err := tp.readHeaders(reader, parseCtx, transactionRequiredColumns); err != nil {
		return nil, stats, err
	}

	var transactions []*models.Transaction
	for {
		record, err := tp.readRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			if ctx != nil && ctx.Err() != nil {
				return nil, stats, err
			}
			stats.AddError(errors.ParseError(
				errors.CodeInvalidFormat, filePath, parseCtx.LineNumber, "", "", err))
			continue
		}

		stats.RecordsParsed++

		tx, parseErr := tp.parseRecord(record, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		if err := tx.Validate(); err != nil {
			stats.AddError(errors.ParseError(
				errors.CodeInvalidData, filePath, parseCtx.LineNumber, "record", tx.ID, err))
			continue
		}

		stats.RecordsValid++
		transactions = append(transactions, tx)
	}

	stats.TotalLines = parseCtx.LineNumber

	tp.logger.WithFields(logger.Fields{
		"file_path":     filePath,
		"records_valid": stats.RecordsValid,
		"errors":        len(stats.Errors),
	}).Info("Parsed transaction file")

	return transactions, stats, nil
}

func (tp *TransactionParser) parseRecord(record []string, parseCtx *parseContext) (*models.Transaction, *errors.LedgerError) {
	file, line := parseCtx.File, parseCtx.LineNumber

	dateValue := parseCtx.fieldValue(record, ColTransactionDate)
	date, err := models.ParseDateWithFormats(dateValue)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, file, line, ColTransactionDate, dateValue, err)
	}

	typeValue := parseCtx.fieldValue(record, ColTransactionType)
	txType, err := models.ParseTransactionType(typeValue)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, file, line, ColTransactionType, typeValue, err)
	}

	supplyValue := parseCtx.fieldValue(record, ColSupplyAmount)
	supply, err := models.ParseAmount(supplyValue)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, file, line, ColSupplyAmount, supplyValue, err)
	}

	vat := decimal.Zero
	if vatValue := parseCtx.fieldValue(record, ColVATAmount); vatValue != "" {
		vat, err = models.ParseAmount(vatValue)
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidData, file, line, ColVATAmount, vatValue, err)
		}
	}

	// Total defaults to supply plus VAT when the column is absent or empty.
	total := supply.Add(vat)
	if totalValue := parseCtx.fieldValue(record, ColTotalAmount); totalValue != "" {
		total, err = models.ParseAmount(totalValue)
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidData, file, line, ColTotalAmount, totalValue, err)
		}
	}

	id := parseCtx.fieldValue(record, ColTransactionID)
	if id == "" {
		id = fmt.Sprintf("%s:%d", file, line)
	}

	return &models.Transaction{
		ID:                     id,
		TransactionDate:        date,
		Type:                   txType,
		SupplierName:           parseCtx.fieldValue(record, ColSupplierName),
		SupplierBusinessNumber: parseCtx.fieldValue(record, ColSupplierNumber),
		SupplyAmount:           supply,
		VATAmount:              vat,
		TotalAmount:            total,
		ProjectID:              parseCtx.fieldValue(record, ColProjectID),
		ClientID:               parseCtx.fieldValue(record, ColClientID),
		Description:            parseCtx.fieldValue(record, ColDescription),
	}, nil
}
