package parsers

import (
	"context"
	"fmt"
	"io"

	"golang-ledger-service/internal/models"
	"golang-ledger-service/pkg/errors"
	"golang-ledger-service/pkg/logger"
)

// Client CSV column names.
const (
	ColClientRecordID     = "id"
	ColClientName         = "name"
	ColClientNumber       = "business_number"
	ColClientContactName  = "contact_name"
	ColClientContactEmail = "contact_email"
)

// Project CSV column names.
const (
	ColProjectRecordID = "id"
	ColProjectName     = "name"
	ColProjectClientID = "client_id"
	ColProjectStatus   = "status"
	ColProjectStart    = "start_date"
	ColProjectEnd      = "end_date"
	ColProjectBudget   = "budget"
)

var (
	clientRequiredColumns  = []string{ColClientName}
	projectRequiredColumns = []string{ColProjectName, ColProjectClientID, ColProjectStatus, ColProjectStart}
)

// ClientParser reads registered client CSV files.
type ClientParser struct {
	*baseParser
}

// NewClientParser creates a client parser.
func NewClientParser(config *ParseConfig) *ClientParser {
	return &ClientParser{
		baseParser: newBaseParser(config, "client_parser"),
	}
}

// ParseFile reads every client in the file. Malformed records are skipped
// and reported through the stats.
func (cp *ClientParser) ParseFile(ctx context.Context, filePath string) ([]*models.Client, *ParseStats, error) {
	file, reader, err := cp.openFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := newParseContext(ctx, filePath)
	stats := &ParseStats{}

	if err := cp.readHeaders(reader, parseCtx, clientRequiredColumns); err != nil {
		return nil, stats, err
	}

	var clients []*models.Client
	for {
		record, err := cp.readRecord(reader, parseCtx)
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

		name := parseCtx.fieldValue(record, ColClientName)
		if name == "" {
			stats.AddError(errors.ParseError(
				errors.CodeInvalidData, filePath, parseCtx.LineNumber, ColClientName, "",
				fmt.Errorf("client name is required")))
			continue
		}

		id := parseCtx.fieldValue(record, ColClientRecordID)
		if id == "" {
			id = fmt.Sprintf("%s:%d", filePath, parseCtx.LineNumber)
		}

		stats.RecordsValid++
		clients = append(clients, &models.Client{
			ID:             id,
			Name:           name,
			BusinessNumber: parseCtx.fieldValue(record, ColClientNumber),
			ContactName:    parseCtx.fieldValue(record, ColClientContactName),
			ContactEmail:   parseCtx.fieldValue(record, ColClientContactEmail),
		})
	}

	stats.TotalLines = parseCtx.LineNumber

	cp.logger.WithFields(logger.Fields{
		"file_path":     filePath,
		"records_valid": stats.RecordsValid,
		"errors":        len(stats.Errors),
	}).Info("Parsed client file")

	return clients, stats, nil
}

// ProjectParser reads project CSV files.
type ProjectParser struct {
	*baseParser
}

// NewProjectParser creates a project parser.
func NewProjectParser(config *ParseConfig) *ProjectParser {
	return &ProjectParser{
		baseParser: newBaseParser(config, "project_parser"),
	}
}

// ParseFile reads every project in the file. Malformed records are skipped
// and reported through the stats.
func (pp *ProjectParser) ParseFile(ctx context.Context, filePath string) ([]*models.Project, *ParseStats, error) {
	file, reader, err := pp.openFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := newParseContext(ctx, filePath)
	stats := &ParseStats{}

	if err := pp.readHeaders(reader, parseCtx, projectRequiredColumns); err != nil {
		return nil, stats, err
	}

	var projects []*models.Project
	for {
		record, err := pp.readRecord(reader, parseCtx)
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

		project, parseErr := pp.parseRecord(record, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		stats.RecordsValid++
		projects = append(projects, project)
	}

	stats.TotalLines = parseCtx.LineNumber

	pp.logger.WithFields(logger.Fields{
		"file_path":     filePath,
		"records_valid": stats.RecordsValid,
		"errors":        len(stats.Errors),
	}).Info("Parsed project file")

	return projects, stats, nil
}

func (pp *ProjectParser) parseRecord(record []string, parseCtx *parseContext) (*models.Project, *errors.LedgerError) {
	file, line := parseCtx.File, parseCtx.LineNumber

	name := parseCtx.fieldValue(record, ColProjectName)
	if name == "" {
		return nil, errors.ParseError(errors.CodeInvalidData, file, line, ColProjectName, "",
			fmt.Errorf("project name is required"))
	}

	statusValue := parseCtx.fieldValue(record, ColProjectStatus)
	status, err := models.ParseProjectStatus(statusValue)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, file, line, ColProjectStatus, statusValue, err)
	}

	startValue := parseCtx.fieldValue(record, ColProjectStart)
	start, err := models.ParseDateWithFormats(startValue)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidData, file, line, ColProjectStart, startValue, err)
	}

	project := &models.Project{
		ID:        parseCtx.fieldValue(record, ColProjectRecordID),
		Name:      name,
		ClientID:  parseCtx.fieldValue(record, ColProjectClientID),
		Status:    status,
		StartDate: start,
	}
	if project.ID == "" {
		project.ID = fmt.Sprintf("%s:%d", file, line)
	}

	if endValue := parseCtx.fieldValue(record, ColProjectEnd); endValue != "" {
		end, err := models.ParseDateWithFormats(endValue)
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidData, file, line, ColProjectEnd, endValue, err)
		}
		project.EndDate = &end
	}

	if budgetValue := parseCtx.fieldValue(record, ColProjectBudget); budgetValue != "" {
		budget, err := models.ParseAmount(budgetValue)
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidData, file, line, ColProjectBudget, budgetValue, err)
		}
		project.Budget = &budget
	}

	return project, nil
}
