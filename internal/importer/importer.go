// Package importer provides CSV and Excel import for the item and stock
// tables. It supports automatic delimiter detection, flexible column
// mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/optimystic/internal/model"
)

// ErrUnknownTable is returned for tables the importer has no layout for.
var ErrUnknownTable = errors.New("unknown import table")

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Rows     []model.Row `json:"rows"`
	Errors   []string    `json:"errors"`
	Warnings []string    `json:"warnings"`
}

// column describes one column of an importable table.
type column struct {
	Key      string   // Column name in the produced rows
	Aliases  []string // Accepted header spellings, lowercase
	Numeric  bool
	Required bool
	Positive bool    // Numeric values must be > 0
	Default  float64 // Used for optional numeric cells left blank
}

// layouts lists the columns of each importable table in positional order.
var layouts = map[string][]column{
	"items": {
		{Key: "Item", Aliases: []string{"item", "item name", "name", "label", "part", "piece", "description"}, Required: true},
		{Key: "Length", Aliases: []string{"length", "length (mm)", "len", "l", "size"}, Numeric: true, Required: true, Positive: true},
		{Key: "Demand", Aliases: []string{"demand", "demand (qty)", "quantity", "qty", "count", "pcs", "pieces"}, Numeric: true, Required: true},
		{Key: "Price", Aliases: []string{"price", "price ($)", "unit price", "value"}, Numeric: true},
	},
	"stocks": {
		{Key: "Name", Aliases: []string{"name", "stock name", "stock", "label", "material"}, Required: true},
		{Key: "Length", Aliases: []string{"length", "length (mm)", "len", "l", "size"}, Numeric: true, Required: true, Positive: true},
		{Key: "Cost", Aliases: []string{"cost", "cost ($)", "price", "unit cost"}, Numeric: true, Required: true},
		{Key: "Limit", Aliases: []string{"limit", "limit (qty)", "quantity", "qty", "available", "stock qty"}, Numeric: true, Default: model.DefaultStockLimit},
	},
}

// Tables returns the names of the importable tables.
func Tables() []string {
	return []string{"items", "stocks"}
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		// Prefer delimiters with higher consistency and more columns
		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

// detectColumns maps each column of the table to its index in a header row.
// Returns the mapping and true if a header was detected, or the positional
// mapping and false if no cell matched a known alias.
func detectColumns(cols []column, row []string) ([]int, bool) {
	mapping := make([]int, len(cols))
	for i := range mapping {
		mapping[i] = -1
	}

	isHeader := false
	for idx, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for c, col := range cols {
			if mapping[c] != -1 {
				continue
			}
			if matchesAlias(col, normalized) {
				mapping[c] = idx
				isHeader = true
				break
			}
		}
	}

	if !isHeader {
		for i := range mapping {
			mapping[i] = i
		}
		return mapping, false
	}
	return mapping, true
}

func matchesAlias(col column, normalized string) bool {
	if normalized == strings.ToLower(col.Key) {
		return true
	}
	for _, alias := range col.Aliases {
		if normalized == alias {
			return true
		}
	}
	return false
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseNumber accepts plain numbers and a decimal comma.
func parseNumber(s string) (float64, error) {
	s = strings.ReplaceAll(s, " ", "")
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// parseRow extracts one table row using the column mapping.
// Returns the row and any error message.
func parseRow(cols []column, row []string, mapping []int, rowLabel string) (model.Row, string) {
	out := model.Row{}
	for c, col := range cols {
		cell := getCell(row, mapping[c])
		if cell == "" {
			if col.Required {
				return nil, fmt.Sprintf("%s: Missing %s value", rowLabel, strings.ToLower(col.Key))
			}
			if col.Numeric {
				out[col.Key] = col.Default
			}
			continue
		}
		if !col.Numeric {
			out[col.Key] = cell
			continue
		}
		v, err := parseNumber(cell)
		if err != nil {
			return nil, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, strings.ToLower(col.Key), cell)
		}
		if v < 0 || (col.Positive && v == 0) {
			return nil, fmt.Sprintf("%s: %s must be positive", rowLabel, col.Key)
		}
		out[col.Key] = v
	}
	return out, ""
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Import reads an uploaded file into rows of the named table. The format
// follows the file extension: .xlsx/.xlsm/.xls as Excel, anything else as CSV.
func Import(table, filename string, data []byte) (ImportResult, error) {
	if _, ok := layouts[table]; !ok {
		return ImportResult{}, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xls":
		return ImportExcel(table, data), nil
	}
	return ImportCSV(table, data), nil
}

// ImportCSV imports a table from CSV content.
// It automatically detects the delimiter and maps columns by header names.
func ImportCSV(table string, data []byte) ImportResult {
	result := ImportResult{}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}
	// Excel writes a BOM in front of UTF-8 CSV exports
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	return importFromRows(layouts[table], records, "Line", result.Warnings)
}

// ImportExcel imports a table from the first sheet of an Excel workbook.
func ImportExcel(table string, data []byte) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	return importFromRows(layouts[table], rows, "Row", nil)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row.
func importFromRows(cols []column, rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Rows:     []model.Row{},
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := detectColumns(cols, rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		var missing []string
		for c, col := range cols {
			if col.Required && mapping[c] == -1 {
				missing = append(missing, col.Key)
			}
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 2 {
		// An unrecognised header still has text where the first number belongs
		if _, err := parseNumber(strings.TrimSpace(rows[0][1])); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	seen := map[string]int{}
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		lineNum := i + 1

		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, lineNum)
		parsed, errMsg := parseRow(cols, row, mapping, rowLabel)
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}

		name := parsed.String(cols[0].Key)
		if first, dup := seen[name]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("%s: Duplicate name '%s' (first seen on %s %d), skipped", rowLabel, name, rowPrefix, first))
			continue
		}
		seen[name] = lineNum
		result.Rows = append(result.Rows, parsed)
	}

	if len(result.Rows) == 0 && len(result.Errors) == 0 {
		result.Errors = append(result.Errors, "No valid rows found in file")
	}

	return result
}
