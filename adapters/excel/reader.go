package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gocnwi/domain/core"
	"gocnwi/domain/sample"
	"gocnwi/internal"

	"github.com/xuri/excelize/v2"
)

// DefaultSheet is read when no sheet is named and the workbook has one by that name
const DefaultSheet = "Sheet1"

// DataReader reads sample tables from Excel and CSV files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := ""
	switch ext {
	case ".csv":
		fileType = "csv"
	case ".xlsx", ".xlsm":
		fileType = "xlsx"
	}
	return &DataReader{
		filePath: filePath,
		fileType: fileType,
		logger:   internal.DefaultLogger.With("DataReader"),
	}
}

// Supports reports whether the reader can open files with the given path's extension
func Supports(path string) bool {
	return NewDataReader(path).fileType != ""
}

// WithSheet selects the worksheet to read from a workbook
func (r *DataReader) WithSheet(name string) *DataReader {
	r.sheet = name
	return r
}

// ReadData reads the header row and data rows as trimmed strings
func (r *DataReader) ReadData() (*SheetData, error) {
	r.logger.Info("Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnsupportedFormat, filepath.Ext(r.filePath))
	}
}

// ReadRecords reads the file as sample records. Numeric cells become float64, empty cells nil
// and everything else stays a string; columns keep the header order.
func (r *DataReader) ReadRecords() (sample.Records, error) {
	data, err := r.ReadData()
	if err != nil {
		return sample.Records{}, err
	}

	records := sample.Records{
		Columns: data.Headers,
		Rows:    make([]sample.Record, 0, len(data.Rows)),
	}
	for _, raw := range data.Rows {
		row := make(sample.Record, len(data.Headers))
		for _, h := range data.Headers {
			row[h] = parseCell(raw[h])
		}
		records.Rows = append(records.Rows, row)
	}
	return records, nil
}

func parseCell(s string) interface{} {
	if s == "" {
		return nil
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	return s
}

// readExcelData reads the selected sheet into structured format
func (r *DataReader) readExcelData() (*SheetData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()
	r.logger.Debug("Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	sheet := r.sheet
	if sheet == "" {
		sheet = DefaultSheet
		if idx, err := f.GetSheetIndex(DefaultSheet); err != nil || idx < 0 {
			sheet = f.GetSheetName(f.GetActiveSheetIndex())
		}
	}

	readStart := time.Now()
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: Excel file must have at least a header row and one data row", core.ErrEmptySampleSet)
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*SheetData, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: CSV file must have at least a header row and one data row", core.ErrEmptySampleSet)
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into SheetData; short rows leave trailing cells empty
// and blank rows are skipped
func (r *DataReader) processRows(rows [][]string) (*SheetData, error) {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	seen := make(map[string]bool, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
		if headers[i] == "" {
			// index columns written by table exports carry no header
			headers[i] = fmt.Sprintf("column_%d", i+1)
		}
		if seen[headers[i]] {
			return nil, fmt.Errorf("column %q appears twice in the header", headers[i])
		}
		seen[headers[i]] = true
	}

	var dataRows []RawRowData
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if isBlank(row) {
			continue
		}
		rowData := make(RawRowData)
		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Info("%s file processed (%d columns, %d rows)", strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &SheetData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
