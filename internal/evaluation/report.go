package evaluation

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// Report file base names.
const (
	AnswerReportName    = "evaluation_report"
	EmbeddingReportName = "similarity_results"
	defaultSheet        = "Sheet1"
)

// WriteOptions selects the report formats. CSV and JSON are always written.
type WriteOptions struct {
	XLSX bool
}

// WriteAnswerReport writes rows to dir as evaluation_report.{csv,json[,xlsx]} and returns
// the written paths.
func WriteAnswerReport(dir string, rows []AnswerRow, opts WriteOptions) ([]string, error) {
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r.cells()
	}
	return writeReport(dir, AnswerReportName, answerHeader, cells, rows, opts)
}

// WriteEmbeddingReport writes the scored pairs to dir as similarity_results.{csv,json[,xlsx]}.
func WriteEmbeddingReport(dir string, report *EmbeddingReport, opts WriteOptions) ([]string, error) {
	cells := make([][]string, len(report.Rows))
	for i, r := range report.Rows {
		cells[i] = r.cells()
	}
	return writeReport(dir, EmbeddingReportName, similarityHeader, cells, report, opts)
}

func writeReport(dir, base string, header []string, cells [][]string, jsonValue any, opts WriteOptions) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	var written []string

	csvPath := filepath.Join(dir, base+".csv")
	if err := writeCSV(csvPath, header, cells); err != nil {
		return written, err
	}
	written = append(written, csvPath)

	jsonPath := filepath.Join(dir, base+".json")
	data, err := json.MarshalIndent(jsonValue, "", "    ")
	if err != nil {
		return written, fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(jsonPath, data, 0644); err != nil {
		return written, fmt.Errorf("write report: %w", err)
	}
	written = append(written, jsonPath)

	if opts.XLSX {
		xlsxPath := filepath.Join(dir, base+".xlsx")
		if err := writeXLSX(xlsxPath, header, cells); err != nil {
			return written, err
		}
		written = append(written, xlsxPath)
	}
	return written, nil
}

func writeCSV(path string, header []string, cells [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	w := csv.NewWriter(f)
	_ = w.Write(header)
	_ = w.WriteAll(cells)
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return f.Close()
}

func writeXLSX(path string, header []string, cells [][]string) error {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetRow(defaultSheet, "A1", toRow(header)); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range cells {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(defaultSheet, cell, toRow(row)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save Excel: %w", err)
	}
	return nil
}

func toRow(cells []string) *[]interface{} {
	row := make([]interface{}, len(cells))
	for i, c := range cells {
		row[i] = c
	}
	return &row
}
