// Package sheet imports notes from spreadsheets: one note per row, with
// content, hidden content and an optional collection name read from
// configured columns.
package sheet

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/conorfennell/knolnotes/internal/parser"
)

// Options selects where notes live in a workbook. Columns are letters
// ("A", "B", ...); StartRow is 1-based so a header row can be skipped.
type Options struct {
	Sheet         string
	ContentCol    string
	HiddenCol     string
	CollectionCol string
	StartRow      int
}

// DefaultOptions reads Sheet1 with content in A, hidden content in B and a
// header in row 1.
func DefaultOptions() Options {
	return Options{
		Sheet:      "Sheet1",
		ContentCol: "A",
		HiddenCol:  "B",
		StartRow:   2,
	}
}

// Supported reports whether path has a spreadsheet extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// Read extracts entries from an .xlsx workbook or a .csv file. Rows with
// empty content are skipped.
func Read(path string, opts Options) ([]parser.Entry, error) {
	cols, err := opts.columns()
	if err != nil {
		return nil, err
	}

	var rows [][]string
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		rows, err = readCSV(path)
	} else {
		rows, err = readWorkbook(path, opts.Sheet)
	}
	if err != nil {
		return nil, err
	}

	var entries []parser.Entry
	for i, row := range rows {
		if i < opts.StartRow-1 {
			continue
		}
		e := parser.Entry{
			Content:       strings.TrimSpace(cell(row, cols.content)),
			HiddenContent: strings.TrimSpace(cell(row, cols.hidden)),
			Collection:    strings.TrimSpace(cell(row, cols.collection)),
		}
		if e.Content == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

type columnIndexes struct {
	content, hidden, collection int
}

func (o Options) columns() (columnIndexes, error) {
	idx := func(name string) (int, error) {
		if name == "" {
			return -1, nil
		}
		n, err := excelize.ColumnNameToNumber(name)
		if err != nil {
			return 0, fmt.Errorf("invalid column %q: %w", name, err)
		}
		return n - 1, nil
	}

	var c columnIndexes
	var errs []error
	var err error
	if o.ContentCol == "" {
		errs = append(errs, errors.New("content column is required"))
	}
	c.content, err = idx(o.ContentCol)
	errs = append(errs, err)
	c.hidden, err = idx(o.HiddenCol)
	errs = append(errs, err)
	c.collection, err = idx(o.CollectionCol)
	errs = append(errs, err)
	return c, errors.Join(errs...)
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func readWorkbook(path, sheetName string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q of %s: %w", sheetName, path, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV file %s: %w", path, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
