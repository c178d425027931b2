package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// LoadOptions tunes how a spreadsheet is read.
type LoadOptions struct {
	// Sheet selects an xlsx sheet by name; the first sheet is used when empty.
	Sheet string
	// NoHeader treats the first row as data and names columns positionally.
	NoHeader bool
}

// LoadDataset reads a CSV, TSV or XLSX file into a Dataset.
func LoadDataset(path string) (*Dataset, error) {
	return LoadDatasetWithOptions(path, LoadOptions{})
}

// LoadDatasetWithOptions reads a spreadsheet honoring opts.
func LoadDatasetWithOptions(path string, opts LoadOptions) (*Dataset, error) {
	var (
		records [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = readDelimited(path, ',')
	case ".tsv", ".txt":
		records, err = readDelimited(path, '\t')
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(path, opts.Sheet)
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	ds := datasetFromRecords(records, !opts.NoHeader)
	ds.Name = filepath.Base(path)
	if ds.Width() == 0 {
		return nil, &LoadError{Path: path, Err: ErrEmptyDataset}
	}
	return ds, nil
}

func readDelimited(path string, comma rune) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	reader := csv.NewReader(f)
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return nil, errors.New("empty file")
	}
	return rows, nil
}

func readWorkbook(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheet)
	}
	return rows, nil
}

func datasetFromRecords(records [][]string, hasHeader bool) *Dataset {
	ds := &Dataset{}
	start := 0
	if hasHeader && len(records) > 0 {
		ds.Columns = make([]string, len(records[0]))
		for i, cell := range records[0] {
			ds.Columns[i] = cleanCell(cell)
		}
		start = 1
	}
	for _, rec := range records[start:] {
		row := make([]Cell, len(rec))
		blank := true
		for i, raw := range rec {
			row[i] = inferCell(raw)
			if !row[i].IsEmpty() {
				blank = false
			}
		}
		if blank {
			continue
		}
		ds.Rows = append(ds.Rows, row)
	}
	if !hasHeader {
		ds.Columns = make([]string, ds.Width())
		for i := range ds.Columns {
			ds.Columns[i] = fmt.Sprintf("#%d", i+1)
		}
	}
	return ds
}

// inferCell types a raw spreadsheet value. Plain numbers become numeric
// cells unless the separator heuristics of ParseNumber would read them
// differently, so text and numeric matching agree on every value.
func inferCell(raw string) Cell {
	v := cleanCell(raw)
	if v == "" {
		return Cell{}
	}
	if !isPlainNumber(v) {
		return TextCell(v)
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return TextCell(v)
	}
	if abs := strings.TrimPrefix(v, "-"); strings.Contains(abs, ".") {
		if parsed, ok := ParseNumber(abs); !ok || parsed != math.Abs(n) {
			return TextCell(v)
		}
	}
	return NumberCell(n)
}

func isPlainNumber(v string) bool {
	v = strings.TrimPrefix(v, "-")
	if v == "" || v[0] == '.' || (len(v) > 1 && v[0] == '0' && v[1] != '.') {
		return false
	}
	dot := false
	for i := 0; i < len(v); i++ {
		switch {
		case v[i] >= '0' && v[i] <= '9':
		case v[i] == '.' && !dot && i < len(v)-1:
			dot = true
		default:
			return false
		}
	}
	return true
}

func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}

// WriteRowsCSV writes the header and the given rows of ds, restricted to cols
// when non-empty.
func WriteRowsCSV(w io.Writer, ds *Dataset, rows []int, cols []int) error {
	if ds == nil {
		return ErrNoDataset
	}
	if len(cols) == 0 {
		cols = make([]int, ds.Width())
		for i := range cols {
			cols[i] = i
		}
	}
	writer := csv.NewWriter(w)
	header := make([]string, len(cols))
	for i, c := range cols {
		header[i] = ds.ColumnName(c)
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(cols))
	for _, r := range rows {
		for i, c := range cols {
			record[i] = ds.Cell(r, c).String()
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush rows: %w", err)
	}
	return nil
}
