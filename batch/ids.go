package batch

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/tender"
)

// idColumn is the portal export column holding the tender ID, compared after
// tender.Normalize.
const idColumn = "id licitacion"

// LoadIDs reads the tender ID list. Plain text files are split on
// whitespace. CSV and XLSX portal exports are reduced to the numeric values
// of their "ID licitación" column.
func LoadIDs(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err := readCSVRows(path)
		if err != nil {
			return nil, err
		}
		return idsFromRows(path, rows)
	case ".xlsx":
		rows, err := readXLSXRows(path)
		if err != nil {
			return nil, err
		}
		return idsFromRows(path, rows)
	default:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read ids %s: %w", path, err)
		}
		return strings.Fields(string(data)), nil
	}
}

// CleanTenderList writes the rows of a portal export (CSV or XLSX) whose
// "ID licitación" value is numeric to dst as CSV, header included. It
// returns the number of rows kept.
func CleanTenderList(src, dst string) (int, error) {
	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(src)) {
	case ".csv":
		rows, err = readCSVRows(src)
	case ".xlsx":
		rows, err = readXLSXRows(src)
	default:
		return 0, fmt.Errorf("clean %s: unsupported tender list format", src)
	}
	if err != nil {
		return 0, err
	}
	col, err := idColumnIndex(src, rows)
	if err != nil {
		return 0, err
	}

	out := [][]string{rows[0]}
	for _, r := range rows[1:] {
		if _, ok := numericID(cell(r, col)); ok {
			out = append(out, r)
		}
	}

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(out); err != nil {
		return 0, fmt.Errorf("encode %s: %w", dst, err)
	}
	if err := writeFileAtomic(dst, []byte(sb.String())); err != nil {
		return 0, err
	}
	return len(out) - 1, nil
}

func idsFromRows(path string, rows [][]string) ([]string, error) {
	col, err := idColumnIndex(path, rows)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, r := range rows[1:] {
		if id, ok := numericID(cell(r, col)); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func idColumnIndex(path string, rows [][]string) (int, error) {
	if len(rows) == 0 {
		return 0, fmt.Errorf("%s: empty tender list", path)
	}
	for i, h := range rows[0] {
		if tender.Normalize(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) == idColumn {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%s: no %q column", path, "ID licitación")
}

// numericID accepts integers and spreadsheet floats with no fraction
// ("123", "123.0").
func numericID(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}
	if _, err := strconv.ParseInt(v, 10, 64); err == nil {
		return v, true
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != float64(int64(f)) {
		return "", false
	}
	return strconv.FormatInt(int64(f), 10), true
}

func cell(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}

func readCSVRows(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

func readXLSXRows(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q in %s: %w", sheets[0], path, err)
	}
	return rows, nil
}
