package batch

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Dataset column headers.
const (
	ColumnTenderID  = "Id llamado"
	ColumnTenderers = "Cantidad de oferentes"
)

// Row is one dataset line for a processed tender.
type Row struct {
	TenderID  string
	Tenderers int
}

func (r Row) record() []string {
	return []string{r.TenderID, strconv.Itoa(r.Tenderers)}
}

// Dataset is the cumulative table of processed tenders.
type Dataset interface {
	Append(ctx context.Context, row Row) error
}

// OpenDataset picks the dataset format from the file extension: .xlsx is a
// spreadsheet, anything else is CSV.
func OpenDataset(path string) (Dataset, error) {
	if path == "" {
		return nil, errors.New("dataset path is empty")
	}
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return &XLSXDataset{path: path}, nil
	}
	return &CSVDataset{path: path}, nil
}

// ---- CSV ------------------------------------------------------------------

// CSVDataset appends rows to a CSV file with the dataset header. The whole
// file is rewritten atomically on each append.
type CSVDataset struct {
	path string
}

func NewCSVDataset(path string) *CSVDataset { return &CSVDataset{path: path} }

func (d *CSVDataset) Append(_ context.Context, row Row) error {
	records, err := d.read()
	if err != nil {
		return err
	}
	records = append(records, row.record())

	var sb strings.Builder
	w := csv.NewWriter(&sb)
	if err := w.WriteAll(records); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return writeFileAtomic(d.path, []byte(sb.String()))
}

// read returns the existing records including the header, or just the header
// when the file is missing or empty.
func (d *CSVDataset) read() ([][]string, error) {
	header := []string{ColumnTenderID, ColumnTenderers}
	f, err := os.Open(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return [][]string{header}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open dataset %s: %w", d.path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", d.path, err)
	}
	if len(records) == 0 {
		return [][]string{header}, nil
	}
	if !sameHeader(records[0], header) {
		return nil, fmt.Errorf("dataset %s: unexpected header %q", d.path, records[0])
	}
	return records, nil
}

func sameHeader(got, want []string) bool {
	if len(got) < len(want) {
		return false
	}
	for i, w := range want {
		if strings.TrimSpace(strings.TrimPrefix(got[i], "\ufeff")) != w {
			return false
		}
	}
	return true
}

// ---- XLSX -----------------------------------------------------------------

// XLSXDataset appends rows to the first sheet of a workbook.
type XLSXDataset struct {
	path string
}

func NewXLSXDataset(path string) *XLSXDataset { return &XLSXDataset{path: path} }

func (d *XLSXDataset) Append(_ context.Context, row Row) error {
	f, err := d.open()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("read sheet %q in %s: %w", sheet, d.path, err)
	}
	if len(rows) == 0 {
		if err := setRow(f, sheet, 1, []any{ColumnTenderID, ColumnTenderers}); err != nil {
			return err
		}
		rows = append(rows, nil)
	} else if !sameHeader(rows[0], []string{ColumnTenderID, ColumnTenderers}) {
		return fmt.Errorf("dataset %s: unexpected header %q", d.path, rows[0])
	}

	if err := setRow(f, sheet, len(rows)+1, []any{row.TenderID, row.Tenderers}); err != nil {
		return err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("encode xlsx %s: %w", d.path, err)
	}
	return writeFileAtomic(d.path, buf.Bytes())
}

func (d *XLSXDataset) open() (*excelize.File, error) {
	if _, err := os.Stat(d.path); errors.Is(err, os.ErrNotExist) {
		return excelize.NewFile(), nil
	}
	f, err := excelize.OpenFile(d.path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx %s: %w", d.path, err)
	}
	return f, nil
}

func setRow(f *excelize.File, sheet string, n int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", n, err)
	}
	return nil
}
