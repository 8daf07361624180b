package pdfmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// CamelotDetector runs the camelot command line tool and reads its JSON
// export. Each call uses its own scratch directory.
type CamelotDetector struct {
	bin      string
	tempRoot string
	// run executes the command; swapped in tests.
	run func(ctx context.Context, name string, args ...string) error
}

// NewCamelotDetector creates a detector using bin (default "camelot").
func NewCamelotDetector(bin, tempRoot string) *CamelotDetector {
	if bin == "" {
		bin = "camelot"
	}
	return &CamelotDetector{bin: bin, tempRoot: tempRoot, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, lastLine(msg))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func lastLine(s string) string {
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// DetectTables implements TableDetector.
func (d *CamelotDetector) DetectTables(ctx context.Context, pdfPath string, page int, flavor Flavor) ([]Table, error) {
	if flavor != Lattice && flavor != Stream {
		return nil, fmt.Errorf("unknown flavor %q", flavor)
	}
	dir, err := os.MkdirTemp(d.tempRoot, "tenderdocs-camelot-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	out := filepath.Join(dir, "tables.json")
	args := []string{
		"--pages", strconv.Itoa(page),
		"--format", "json",
		"--output", out,
		string(flavor),
		pdfPath,
	}
	if err := d.run(ctx, d.bin, args...); err != nil {
		return nil, err
	}
	return readCamelotExport(dir)
}

// tableFile matches camelot's per-table export names, e.g.
// tables-page-3-table-2.json.
var tableFile = regexp.MustCompile(`-page-(\d+)-table-(\d+)\.json$`)

// readCamelotExport loads every exported table in dir, ordered by table
// index.
func readCamelotExport(dir string) ([]Table, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	type indexed struct {
		n    int
		path string
	}
	var files []indexed
	for _, e := range entries {
		m := tableFile.FindStringSubmatch(e.Name())
		if m == nil {
			continue
		}
		n, _ := strconv.Atoi(m[2])
		files = append(files, indexed{n: n, path: filepath.Join(dir, e.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].n < files[j].n })

	tables := make([]Table, 0, len(files))
	for _, f := range files {
		data, err := os.ReadFile(f.path)
		if err != nil {
			return nil, err
		}
		t, err := parseCamelotRecords(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(f.path), err)
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// parseCamelotRecords decodes a records-oriented export:
// [{"0": "a", "1": "b"}, ...], one object per row keyed by column index.
func parseCamelotRecords(data []byte) (Table, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode camelot json: %w", err)
	}
	t := make(Table, 0, len(records))
	for _, rec := range records {
		width := 0
		for k := range rec {
			if i, err := strconv.Atoi(k); err == nil && i+1 > width {
				width = i + 1
			}
		}
		row := make([]string, width)
		for k, v := range rec {
			i, err := strconv.Atoi(k)
			if err != nil || v == nil {
				continue
			}
			if s, ok := v.(string); ok {
				row[i] = s
			} else {
				row[i] = fmt.Sprint(v)
			}
		}
		t = append(t, row)
	}
	return t, nil
}
