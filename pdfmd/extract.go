// Package pdfmd turns a PDF into an LLM-friendly Markdown document.
//
// Each page yields its plain text plus two independent table detections:
// lattice (tables drawn with ruling lines) and stream (tables aligned by
// whitespace). Both detections are kept even when they overlap.
package pdfmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// Table is a matrix of cell strings, first row being the header.
type Table [][]string

// PageRecord is the extracted content of one page.
type PageRecord struct {
	PageNumber    int     `json:"page"`
	Text          string  `json:"text_content"`
	LatticeTables []Table `json:"lattice_tables"`
	StreamTables  []Table `json:"stream_tables"`
}

// ErrPageRange is returned for page numbers outside the document.
var ErrPageRange = errors.New("page out of range")

// Extractor extracts page records from PDFs.
type Extractor struct {
	detector TableDetector
	log      *zap.Logger
}

// New creates an Extractor. A nil detector disables table detection.
func New(detector TableDetector, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{detector: detector, log: log.Named("pdfmd")}
}

// ExtractPage extracts one 1-based page.
func (e *Extractor) ExtractPage(ctx context.Context, pdfPath string, pageNumber int) (PageRecord, error) {
	doc, err := openDocument(pdfPath)
	if err != nil {
		return PageRecord{}, err
	}
	defer doc.Close()

	if pageNumber < 1 || pageNumber > doc.NumPage() {
		return PageRecord{}, fmt.Errorf("%w: %d of %d", ErrPageRange, pageNumber, doc.NumPage())
	}
	return e.extractPage(ctx, doc, pageNumber)
}

// ExtractDocument extracts every page in order.
func (e *Extractor) ExtractDocument(ctx context.Context, pdfPath string) ([]PageRecord, error) {
	doc, err := openDocument(pdfPath)
	if err != nil {
		return nil, err
	}
	defer doc.Close()

	records := make([]PageRecord, 0, doc.NumPage())
	for n := 1; n <= doc.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := e.extractPage(ctx, doc, n)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	e.log.Debug("extracted document", zap.String("path", pdfPath), zap.Int("pages", len(records)))
	return records, nil
}

// Markdown extracts the whole document and assembles it with ToMarkdown.
func (e *Extractor) Markdown(ctx context.Context, pdfPath string) (string, error) {
	records, err := e.ExtractDocument(ctx, pdfPath)
	if err != nil {
		return "", err
	}
	return ToMarkdown(records), nil
}

func (e *Extractor) extractPage(ctx context.Context, doc *document, n int) (PageRecord, error) {
	text, err := doc.PageText(n)
	if err != nil {
		return PageRecord{}, err
	}
	return PageRecord{
		PageNumber:    n,
		Text:          text,
		LatticeTables: e.detect(ctx, doc.path, n, Lattice),
		StreamTables:  e.detect(ctx, doc.path, n, Stream),
	}, nil
}

// detect runs one detection. Failures yield no tables.
func (e *Extractor) detect(ctx context.Context, pdfPath string, page int, flavor Flavor) []Table {
	if e.detector == nil {
		return nil
	}
	tables, err := e.detector.DetectTables(ctx, pdfPath, page, flavor)
	if err != nil {
		e.log.Warn("table detection failed",
			zap.String("flavor", string(flavor)),
			zap.Int("page", page),
			zap.Error(err),
		)
		return nil
	}
	return tables
}

// ---------------------------------------------------------------------------
// Text layer
// ---------------------------------------------------------------------------

// document wraps an open PDF with a font cache shared across pages.
type document struct {
	path  string
	close func() error
	r     *pdf.Reader
	fonts map[string]*pdf.Font
}

func openDocument(pdfPath string) (*document, error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", pdfPath, err)
	}
	return &document{path: pdfPath, close: f.Close, r: r, fonts: make(map[string]*pdf.Font)}, nil
}

func (d *document) Close() { _ = d.close() }

func (d *document) NumPage() int { return d.r.NumPage() }

// PageText returns the embedded text layer of page n, or "" for pages
// without content.
func (d *document) PageText(n int) (text string, err error) {
	p := d.r.Page(n)
	if p.V.IsNull() {
		return "", nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("read pdf page %d: malformed content: %v", n, r)
		}
	}()

	for _, name := range p.Fonts() {
		if _, ok := d.fonts[name]; !ok {
			f := p.Font(name)
			d.fonts[name] = &f
		}
	}
	text, err = p.GetPlainText(d.fonts)
	if err != nil {
		return "", fmt.Errorf("read pdf page %d: %w", n, err)
	}
	return strings.TrimSpace(text), nil
}
