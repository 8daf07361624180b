package pdfmd

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// NativeDetector detects tables from the page's own drawing operations,
// with no external tools. Lattice detection needs rectangles in the content
// stream; stroked path borders built from individual line segments are not
// seen.
type NativeDetector struct{}

// DetectTables implements TableDetector.
func (NativeDetector) DetectTables(ctx context.Context, pdfPath string, page int, flavor Flavor) ([]Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	glyphs, rules, err := pageLayout(pdfPath, page)
	if err != nil {
		return nil, err
	}
	switch flavor {
	case Lattice:
		return detectLattice(rules, glyphs), nil
	case Stream:
		return detectStream(glyphs), nil
	}
	return nil, fmt.Errorf("unknown flavor %q", flavor)
}

// pageLayout reads positioned text and rectangles from one page.
func pageLayout(pdfPath string, page int) (glyphs []glyph, rules []rule, err error) {
	f, r, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf %s: %w", pdfPath, err)
	}
	defer func() { _ = f.Close() }()

	if page < 1 || page > r.NumPage() {
		return nil, nil, fmt.Errorf("%w: %d of %d", ErrPageRange, page, r.NumPage())
	}
	p := r.Page(page)
	if p.V.IsNull() {
		return nil, nil, nil
	}

	// The content interpreter panics on malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			glyphs, rules = nil, nil
			err = fmt.Errorf("read layout of page %d: %v", page, rec)
		}
	}()

	content := p.Content()
	glyphs = make([]glyph, 0, len(content.Text))
	for _, t := range content.Text {
		glyphs = append(glyphs, glyph{x: t.X, y: t.Y, w: t.W, size: t.FontSize, s: t.S})
	}
	for _, rc := range content.Rect {
		rules = append(rules, rulesFromRect(rc.Min.X, rc.Min.Y, rc.Max.X, rc.Max.Y)...)
	}
	return glyphs, rules, nil
}
