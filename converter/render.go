package converter

// render.go: lays out DOCX blocks on A4 pages with fpdf.
//
// The result is plain but faithful to the text: headings, paragraphs, list
// items and bordered tables. It exists so a Word document can still be
// turned into a readable PDF on hosts without pandoc or a TeX engine.

import (
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

const (
	fontFamily = "Helvetica"
	bodySize   = 10.5
	lineHeight = 5.0
	cellLine   = 4.2
)

var headingSizes = [...]float64{0, 16, 14, 12.5, 11.5, 11, 10.5}

func renderPDF(blocks []block, dst string) error {
	if len(blocks) == 0 {
		return fmt.Errorf("document has no text content")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	width := pageW - left - right

	for _, b := range blocks {
		switch b.kind {
		case blockHeading:
			pdf.SetFont(fontFamily, "B", headingSizes[b.level])
			pdf.Ln(2)
			pdf.MultiCell(width, lineHeight+1.5, tr(b.text), "", "L", false)
			pdf.Ln(1.5)
		case blockListItem:
			indent := 5 * float64(b.level+1)
			pdf.SetFont(fontFamily, "", bodySize)
			pdf.SetX(left + indent)
			pdf.MultiCell(width-indent, lineHeight, tr("- "+b.text), "", "L", false)
		case blockTable:
			pdf.Ln(1)
			drawTable(pdf, tr, b.rows, left, width)
			pdf.Ln(3)
		default:
			style := ""
			if b.bold {
				style = "B"
			}
			pdf.SetFont(fontFamily, style, bodySize)
			pdf.MultiCell(width, lineHeight, tr(b.text), "", "J", false)
			pdf.Ln(2)
		}
	}

	return pdf.OutputFileAndClose(dst)
}

func drawTable(pdf *fpdf.Fpdf, tr func(string) string, rows [][]string, left, width float64) {
	cols := 0
	for _, row := range rows {
		cols = max(cols, len(row))
	}
	if cols == 0 {
		return
	}
	cw := width / float64(cols)
	_, pageH := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()

	for i, row := range rows {
		style := ""
		if i == 0 {
			style = "B"
		}
		pdf.SetFont(fontFamily, style, 9)

		cells := make([][]string, cols)
		lines := 1
		for c := range cells {
			txt := ""
			if c < len(row) {
				txt = tr(row[c])
			}
			for _, part := range strings.Split(txt, "\n") {
				cells[c] = append(cells[c], pdf.SplitText(part, cw-2)...)
			}
			lines = max(lines, len(cells[c]))
		}

		h := float64(lines)*cellLine + 1.5
		if pdf.GetY()+h > pageH-bottom {
			pdf.AddPage()
		}
		y := pdf.GetY()
		for c, text := range cells {
			x := left + float64(c)*cw
			pdf.Rect(x, y, cw, h, "D")
			pdf.SetXY(x+1, y+0.75)
			pdf.MultiCell(cw-2, cellLine, strings.Join(text, "\n"), "", "L", false)
		}
		pdf.SetXY(left, y+h)
	}
}
