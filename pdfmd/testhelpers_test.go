package pdfmd

// Shared test helpers for the pdfmd package.

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// ---- assertion helpers -----------------------------------------------------

func assertNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErr(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected output to contain %q\ngot: %s", want, got)
	}
}

func assertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func assertTable(t *testing.T, got, want Table) {
	t.Helper()
	if fmt.Sprintf("%q", got) != fmt.Sprintf("%q", want) {
		t.Errorf("table mismatch\ngot:  %q\nwant: %q", got, want)
	}
}

// ---- file factories --------------------------------------------------------

// writeTempFile writes content to a temp file with the given name and returns
// its path.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writeTempFile: %v", err)
	}
	return path
}

// buildPDF writes a PDF with one page per content stream. Pages share a
// WinAnsi Helvetica font /F1 whose glyphs are all 500/1000 em wide.
func buildPDF(t *testing.T, pages ...string) string {
	t.Helper()

	widths := strings.TrimSpace(strings.Repeat("500 ", 126-32+1))
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"", // pages tree, filled below
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding " +
			"/FirstChar 32 /LastChar 126 /Widths [" + widths + "] >>",
	}
	var kids []string
	for _, content := range pages {
		pageNum := len(objs) + 1
		kids = append(kids, fmt.Sprintf("%d 0 R", pageNum))
		objs = append(objs,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
				"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", pageNum+1),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content)+1, content),
		)
	}
	objs[1] = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, o := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, o)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objs)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, xref)

	path := filepath.Join(t.TempDir(), "doc.pdf")
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		t.Fatalf("buildPDF: %v", err)
	}
	return path
}

// textOp draws s at (x, y) in /F1 at the given size.
func textOp(s string, x, y, size float64) string {
	return fmt.Sprintf("BT /F1 %g Tf %g %g Td (%s) Tj ET\n", size, x, y, s)
}

// rectOp strokes a rectangle.
func rectOp(x, y, w, h float64) string {
	return fmt.Sprintf("%g %g %g %g re S\n", x, y, w, h)
}

// ---- synthetic layout ------------------------------------------------------

// glyphsAt lays s out one glyph per character, each size/2 wide, the same
// metrics buildPDF's font produces.
func glyphsAt(s string, x, y, size float64) []glyph {
	var out []glyph
	for _, r := range s {
		out = append(out, glyph{x: x, y: y, w: size / 2, size: size, s: string(r)})
		x += size / 2
	}
	return out
}

// cellRects returns the stroked rectangles of a rows×cols grid whose top-left
// corner is (x, top).
func cellRects(x, top, cw, ch float64, rows, cols int) []rule {
	var out []rule
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x0 := x + float64(c)*cw
			y0 := top - float64(r+1)*ch
			out = append(out, rulesFromRect(x0, y0, x0+cw, y0+ch)...)
		}
	}
	return out
}
