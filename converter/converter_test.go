package converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/tender"
)

func TestConvertToPDF_FirstStrategyWins(t *testing.T) {
	src := writeTempFile(t, "carta.docx", "doc")
	c := WithStrategies(t.TempDir(), nil,
		writing("a", "%PDF-a"),
		writing("b", "%PDF-b"),
	)
	out, err := c.ConvertToPDF(context.Background(), src)
	assertNoErr(t, err)

	if filepath.Base(out) != "carta.pdf" {
		t.Errorf("output name: got %s", filepath.Base(out))
	}
	data, _ := os.ReadFile(out)
	if string(data) != "%PDF-a" {
		t.Errorf("expected first strategy output, got %q", data)
	}
}

func TestConvertToPDF_FallsThroughToThird(t *testing.T) {
	src := writeTempFile(t, "pbc.doc", "doc")
	c := WithStrategies(t.TempDir(), nil,
		failing(StrategyPdflatex, "pdflatex not found"),
		failing(StrategyPandoc, "pandoc exited 1"),
		writing(StrategyViaHTML, "%PDF-1.4 html"),
		writing(StrategyWeasy, "%PDF-1.4 weasy"),
	)
	out, err := c.ConvertToPDF(context.Background(), src)
	assertNoErr(t, err)
	data, _ := os.ReadFile(out)
	if string(data) != "%PDF-1.4 html" {
		t.Errorf("expected via HTML output, got %q", data)
	}
}

func TestConvertToPDF_EmptyOutputIsFailure(t *testing.T) {
	src := writeTempFile(t, "pbc.docx", "doc")
	c := WithStrategies(t.TempDir(), nil,
		writing("empty", ""),
		Strategy{Name: "silent", Run: func(context.Context, string, string) error { return nil }},
		writing("good", "%PDF"),
	)
	out, err := c.ConvertToPDF(context.Background(), src)
	assertNoErr(t, err)
	data, _ := os.ReadFile(out)
	if string(data) != "%PDF" {
		t.Errorf("got %q", data)
	}
}

func TestConvertToPDF_AllFail(t *testing.T) {
	root := t.TempDir()
	src := writeTempFile(t, "pbc.docx", "doc")
	c := WithStrategies(root, nil,
		failing("one", "boom"),
		writing("two", ""),
	)
	_, err := c.ConvertToPDF(context.Background(), src)
	assertErr(t, err)

	if !errors.Is(err, tender.ErrConversion) {
		t.Errorf("expected conversion error, got %v", err)
	}
	var ae *AttemptError
	if !errors.As(err, &ae) {
		t.Fatalf("expected *AttemptError in chain, got %T", err)
	}
	if len(ae.Attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(ae.Attempts))
	}
	if ae.Attempts[0] != (Attempt{"one", "boom"}) || ae.Attempts[1] != (Attempt{"two", reasonEmpty}) {
		t.Errorf("unexpected attempts: %+v", ae.Attempts)
	}
	assertContains(t, err.Error(), "one: boom; two: PDF generated but empty")

	entries, _ := os.ReadDir(root)
	if len(entries) != 0 {
		t.Errorf("failed conversion left %d entries in temp root", len(entries))
	}
}

func TestConvertToPDF_Validation(t *testing.T) {
	c := WithStrategies(t.TempDir(), nil, writing("x", "%PDF"))

	_, err := c.ConvertToPDF(context.Background(), "")
	if !errors.Is(err, tender.ErrValidation) {
		t.Errorf("empty path: got %v", err)
	}
	_, err = c.ConvertToPDF(context.Background(), filepath.Join(t.TempDir(), "missing.docx"))
	if !errors.Is(err, tender.ErrConversion) {
		t.Errorf("missing file: got %v", err)
	}
}

func TestConvertToPDF_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := WithStrategies(t.TempDir(), nil, writing("x", "%PDF"))
	_, err := c.ConvertToPDF(ctx, writeTempFile(t, "a.docx", "doc"))
	if !errors.Is(err, tender.ErrConversion) {
		t.Errorf("got %v", err)
	}
}

func TestDefaultStrategies_CommandLines(t *testing.T) {
	var calls []string
	run := func(_ context.Context, _ []string, name string, args ...string) error {
		calls = append(calls, name+" "+strings.Join(args, " "))
		return errors.New("no")
	}
	c := New(Options{Run: run, SearchPaths: []string{}, TempRoot: t.TempDir()})
	if got := strings.Join(c.StrategyNames(), ","); got != "pdflatex,pandoc default,via HTML,weasyprint,native" {
		t.Fatalf("strategy order: %s", got)
	}

	src := writeTempFile(t, "pbc.doc", "doc")
	_, err := c.ConvertToPDF(context.Background(), src)
	assertErr(t, err)

	if len(calls) != 4 {
		t.Fatalf("expected 4 external calls, got %d: %v", len(calls), calls)
	}
	assertContains(t, calls[0], "--pdf-engine=pdflatex")
	if strings.Contains(calls[1], "--pdf-engine") {
		t.Errorf("default pandoc must not pick an engine: %s", calls[1])
	}
	assertContains(t, calls[2], "-t html")
	assertContains(t, calls[3], "-t html")
	assertContains(t, err.Error(), "native renderer supports only .docx")
}

func TestDefaultStrategies_WeasyprintAfterHTML(t *testing.T) {
	var calls []string
	run := func(_ context.Context, _ []string, name string, args ...string) error {
		calls = append(calls, name)
		if name == "weasyprint" {
			return os.WriteFile(args[len(args)-1], []byte("%PDF-weasy"), 0o600)
		}
		if name == "pandoc" && len(args) > 2 && args[1] == "-s" {
			return os.WriteFile(args[len(args)-1], []byte("<html></html>"), 0o600)
		}
		return errors.New("pandoc failed")
	}
	c := New(Options{Run: run, SearchPaths: []string{}, TempRoot: t.TempDir()})
	out, err := c.ConvertToPDF(context.Background(), writeTempFile(t, "pbc.docx", "doc"))
	assertNoErr(t, err)

	entries, _ := os.ReadDir(filepath.Dir(out))
	if len(entries) != 1 {
		t.Errorf("intermediate HTML should be removed, dir has %d entries", len(entries))
	}
	if calls[len(calls)-1] != "weasyprint" {
		t.Errorf("expected weasyprint last, calls=%v", calls)
	}
}

func TestNativeStrategy_RendersDOCX(t *testing.T) {
	withNoTools(t)
	src := makeDocx(t,
		`<w:p><w:pPr><w:pStyle w:val="Heading1"/></w:pPr><w:r><w:t>Pliego de Bases y Condiciones</w:t></w:r></w:p>`+
			`<w:p><w:r><w:t>Licitación pública nacional, sección única.</w:t></w:r></w:p>`+
			`<w:tbl><w:tr><w:tc><w:p><w:r><w:t>Ítem</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>Cant.</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`)

	c := New(Options{TempRoot: t.TempDir()})
	out, err := c.ConvertToPDF(context.Background(), src)
	assertNoErr(t, err)

	if filepath.Base(out) != "Pliego de Bases.pdf" {
		t.Errorf("output name: %s", filepath.Base(out))
	}
	data, err := os.ReadFile(out)
	assertNoErr(t, err)
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Errorf("output is not a PDF: %q", data[:min(len(data), 16)])
	}
}

func TestNativeStrategy_EmptyDocument(t *testing.T) {
	err := nativeStrategy(context.Background(), makeDocx(t, ``), filepath.Join(t.TempDir(), "x.pdf"))
	assertErr(t, err)
}

func TestCanConvert(t *testing.T) {
	for name, want := range map[string]bool{"a.doc": true, "A.DOCX": true, "a.pdf": false, "a.odt": false} {
		if got := CanConvert(name); got != want {
			t.Errorf("CanConvert(%q) = %v", name, got)
		}
	}
	if got := strings.Join(SupportedFormats(), ","); got != "doc,docx" {
		t.Errorf("SupportedFormats = %s", got)
	}
}

func TestInfo(t *testing.T) {
	withNoTools(t)
	info := New(Options{}).Info()
	assertContains(t, info, "pdflatex → pandoc default → via HTML → weasyprint → native")
	assertContains(t, info, "pandoc: not found on PATH")
}
