package converter

// Shared test helpers for the converter package.

import (
	"archive/zip"
	"context"
	"errors"
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

// ---- file factories --------------------------------------------------------

// writeTempFile writes content to a temp file with the given name and returns
// its path. The file is cleaned up automatically when the test ends.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writeTempFile: %v", err)
	}
	return path
}

// makeDocx builds a minimal .docx file containing the given OOXML body
// fragment and returns its path.
func makeDocx(t *testing.T, bodyXML string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "Pliego de Bases.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("makeDocx create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("makeDocx zip entry: %v", err)
	}

	const ns = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	doc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document ` + ns + `><w:body>` + bodyXML + `</w:body></w:document>`

	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("makeDocx write: %v", err)
	}
	return path
}

// ---- strategy fakes --------------------------------------------------------

// failing returns a strategy that always fails with msg.
func failing(name, msg string) Strategy {
	return Strategy{Name: name, Run: func(context.Context, string, string) error {
		return errors.New(msg)
	}}
}

// writing returns a strategy that writes content to dst and succeeds.
func writing(name, content string) Strategy {
	return Strategy{Name: name, Run: func(_ context.Context, _, dst string) error {
		return os.WriteFile(dst, []byte(content), 0o600)
	}}
}

// withNoTools overrides lookPathIn for the duration of the test so every
// external binary looks absent.
func withNoTools(t *testing.T) {
	t.Helper()
	orig := lookPathIn
	lookPathIn = func(string, string) (string, error) { return "", errors.New("not found") }
	t.Cleanup(func() { lookPathIn = orig })
}
