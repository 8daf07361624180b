package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/pdfmd"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/tender"
)

type mockAcquirer struct {
	path string
	err  error
	got  [2]string
}

func (m *mockAcquirer) Process(_ context.Context, id, dir string) (string, error) {
	m.got = [2]string{id, dir}
	return m.path, m.err
}

type mockExtractor struct {
	page int
	err  error
}

func (m *mockExtractor) ExtractPage(_ context.Context, _ string, n int) (pdfmd.PageRecord, error) {
	m.page = n
	if m.err != nil {
		return pdfmd.PageRecord{}, m.err
	}
	return pdfmd.PageRecord{PageNumber: n, Text: "Llamado", LatticeTables: []pdfmd.Table{{{"a"}}}}, nil
}

func (m *mockExtractor) Markdown(_ context.Context, path string) (string, error) {
	return "## Page 1\n\n" + path, m.err
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.Len(t, res.Content, 1)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return tc.Text
}

func TestAcquireTenderPDF(t *testing.T) {
	acq := &mockAcquirer{path: "/out/PBC.pdf"}
	tl := &tools{acquirer: acq}

	res, err := tl.acquireTenderPDF(context.Background(), call(map[string]any{argTenderID: "412345", argOutputDir: "/out"}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "/out/PBC.pdf", resultText(t, res))
	assert.Equal(t, [2]string{"412345", "/out"}, acq.got)
}

func TestAcquireTenderPDF_Errors(t *testing.T) {
	tl := &tools{acquirer: &mockAcquirer{err: tender.Errorf(tender.ErrDocumentNotFound, "select document", "no PBC")}}

	res, err := tl.acquireTenderPDF(context.Background(), call(map[string]any{argTenderID: "1"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = tl.acquireTenderPDF(context.Background(), call(map[string]any{argTenderID: "1", argOutputDir: "/out"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "no PBC")
}

func TestPDFToMarkdown(t *testing.T) {
	tl := &tools{extractor: &mockExtractor{}}
	res, err := tl.pdfToMarkdown(context.Background(), call(map[string]any{argPath: "/x.pdf"}))
	require.NoError(t, err)
	assert.Equal(t, "## Page 1\n\n/x.pdf", resultText(t, res))

	res, err = tl.pdfToMarkdown(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	tl = &tools{extractor: &mockExtractor{err: errors.New("not a PDF")}}
	res, err = tl.pdfToMarkdown(context.Background(), call(map[string]any{argPath: "/x.pdf"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestExtractPDFPage(t *testing.T) {
	ext := &mockExtractor{}
	tl := &tools{extractor: ext}

	res, err := tl.extractPDFPage(context.Background(), call(map[string]any{argPath: "/x.pdf", argPage: float64(3)}))
	require.NoError(t, err)
	require.False(t, res.IsError, resultText(t, res))
	assert.Equal(t, 3, ext.page)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &rec))
	assert.Equal(t, float64(3), rec["page"])
	assert.Equal(t, "Llamado", rec["text_content"])
	assert.Contains(t, rec, "lattice_tables")
	assert.Contains(t, rec, "stream_tables")

	for _, args := range []map[string]any{
		{argPath: "/x.pdf"},
		{argPath: "/x.pdf", argPage: 1.5},
		{argPage: float64(1)},
	} {
		res, err := tl.extractPDFPage(context.Background(), call(args))
		require.NoError(t, err)
		assert.True(t, res.IsError, "%v", args)
	}
}
