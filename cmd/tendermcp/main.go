// Command tendermcp serves tender acquisition and PDF extraction as MCP tools
// over stdio.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/config"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/logging"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/pdfmd"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/pipeline"
)

// Server identity constants.
const (
	serverName    = "tenderdocs"
	serverVersion = "0.1.0"
)

// MCP tool parameter key constants, shared between schema definitions and
// argument extraction so a typo in one place is caught by the other.
const (
	argTenderID  = "tender_id"
	argOutputDir = "output_dir"
	argPath      = "path"
	argPage      = "page"
)

// envConfigFile optionally points at a YAML config file.
const envConfigFile = "TENDERDOCS_CONFIG"

// Acquirer produces the canonical PDF of a tender.
type Acquirer interface {
	Process(ctx context.Context, tenderID, outputDir string) (string, error)
}

// Extractor reads PDF pages.
type Extractor interface {
	ExtractPage(ctx context.Context, pdfPath string, pageNumber int) (pdfmd.PageRecord, error)
	Markdown(ctx context.Context, pdfPath string) (string, error)
}

// tools holds the tool handlers' dependencies.
type tools struct {
	acquirer  Acquirer
	extractor Extractor
	info      func() string
}

func main() {
	cfg := config.Load()
	if path := os.Getenv(envConfigFile); path != "" {
		c, err := config.LoadFile(path)
		if err != nil {
			log.Fatalf("config: %v\n", err)
		}
		cfg = c
	}
	// stdout carries the protocol; logs go to stderr.
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err != nil {
		log.Fatalf("logging: %v\n", err)
	}
	p, err := pipeline.New(cfg, logger)
	if err != nil {
		log.Fatalf("pipeline: %v\n", err)
	}

	s := server.NewMCPServer(serverName, serverVersion)
	registerTools(s, &tools{acquirer: p.Facade, extractor: p.Extractor, info: p.Info})

	if err := server.ServeStdio(s); err != nil {
		log.Fatalf("server error: %v\n", err)
	}
}

// registerTools binds MCP tool definitions to their handlers.
func registerTools(s *server.MCPServer, t *tools) {
	// acquire_tender_pdf: tender ID to a single PDF on disk
	s.AddTool(
		mcp.NewTool("acquire_tender_pdf",
			mcp.WithDescription("Download the bidding terms (PBC) or invitation letter of a tender and save it as one PDF. "+
				"PDF, Word (doc/docx), ZIP and RAR packaging are handled; Word documents are converted. "+
				"Returns the absolute path of the PDF."),
			mcp.WithString(argTenderID,
				mcp.Required(),
				mcp.Description("Tender (llamado) ID on the procurement portal"),
			),
			mcp.WithString(argOutputDir,
				mcp.Required(),
				mcp.Description("Directory that receives the PDF; created if missing"),
			),
		),
		t.acquireTenderPDF,
	)

	// pdf_to_markdown: whole document, text plus tables per page
	s.AddTool(
		mcp.NewTool("pdf_to_markdown",
			mcp.WithDescription("Convert a PDF to Markdown: for each page its text, then tables with ruling lines, "+
				"then whitespace-aligned tables."),
			mcp.WithString(argPath,
				mcp.Required(),
				mcp.Description("Absolute path of the PDF"),
			),
		),
		t.pdfToMarkdown,
	)

	// extract_pdf_page: one page as a JSON record
	s.AddTool(
		mcp.NewTool("extract_pdf_page",
			mcp.WithDescription("Extract one PDF page as JSON: page, text_content, lattice_tables, stream_tables."),
			mcp.WithString(argPath,
				mcp.Required(),
				mcp.Description("Absolute path of the PDF"),
			),
			mcp.WithNumber(argPage,
				mcp.Required(),
				mcp.Description("1-based page number"),
			),
		),
		t.extractPDFPage,
	)

	// get_pipeline_info: strategies, tools and configuration
	s.AddTool(
		mcp.NewTool("get_pipeline_info",
			mcp.WithDescription("Return the conversion strategy chain, external tool availability and active configuration."),
		),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText(t.info()), nil
		},
	)
}

func (t *tools) acquireTenderPDF(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, _ := req.Params.Arguments[argTenderID].(string)
	dir, _ := req.Params.Arguments[argOutputDir].(string)
	if id == "" || dir == "" {
		return mcp.NewToolResultError(argTenderID + " and " + argOutputDir + " are required"), nil
	}
	path, err := t.acquirer.Process(ctx, id, dir)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(path), nil
}

func (t *tools) pdfToMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, ok := req.Params.Arguments[argPath].(string)
	if !ok || path == "" {
		return mcp.NewToolResultError(argPath + " is required"), nil
	}
	md, err := t.extractor.Markdown(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(md), nil
}

func (t *tools) extractPDFPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, _ := req.Params.Arguments[argPath].(string)
	page, ok := req.Params.Arguments[argPage].(float64)
	if path == "" || !ok {
		return mcp.NewToolResultError(argPath + " and " + argPage + " are required"), nil
	}
	if page != float64(int(page)) {
		return mcp.NewToolResultError(argPage + " must be a whole number"), nil
	}
	rec, err := t.extractor.ExtractPage(ctx, path, int(page))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := json.Marshal(rec)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}
