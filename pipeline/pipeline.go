// Package pipeline builds the acquisition and extraction components from a
// Config. Both binaries share it.
package pipeline

import (
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/acquire"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/archive"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/config"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/converter"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/pdfmd"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/tender"
)

// Pipeline holds the wired components.
type Pipeline struct {
	Client    *tender.Client
	Converter *converter.Converter
	Facade    *acquire.Facade
	Extractor *pdfmd.Extractor

	cfg     *config.Config
	backend string
}

// New wires every component from cfg.
func New(cfg *config.Config, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	client := tender.NewClient(cfg.APIBaseURL, httpClient, log)
	fetcher := tender.NewFetcher(httpClient, cfg.MaxFileSizeBytes, cfg.TempDir, log)
	extractor := archive.New(archive.Options{TempRoot: cfg.TempDir})
	conv := converter.New(converter.Options{
		Pandoc:      cfg.Tools.Pandoc,
		Weasyprint:  cfg.Tools.Weasyprint,
		SearchPaths: cfg.Tools.TeXPaths,
		TempRoot:    cfg.TempDir,
		Log:         log,
	})
	facade := acquire.New(client, fetcher, extractor, conv, acquire.Options{TempRoot: cfg.TempDir, Log: log})

	detector, err := pdfmd.NewDetector(cfg.TableBackend, cfg.Tools.Camelot, log)
	if err != nil {
		return nil, fmt.Errorf("table detector: %w", err)
	}
	backend := pdfmd.BackendNative
	if _, ok := detector.(*pdfmd.CamelotDetector); ok {
		backend = pdfmd.BackendCamelot
	}

	return &Pipeline{
		Client:    client,
		Converter: conv,
		Facade:    facade,
		Extractor: pdfmd.New(detector, log),
		cfg:       cfg,
		backend:   backend,
	}, nil
}

// Info returns a Markdown summary of the active configuration.
func (p *Pipeline) Info() string {
	var sb strings.Builder
	sb.WriteString("# Tender document pipeline\n\n")
	sb.WriteString("## Acquisition\n")
	fmt.Fprintf(&sb, "- API: %s\n", p.cfg.APIBaseURL)
	fmt.Fprintf(&sb, "- Max download size: %d MB\n", p.cfg.MaxFileSizeMB())
	sb.WriteString("- Packaging: pdf, doc, docx, zip, rar\n\n")
	sb.WriteString(p.Converter.Info())
	sb.WriteString("\n## Extraction\n")
	fmt.Fprintf(&sb, "- Table backend: %s (configured %s)\n", p.backend, p.cfg.TableBackend)
	sb.WriteString("- Output: page text, then lattice tables, then stream tables per page\n")
	return sb.String()
}
