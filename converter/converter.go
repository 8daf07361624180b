// Package converter turns Word documents (.doc, .docx) into PDF.
//
// Conversion tries an ordered list of strategies and returns the first one
// that leaves a non-empty PDF behind. The default chain shells out to pandoc
// (with the pdflatex engine, then its default engine, then through HTML),
// then to weasyprint, and finally falls back to a native renderer for .docx.
package converter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/tender"
)

// Strategy names, in default order.
const (
	StrategyPdflatex = "pdflatex"
	StrategyPandoc   = "pandoc default"
	StrategyViaHTML  = "via HTML"
	StrategyWeasy    = "weasyprint"
	StrategyNative   = "native"
)

// reasonEmpty is recorded when a strategy exits cleanly without output.
const reasonEmpty = "PDF generated but empty"

var supportedExts = map[string]bool{
	".doc":  true,
	".docx": true,
}

// Strategy is one way of producing dst (a .pdf path) from src.
type Strategy struct {
	Name string
	Run  func(ctx context.Context, src, dst string) error
}

// Attempt records why a strategy did not produce a PDF.
type Attempt struct {
	Strategy string
	Reason   string
}

// AttemptError lists every failed attempt of a conversion, in order.
type AttemptError struct {
	Source   string
	Attempts []Attempt
}

func (e *AttemptError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = a.Strategy + ": " + a.Reason
	}
	return fmt.Sprintf("all conversion strategies failed for %s (%s)", filepath.Base(e.Source), strings.Join(parts, "; "))
}

// Options configures the default strategy chain.
type Options struct {
	Pandoc      string   // pandoc binary, default "pandoc"
	Weasyprint  string   // weasyprint binary, default "weasyprint"
	SearchPaths []string // TeX dirs added to the child PATH, default DefaultSearchPaths
	TempRoot    string   // parent of output dirs, default os.TempDir()
	Run         CommandRunner
	Log         *zap.Logger
}

// Converter converts Word documents to PDF.
type Converter struct {
	strategies []Strategy
	tempRoot   string
	opts       Options
	log        *zap.Logger
}

// New creates a Converter with the default strategy chain.
func New(opts Options) *Converter {
	if opts.Pandoc == "" {
		opts.Pandoc = "pandoc"
	}
	if opts.Weasyprint == "" {
		opts.Weasyprint = "weasyprint"
	}
	if opts.SearchPaths == nil {
		opts.SearchPaths = DefaultSearchPaths
	}
	if opts.Run == nil {
		opts.Run = execRunner
	}
	c := WithStrategies(opts.TempRoot, opts.Log, defaultStrategies(opts)...)
	c.opts = opts
	return c
}

// WithStrategies creates a Converter that tries exactly the given strategies.
func WithStrategies(tempRoot string, log *zap.Logger, strategies ...Strategy) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Converter{strategies: strategies, tempRoot: tempRoot, log: log.Named("converter")}
}

// CanConvert reports whether the file extension is a Word format.
func CanConvert(filePath string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(filePath))]
}

// SupportedFormats returns supported extensions without the leading dot.
func SupportedFormats() []string {
	out := make([]string, 0, len(supportedExts))
	for ext := range supportedExts {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(out)
	return out
}

// ConvertToPDF converts docPath and returns the path of the generated PDF,
// which lives alone in a fresh temporary directory owned by the caller.
func (c *Converter) ConvertToPDF(ctx context.Context, docPath string) (string, error) {
	const op = "convert"
	if docPath == "" {
		return "", tender.Errorf(tender.ErrValidation, op, "document path must not be empty")
	}
	if _, err := os.Stat(docPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", tender.Errorf(tender.ErrConversion, op, "document does not exist: %s", docPath)
		}
		return "", tender.Errorf(tender.ErrConversion, op, "document cannot be accessed: %s: %w", docPath, err)
	}

	dir, err := os.MkdirTemp(c.tempRoot, "tenderdocs-pdf-*")
	if err != nil {
		return "", tender.Errorf(tender.ErrConversion, op, "create output dir: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(docPath), filepath.Ext(docPath))
	dst := filepath.Join(dir, stem+".pdf")

	failed := &AttemptError{Source: docPath}
	for _, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			failed.Attempts = append(failed.Attempts, Attempt{Strategy: s.Name, Reason: err.Error()})
			break
		}
		reason := c.attempt(ctx, s, docPath, dst)
		if reason == "" {
			c.log.Info("converted to pdf",
				zap.String("source", filepath.Base(docPath)),
				zap.String("strategy", s.Name),
			)
			return dst, nil
		}
		c.log.Debug("conversion strategy failed",
			zap.String("source", filepath.Base(docPath)),
			zap.String("strategy", s.Name),
			zap.String("reason", reason),
		)
		failed.Attempts = append(failed.Attempts, Attempt{Strategy: s.Name, Reason: reason})
	}

	_ = os.RemoveAll(dir)
	c.log.Warn("pdf conversion failed",
		zap.String("source", filepath.Base(docPath)),
		zap.Int("attempts", len(failed.Attempts)),
	)
	return "", tender.Errorf(tender.ErrConversion, op, "%w", failed)
}

// attempt runs one strategy and returns "" on success or the failure reason.
func (c *Converter) attempt(ctx context.Context, s Strategy, src, dst string) string {
	_ = os.Remove(dst)
	if err := s.Run(ctx, src, dst); err != nil {
		return err.Error()
	}
	info, err := os.Stat(dst)
	if err != nil || info.Size() == 0 {
		return reasonEmpty
	}
	return ""
}

// StrategyNames returns the configured strategy names in order.
func (c *Converter) StrategyNames() []string {
	names := make([]string, len(c.strategies))
	for i, s := range c.strategies {
		names[i] = s.Name
	}
	return names
}

// Info returns a Markdown summary of the strategy chain and tool availability.
func (c *Converter) Info() string {
	var sb strings.Builder
	sb.WriteString("## Word to PDF\n")
	sb.WriteString("- Formats: " + strings.Join(SupportedFormats(), ", ") + "\n")
	sb.WriteString("- Strategies (in order): " + strings.Join(c.StrategyNames(), " → ") + "\n")
	if c.opts.Pandoc != "" {
		env := searchPathEnv(os.Environ(), c.opts.SearchPaths)
		fmt.Fprintf(&sb, "- pandoc: %s\n", availability(c.opts.Pandoc, env))
		fmt.Fprintf(&sb, "- weasyprint: %s\n", availability(c.opts.Weasyprint, env))
	}
	return sb.String()
}

func availability(bin string, env []string) string {
	if toolAvailable(bin, env) {
		return "available"
	}
	return "not found on PATH"
}
