// Package acquire turns a tender ID into one canonical PDF on disk.
//
// The Facade lists the tender's documents, selects the bidding terms or
// invitation letter, downloads it and resolves it by extension: PDFs are
// copied, Word files converted, ZIP and RAR bundles extracted and resolved
// again. Every intermediate artifact is removed when Process returns.
package acquire

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/converter"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/tender"
)

// DocumentSource lists the attachments of a tender.
type DocumentSource interface {
	ListDocuments(ctx context.Context, tenderID string) ([]tender.DocumentRef, error)
}

// Downloader stores a document in a fresh temp directory and returns its path.
type Downloader interface {
	Download(ctx context.Context, ref tender.DocumentRef) (string, error)
}

// ArchiveExtractor pulls the relevant member out of an archive.
type ArchiveExtractor interface {
	ExtractZip(archivePath string) (string, error)
	ExtractRar(archivePath string) (string, error)
}

// PDFConverter converts a Word document to PDF.
type PDFConverter interface {
	ConvertToPDF(ctx context.Context, docPath string) (string, error)
}

// State is a step of the acquisition state machine.
type State int

const (
	Validating State = iota
	Listing
	Selecting
	Downloading
	Resolving
	Finalizing
	Done
	Failed
)

var stateNames = [...]string{"validating", "listing", "selecting", "downloading", "resolving", "finalizing", "done", "failed"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Options configures a Facade.
type Options struct {
	// TempRoot must match the temp root given to the components so that
	// emptied temp directories can be pruned.
	TempRoot string
	Log      *zap.Logger
}

// Facade composes the acquisition components.
type Facade struct {
	source    DocumentSource
	fetcher   Downloader
	extractor ArchiveExtractor
	converter PDFConverter
	tempRoot  string
	log       *zap.Logger
}

// New creates a Facade.
func New(source DocumentSource, fetcher Downloader, extractor ArchiveExtractor, conv PDFConverter, opts Options) *Facade {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Facade{
		source:    source,
		fetcher:   fetcher,
		extractor: extractor,
		converter: conv,
		tempRoot:  opts.TempRoot,
		log:       log.Named("acquire"),
	}
}

// run carries the state of one Process call.
type run struct {
	*Facade
	log   *zap.Logger
	scope *scope
	state State
}

func (r *run) enter(s State) {
	r.state = s
	r.log.Debug("state", zap.Stringer("state", s))
}

// Process acquires the tender's PBC or invitation letter and writes it as
// <outputDir>/<document base name>.pdf, returning that path.
func (f *Facade) Process(ctx context.Context, tenderID, outputDir string) (path string, err error) {
	r := &run{Facade: f, log: f.log.With(zap.String("tender_id", strings.TrimSpace(tenderID)))}
	r.scope = newScope(f.tempRoot, r.log)

	defer func() {
		r.scope.release()
		if err != nil {
			r.log.Warn("acquisition failed",
				zap.Stringer("state", r.state),
				zap.String("kind", kindName(err)),
				zap.Error(err),
			)
			r.enter(Failed)
			return
		}
		r.enter(Done)
		r.log.Info("acquired", zap.String("path", path))
	}()

	r.enter(Validating)
	id, err := tender.NormalizeID(tenderID)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(outputDir) == "" {
		return "", tender.Errorf(tender.ErrValidation, "process", "output directory must not be empty")
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", tender.Errorf(tender.ErrValidation, "process", "create output directory %s: %w", outputDir, err)
	}

	r.enter(Listing)
	refs, err := f.source.ListDocuments(ctx, id)
	if err != nil {
		return "", err
	}

	r.enter(Selecting)
	ref, err := tender.SelectDocument(refs)
	if err != nil {
		return "", err
	}
	r.log.Debug("selected document",
		zap.String("title", ref.Title),
		zap.String("type", ref.TypeLabel()),
	)

	r.enter(Downloading)
	downloaded, err := f.fetcher.Download(ctx, ref)
	if err != nil {
		return "", err
	}
	r.scope.track(downloaded)

	r.enter(Resolving)
	pdfPath, err := r.resolve(ctx, downloaded, true)
	if err != nil {
		return "", err
	}

	r.enter(Finalizing)
	stem := strings.TrimSuffix(filepath.Base(ref.Title), filepath.Ext(ref.Title))
	target := filepath.Join(outputDir, stem+".pdf")
	if err := copyFile(pdfPath, target); err != nil {
		return "", tender.Errorf(tender.ErrAcquisition, "finalize", "copy %s to %s: %w", filepath.Base(pdfPath), target, err)
	}
	return target, nil
}

// resolve returns a PDF path for path, converting or extracting as needed.
// Archives are only accepted at the top level.
func (r *run) resolve(ctx context.Context, path string, allowArchive bool) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case ext == ".pdf":
		return path, nil

	case converter.CanConvert(path):
		pdfPath, err := r.converter.ConvertToPDF(ctx, path)
		if err != nil {
			return "", err
		}
		r.scope.track(pdfPath)
		return pdfPath, nil

	case allowArchive && (ext == ".zip" || ext == ".rar"):
		extract := r.extractor.ExtractZip
		if ext == ".rar" {
			extract = r.extractor.ExtractRar
		}
		member, err := extract(path)
		if err != nil {
			return "", err
		}
		r.scope.track(member)
		r.log.Debug("extracted member", zap.String("member", filepath.Base(member)))
		return r.resolve(ctx, member, false)

	case !allowArchive:
		return "", tender.Errorf(tender.ErrValidation, "resolve", "extracted document is not a supported format: %q", ext)
	default:
		return "", tender.Errorf(tender.ErrValidation, "resolve", "unsupported file type: %q", ext)
	}
}

// copyFile writes src to dst through a temp file in dst's directory, so a
// failed copy never leaves a partial target behind.
func copyFile(src, dst string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".tenderdocs-*.part")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}

func kindName(err error) string {
	if k := tender.KindOf(err); k != nil {
		return k.Error()
	}
	return "unknown"
}
