// Package archive pulls the bidding-terms document out of ZIP and RAR
// bundles attached to a tender.
//
// Both formats share one algorithm: walk the members in listing order, test
// each base name with tender.IsRelevantDocument and extract the first match
// into a fresh temporary directory, keeping its path inside the archive.
package archive

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/tender"
)

// openFunc opens a member's content. It is only valid during the visit call.
type openFunc func() (io.ReadCloser, error)

// visitFunc is called once per member in listing order. Returning done=true
// stops the walk.
type visitFunc func(name string, isDir bool, open openFunc) (done bool, err error)

// walkFunc lists an archive, calling visit for every member.
type walkFunc func(archivePath string, visit visitFunc) error

// format describes one archive family.
type format struct {
	label    string // "ZIP" or "RAR"
	walk     walkFunc
	classify func(err error) string
}

// Options tunes extraction.
type Options struct {
	// TempRoot is where extraction directories are created. Empty means os.TempDir().
	TempRoot string
}

// Extractor extracts the relevant member of ZIP and RAR archives.
type Extractor struct {
	opts Options
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	return &Extractor{opts: opts}
}

// ExtractZip extracts the PBC or invitation letter from a ZIP archive and
// returns the path of the extracted file.
func (x *Extractor) ExtractZip(archivePath string) (string, error) {
	return x.extract(archivePath, zipFormat)
}

// ExtractRar extracts the PBC or invitation letter from a RAR archive and
// returns the path of the extracted file.
func (x *Extractor) ExtractRar(archivePath string) (string, error) {
	return x.extract(archivePath, rarFormat)
}

// errFound stops the walk after a successful extraction.
var errFound = errors.New("member extracted")

func (x *Extractor) extract(archivePath string, f format) (string, error) {
	op := "extract " + strings.ToLower(f.label)
	if archivePath == "" {
		return "", tender.Errorf(tender.ErrValidation, op, "%s path must not be empty", f.label)
	}
	if _, err := os.Stat(archivePath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", tender.Errorf(tender.ErrExtraction, op, "%s file does not exist: %s", f.label, archivePath)
		}
		return "", tender.Errorf(tender.ErrExtraction, op, "%s file cannot be accessed: %s: %w", f.label, archivePath, err)
	}

	var (
		members   []string
		extracted string
		seen      int
	)
	walkErr := f.walk(archivePath, func(name string, isDir bool, open openFunc) (bool, error) {
		seen++
		if isDir {
			return false, nil
		}
		base := path.Base(filepath.ToSlash(name))
		members = append(members, base)
		if !tender.IsRelevantDocument(base) {
			return false, nil
		}
		out, err := x.writeMember(name, open)
		if err != nil {
			return true, fmt.Errorf("extract %s: %w", name, err)
		}
		extracted = out
		return true, errFound
	})
	if walkErr != nil && !errors.Is(walkErr, errFound) {
		return "", tender.Errorf(tender.ErrExtraction, op, "%s: %s: %w", f.classify(walkErr), archivePath, walkErr)
	}
	if extracted != "" {
		return extracted, nil
	}
	if seen == 0 {
		return "", tender.Errorf(tender.ErrExtraction, op, "%s file is empty: %s", f.label, archivePath)
	}
	return "", tender.Errorf(tender.ErrExtraction, op,
		"no PBC or invitation letter found in %s; available files: %s", f.label, strings.Join(members, ", "))
}

// writeMember copies a member into a new temp dir, preserving its relative
// path. Names escaping the directory are rejected.
func (x *Extractor) writeMember(name string, open openFunc) (string, error) {
	rel := filepath.FromSlash(path.Clean("/" + filepath.ToSlash(name)))[1:]
	if rel == "" {
		return "", fmt.Errorf("invalid member name %q", name)
	}

	dir, err := os.MkdirTemp(x.opts.TempRoot, "tenderdocs-x-*")
	if err != nil {
		return "", err
	}
	dst := filepath.Join(dir, rel)
	if err := x.copyMember(dst, open); err != nil {
		_ = os.RemoveAll(dir)
		return "", err
	}
	return dst, nil
}

func (x *Extractor) copyMember(dst string, open openFunc) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	rc, err := open()
	if err != nil {
		return err
	}
	defer rc.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, rc)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}

// classifyCommon maps filesystem failures shared by both formats.
func classifyCommon(err error) (string, bool) {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "archive file not found", true
	case errors.Is(err, fs.ErrPermission):
		return "no permission to access archive", true
	}
	return "", false
}
