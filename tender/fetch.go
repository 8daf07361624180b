package tender

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DefaultMaxDownloadBytes caps a single document download (50 MiB).
const DefaultMaxDownloadBytes int64 = 50 << 20

// errTooLarge marks a body that exceeded the configured cap.
var errTooLarge = errors.New("document exceeds size limit")

// Fetcher downloads documents into fresh temporary directories.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
	tempRoot   string
	log        *zap.Logger
}

// NewFetcher creates a Fetcher. maxBytes <= 0 selects DefaultMaxDownloadBytes;
// an empty tempRoot selects os.TempDir().
func NewFetcher(httpClient *http.Client, maxBytes int64, tempRoot string, log *zap.Logger) *Fetcher {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxDownloadBytes
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{httpClient: httpClient, maxBytes: maxBytes, tempRoot: tempRoot, log: log}
}

// Download writes the document's bytes to <tmpdir>/<title> and returns that
// path. The title's extension is preserved for type dispatch downstream.
// The temporary directory is removed again when the download fails.
func (f *Fetcher) Download(ctx context.Context, ref DocumentRef) (path string, err error) {
	const op = "download"
	if ref.URL == "" {
		return "", Errorf(ErrValidation, op, "document must have a URL")
	}
	if ref.Title == "" {
		return "", Errorf(ErrValidation, op, "document must have a title")
	}
	name := filepath.Base(filepath.Clean("/" + ref.Title))
	if name == "/" || name == "." {
		return "", Errorf(ErrValidation, op, "document title %q is not a file name", ref.Title)
	}

	dir, err := os.MkdirTemp(f.tempRoot, "tenderdocs-dl-*")
	if err != nil {
		return "", Errorf(ErrDownload, op, "create temp dir for %s: %w", ref.Title, err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(dir)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref.URL, nil)
	if err != nil {
		return "", Errorf(ErrDownload, op, "build request for %s: %w", ref.Title, err)
	}
	mime := MIMEType(ref.Title)
	if mime != "" {
		req.Header.Set("Accept", mime+", */*;q=0.8")
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", Errorf(ErrDownload, op, "download %s: %w", ref.Title, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", Errorf(ErrDownload, op, "download %s: HTTP %d", ref.Title, resp.StatusCode)
	}

	path = filepath.Join(dir, name)
	n, err := f.writeBody(path, resp.Body)
	if err != nil {
		return "", Errorf(ErrDownload, op, "save %s: %w", ref.Title, err)
	}
	if n == 0 {
		return "", Errorf(ErrDownload, op, "downloaded file is empty: %s", ref.Title)
	}

	f.log.Debug("document downloaded",
		zap.String("title", ref.Title), zap.String("path", path), zap.Int64("bytes", n),
		zap.String("mime", mime), zap.String("content_type", resp.Header.Get("Content-Type")))
	return path, nil
}

func (f *Fetcher) writeBody(path string, body io.Reader) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := io.Copy(out, io.LimitReader(body, f.maxBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return n, err
	}
	if n > f.maxBytes {
		return n, errTooLarge
	}
	return n, nil
}
