// Package artifact persists per-tender outputs such as the extracted
// markdown, on local disk and optionally mirrored to an S3-compatible bucket.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Store saves a named blob.
type Store interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
}

// ErrInvalidName is returned for names that are empty or would escape the
// store root.
var ErrInvalidName = errors.New("invalid artifact name")

func checkName(name string) error {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// LocalStore writes artifacts as files in a directory.
type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) *LocalStore { return &LocalStore{dir: dir} }

// Path returns where an artifact with the given name is stored.
func (s *LocalStore) Path(name string) string { return filepath.Join(s.dir, name) }

// Put writes data to dir/name, replacing any previous content. The file is
// written under a temporary name and renamed into place.
func (s *LocalStore) Put(ctx context.Context, name, _ string, data []byte) (err error) {
	if err := checkName(name); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", s.dir, err)
	}
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.part")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", name, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", name, err)
	}
	if err = os.Rename(tmp.Name(), s.Path(name)); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	return nil
}

// Mirror writes to a primary store and copies to a secondary one. Only the
// primary's errors are returned; secondary failures are logged.
type Mirror struct {
	primary   Store
	secondary Store
	log       *zap.Logger
}

func NewMirror(primary, secondary Store, log *zap.Logger) *Mirror {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mirror{primary: primary, secondary: secondary, log: log}
}

func (m *Mirror) Put(ctx context.Context, name, contentType string, data []byte) error {
	if err := m.primary.Put(ctx, name, contentType, data); err != nil {
		return err
	}
	if m.secondary == nil {
		return nil
	}
	if err := m.secondary.Put(ctx, name, contentType, data); err != nil {
		m.log.Warn("artifact mirror failed", zap.String("name", name), zap.Error(err))
	}
	return nil
}
