package acquire

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// scope owns the transient artifacts of one Process call. Every tracked path
// is removed by release, together with any temp parent directory it leaves
// empty.
type scope struct {
	root  string
	paths []string
	log   *zap.Logger
}

func newScope(tempRoot string, log *zap.Logger) *scope {
	if tempRoot == "" {
		tempRoot = os.TempDir()
	}
	return &scope{root: filepath.Clean(tempRoot), log: log}
}

// track records a path for removal.
func (s *scope) track(path string) {
	if path != "" {
		s.paths = append(s.paths, path)
	}
}

// release removes tracked paths in order. Errors are logged only.
func (s *scope) release() {
	for _, p := range s.paths {
		if err := os.RemoveAll(p); err != nil {
			s.log.Warn("cleanup failed", zap.String("path", p), zap.Error(err))
			continue
		}
		s.pruneParents(filepath.Dir(p))
	}
	s.paths = nil
}

// pruneParents removes empty directories from dir upwards while they stay
// inside the temp root.
func (s *scope) pruneParents(dir string) {
	for s.inside(dir) {
		if err := os.Remove(dir); err != nil {
			return
		}
		dir = filepath.Dir(dir)
	}
}

func (s *scope) inside(dir string) bool {
	rel, err := filepath.Rel(s.root, filepath.Clean(dir))
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
