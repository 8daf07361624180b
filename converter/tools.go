package converter

// tools.go: external tool discovery.
//
// Conversion shells out to pandoc (which in turn needs a TeX engine for the
// pdflatex strategy) and weasyprint. Known installation directories are
// added to the PATH used to resolve and run those tools; the parent
// environment is never modified.

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// DefaultSearchPaths are the TeX toolchain locations probed before converting.
var DefaultSearchPaths = []string{
	"/Library/TeX/texbin",
	"/usr/local/texlive/2023/bin/universal-darwin",
	"/usr/local/texlive/2024/bin/universal-darwin",
	"/opt/homebrew/bin",
}

// lookPathIn resolves a binary against a PATH-style list of directories.
// Tests may replace it to simulate missing binaries.
var lookPathIn = findExecutable

// findExecutable behaves like exec.LookPath with pathList in place of $PATH.
// Relative directories are skipped.
func findExecutable(name, pathList string) (string, error) {
	if strings.ContainsRune(name, filepath.Separator) {
		return exec.LookPath(name)
	}
	for _, dir := range filepath.SplitList(pathList) {
		if dir == "" || !filepath.IsAbs(dir) {
			continue
		}
		p := filepath.Join(dir, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0 {
			return p, nil
		}
	}
	return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
}

// pathOf returns the PATH value of env, or of the process when env is nil.
func pathOf(env []string) string {
	if env == nil {
		return os.Getenv("PATH")
	}
	path := ""
	for _, kv := range env {
		if strings.HasPrefix(kv, "PATH=") {
			path = strings.TrimPrefix(kv, "PATH=")
		}
	}
	return path
}

// toolAvailable reports whether name resolves on the PATH of env.
func toolAvailable(name string, env []string) bool {
	_, err := lookPathIn(name, pathOf(env))
	return err == nil
}

// CommandRunner runs an external command with the given environment.
type CommandRunner func(ctx context.Context, env []string, name string, args ...string) error

// execRunner runs the command and folds its combined output into the error.
// name is resolved against the PATH carried by env, so binaries that only
// live in a search directory are found.
func execRunner(ctx context.Context, env []string, name string, args ...string) error {
	bin, err := lookPathIn(name, pathOf(env))
	if err != nil {
		return fmt.Errorf("%s not available: %w", name, err)
	}
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Env = env
	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(out.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// searchPathEnv returns base with PATH extended by every existing directory
// of searchPaths that is not already listed.
func searchPathEnv(base []string, searchPaths []string) []string {
	current := ""
	idx := -1
	for i, kv := range base {
		if strings.HasPrefix(kv, "PATH=") {
			current = strings.TrimPrefix(kv, "PATH=")
			idx = i
		}
	}

	listed := make(map[string]bool)
	for _, p := range filepath.SplitList(current) {
		listed[p] = true
	}
	var extra []string
	for _, p := range searchPaths {
		if listed[p] {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			extra = append(extra, p)
			listed[p] = true
		}
	}
	if len(extra) == 0 {
		return base
	}

	parts := extra
	if current != "" {
		parts = append(parts, current)
	}
	path := "PATH=" + strings.Join(parts, string(os.PathListSeparator))

	env := make([]string, len(base), len(base)+1)
	copy(env, base)
	if idx >= 0 {
		env[idx] = path
	} else {
		env = append(env, path)
	}
	return env
}
