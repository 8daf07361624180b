package batch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Checkpoint records which tender IDs have completed and which have failed.
// Both lists keep insertion order. An ID present in both is treated as
// processed.
type Checkpoint struct {
	processed []string
	failed    []string
	done      map[string]bool
	bad       map[string]bool
}

// NewCheckpoint returns a checkpoint seeded with the given lists.
func NewCheckpoint(processed, failed []string) *Checkpoint {
	c := &Checkpoint{done: map[string]bool{}, bad: map[string]bool{}}
	for _, id := range processed {
		c.MarkProcessed(id)
	}
	for _, id := range failed {
		c.MarkFailed(id)
	}
	return c
}

// MarkProcessed records a successful ID and clears any failure for it.
func (c *Checkpoint) MarkProcessed(id string) {
	if id == "" || c.done[id] {
		return
	}
	c.done[id] = true
	c.processed = append(c.processed, id)
	if c.bad[id] {
		delete(c.bad, id)
		c.failed = without(c.failed, id)
	}
}

// MarkFailed records a failed ID. IDs already processed stay processed.
func (c *Checkpoint) MarkFailed(id string) {
	if id == "" || c.done[id] || c.bad[id] {
		return
	}
	c.bad[id] = true
	c.failed = append(c.failed, id)
}

func (c *Checkpoint) IsProcessed(id string) bool { return c.done[id] }

// Processed returns the completed IDs in completion order.
func (c *Checkpoint) Processed() []string { return append([]string(nil), c.processed...) }

// Failed returns the IDs whose last attempt failed, in first-failure order.
func (c *Checkpoint) Failed() []string { return append([]string(nil), c.failed...) }

// Pending returns ids minus the processed set, in input order, without
// duplicates.
func (c *Checkpoint) Pending(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var out []string
	for _, id := range ids {
		if id == "" || c.done[id] || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func without(list []string, id string) []string {
	out := list[:0]
	for _, v := range list {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// CheckpointStore persists a Checkpoint. Save fully replaces the stored state.
type CheckpointStore interface {
	Load(ctx context.Context) (*Checkpoint, error)
	Save(ctx context.Context, c *Checkpoint) error
	Close() error
}

// ---- JSON file ------------------------------------------------------------

type checkpointFile struct {
	Processed []string `json:"processed"`
	Failed    []string `json:"failed"`
}

// JSONCheckpointStore keeps the checkpoint as {"processed": [...], "failed": [...]}.
type JSONCheckpointStore struct {
	path string
}

func NewJSONCheckpointStore(path string) *JSONCheckpointStore {
	return &JSONCheckpointStore{path: path}
}

// Load returns an empty checkpoint when the file does not exist yet.
func (s *JSONCheckpointStore) Load(_ context.Context) (*Checkpoint, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewCheckpoint(nil, nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewCheckpoint(nil, nil), nil
	}

	var raw struct {
		Processed []json.Number `json:"processed"`
		Failed    []json.Number `json:"failed"`
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		// IDs written as strings do not decode into json.Number when they are
		// not numeric; fall back to plain strings.
		var plain checkpointFile
		if err2 := json.Unmarshal(data, &plain); err2 != nil {
			return nil, fmt.Errorf("parse checkpoint %s: %w", s.path, err)
		}
		return NewCheckpoint(trimAll(plain.Processed), trimAll(plain.Failed)), nil
	}
	return NewCheckpoint(numbers(raw.Processed), numbers(raw.Failed)), nil
}

// Save writes the checkpoint to a temp file in the same directory, syncs it
// and renames it over the previous one.
func (s *JSONCheckpointStore) Save(_ context.Context, c *Checkpoint) error {
	body, err := json.MarshalIndent(checkpointFile{
		Processed: nonNil(c.Processed()),
		Failed:    nonNil(c.Failed()),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}
	return writeFileAtomic(s.path, append(body, '\n'))
}

func (s *JSONCheckpointStore) Close() error { return nil }

func numbers(ns []json.Number) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, strings.TrimSpace(n.String()))
	}
	return out
}

func trimAll(ss []string) []string {
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		out = append(out, strings.TrimSpace(s))
	}
	return out
}

func nonNil(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return ss
}

func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()
	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
