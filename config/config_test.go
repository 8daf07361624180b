package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "tenderdocs.yaml")
	if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_Defaults(t *testing.T) {
	t.Setenv(EnvMaxFileBytes, "")
	t.Setenv(EnvAPIBaseURL, "")

	cfg := Load()

	if cfg.MaxFileSizeBytes != DefaultMaxFileBytes {
		t.Errorf("MaxFileSizeBytes = %d, want %d", cfg.MaxFileSizeBytes, DefaultMaxFileBytes)
	}
	if cfg.APIBaseURL != DefaultAPIBaseURL {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.Batch.CheckpointFile != filepath.Join("data", "checkpoint.json") {
		t.Errorf("CheckpointFile = %q", cfg.Batch.CheckpointFile)
	}
	if cfg.Batch.DownloadDir != "tmp" {
		t.Errorf("DownloadDir = %q", cfg.Batch.DownloadDir)
	}
	if cfg.Mirror.Enabled() {
		t.Error("mirror must be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestLoad_MaxFileBytesFromEnv(t *testing.T) {
	t.Setenv(EnvMaxFileBytes, "1048576") // 1 MiB

	cfg := Load()

	if cfg.MaxFileSizeBytes != 1_048_576 {
		t.Errorf("MaxFileSizeBytes = %d, want 1048576", cfg.MaxFileSizeBytes)
	}
}

func TestLoad_InvalidValuesIgnored(t *testing.T) {
	t.Setenv(EnvMaxFileBytes, "not-a-number")
	t.Setenv(EnvHTTPTimeout, "soon")
	t.Setenv(EnvTableBackend, "tabula")
	t.Setenv(EnvCheckpointBackend, "redis")
	t.Setenv(EnvMinioUseSSL, "maybe")

	cfg := Load()

	if cfg.MaxFileSizeBytes != DefaultMaxFileBytes {
		t.Errorf("MaxFileSizeBytes = %d, want default %d", cfg.MaxFileSizeBytes, DefaultMaxFileBytes)
	}
	if cfg.HTTPTimeout != DefaultHTTPTimeout {
		t.Errorf("HTTPTimeout = %s", cfg.HTTPTimeout)
	}
	if cfg.TableBackend != BackendAuto {
		t.Errorf("TableBackend = %q", cfg.TableBackend)
	}
	if cfg.Batch.CheckpointBackend != CheckpointJSON {
		t.Errorf("CheckpointBackend = %q", cfg.Batch.CheckpointBackend)
	}
	if cfg.Mirror.UseSSL {
		t.Error("UseSSL should stay false")
	}
}

func TestLoad_ZeroMaxFileBytesIgnored(t *testing.T) {
	t.Setenv(EnvMaxFileBytes, "0")

	cfg := Load()

	if cfg.MaxFileSizeBytes != DefaultMaxFileBytes {
		t.Errorf("MaxFileSizeBytes = %d, want default %d", cfg.MaxFileSizeBytes, DefaultMaxFileBytes)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv(EnvTableBackend, "Camelot")
	t.Setenv(EnvCheckpointBackend, "sqlite")
	t.Setenv(EnvTeXPaths, strings.Join([]string{"/opt/tex", "/usr/tex"}, string(os.PathListSeparator)))
	t.Setenv(EnvMinioEndpoint, "localhost:9000")
	t.Setenv(EnvMinioBucket, "pbcs")
	t.Setenv(EnvMinioUseSSL, "true")
	t.Setenv(EnvHTTPTimeout, "15s")

	cfg := Load()

	if cfg.TableBackend != BackendCamelot {
		t.Errorf("TableBackend = %q", cfg.TableBackend)
	}
	if cfg.Batch.CheckpointBackend != CheckpointSQLite {
		t.Errorf("CheckpointBackend = %q", cfg.Batch.CheckpointBackend)
	}
	if !reflect.DeepEqual(cfg.Tools.TeXPaths, []string{"/opt/tex", "/usr/tex"}) {
		t.Errorf("TeXPaths = %v", cfg.Tools.TeXPaths)
	}
	if !cfg.Mirror.Enabled() || !cfg.Mirror.UseSSL {
		t.Errorf("Mirror = %+v", cfg.Mirror)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Errorf("HTTPTimeout = %s", cfg.HTTPTimeout)
	}
}

func TestLoadFile(t *testing.T) {
	t.Setenv("MINIO_SECRET", "s3cr3t")
	t.Setenv(EnvDownloadDir, "/var/tmp/pbc")

	path := writeConfig(t, `
api_base_url: http://localhost:8080/datos
http_timeout: 2m
table_backend: native
tools:
  pandoc: /usr/local/bin/pandoc
  tex_paths: []
batch:
  ids_file: ${IDS_FILE:-input/ids.csv}
  dataset_file: out/dataset.xlsx
  download_dir: downloads
mirror:
  endpoint: minio:9000
  bucket: tenders
  secret_key: ${MINIO_SECRET}
`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}

	if cfg.APIBaseURL != "http://localhost:8080/datos" {
		t.Errorf("APIBaseURL = %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 2*time.Minute {
		t.Errorf("HTTPTimeout = %s", cfg.HTTPTimeout)
	}
	if cfg.TableBackend != BackendNative {
		t.Errorf("TableBackend = %q", cfg.TableBackend)
	}
	if cfg.Tools.Pandoc != "/usr/local/bin/pandoc" {
		t.Errorf("Pandoc = %q", cfg.Tools.Pandoc)
	}
	if cfg.Tools.TeXPaths == nil || len(cfg.Tools.TeXPaths) != 0 {
		t.Errorf("TeXPaths = %#v, want empty non-nil", cfg.Tools.TeXPaths)
	}
	if cfg.Batch.IDsFile != "input/ids.csv" {
		t.Errorf("IDsFile = %q", cfg.Batch.IDsFile)
	}
	if cfg.Batch.DownloadDir != "/var/tmp/pbc" {
		t.Errorf("DownloadDir = %q, env must win over file", cfg.Batch.DownloadDir)
	}
	// Keys missing from the file keep their defaults.
	if cfg.Batch.CheckpointFile != filepath.Join("data", "checkpoint.json") {
		t.Errorf("CheckpointFile = %q", cfg.Batch.CheckpointFile)
	}
	if cfg.Mirror.SecretKey != "s3cr3t" || !cfg.Mirror.Enabled() {
		t.Errorf("Mirror = %+v", cfg.Mirror)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFile(writeConfig(t, "batch: [unclosed")); err == nil {
		t.Error("expected error for invalid YAML")
	}
	if _, err := LoadFile(writeConfig(t, "table_backend: tabula\n")); err == nil {
		t.Error("expected error for unknown table backend")
	}
	if _, err := LoadFile(writeConfig(t, "max_file_bytes: -1\n")); err == nil {
		t.Error("expected error for negative size limit")
	}
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TD_SET", "value")
	t.Setenv("TD_EMPTY", "")

	cases := map[string]string{
		"${TD_SET}":            "value",
		"${TD_SET:-fallback}":  "value",
		"${TD_EMPTY:-default}": "default",
		"${TD_UNSET_XYZ}":      "",
		"a ${TD_SET} b":        "a value b",
		"$TD_SET":              "$TD_SET",
	}
	for in, want := range cases {
		if got := ExpandEnv(in); got != want {
			t.Errorf("ExpandEnv(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaxFileSizeMB(t *testing.T) {
	cfg := &Config{MaxFileSizeBytes: 10 << 20} // 10 MiB
	if got := cfg.MaxFileSizeMB(); got != 10 {
		t.Errorf("MaxFileSizeMB() = %d, want 10", got)
	}
}
