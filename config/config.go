package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable names. Each overrides the matching file or default
// value; empty or invalid values are ignored.
const (
	EnvAPIBaseURL        = "TENDERDOCS_API_BASE_URL"
	EnvHTTPTimeout       = "TENDERDOCS_HTTP_TIMEOUT"
	EnvMaxFileBytes      = "TENDERDOCS_MAX_FILE_BYTES"
	EnvTempDir           = "TENDERDOCS_TEMP_DIR"
	EnvPandoc            = "TENDERDOCS_PANDOC"
	EnvWeasyprint        = "TENDERDOCS_WEASYPRINT"
	EnvCamelot           = "TENDERDOCS_CAMELOT"
	EnvTeXPaths          = "TENDERDOCS_TEX_PATHS" // os.PathListSeparator-separated
	EnvTableBackend      = "TENDERDOCS_TABLE_BACKEND"
	EnvIDsFile           = "TENDERDOCS_IDS_FILE"
	EnvCheckpointFile    = "TENDERDOCS_CHECKPOINT_FILE"
	EnvCheckpointBackend = "TENDERDOCS_CHECKPOINT_BACKEND"
	EnvDatasetFile       = "TENDERDOCS_DATASET_FILE"
	EnvExtractedDir      = "TENDERDOCS_EXTRACTED_DIR"
	EnvDownloadDir       = "TENDERDOCS_DOWNLOAD_DIR"
	EnvLogLevel          = "TENDERDOCS_LOG_LEVEL"
	EnvLogFormat         = "TENDERDOCS_LOG_FORMAT"
	EnvMinioEndpoint     = "TENDERDOCS_MINIO_ENDPOINT"
	EnvMinioAccessKey    = "TENDERDOCS_MINIO_ACCESS_KEY"
	EnvMinioSecretKey    = "TENDERDOCS_MINIO_SECRET_KEY"
	EnvMinioBucket       = "TENDERDOCS_MINIO_BUCKET"
	EnvMinioUseSSL       = "TENDERDOCS_MINIO_USE_SSL"
	EnvMinioRegion       = "TENDERDOCS_MINIO_REGION"
	EnvMinioPrefix       = "TENDERDOCS_MINIO_PREFIX"
)

// Defaults.
const (
	DefaultAPIBaseURL = "https://www.contrataciones.gov.py/datos"

	// DefaultMaxFileBytes is the default maximum accepted download size (50 MiB).
	DefaultMaxFileBytes int64 = 50 << 20

	DefaultHTTPTimeout = 60 * time.Second
)

// Table backends.
const (
	BackendAuto    = "auto"
	BackendNative  = "native"
	BackendCamelot = "camelot"
)

// Checkpoint backends.
const (
	CheckpointJSON   = "json"
	CheckpointSQLite = "sqlite"
)

// Config holds runtime configuration.
type Config struct {
	APIBaseURL       string        `yaml:"api_base_url"`
	HTTPTimeout      time.Duration `yaml:"http_timeout"`
	MaxFileSizeBytes int64         `yaml:"max_file_bytes"`
	// TempDir is the root for per-call scratch directories; empty means
	// os.TempDir().
	TempDir      string `yaml:"temp_dir"`
	Tools        Tools  `yaml:"tools"`
	TableBackend string `yaml:"table_backend"`
	Batch        Batch  `yaml:"batch"`
	Log          Log    `yaml:"log"`
	Mirror       Mirror `yaml:"mirror"`
}

// Tools names the external programs. Empty values use the program's default
// name on PATH.
type Tools struct {
	Pandoc     string `yaml:"pandoc"`
	Weasyprint string `yaml:"weasyprint"`
	Camelot    string `yaml:"camelot"`
	// TeXPaths replaces the built-in TeX search locations when non-nil.
	TeXPaths []string `yaml:"tex_paths"`
}

// Batch holds the batch run's file locations.
type Batch struct {
	IDsFile           string `yaml:"ids_file"`
	CheckpointFile    string `yaml:"checkpoint_file"`
	CheckpointBackend string `yaml:"checkpoint_backend"`
	DatasetFile       string `yaml:"dataset_file"`
	ExtractedDir      string `yaml:"extracted_dir"`
	DownloadDir       string `yaml:"download_dir"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Mirror is the optional S3-compatible copy of extracted artifacts. It is
// enabled when Endpoint and Bucket are both set.
type Mirror struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
}

// Enabled reports whether a mirror is configured.
func (m Mirror) Enabled() bool { return m.Endpoint != "" && m.Bucket != "" }

// MaxFileSizeMB returns the configured limit in whole megabytes.
func (c *Config) MaxFileSizeMB() int64 {
	return c.MaxFileSizeBytes >> 20
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		APIBaseURL:       DefaultAPIBaseURL,
		HTTPTimeout:      DefaultHTTPTimeout,
		MaxFileSizeBytes: DefaultMaxFileBytes,
		TableBackend:     BackendAuto,
		Batch: Batch{
			IDsFile:           filepath.Join("data", "ids.txt"),
			CheckpointFile:    filepath.Join("data", "checkpoint.json"),
			CheckpointBackend: CheckpointJSON,
			DatasetFile:       filepath.Join("data", "dataset.csv"),
			ExtractedDir:      filepath.Join("data", "pbcs_extracted"),
			DownloadDir:       "tmp",
		},
		Log: Log{Level: "info", Format: "json"},
	}
}

// Load reads Config from environment variables, falling back to defaults for
// missing or invalid values.
func Load() *Config {
	cfg := Default()
	cfg.applyEnv()
	return cfg
}

// LoadFile reads a YAML config file over the defaults, expanding ${VAR} and
// ${VAR:-default} references first. Environment variables are applied last.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("cannot read config file %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(ExpandEnv(string(data))), cfg); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks enumerated and numeric settings.
func (c *Config) Validate() error {
	switch c.TableBackend {
	case BackendAuto, BackendNative, BackendCamelot:
	default:
		return fmt.Errorf("table_backend %q: want %s, %s or %s", c.TableBackend, BackendAuto, BackendNative, BackendCamelot)
	}
	switch c.Batch.CheckpointBackend {
	case CheckpointJSON, CheckpointSQLite:
	default:
		return fmt.Errorf("checkpoint_backend %q: want %s or %s", c.Batch.CheckpointBackend, CheckpointJSON, CheckpointSQLite)
	}
	if c.MaxFileSizeBytes <= 0 {
		return fmt.Errorf("max_file_bytes must be positive, got %d", c.MaxFileSizeBytes)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("http_timeout must be positive, got %s", c.HTTPTimeout)
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.APIBaseURL, EnvAPIBaseURL)
	if v := os.Getenv(EnvHTTPTimeout); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.HTTPTimeout = d
		}
	}
	if v := os.Getenv(EnvMaxFileBytes); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			c.MaxFileSizeBytes = n
		}
	}
	setString(&c.TempDir, EnvTempDir)
	setString(&c.Tools.Pandoc, EnvPandoc)
	setString(&c.Tools.Weasyprint, EnvWeasyprint)
	setString(&c.Tools.Camelot, EnvCamelot)
	if v := os.Getenv(EnvTeXPaths); v != "" {
		c.Tools.TeXPaths = filepath.SplitList(v)
	}
	setOneOf(&c.TableBackend, EnvTableBackend, BackendAuto, BackendNative, BackendCamelot)

	setString(&c.Batch.IDsFile, EnvIDsFile)
	setString(&c.Batch.CheckpointFile, EnvCheckpointFile)
	setOneOf(&c.Batch.CheckpointBackend, EnvCheckpointBackend, CheckpointJSON, CheckpointSQLite)
	setString(&c.Batch.DatasetFile, EnvDatasetFile)
	setString(&c.Batch.ExtractedDir, EnvExtractedDir)
	setString(&c.Batch.DownloadDir, EnvDownloadDir)

	setString(&c.Log.Level, EnvLogLevel)
	setString(&c.Log.Format, EnvLogFormat)

	setString(&c.Mirror.Endpoint, EnvMinioEndpoint)
	setString(&c.Mirror.AccessKey, EnvMinioAccessKey)
	setString(&c.Mirror.SecretKey, EnvMinioSecretKey)
	setString(&c.Mirror.Bucket, EnvMinioBucket)
	if v := os.Getenv(EnvMinioUseSSL); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Mirror.UseSSL = b
		}
	}
	setString(&c.Mirror.Region, EnvMinioRegion)
	setString(&c.Mirror.Prefix, EnvMinioPrefix)
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setOneOf(dst *string, key string, allowed ...string) {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	for _, a := range allowed {
		if v == a {
			*dst = v
			return
		}
	}
}
