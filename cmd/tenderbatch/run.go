package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/artifact"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/batch"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/config"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/logging"
	"github.com/Cortexa-LLC/mcp/src/tenderdocs/pipeline"
)

func loadConfig(opts runOptions) (*config.Config, error) {
	var cfg *config.Config
	if opts.configPath != "" {
		c, err := config.LoadFile(opts.configPath)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		cfg = config.Load()
	}
	if opts.ids != "" {
		cfg.Batch.IDsFile = opts.ids
	}
	if opts.checkpoint != "" {
		cfg.Batch.CheckpointFile = opts.checkpoint
	}
	if opts.dataset != "" {
		cfg.Batch.DatasetFile = opts.dataset
	}
	return cfg, nil
}

func runBatch(ctx context.Context, cmd *cobra.Command, opts runOptions) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	log, err := logging.New(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ids, err := batch.LoadIDs(cfg.Batch.IDsFile)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, log)
	if err != nil {
		return err
	}

	store, err := openCheckpointStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	dataset, err := batch.OpenDataset(cfg.Batch.DatasetFile)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Batch.DownloadDir, 0o755); err != nil {
		return fmt.Errorf("create download dir: %w", err)
	}

	orch := batch.NewOrchestrator(p.Facade, p.Extractor, p.Client,
		newArtifactStore(ctx, cfg, log), dataset, store,
		batch.Options{DownloadDir: cfg.Batch.DownloadDir, Log: log})

	sum, err := orch.Run(ctx, ids)
	if err != nil {
		return err
	}
	printSummary(cmd, sum)
	return nil
}

func openCheckpointStore(cfg *config.Config) (batch.CheckpointStore, error) {
	if cfg.Batch.CheckpointBackend == config.CheckpointSQLite {
		return batch.OpenSQLiteCheckpointStore(cfg.Batch.CheckpointFile)
	}
	return batch.NewJSONCheckpointStore(cfg.Batch.CheckpointFile), nil
}

// newArtifactStore writes extracted markdown to the extracted dir and, when
// configured, mirrors it to a bucket. A mirror that cannot be reached at
// startup is left out for the whole run.
func newArtifactStore(ctx context.Context, cfg *config.Config, log *zap.Logger) artifact.Store {
	local := artifact.NewLocalStore(cfg.Batch.ExtractedDir)
	if !cfg.Mirror.Enabled() {
		return local
	}
	remote, err := artifact.NewMinioStore(artifact.MinioConfig{
		Endpoint:  cfg.Mirror.Endpoint,
		AccessKey: cfg.Mirror.AccessKey,
		SecretKey: cfg.Mirror.SecretKey,
		Bucket:    cfg.Mirror.Bucket,
		UseSSL:    cfg.Mirror.UseSSL,
		Region:    cfg.Mirror.Region,
		Prefix:    cfg.Mirror.Prefix,
	})
	if err == nil {
		err = remote.EnsureBucket(ctx)
	}
	if err != nil {
		log.Warn("artifact mirror disabled", zap.String("endpoint", cfg.Mirror.Endpoint), zap.Error(err))
		return local
	}
	return artifact.NewMirror(local, remote, log)
}
