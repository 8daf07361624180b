// Package batch drives the acquisition pipeline over a list of tender IDs,
// recording per-ID progress in a checkpoint so interrupted runs resume
// where they stopped.
package batch

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Cortexa-LLC/mcp/src/tenderdocs/tender"
)

// Acquirer turns a tender ID into a PDF inside outputDir.
type Acquirer interface {
	Process(ctx context.Context, tenderID, outputDir string) (string, error)
}

// MarkdownExtractor renders a PDF as markdown.
type MarkdownExtractor interface {
	Markdown(ctx context.Context, pdfPath string) (string, error)
}

// TendererCounter reports how many bidders a tender received.
type TendererCounter interface {
	NumberOfTenderers(ctx context.Context, tenderID string) (int, error)
}

// ArtifactWriter persists the extracted markdown for one tender.
type ArtifactWriter interface {
	Put(ctx context.Context, name, contentType string, data []byte) error
}

const markdownContentType = "text/markdown; charset=utf-8"

// Options configures an Orchestrator.
type Options struct {
	// DownloadDir receives the acquired PDFs.
	DownloadDir string
	Log         *zap.Logger
}

// Summary describes the outcome of one Run.
type Summary struct {
	RunID       string
	Total       int // IDs in the input list
	Skipped     int // already processed before this run
	Processed   int
	Failed      int
	FailedIDs   []string
	Interrupted bool
}

// Orchestrator processes tender IDs strictly one after another.
type Orchestrator struct {
	acquirer  Acquirer
	extractor MarkdownExtractor
	counter   TendererCounter
	artifacts ArtifactWriter
	dataset   Dataset
	store     CheckpointStore
	dir       string
	log       *zap.Logger
}

func NewOrchestrator(acquirer Acquirer, extractor MarkdownExtractor, counter TendererCounter,
	artifacts ArtifactWriter, dataset Dataset, store CheckpointStore, opts Options) *Orchestrator {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		acquirer:  acquirer,
		extractor: extractor,
		counter:   counter,
		artifacts: artifacts,
		dataset:   dataset,
		store:     store,
		dir:       opts.DownloadDir,
		log:       log,
	}
}

// Run processes every ID not yet recorded as processed, in input order. A
// failing ID is recorded in the checkpoint and the run moves on. The
// checkpoint is saved after every ID.
//
// Cancelling ctx stops the run before the next ID starts. The ID in flight
// runs to completion, the checkpoint is saved and Run returns a Summary with
// Interrupted set and a nil error.
// Only checkpoint load/save failures are returned as errors.
func (o *Orchestrator) Run(ctx context.Context, ids []string) (Summary, error) {
	sum := Summary{RunID: uuid.NewString(), Total: len(ids)}
	log := o.log.With(zap.String("run_id", sum.RunID))

	cp, err := o.store.Load(ctx)
	if err != nil {
		return sum, fmt.Errorf("load checkpoint: %w", err)
	}
	pending := cp.Pending(ids)
	sum.Skipped = len(uniq(ids)) - len(pending)
	log.Info("batch started",
		zap.Int("ids", len(ids)),
		zap.Int("pending", len(pending)),
		zap.Int("skipped", sum.Skipped))

	// The current ID and checkpoint saves are not cut short by an interrupt;
	// ctx is only checked between IDs.
	workCtx := context.WithoutCancel(ctx)

	for i, id := range pending {
		if ctx.Err() != nil {
			if err := o.store.Save(workCtx, cp); err != nil {
				return sum, fmt.Errorf("save checkpoint: %w", err)
			}
			sum.Interrupted = true
			log.Info("batch interrupted", zap.Int("remaining", len(pending)-i))
			break
		}

		idLog := log.With(zap.String("tender_id", id))
		if err := o.processOne(workCtx, id); err != nil {
			cp.MarkFailed(id)
			sum.Failed++
			sum.FailedIDs = append(sum.FailedIDs, id)
			idLog.Error("tender failed", zap.String("kind", errKind(err)), zap.Error(err))
		} else {
			cp.MarkProcessed(id)
			sum.Processed++
			idLog.Info("tender processed")
		}

		if err := o.store.Save(workCtx, cp); err != nil {
			return sum, fmt.Errorf("save checkpoint: %w", err)
		}
	}

	log.Info("batch finished",
		zap.Int("processed", sum.Processed),
		zap.Int("failed", sum.Failed),
		zap.Bool("interrupted", sum.Interrupted))
	return sum, nil
}

func (o *Orchestrator) processOne(ctx context.Context, id string) error {
	pdfPath, err := o.acquirer.Process(ctx, id, o.dir)
	if err != nil {
		return err
	}
	md, err := o.extractor.Markdown(ctx, pdfPath)
	if err != nil {
		return fmt.Errorf("extract %s: %w", pdfPath, err)
	}
	n, err := o.counter.NumberOfTenderers(ctx, id)
	if err != nil {
		return err
	}
	if err := o.artifacts.Put(ctx, id+".txt", markdownContentType, []byte(md)); err != nil {
		return fmt.Errorf("store markdown: %w", err)
	}
	if err := o.dataset.Append(ctx, Row{TenderID: id, Tenderers: n}); err != nil {
		return fmt.Errorf("append dataset row: %w", err)
	}
	return nil
}

func errKind(err error) string {
	if k := tender.KindOf(err); k != nil {
		return k.Error()
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	return "unexpected"
}

func uniq(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id != "" {
			m[id] = true
		}
	}
	return m
}
