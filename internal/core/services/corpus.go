package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
	"github.com/custodia-labs/benchbook/internal/logger"
)

// Ensure CorpusService implements the interface.
var _ driving.CorpusIngestor = (*CorpusService)(nil)

// CorpusService drives a connector's documents through an ingest service.
type CorpusService struct {
	connector driven.Connector
	ingest    driving.IngestService
}

// NewCorpusService creates a corpus service.
func NewCorpusService(connector driven.Connector, ingest driving.IngestService) *CorpusService {
	return &CorpusService{connector: connector, ingest: ingest}
}

// IngestAll reads every corpus file once.
func (s *CorpusService) IngestAll(ctx context.Context, opts driving.IngestOptions) (*driving.CorpusSummary, error) {
	docs, errs := s.connector.FullSync(ctx)
	summary := &driving.CorpusSummary{}

	for {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()

		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return summary, fmt.Errorf("connector error: %w", err)
			}

		case raw, ok := <-docs:
			if !ok {
				logger.Info("corpus_ingested", "files", summary.Files, "documents", summary.Documents,
					"chunks", summary.Chunks, "failed", summary.Failed, "dry_run", opts.DryRun)
				// The walk may report its error after the last document.
				if errs != nil {
					if err := <-errs; err != nil {
						return summary, fmt.Errorf("connector error: %w", err)
					}
				}
				return summary, nil
			}
			summary.Files++
			s.processOne(ctx, &raw, opts, summary)
		}
	}
}

// Watch re-ingests created or modified files until ctx is cancelled.
func (s *CorpusService) Watch(ctx context.Context, opts driving.IngestOptions) error {
	docs, err := s.connector.Watch(ctx)
	if err != nil {
		return fmt.Errorf("watch corpus: %w", err)
	}
	logger.Info("corpus_watch_started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case raw, ok := <-docs:
			if !ok {
				return nil
			}
			summary := &driving.CorpusSummary{}
			s.processOne(ctx, &raw, opts, summary)
			if summary.Failed == 0 {
				logger.Info("corpus_file_reingested", "uri", raw.URI,
					"documents", summary.Documents, "chunks", summary.Chunks)
			}
		}
	}
}

func (s *CorpusService) processOne(
	ctx context.Context,
	raw *domain.RawDocument,
	opts driving.IngestOptions,
	summary *driving.CorpusSummary,
) {
	manifests, err := s.ingest.IngestRaw(ctx, raw, opts)
	for _, m := range manifests {
		summary.Documents++
		summary.Chunks += m.Stats.TotalChunks
	}
	summary.Manifests = append(summary.Manifests, manifests...)
	if err == nil {
		return
	}

	summary.Failed++
	if errors.Is(err, domain.ErrUnsupportedType) {
		logger.Debug("corpus_file_skipped", "uri", raw.URI, "error", err)
		return
	}
	logger.Error("processing_failed", "uri", raw.URI, "error", err, "error_type", domain.ErrorKind(err))
}
