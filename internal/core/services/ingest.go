package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/benchbook/internal/batching"
	"github.com/custodia-labs/benchbook/internal/core/domain"
	"github.com/custodia-labs/benchbook/internal/core/ports/driven"
	"github.com/custodia-labs/benchbook/internal/core/ports/driving"
	"github.com/custodia-labs/benchbook/internal/logger"
	"github.com/custodia-labs/benchbook/internal/metrics"
	"github.com/custodia-labs/benchbook/internal/retrieval"
	"github.com/custodia-labs/benchbook/internal/tokens"
	"github.com/custodia-labs/benchbook/internal/validate"
)

// Ensure IngestService implements the interface.
var _ driving.IngestService = (*IngestService)(nil)

// MinDocumentChars is the trimmed length below which an extracted document
// is skipped before chunking.
const MinDocumentChars = 50

// IngestConfig wires an IngestService. Embedder, Index and Manifests may be
// nil when only dry runs are performed.
type IngestConfig struct {
	Pipeline  driven.PostProcessorPipeline
	Registry  driven.NormaliserRegistry
	Embedder  driven.EmbeddingService
	Index     driven.VectorIndex
	Manifests driven.ManifestStore
	Counter   driven.TokenCounter
	Batching  domain.BatchingSettings

	// UpsertBatch is the number of records per VectorIndex.Upsert call.
	UpsertBatch int

	// Now is the manifest clock; defaults to time.Now.
	Now func() time.Time
}

// IngestService chunks, embeds and indexes documents. All documents ingested
// through one service share a run id.
type IngestService struct {
	cfg       IngestConfig
	runID     string
	validator *validate.Validator
}

// NewIngestService creates an ingest service with a fresh run id.
func NewIngestService(cfg IngestConfig) *IngestService {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Counter == nil {
		cfg.Counter = tokens.Heuristic{}
	}
	if cfg.UpsertBatch <= 0 {
		cfg.UpsertBatch = 100
	}
	if cfg.Batching.Concurrency <= 0 {
		cfg.Batching.Concurrency = 1
	}
	return &IngestService{
		cfg:       cfg,
		runID:     uuid.NewString(),
		validator: validate.New(),
	}
}

// RunID returns the id stamped on every manifest of this run.
func (s *IngestService) RunID() string {
	return s.runID
}

// IngestRaw normalises raw bytes and ingests each extracted document.
// Documents shorter than MinDocumentChars are skipped, warned about, and
// counted as degenerate. On error
// the manifests completed so far are returned with it.
func (s *IngestService) IngestRaw(
	ctx context.Context,
	raw *domain.RawDocument,
	opts driving.IngestOptions,
) ([]domain.Manifest, error) {
	if s.cfg.Registry == nil {
		return nil, fmt.Errorf("%w: no normaliser registry configured", domain.ErrInvalidInput)
	}
	docs, err := s.cfg.Registry.Normalise(ctx, raw)
	if err != nil {
		return nil, fmt.Errorf("normalise %s: %w", raw.URI, err)
	}

	var manifests []domain.Manifest
	for i := range docs {
		doc := &docs[i]
		if n := utf8.RuneCountInString(strings.TrimSpace(doc.Content)); n < MinDocumentChars {
			metrics.RecordDegenerate(doc.SourceTag)
			logger.Warn("document_skipped",
				"document", doc.Key,
				"source", doc.SourceTag,
				"kind", domain.DiagnosticDegenerate,
				"chars", n,
				"min_chars", MinDocumentChars,
			)
			continue
		}
		m, err := s.Ingest(ctx, doc, opts)
		if err != nil {
			return manifests, err
		}
		manifests = append(manifests, *m)
	}
	return manifests, nil
}

// Ingest runs one document through the pipeline and, unless opts.DryRun is
// set, embeds, indexes and records the manifest.
func (s *IngestService) Ingest(
	ctx context.Context,
	doc *domain.Document,
	opts driving.IngestOptions,
) (*domain.Manifest, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: document is nil", domain.ErrInvalidInput)
	}
	if s.cfg.Pipeline == nil {
		return nil, fmt.Errorf("%w: no pipeline configured", domain.ErrInvalidInput)
	}

	res, err := s.cfg.Pipeline.Process(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", doc.Key, err)
	}

	m := s.manifest(doc, res)
	if opts.DryRun || len(res.Chunks) == 0 {
		if !opts.DryRun {
			s.saveManifest(ctx, m)
		}
		return m, nil
	}

	if s.cfg.Embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.cfg.Index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}

	vectors, diags, err := s.embed(ctx, res.Chunks)
	if err != nil {
		return nil, fmt.Errorf("embed %s: %w", doc.Key, err)
	}
	if len(diags) > 0 {
		m.Stats.Truncated = true
		m.Diagnostics = append(m.Diagnostics, diags...)
	}

	records, err := s.records(doc, res.Chunks, vectors)
	if err != nil {
		return nil, fmt.Errorf("build records for %s: %w", doc.Key, err)
	}
	if err := s.upsert(ctx, records); err != nil {
		return nil, fmt.Errorf("upsert %s: %w", doc.Key, err)
	}

	s.saveManifest(ctx, m)
	logger.Info("document_ingested", "document", doc.Key, "source", doc.SourceTag,
		"chunks", m.Stats.TotalChunks, "tokens", m.Stats.TotalTokens)
	return m, nil
}

func (s *IngestService) manifest(doc *domain.Document, res *driven.PipelineResult) *domain.Manifest {
	m := &domain.Manifest{
		RunID:       s.runID,
		DocumentKey: doc.Key,
		SourceTag:   doc.SourceTag,
		Title:       doc.Title,
		SectionID:   doc.SectionID,
		ProcessedAt: s.cfg.Now().UTC(),
		Stats: domain.ManifestStats{
			SizeBytes:   len(doc.Content),
			TotalChunks: len(res.Chunks),
		},
		Chunks:      make([]domain.ChunkSummary, len(res.Chunks)),
		Diagnostics: res.Diagnostics,
	}
	for i, c := range res.Chunks {
		m.Stats.TotalTokens += c.TokenCount
		m.Chunks[i] = domain.ChunkSummary{
			ID:          c.ID,
			TextPreview: truncateRunes(c.Text, domain.ManifestPreviewLimit),
			TokenCount:  c.TokenCount,
		}
	}
	for _, d := range res.Diagnostics {
		if d.Kind == domain.DiagnosticLimitExceeded {
			m.Stats.Truncated = true
		}
	}
	return m
}

// embed schedules chunk texts into batches and dispatches them with bounded
// concurrency. The returned vectors are in chunk order.
func (s *IngestService) embed(ctx context.Context, chunks []domain.Chunk) ([][]float32, []domain.Diagnostic, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	plan, err := batching.Schedule(texts, batching.Limits{
		MaxItems:  s.cfg.Batching.MaxItems,
		MaxTokens: s.cfg.Batching.MaxTokens,
	}, s.cfg.Counter)
	if err != nil {
		return nil, nil, err
	}
	if len(plan.Truncated) > 0 {
		metrics.RecordBatchTruncations(len(plan.Truncated))
		for _, d := range plan.Diagnostics {
			logger.Warn("batch_text_truncated", "message", d.Message, "tokens", d.Count, "limit", d.Limit)
		}
	}

	vectors := make([][]float32, len(texts))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Batching.Concurrency)
	for _, b := range plan.Batches {
		g.Go(func() error {
			got, err := s.cfg.Embedder.EmbedBatch(gctx, b.Texts)
			if err != nil {
				metrics.RecordEmbeddingBatch("error", len(b.Texts))
				return err
			}
			if len(got) != len(b.Texts) {
				metrics.RecordEmbeddingBatch("error", len(b.Texts))
				return fmt.Errorf("%w: embedding returned %d vectors for %d texts",
					domain.ErrExternalService, len(got), len(b.Texts))
			}
			metrics.RecordEmbeddingBatch("success", len(b.Texts))
			mu.Lock()
			copy(vectors[b.Start:], got)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return vectors, plan.Diagnostics, nil
}

// records pairs chunks with unit-length vectors and validates them.
func (s *IngestService) records(doc *domain.Document, chunks []domain.Chunk, vectors [][]float32) ([]domain.VectorRecord, error) {
	out := make([]domain.VectorRecord, len(chunks))
	for i, c := range chunks {
		v, err := retrieval.Normalize(vectors[i])
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", c.ID, err)
		}
		out[i] = domain.VectorRecord{
			ID:     c.ID,
			Vector: v,
			Metadata: domain.RecordMetadata{
				Text:        truncateRunes(c.Text, domain.MetadataTextLimit),
				SourceTag:   orDefault(c.SourceTag, domain.UnknownSourceTag),
				Title:       c.Title,
				SectionID:   orDefault(c.SectionID, domain.GeneralSectionID),
				Ordinal:     c.Ordinal,
				VersionDate: c.VersionDate,
				DocumentKey: c.DocumentKey,
				County:      doc.County,
				URI:         doc.URI,
			},
		}
	}
	if err := s.validator.Records(out, s.cfg.Embedder.Dimensions()); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *IngestService) upsert(ctx context.Context, records []domain.VectorRecord) error {
	for start := 0; start < len(records); start += s.cfg.UpsertBatch {
		end := min(start+s.cfg.UpsertBatch, len(records))
		if err := s.cfg.Index.Upsert(ctx, records[start:end]); err != nil {
			return err
		}
	}
	return nil
}

// saveManifest persists the manifest. Failures are logged; the vectors are
// already indexed and a re-ingest rewrites the manifest.
func (s *IngestService) saveManifest(ctx context.Context, m *domain.Manifest) {
	if s.cfg.Manifests == nil {
		return
	}
	if err := s.cfg.Manifests.Save(ctx, m); err != nil {
		logger.Warn("manifest_save_failed", "document", m.DocumentKey, "error", err)
	}
}

func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
