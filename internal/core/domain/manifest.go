package domain

import "time"

// ChunkSummary is the audit view of one emitted chunk.
type ChunkSummary struct {
	ID          string `json:"id"`
	TextPreview string `json:"text_preview"`
	TokenCount  int    `json:"token_count"`
}

// ManifestStats are the aggregate counts of one document ingest.
type ManifestStats struct {
	SizeBytes   int  `json:"size_bytes"`
	TotalChunks int  `json:"total_chunks"`
	TotalTokens int  `json:"total_tokens"`
	Truncated   bool `json:"truncated"`
}

// Manifest records what an ingest produced for one document.
type Manifest struct {
	RunID       string         `json:"run_id"`
	DocumentKey string         `json:"document_key"`
	SourceTag   string         `json:"source"`
	Title       string         `json:"title"`
	SectionID   string         `json:"section_id"`
	ProcessedAt time.Time      `json:"processed_at"`
	Stats       ManifestStats  `json:"stats"`
	Chunks      []ChunkSummary `json:"chunks"`
	Diagnostics []Diagnostic   `json:"diagnostics,omitempty"`
}

// ManifestPreviewLimit bounds ChunkSummary.TextPreview in characters.
const ManifestPreviewLimit = 200
