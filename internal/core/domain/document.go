package domain

import "time"

// Document is a legal source text ready for chunking.
// It is the canonical representation after normalisation.
type Document struct {
	// Key identifies the document across ingests (file path, object key, or
	// file path plus section anchor for sectioned statutes).
	Key string

	// SourceTag names the document family (TCA37, TRJPP, DCS, ...).
	SourceTag string

	// Title is the human-readable title.
	Title string

	// SectionID is the statute, rule, or policy number the text belongs to.
	SectionID string

	// URI is the original location.
	URI string

	// Content is the full text content after extraction.
	// Paragraph breaks (blank lines) are preserved for the chunker.
	Content string

	// County is set only for local rules.
	County string

	// VersionDate is the ingest date in YYYY-MM-DD form.
	VersionDate string
}

// Chunk represents a bounded, overlapping span of a document.
// Chunks are immutable once emitted by the chunker.
type Chunk struct {
	// ID is the content-addressed identifier.
	ID string

	// DocumentKey links to the parent Document.
	DocumentKey string

	// Text is the span content, taken from the normalised document text.
	Text string

	// Ordinal is the 0-based, contiguous position within the document.
	Ordinal int

	// TotalSiblings is the final chunk count for the document.
	TotalSiblings int

	// TokenCount is measured by the configured token counter.
	TokenCount int

	// StartOffset and EndOffset bound the span, in characters, within the
	// normalised document text.
	StartOffset int
	EndOffset   int

	SourceTag   string
	Title       string
	SectionID   string
	VersionDate string
}

// RawDocument represents bytes read from the corpus before extraction.
type RawDocument struct {
	// URI is the original location (file path).
	URI string

	// MIMEType is the content type (e.g., "text/html").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// ModifiedAt is the file modification time, when known.
	ModifiedAt time.Time
}

// DiagnosticKind classifies a non-fatal processing signal.
type DiagnosticKind string

const (
	// DiagnosticDegenerate marks empty or sub-minimum input that yielded nothing.
	DiagnosticDegenerate DiagnosticKind = "DegenerateInput"

	// DiagnosticLimitExceeded marks output truncated to a configured ceiling.
	DiagnosticLimitExceeded DiagnosticKind = "LimitExceeded"
)

// Diagnostic is a non-fatal signal raised during processing.
// Diagnostics are values, never errors; every one is logged and counted.
type Diagnostic struct {
	Kind    DiagnosticKind `json:"kind"`
	Message string         `json:"message"`
	// Count is the observed quantity (chunks produced, tokens in a text).
	Count int `json:"count,omitempty"`
	// Limit is the configured ceiling that was applied.
	Limit int `json:"limit,omitempty"`
}
