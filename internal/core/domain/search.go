package domain

// Dedup-key placeholders used when a record lacks the field.
const (
	UnknownSourceTag = "UNKNOWN"
	GeneralSectionID = "GENERAL"
)

// RecordMetadata is the fixed metadata carried alongside each vector.
// Optional fields are empty strings when absent.
type RecordMetadata struct {
	// Text is a preview of the chunk text, at most MetadataTextLimit characters.
	Text        string `json:"text" validate:"max=1000"`
	SourceTag   string `json:"source" validate:"required"`
	Title       string `json:"title"`
	SectionID   string `json:"section_id" validate:"required"`
	Ordinal     int    `json:"chunk_index" validate:"gte=0"`
	VersionDate string `json:"version_date" validate:"omitempty,datetime=2006-01-02"`
	DocumentKey string `json:"document_key" validate:"required"`
	County      string `json:"county,omitempty"`
	URI         string `json:"uri,omitempty"`
}

// MetadataTextLimit bounds RecordMetadata.Text in characters.
const MetadataTextLimit = 1000

// VectorRecord is an embedded chunk as stored in the vector index.
// Records are replaced whole on upsert, never partially updated.
type VectorRecord struct {
	// ID equals the Chunk ID.
	ID string `validate:"required"`

	// Vector is L2-normalised with the index dimension.
	Vector []float32 `validate:"required,min=1,finite"`

	Metadata RecordMetadata
}

// DedupKey returns the (sourceTag, sectionId) pair results are deduplicated on.
func (m RecordMetadata) DedupKey() [2]string {
	return [2]string{m.SourceTag, m.SectionID}
}

// SearchResult represents a single retrieval hit.
type SearchResult struct {
	// ChunkID is the matched record id.
	ChunkID string `json:"chunk_id"`

	// Score is cosine similarity in [-1, 1].
	Score float64 `json:"score"`

	Metadata RecordMetadata `json:"metadata"`
}

// SearchOptions configures a search query.
type SearchOptions struct {
	// Limit is the maximum number of results (top-k).
	Limit int
}
