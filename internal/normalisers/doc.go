// Package normalisers turns raw corpus files into domain documents.
// Each normaliser handles a set of MIME types and is registered with a
// Registry at startup; the ingest service selects one by MIME type.
package normalisers
