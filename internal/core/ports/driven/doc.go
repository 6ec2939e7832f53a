// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - EmbeddingService: Generates vector embeddings for chunks and queries
//   - VectorIndex: Stores records and answers similarity queries
//   - TokenCounter: Measures text for chunk and batch budgets
//   - Normaliser: Extracts document text from raw bytes
//   - ManifestStore: Persists ingest manifests for audit
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Generates answers. Without it, evaluation runs are disabled.
//   - ReportStore: Persists evaluation reports. Without it, reports are only printed.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
