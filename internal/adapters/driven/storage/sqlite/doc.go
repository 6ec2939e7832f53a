// Package sqlite provides a SQLite-backed implementation of the storage ports.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database file serves three stores:
//
//   - VectorIndex: embedded chunks, queried by exact cosine scan
//   - ManifestStore: the latest ingest manifest per document
//   - ReportStore: evaluation runs
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files and
// records its own version in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.benchbook/data/benchbook.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. SQLite runs in WAL mode with a
// busy timeout.
package sqlite
