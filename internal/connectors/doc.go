// Package connectors provides document sources for ingestion.
// Today the only source is a local corpus directory (see filesystem).
package connectors
