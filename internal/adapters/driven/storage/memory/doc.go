// Package memory provides in-process implementations of the storage ports.
//
// The vector index answers queries with an exact scan and is the default for
// dry runs and tests. Nothing here survives a restart.
package memory
