// Package sqlite provides a local vector index stored in a single SQLite file.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Vectors are stored as little-endian float32 blobs and
// queries score every record of the index in process, so it suits indexes of
// a few thousand chunks rather than large corpora.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.pagewise/data/index.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store relies on SQLite's
// own locking in WAL mode.
package sqlite
