// Package sqlite provides the SQLite implementation of driven.CorpusStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. One database holds every analysed batch: its fused corpus
// split into segments and lines, the documents removed as duplicates, and
// the final report.
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Each migration is a pair of .up.sql and .down.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.licita/licita.db.
//
// # Thread Safety
//
// All operations are safe for concurrent use. Writes of one batch happen in
// a single transaction.
package sqlite
