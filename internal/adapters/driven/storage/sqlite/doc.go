// Package sqlite provides a SQLite-based implementation of driven.ReferenceStore.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that requires
// no CGO, enabling easy cross-compilation.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in the
// migrations/ directory. Each migration is a pair of .up.sql and .down.sql files,
// and each up migration records its own version in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.prism/data/references.db
//
// # Thread Safety
//
// All operations are thread-safe. Inserts and deletes run in transactions whose
// first statement is a write, so concurrent writers queue on SQLite's busy
// timeout instead of failing on a lock upgrade.
package sqlite
