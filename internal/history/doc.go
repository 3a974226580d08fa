// Package history persists export reports in SQLite.
//
// Every export, whether it completed or aborted, is stored as one session row
// plus the diagnostics it drained. The schema is versioned; a database
// created by a different schema version is rejected with ErrSchemaMismatch
// rather than migrated in place.
package history
