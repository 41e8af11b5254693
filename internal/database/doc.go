// Package database provides SQLite-based persistence for scan history.
//
// Each finalized scan session is stored as one row in the sessions table
// plus one row per finding, so past scans can be listed and compared
// without re-running them. The full session is also kept as JSON for
// lossless retrieval.
//
// Design decision: We use modernc.org/sqlite (pure Go) rather than
// mattn/go-sqlite3 to avoid CGO dependencies, which simplifies
// cross-compilation and static builds.
package database
