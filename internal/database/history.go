package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/deepeye-sec/deepeye/internal/model"
)

// HistoryDB provides SQLite-based storage for scan history.
// It manages connection pooling and provides methods for saving finalized
// sessions and querying past scans.
//
// Design decision: We use a single database file for all targets rather
// than one file per target. This keeps cross-target queries (scan history,
// recurring findings) simple and makes backup a single-file operation.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent performance.
	// This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "deepeye.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple connections mostly add
	// lock contention.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Sessions store one row per finalized scan run
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		test_set TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		pages_visited INTEGER NOT NULL,
		urls_discovered INTEGER NOT NULL,
		error_count INTEGER NOT NULL,
		cancelled INTEGER NOT NULL DEFAULT 0,
		critical_count INTEGER NOT NULL DEFAULT 0,
		high_count INTEGER NOT NULL DEFAULT 0,
		medium_count INTEGER NOT NULL DEFAULT 0,
		low_count INTEGER NOT NULL DEFAULT 0,
		info_count INTEGER NOT NULL DEFAULT 0,
		session_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_target ON sessions(target);
	CREATE INDEX IF NOT EXISTS idx_sessions_started ON sessions(started_at);

	-- Findings are stored per session for cross-scan queries
	CREATE TABLE IF NOT EXISTS findings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
		type TEXT NOT NULL,
		url TEXT NOT NULL,
		severity INTEGER NOT NULL,
		title TEXT NOT NULL,
		evidence TEXT,
		occurrences INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_findings_session ON findings(session_id);
	CREATE INDEX IF NOT EXISTS idx_findings_type ON findings(type);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveSession stores a finalized session together with its findings.
// The session row and the finding rows are written in one transaction so a
// partial save never appears in history queries.
func (hdb *HistoryDB) SaveSession(ctx context.Context, session *model.ScanSession) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to serialize session: %w", err)
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	_, err = tx.ExecContext(ctx, `
	INSERT INTO sessions (
		id, target, test_set, started_at, finished_at,
		pages_visited, urls_discovered, error_count, cancelled,
		critical_count, high_count, medium_count, low_count, info_count,
		session_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		session.ID,
		session.Target,
		session.TestSet,
		session.StartedAt.UTC().Format(time.RFC3339Nano),
		session.FinishedAt.UTC().Format(time.RFC3339Nano),
		session.PagesVisited,
		session.URLsDiscovered,
		session.ErrorCount,
		session.Cancelled,
		session.CriticalCount,
		session.HighCount,
		session.MediumCount,
		session.LowCount,
		session.InfoCount,
		string(sessionJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, f := range session.Findings {
		occurrences := f.Occurrences
		if occurrences < 1 {
			occurrences = 1
		}
		_, err = tx.ExecContext(ctx, `
		INSERT INTO findings (session_id, type, url, severity, title, evidence, occurrences)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		`,
			session.ID,
			f.Type,
			f.URL,
			int(f.Severity),
			f.Title,
			f.Evidence,
			occurrences,
		)
		if err != nil {
			return fmt.Errorf("failed to insert finding: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session: %w", err)
	}

	return nil
}

// GetSession retrieves a full session by its ID.
// Returns nil without error if the session does not exist.
func (hdb *HistoryDB) GetSession(ctx context.Context, id string) (*model.ScanSession, error) {
	var sessionJSON string
	err := hdb.db.QueryRowContext(ctx,
		`SELECT session_json FROM sessions WHERE id = ?`, id).Scan(&sessionJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session model.ScanSession
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	return &session, nil
}

// GetLatestSession retrieves the most recent session for a target.
// Returns nil without error if the target has never been scanned.
func (hdb *HistoryDB) GetLatestSession(ctx context.Context, target string) (*model.ScanSession, error) {
	var sessionJSON string
	err := hdb.db.QueryRowContext(ctx, `
	SELECT session_json FROM sessions
	WHERE target = ?
	ORDER BY started_at DESC
	LIMIT 1
	`, target).Scan(&sessionJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var session model.ScanSession
	if err := json.Unmarshal([]byte(sessionJSON), &session); err != nil {
		return nil, fmt.Errorf("failed to parse session: %w", err)
	}

	return &session, nil
}

// SessionMetadata contains summary information about a stored session.
// This is used for displaying scan history without loading full sessions.
type SessionMetadata struct {
	// ID is the session identifier.
	ID string

	// Target is the scanned seed URL.
	Target string

	// TestSet names the check set that was run.
	TestSet string

	// StartedAt is when the scan began.
	StartedAt time.Time

	// PagesVisited is the number of pages fetched.
	PagesVisited int

	// Cancelled is true if the scan was stopped early.
	Cancelled bool

	// CriticalCount through InfoCount are severity totals.
	CriticalCount int
	HighCount     int
	MediumCount   int
	LowCount      int
	InfoCount     int
}

// TotalFindings returns the total finding count across all severities.
func (m SessionMetadata) TotalFindings() int {
	return m.CriticalCount + m.HighCount + m.MediumCount + m.LowCount + m.InfoCount
}

// ListSessions retrieves session metadata, most recent first.
// If target is non-empty, only sessions for that target are returned.
// If limit is positive, at most that many rows are returned.
func (hdb *HistoryDB) ListSessions(ctx context.Context, target string, limit int) ([]SessionMetadata, error) {
	query := `
	SELECT id, target, test_set, started_at, pages_visited, cancelled,
		critical_count, high_count, medium_count, low_count, info_count
	FROM sessions
	`
	args := make([]any, 0, 2)

	if target != "" {
		query += " WHERE target = ?"
		args = append(args, target)
	}
	query += " ORDER BY started_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var results []SessionMetadata
	for rows.Next() {
		var meta SessionMetadata
		var startedAt string

		if err := rows.Scan(
			&meta.ID,
			&meta.Target,
			&meta.TestSet,
			&startedAt,
			&meta.PagesVisited,
			&meta.Cancelled,
			&meta.CriticalCount,
			&meta.HighCount,
			&meta.MediumCount,
			&meta.LowCount,
			&meta.InfoCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(startedAt)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// ListTargets returns all distinct targets present in the history.
func (hdb *HistoryDB) ListTargets(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx,
		`SELECT DISTINCT target FROM sessions ORDER BY target`)
	if err != nil {
		return nil, fmt.Errorf("failed to list targets: %w", err)
	}
	defer rows.Close()

	var targets []string
	for rows.Next() {
		var target string
		if err := rows.Scan(&target); err != nil {
			return nil, fmt.Errorf("failed to scan target: %w", err)
		}
		targets = append(targets, target)
	}

	return targets, rows.Err()
}

// FindingHistory represents one stored finding with its session context.
type FindingHistory struct {
	// SessionID identifies the session the finding belongs to.
	SessionID string

	// Target is the seed URL of that session.
	Target string

	// ScannedAt is when that session started.
	ScannedAt time.Time

	// Type is the finding type identifier.
	Type string

	// URL is the page the finding was discovered on.
	URL string

	// Severity is the risk level.
	Severity model.Severity

	// Title is the finding title.
	Title string

	// Occurrences counts how often the finding was observed in its session.
	Occurrences int
}

// FindingsByType returns stored findings of the given type across all
// sessions, most recent session first. Useful for tracking whether an issue
// recurs between scans.
func (hdb *HistoryDB) FindingsByType(ctx context.Context, findingType string) ([]FindingHistory, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT f.session_id, s.target, s.started_at, f.type, f.url, f.severity, f.title, f.occurrences
	FROM findings f
	JOIN sessions s ON s.id = f.session_id
	WHERE f.type = ?
	ORDER BY s.started_at DESC, f.id
	`, findingType)
	if err != nil {
		return nil, fmt.Errorf("failed to query findings: %w", err)
	}
	defer rows.Close()

	var results []FindingHistory
	for rows.Next() {
		var fh FindingHistory
		var startedAt string
		var severity int

		if err := rows.Scan(
			&fh.SessionID,
			&fh.Target,
			&startedAt,
			&fh.Type,
			&fh.URL,
			&severity,
			&fh.Title,
			&fh.Occurrences,
		); err != nil {
			return nil, fmt.Errorf("failed to scan finding: %w", err)
		}

		fh.ScannedAt = parseTimestamp(startedAt)
		fh.Severity = model.Severity(severity)
		results = append(results, fh)
	}

	return results, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,          // Our storage format
	time.RFC3339,              // RFC3339 without fractional seconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// SQLite may return timestamps in different formats depending on configuration.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
