package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get for an unknown session id.
var ErrNotFound = errors.New("history session not found")

// Store manages export history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores a session and its diagnostics in one transaction. Recording
// the same session id twice replaces the earlier report.
func (s *Store) Record(ctx context.Context, sess Session) error {
	if strings.TrimSpace(sess.ID) == "" {
		return errors.New("history: session id is required")
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", sess.ID); err != nil {
		return fmt.Errorf("replace session: %w", err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (
            id, manifest, output, status, tag_mode, tag_level, language,
            warnings, errors, dropped, output_bytes, error_message, started_at, finished_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID,
		nullableString(sess.Manifest),
		sess.Output,
		string(sess.Status),
		sess.TagMode,
		sess.TagLevel,
		nullableString(sess.Language),
		sess.Warnings,
		sess.Errors,
		sess.Dropped,
		sess.OutputBytes,
		nullableString(sess.Error),
		formatTime(sess.StartedAt),
		nullableTime(sess.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO diagnostics (
            session_id, seq, kind, severity, composition_id, layer_id, extra, message
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare diagnostics insert: %w", err)
	}
	defer stmt.Close()
	for i, d := range sess.Diagnostics {
		if _, err := stmt.ExecContext(ctx,
			sess.ID, i, d.Kind, d.Severity,
			nullableID(d.CompositionID), nullableID(d.LayerID),
			nullableString(d.Extra), d.Message,
		); err != nil {
			return fmt.Errorf("insert diagnostic %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

const sessionColumns = "id, manifest, output, status, tag_mode, tag_level, language, warnings, errors, dropped, output_bytes, error_message, started_at, finished_at"

// List returns the most recent sessions first, without diagnostics. A limit
// of zero or less returns every session.
func (s *Store) List(ctx context.Context, limit int) ([]Session, error) {
	query := "SELECT " + sessionColumns + " FROM sessions ORDER BY started_at DESC, id"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var out []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, *sess)
	}
	return out, rows.Err()
}

// Get returns one session with its diagnostics in recorded order. The id may
// be a unique prefix of the full session id.
func (s *Store) Get(ctx context.Context, id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE id = ? OR id LIKE ? ORDER BY id = ? DESC LIMIT 2",
		id, stripLikeWildcards(id)+"%", id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	var matches []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan session: %w", err)
		}
		matches = append(matches, sess)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case len(matches) > 1 && matches[0].ID != id:
		return nil, fmt.Errorf("session prefix %q is ambiguous", id)
	}
	sess := matches[0]

	diags, err := s.diagnostics(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	sess.Diagnostics = diags
	return sess, nil
}

func (s *Store) diagnostics(ctx context.Context, sessionID string) ([]Diagnostic, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, severity, composition_id, layer_id, extra, message
         FROM diagnostics WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list diagnostics: %w", err)
	}
	defer rows.Close()

	var out []Diagnostic
	for rows.Next() {
		var (
			d           Diagnostic
			comp, layer sql.NullInt64
			extra       sql.NullString
		)
		if err := rows.Scan(&d.Kind, &d.Severity, &comp, &layer, &extra, &d.Message); err != nil {
			return nil, fmt.Errorf("scan diagnostic: %w", err)
		}
		d.CompositionID = uint32(comp.Int64)
		d.LayerID = uint32(layer.Int64)
		d.Extra = extra.String
		out = append(out, d)
	}
	return out, rows.Err()
}

// Prune keeps the newest keep sessions and deletes the rest.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE id NOT IN (
            SELECT id FROM sessions ORDER BY started_at DESC, id LIMIT ?
        )`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune history: %w", err)
	}
	return res.RowsAffected()
}

func scanSession(scanner interface{ Scan(dest ...any) error }) (*Session, error) {
	var (
		sess        Session
		manifest    sql.NullString
		status      string
		language    sql.NullString
		errMessage  sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&sess.ID,
		&manifest,
		&sess.Output,
		&status,
		&sess.TagMode,
		&sess.TagLevel,
		&language,
		&sess.Warnings,
		&sess.Errors,
		&sess.Dropped,
		&sess.OutputBytes,
		&errMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}
	sess.Manifest = manifest.String
	sess.Status = Status(status)
	sess.Language = language.String
	sess.Error = errMessage.String
	if started, err := parseTimeString(startedRaw); err == nil {
		sess.StartedAt = started
	}
	if finishedRaw.Valid {
		if finished, err := parseTimeString(finishedRaw.String); err == nil {
			sess.FinishedAt = finished
		}
	}
	return &sess, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableID(value uint32) any {
	if value == 0 {
		return nil
	}
	return int64(value)
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return formatTime(value)
}

// timeLayout has a fixed width so stored values sort chronologically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(timeLayout, value)
}

func stripLikeWildcards(value string) string {
	return strings.NewReplacer(`%`, ``, `_`, ``).Replace(value)
}
