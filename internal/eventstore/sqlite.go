package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	ferrors "git.home.luguber.info/inful/cbuild/internal/foundation/errors"
)

// schemaVersion is stored in PRAGMA user_version; bump it when the table changes.
const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS build_events (
	seq      INTEGER PRIMARY KEY AUTOINCREMENT,
	build_id TEXT    NOT NULL,
	kind     TEXT    NOT NULL,
	at_ms    INTEGER NOT NULL,
	payload  BLOB    NOT NULL,
	meta     TEXT
);
CREATE INDEX IF NOT EXISTS build_events_build ON build_events(build_id, seq);
`

const selectEvents = "SELECT seq, build_id, kind, at_ms, payload, meta FROM build_events"

// SQLiteStore is the history database written next to the build output.
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens the history database at path, creating it and its
// parent directories when missing. ":memory:" gives a private in-memory store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	historyErr := func(msg string, cause error) error {
		return ferrors.HistoryError(msg).WithCause(cause).WithContext("path", path).Build()
	}

	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, historyErr("could not create history directory", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, historyErr("could not open history database", err)
	}
	// One connection: ":memory:" databases are per connection.
	db.SetMaxOpenConns(1)

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, historyErr("could not prepare history schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version > schemaVersion {
		return ferrors.HistoryError("history database was written by a newer cbuild").
			WithContext("schema_version", version).
			Build()
	}
	if _, err := db.Exec(schema); err != nil {
		return err
	}
	_, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Append stores e. A zero Timestamp is replaced by the current time and a nil
// Payload by an empty JSON object.
func (s *SQLiteStore) Append(ctx context.Context, e Event) error {
	var meta []byte
	if len(e.Metadata) > 0 {
		var err error
		if meta, err = json.Marshal(e.Metadata); err != nil {
			return ferrors.HistoryError("could not encode event metadata").WithCause(err).Build()
		}
	}
	at := e.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	payload := e.Payload
	if payload == nil {
		payload = []byte("{}")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO build_events (build_id, kind, at_ms, payload, meta) VALUES (?, ?, ?, ?, ?)",
		e.BuildID, e.Type, at.UnixMilli(), payload, meta)
	if err != nil {
		return ferrors.HistoryError("could not record build event").
			WithCause(err).
			WithContext("build_id", e.BuildID).
			WithContext("event_type", e.Type).
			Build()
	}
	return nil
}

func (s *SQLiteStore) GetByBuildID(ctx context.Context, buildID string) ([]Event, error) {
	return s.query(ctx, selectEvents+" WHERE build_id = ? ORDER BY seq", buildID)
}

func (s *SQLiteStore) RecentBuilds(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		return s.query(ctx, selectEvents+" ORDER BY seq")
	}
	return s.query(ctx, selectEvents+` WHERE build_id IN (
		SELECT build_id FROM build_events GROUP BY build_id ORDER BY MIN(seq) DESC LIMIT ?
	) ORDER BY seq`, limit)
}

func (s *SQLiteStore) query(ctx context.Context, q string, args ...any) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, ferrors.HistoryError("could not read build events").WithCause(err).Build()
	}
	defer func() { _ = rows.Close() }()

	var events []Event
	for rows.Next() {
		var (
			e    Event
			ms   int64
			meta []byte
		)
		if err := rows.Scan(&e.ID, &e.BuildID, &e.Type, &ms, &e.Payload, &meta); err != nil {
			return nil, ferrors.HistoryError("could not read build event").WithCause(err).Build()
		}
		e.Timestamp = time.UnixMilli(ms)
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, ferrors.HistoryError("corrupt event metadata").
					WithCause(err).
					WithContext("seq", e.ID).
					Build()
			}
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, ferrors.HistoryError("could not read build events").WithCause(err).Build()
	}
	return events, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
