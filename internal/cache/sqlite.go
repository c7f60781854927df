package cache

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists cached payloads to SQLite so responses survive a
// process restart. The TTL check still happens lazily on read; stale rows
// are deleted when touched.
type SQLiteStore struct {
	cfg Config
	db  *sqlx.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS responses (
	cache_key TEXT PRIMARY KEY,
	payload   BLOB NOT NULL,
	stored_at TEXT NOT NULL
);
`

func NewSQLiteStore(dbPath string, cfg Config) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{cfg: cfg.withDefaults(), db: db}, nil
}

func (s *SQLiteStore) Get(key string) (Entry, bool) {
	var row struct {
		Payload  []byte `db:"payload"`
		StoredAt string `db:"stored_at"`
	}
	err := s.db.Get(&row, "SELECT payload, stored_at FROM responses WHERE cache_key = ?", key)
	if err == sql.ErrNoRows {
		return Entry{}, false
	}
	if err != nil {
		return Entry{}, false
	}

	storedAt, err := time.Parse(time.RFC3339Nano, row.StoredAt)
	if err != nil || s.cfg.Clock().Sub(storedAt) >= s.cfg.TTL {
		_, _ = s.db.Exec("DELETE FROM responses WHERE cache_key = ?", key)
		return Entry{}, false
	}
	return Entry{Payload: row.Payload, StoredAt: storedAt}, true
}

func (s *SQLiteStore) Put(key string, payload []byte) error {
	storedAt := s.cfg.Clock().UTC().Format(time.RFC3339Nano)
	_, err := s.db.Exec(
		"INSERT INTO responses (cache_key, payload, stored_at) VALUES (?, ?, ?) ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, stored_at = excluded.stored_at",
		key, payload, storedAt,
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
