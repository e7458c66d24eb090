package history

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pevans/gamingnews/logger"
)

// CorruptSuffix is appended to a database file that could not be opened
// before a fresh one is created in its place.
const CorruptSuffix = ".corrupt"

// ErrNoDatabase is returned by Save when the store runs without a database.
var ErrNoDatabase = errors.New("history database unavailable")

// SQLiteStore keeps the history in a SQLite table. The table is rewritten
// on every Save so its seq column always mirrors insertion order.
type SQLiteStore struct {
	*Set
	db  *sql.DB
	log logger.Logger
}

// OpenSQLite opens (creating if needed) the database at dbPath and loads
// its ids. A failing load leaves the history empty and is only logged. A
// file that is not a usable database is moved to dbPath+CorruptSuffix and
// replaced; if that fails too the store keeps its ids in memory only and
// every Save reports ErrNoDatabase.
func OpenSQLite(dbPath string, limit int, log logger.Logger) (*SQLiteStore, error) {
	log = logger.OrNop(log)

	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history directory: %w", err)
		}
	}

	store := &SQLiteStore{log: log, Set: NewSet(limit, nil)}

	db, err := openDB(dbPath)
	if err != nil {
		log.Error("History database unusable, moving it aside",
			logger.String("path", dbPath), logger.Err(err))

		if rerr := os.Rename(dbPath, dbPath+CorruptSuffix); rerr != nil {
			log.Error("Failed to move history database", logger.String("path", dbPath), logger.Err(rerr))
			return store, nil
		}
		if db, err = openDB(dbPath); err != nil {
			log.Error("Failed to recreate history database, keeping history in memory",
				logger.String("path", dbPath), logger.Err(err))
			return store, nil
		}
	}
	store.db = db

	ids, err := store.load()
	if err != nil {
		log.Error("Failed to load history, starting empty", logger.String("path", dbPath), logger.Err(err))
		ids = nil
	} else {
		log.Info("History loaded", logger.String("path", dbPath), logger.Int("count", len(ids)))
	}
	store.Set = NewSet(limit, ids)

	return store, nil
}

// openDB opens dbPath and creates the news_history table if it doesn't
// exist.
func openDB(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS news_history (
		seq INTEGER PRIMARY KEY,
		news_id TEXT NOT NULL UNIQUE
	);
	`

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return db, nil
}

func (s *SQLiteStore) load() ([]string, error) {
	rows, err := s.db.Query(`SELECT news_id FROM news_history ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Save trims the history and rewrites the table in one transaction.
func (s *SQLiteStore) Save() error {
	if dropped := s.Trim(); dropped > 0 {
		s.log.Debug("History trimmed", logger.Int("dropped", dropped))
	}
	if s.db == nil {
		return ErrNoDatabase
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM news_history`); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO news_history (seq, news_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, id := range s.IDs() {
		if _, err := stmt.Exec(i, id); err != nil {
			return fmt.Errorf("failed to insert history id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit history: %w", err)
	}

	s.log.Info("History saved", logger.Int("count", s.Len()))
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
