package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pevans/gamingnews/logger"
)

// fileFormat is the on-disk layout of the JSON history file.
type fileFormat struct {
	NewsIDs []string `json:"news_ids"`
}

// FileStore keeps the history in a JSON file.
type FileStore struct {
	*Set
	path string
	log  logger.Logger
}

// OpenFile loads the history at path. A missing or unreadable file yields an
// empty history; the problem is logged, never returned.
func OpenFile(path string, limit int, log logger.Logger) *FileStore {
	log = logger.OrNop(log)
	ids, err := readFile(path)
	switch {
	case os.IsNotExist(err):
		log.Info("No history file, starting empty", logger.String("path", path))
	case err != nil:
		log.Error("Failed to load history, starting empty", logger.String("path", path), logger.Err(err))
		ids = nil
	default:
		log.Info("History loaded", logger.String("path", path), logger.Int("count", len(ids)))
	}

	return &FileStore{Set: NewSet(limit, ids), path: path, log: log}
}

func readFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse history file: %w", err)
	}

	return f.NewsIDs, nil
}

// Path returns the history file location.
func (f *FileStore) Path() string {
	return f.path
}

// Save trims the history and writes it, creating the parent directory when
// needed. The file is replaced atomically.
func (f *FileStore) Save() error {
	if dropped := f.Trim(); dropped > 0 {
		f.log.Debug("History trimmed", logger.Int("dropped", dropped))
	}

	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(fileFormat{NewsIDs: f.IDs()}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace history file: %w", err)
	}

	f.log.Info("History saved", logger.String("path", f.path), logger.Int("count", f.Len()))
	return nil
}

// Close is a no-op; the file is only touched by Save.
func (f *FileStore) Close() error {
	return nil
}
