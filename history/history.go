// Package history remembers which articles earlier runs already processed.
//
// A Store keeps ids in insertion order next to a membership set. Capacity is
// enforced on Save by evicting the oldest ids first; ids loaded from disk are
// always older than ids added during the current run.
package history

import (
	"errors"
	"fmt"

	"github.com/pevans/gamingnews/logger"
)

// Backend types accepted by Open.
const (
	TypeFile   = "file"
	TypeSQLite = "sqlite"
)

// DefaultLimit is the number of ids kept when no limit is configured.
const DefaultLimit = 500

// ErrUnknownType is returned by Open for an unsupported backend.
var ErrUnknownType = errors.New("unknown history type")

// Store is the persistent set of processed article ids.
type Store interface {
	// Contains reports whether id has been seen.
	Contains(id string) bool
	// Add records id as the newest entry. It reports false, and leaves the
	// order untouched, when id is already present.
	Add(id string) bool
	// IDs returns the ids oldest first.
	IDs() []string
	Len() int
	// Clear forgets every id. The change is persisted by the next Save.
	Clear()
	// Save trims the set to its limit and persists it.
	Save() error
	Close() error
}

// Config selects and configures a backend.
type Config struct {
	Type  string `yaml:"type"`
	DSN   string `yaml:"dsn"`
	Limit int    `yaml:"limit"`
}

// Open creates the store described by cfg.
func Open(cfg Config, log logger.Logger) (Store, error) {
	limit := cfg.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	switch cfg.Type {
	case TypeFile, "":
		return OpenFile(cfg.DSN, limit, log), nil
	case TypeSQLite:
		return OpenSQLite(cfg.DSN, limit, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, cfg.Type)
	}
}

// Set is the in-memory ordered id set shared by the backends.
type Set struct {
	ids   []string
	seen  map[string]struct{}
	limit int
}

// NewSet creates a set holding ids in the given order. Repeated ids keep
// their first position. A limit of zero or less disables eviction.
func NewSet(limit int, ids []string) *Set {
	s := &Set{
		ids:   make([]string, 0, len(ids)),
		seen:  make(map[string]struct{}, len(ids)),
		limit: limit,
	}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Contains reports whether id is in the set.
func (s *Set) Contains(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Add appends id as the newest entry. Empty and already present ids are
// ignored and reported as false.
func (s *Set) Add(id string) bool {
	if id == "" || s.Contains(id) {
		return false
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
	return true
}

// IDs returns a copy of the ids, oldest first.
func (s *Set) IDs() []string {
	out := make([]string, len(s.ids))
	copy(out, s.ids)
	return out
}

// Len returns the number of ids.
func (s *Set) Len() int {
	return len(s.ids)
}

// Clear removes every id.
func (s *Set) Clear() {
	s.ids = s.ids[:0]
	s.seen = make(map[string]struct{})
}

// Limit returns the configured capacity.
func (s *Set) Limit() int {
	return s.limit
}

// Trim evicts the oldest ids until the set fits its limit and returns how
// many were dropped.
func (s *Set) Trim() int {
	if s.limit <= 0 || len(s.ids) <= s.limit {
		return 0
	}

	drop := len(s.ids) - s.limit
	for _, id := range s.ids[:drop] {
		delete(s.seen, id)
	}
	kept := make([]string, s.limit)
	copy(kept, s.ids[drop:])
	s.ids = kept

	return drop
}
