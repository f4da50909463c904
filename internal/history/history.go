// Package history persists the texts a user copied, newest first.
//
// The list is capped: adding an entry beyond the limit evicts the oldest. It is
// stored as a JSON array in a single file that is rewritten atomically on every
// change.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/image-text-mcp/internal/log"
)

// DefaultLimit is the number of entries kept when no limit is configured.
const DefaultLimit = 50

// ErrNotFound is returned by Delete for an unknown id.
var ErrNotFound = errors.New("history entry not found")

// Item is one copied text.
type Item struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
}

// Store is a capped, file-backed history list. It is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	path  string
	limit int
	items []Item
	now   func() time.Time
}

// Open loads the history at path. A missing file starts an empty history; an
// unreadable or corrupt file is logged and also starts empty. An empty path
// keeps the history in memory only.
func Open(path string, limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	s := &Store{path: path, limit: limit, items: []Item{}, now: time.Now}
	if path == "" {
		return s
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Warnf("history: failed to read %s: %v", path, err)
		}
		return s
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		log.Warnf("history: ignoring corrupt file %s: %v", path, err)
		return s
	}
	if len(items) > limit {
		items = items[:limit]
	}
	s.items = items
	return s
}

// Add records text as the newest entry and returns it.
func (s *Store) Add(text string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item := Item{ID: uuid.NewString(), Timestamp: s.now().UTC(), Text: text}
	items := make([]Item, 0, len(s.items)+1)
	items = append(items, item)
	items = append(items, s.items...)
	if len(items) > s.limit {
		items = items[:s.limit]
	}
	s.items = items
	return item, s.saveLocked()
}

// List returns a copy of the entries, newest first.
func (s *Store) List() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

// Delete removes the entry with the given id.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, item := range s.items {
		if item.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return s.saveLocked()
		}
	}
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// Clear removes every entry.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []Item{}
	return s.saveLocked()
}

// Len returns the number of entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *Store) saveLocked() error {
	if s.path == "" {
		return nil
	}
	data, err := json.Marshal(s.items)
	if err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace history: %w", err)
	}
	return nil
}
