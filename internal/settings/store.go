package settings

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Store owns the settings document. All reads go through Snapshot and all
// mutations through Update, so concurrent handlers and timers cannot lose
// writes to each other. Every successful Update persists the whole document
// before releasing the lock.
type Store struct {
	path string
	mu   sync.Mutex
	doc  *Settings
}

// Open loads the document at path, creating it with defaults seeded from
// superAdmin when it does not exist yet. An unreadable or corrupt document
// is a fatal configuration error.
func Open(path, superAdmin string) (*Store, error) {
	st := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		if superAdmin == "" {
			return nil, fmt.Errorf("settings: no document at %s and no super admin configured", path)
		}
		st.doc = Default(superAdmin)
		if err := st.persistLocked(); err != nil {
			return nil, err
		}
		slog.Info("Settings document created", "path", path, "superAdmin", superAdmin)
		return st, nil
	}
	if err != nil {
		return nil, fmt.Errorf("settings: read %s: %w", path, err)
	}

	doc := &Settings{}
	if err := json.Unmarshal(data, doc); err != nil {
		return nil, fmt.Errorf("settings: parse %s: %w", path, err)
	}
	normalize(doc)
	st.doc = doc
	return st, nil
}

// Reload re-reads the document from disk, picking up edits made outside the
// process between events. A read or parse failure keeps the in-memory copy.
func (st *Store) Reload() error {
	st.mu.Lock()
	defer st.mu.Unlock()

	data, err := os.ReadFile(st.path)
	if err != nil {
		return fmt.Errorf("settings: reload %s: %w", st.path, err)
	}
	doc := &Settings{}
	if err := json.Unmarshal(data, doc); err != nil {
		return fmt.Errorf("settings: reload parse %s: %w", st.path, err)
	}
	normalize(doc)
	st.doc = doc
	return nil
}

// Snapshot returns a deep copy of the current document.
func (st *Store) Snapshot() *Settings {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.doc.Clone()
}

// Update runs fn on the live document under the lock and persists the result.
// If fn returns an error the document is left as fn left it in memory but is
// not persisted; mutating functions are expected to fail before touching the
// document.
func (st *Store) Update(fn func(*Settings) error) error {
	st.mu.Lock()
	defer st.mu.Unlock()
	if err := fn(st.doc); err != nil {
		return err
	}
	return st.persistLocked()
}

// Path returns the document location.
func (st *Store) Path() string { return st.path }

func (st *Store) persistLocked() error {
	data, err := json.MarshalIndent(st.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: encode: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(st.path), 0o755); err != nil {
		return fmt.Errorf("settings: mkdir: %w", err)
	}
	if err := os.WriteFile(st.path, data, 0o644); err != nil {
		return fmt.Errorf("settings: write %s: %w", st.path, err)
	}
	return nil
}

// normalize fills nil maps so handlers never have to nil-check containers
// that the document shape guarantees.
func normalize(doc *Settings) {
	if doc.Admins == nil {
		doc.Admins = []string{}
	}
	if doc.BannedWords == nil {
		doc.BannedWords = []string{}
	}
	if doc.Features == nil {
		doc.Features = map[string]bool{}
	}
	if doc.Warnings == nil {
		doc.Warnings = map[string][]int64{}
	}
	if doc.Cooldowns == nil {
		doc.Cooldowns = map[string]map[string]int64{}
	}
	if doc.UserActivity == nil {
		doc.UserActivity = map[string]map[string]int64{}
	}
}
