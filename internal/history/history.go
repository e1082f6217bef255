// Package history persists one JSON record per invocation under
// .codescribe/history/ in the repository root, capped at a configured
// number of entries with oldest-first eviction. Records are sanitized
// before writing: the raw diff and remote URLs never reach disk, and no
// credential is part of a record to begin with.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/internal/logging"
	"github.com/ManagementMO/CodeScribe-sub000/internal/workflow"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

const historySubdir = ".codescribe/history"

// Entry is one persisted invocation record.
type Entry struct {
	ID         string            `json:"id"`
	Timestamp  time.Time         `json:"timestamp"`
	Command    string            `json:"command"`
	Options    workflow.Options  `json:"options"`
	Context    *models.Context   `json:"context,omitempty"`
	Workflows  []string          `json:"workflows"`
	Results    []workflow.Result `json:"results,omitempty"`
	DurationMS int64             `json:"duration_ms"`
	Success    bool              `json:"success"`
	Error      string            `json:"error,omitempty"`
}

// Store writes and evicts history records.
type Store struct {
	dir        string
	enabled    bool
	maxEntries int

	// now is swappable in tests.
	now func() time.Time
}

// NewStore creates a store rooted at the repository directory.
func NewStore(repoDir string, cfg config.HistoryConfig) *Store {
	return &Store{
		dir:        filepath.Join(repoDir, filepath.FromSlash(historySubdir)),
		enabled:    cfg.Enabled,
		maxEntries: cfg.MaxEntries,
		now:        time.Now,
	}
}

// Record sanitizes and persists one entry, then evicts past the cap.
// Persistence is best-effort; failures are logged, never fatal.
func (s *Store) Record(entry Entry) error {
	if !s.enabled {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	entry.ID = fmt.Sprintf("%d-%s", entry.Timestamp.UnixMilli(), uuid.NewString()[:4])
	entry.Context = sanitizeContext(entry.Context)

	payload, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history entry: %w", err)
	}
	path := filepath.Join(s.dir, entry.ID+".json")
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("failed to write history entry: %w", err)
	}

	if err := s.evict(); err != nil {
		logging.Warn("history eviction failed", "error", err)
	}
	return nil
}

// List returns the persisted entries ordered oldest first.
func (s *Store) List() ([]Entry, error) {
	paths, err := s.entryPaths()
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read history entry %s: %w", path, err)
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil, fmt.Errorf("failed to decode history entry %s: %w", path, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// evict removes the oldest entries once the cap is exceeded. Filenames are
// millisecond-prefixed so lexical order is chronological order.
func (s *Store) evict() error {
	if s.maxEntries <= 0 {
		return nil
	}
	paths, err := s.entryPaths()
	if err != nil {
		return err
	}
	for len(paths) > s.maxEntries {
		if err := os.Remove(paths[0]); err != nil {
			return fmt.Errorf("failed to evict history entry %s: %w", paths[0], err)
		}
		paths = paths[1:]
	}
	return nil
}

func (s *Store) entryPaths() ([]string, error) {
	dirEntries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history directory: %w", err)
	}
	var paths []string
	for _, de := range dirEntries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(s.dir, de.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// sanitizeContext returns a copy safe to persist: the raw diff is dropped
// and the remote URL removed.
func sanitizeContext(c *models.Context) *models.Context {
	if c == nil {
		return nil
	}
	sanitized := *c
	sanitized.Git.Diff = ""
	sanitized.Git.RemoteURL = ""
	return &sanitized
}
