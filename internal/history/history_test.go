package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManagementMO/CodeScribe-sub000/internal/config"
	"github.com/ManagementMO/CodeScribe-sub000/pkg/models"
)

func newTestStore(t *testing.T, maxEntries int) *Store {
	t.Helper()
	return NewStore(t.TempDir(), config.HistoryConfig{Enabled: true, MaxEntries: maxEntries})
}

func TestRecordAndList(t *testing.T) {
	store := newTestStore(t, 50)

	c := &models.Context{}
	c.Git.Branch = "feature/ABC-12-add-login"
	c.Git.Diff = "raw diff text"
	c.Git.RemoteURL = "git@github.com:acme/app.git"

	require.NoError(t, store.Record(Entry{
		Command:   "pr",
		Context:   c,
		Workflows: []string{"code-review", "issue-tracker"},
		Success:   true,
	}))

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	entry := entries[0]
	assert.Equal(t, "pr", entry.Command)
	assert.True(t, entry.Success)
	assert.False(t, entry.Timestamp.IsZero())
	assert.NotEmpty(t, entry.ID)

	// Sanitization drops the raw diff and remote URL.
	require.NotNil(t, entry.Context)
	assert.Equal(t, "feature/ABC-12-add-login", entry.Context.Git.Branch)
	assert.Empty(t, entry.Context.Git.Diff)
	assert.Empty(t, entry.Context.Git.RemoteURL)

	// The record in memory was not mutated.
	assert.Equal(t, "raw diff text", c.Git.Diff)
}

func TestRecordDisabled(t *testing.T) {
	store := NewStore(t.TempDir(), config.HistoryConfig{Enabled: false, MaxEntries: 50})

	require.NoError(t, store.Record(Entry{Command: "pr"}))

	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEviction(t *testing.T) {
	store := newTestStore(t, 3)
	base := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		ts := base.Add(time.Duration(i) * time.Minute)
		store.now = func() time.Time { return ts }
		require.NoError(t, store.Record(Entry{Command: fmt.Sprintf("run-%d", i)}))
	}

	entries, err := store.List()
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Oldest entries were evicted, newest survive in chronological order.
	assert.Equal(t, "run-2", entries[0].Command)
	assert.Equal(t, "run-4", entries[2].Command)
}

func TestListEmpty(t *testing.T) {
	store := newTestStore(t, 10)

	entries, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSanitizeContextNil(t *testing.T) {
	assert.Nil(t, sanitizeContext(nil))
}
