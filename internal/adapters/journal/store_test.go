package journal_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rig/internal/adapters/journal"
	"go.trai.ch/rig/internal/core/domain"
)

func entry(target string, status domain.TargetStatus) domain.JournalEntry {
	return domain.JournalEntry{
		Target:       target,
		Status:       status,
		Duration:     1500 * time.Millisecond,
		OutputDigest: "ef46db3751d8e999",
		Timestamp:    time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStore_PutAndGet(t *testing.T) {
	store := journal.NewStore(filepath.Join(t.TempDir(), ".rig", "journal.json"))

	got, err := store.Get("install")
	require.NoError(t, err)
	assert.Nil(t, got, "missing journal reads as empty")

	require.NoError(t, store.Put(entry("install", domain.StatusSucceeded)))

	got, err = store.Get("install")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, entry("install", domain.StatusSucceeded), *got)
}

func TestStore_Persistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".rig", "journal.json")

	first := journal.NewStore(path)
	require.NoError(t, first.Put(
		entry("test", domain.StatusSucceeded),
		entry("lint", domain.StatusFailed),
	))
	require.NoError(t, first.Put(entry("test", domain.StatusFailed)))

	second := journal.NewStore(path)
	all, err := second.All()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "lint", all[0].Target)
	assert.Equal(t, "test", all[1].Target)
	assert.Equal(t, domain.StatusFailed, all[1].Status, "later Put replaces the entry")

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestStore_CorruptJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	store := journal.NewStore(path)

	_, err := store.All()
	require.ErrorIs(t, err, domain.ErrJournalReadFailed)

	err = store.Put(entry("x", domain.StatusSucceeded))
	require.ErrorIs(t, err, domain.ErrJournalReadFailed)
}

func TestStore_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.json")
	require.NoError(t, os.WriteFile(path, nil, 0o600))

	all, err := journal.NewStore(path).All()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestStore_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o600))

	store := journal.NewStore(filepath.Join(blocker, "journal.json"))
	err := store.Put(entry("x", domain.StatusSucceeded))
	require.ErrorIs(t, err, domain.ErrJournalWriteFailed)
	assert.NotErrorIs(t, err, domain.ErrJournalReadFailed)
}

func TestStore_ParentIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("file"), 0o600))

	all, err := journal.NewStore(filepath.Join(blocker, "journal.json")).All()
	require.NoError(t, err)
	assert.Empty(t, all)
}
