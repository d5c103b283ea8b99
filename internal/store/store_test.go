package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	_, err := os.Stat(dbPath)
	require.True(t, os.IsNotExist(err), "database file should not exist before creating store")

	s, err := New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should exist after creating store")
	assert.Equal(t, dbPath, s.Path())
}

func TestNewStore_RunsMigrations(t *testing.T) {
	s := newTestStore(t)

	for _, table := range []string{"styles", "settings", "snapshots"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		assert.NoError(t, err, "table %q should exist after migrations", table)
	}

	var idx string
	err := s.DB().QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name=?",
		"idx_snapshots_created_at",
	).Scan(&idx)
	assert.NoError(t, err)
}

func TestNewStore_ReopenKeepsEdits(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	s, err := New(dbPath)
	require.NoError(t, err)

	st, err := s.Styles().Get(0)
	require.NoError(t, err)
	st.Color = "#00FF00"
	require.NoError(t, s.Styles().Update(st))
	require.NoError(t, s.Close())

	s, err = New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	st, err = s.Styles().Get(0)
	require.NoError(t, err)
	assert.Equal(t, "#00FF00", st.Color, "seeding must not overwrite edited styles")
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	require.NoError(t, s.Close())

	_, err = s.DB().Exec("SELECT 1")
	assert.Error(t, err, "DB operations should fail after close")
}

func TestStore_ForeignKeysEnabled(t *testing.T) {
	s := newTestStore(t)

	var fkEnabled int
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fkEnabled))
	assert.Equal(t, 1, fkEnabled)
}
