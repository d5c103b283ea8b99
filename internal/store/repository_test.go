package store

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStyleRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Styles()

	t.Run("seeded variants", func(t *testing.T) {
		styles, err := repo.List()
		require.NoError(t, err)
		require.Len(t, styles, 3)

		assert.Equal(t, 0, styles[0].Variant)
		assert.Equal(t, "skeleton", styles[0].Name)
		assert.Equal(t, "#007AFF", styles[0].Color)
		assert.Equal(t, 3.0, styles[0].Width)
		assert.True(t, styles[0].Visible)

		assert.False(t, styles[1].Visible)
		assert.Equal(t, "contrast", styles[2].Name)
	})

	t.Run("create and get", func(t *testing.T) {
		st := &Style{Variant: 7, Name: "thin", Color: "#FFFFFF", Width: 1, Visible: true}
		require.NoError(t, repo.Create(st))
		assert.False(t, st.CreatedAt.IsZero())

		got, err := repo.Get(7)
		require.NoError(t, err)
		assert.Equal(t, "thin", got.Name)
		assert.Equal(t, 1.0, got.Width)

		v := got.RenderVariant()
		assert.Equal(t, 7, v.ID)
		assert.True(t, v.Visible)
	})

	t.Run("duplicate variant fails", func(t *testing.T) {
		err := repo.Create(&Style{Variant: 0, Name: "again", Color: "#000000"})
		assert.Error(t, err)
	})

	t.Run("update", func(t *testing.T) {
		got, err := repo.Get(2)
		require.NoError(t, err)
		got.Width = 6
		require.NoError(t, repo.Update(got))

		got, err = repo.Get(2)
		require.NoError(t, err)
		assert.Equal(t, 6.0, got.Width)
	})

	t.Run("update missing", func(t *testing.T) {
		err := repo.Update(&Style{Variant: 99, Name: "x", Color: "#000000"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(7))

		_, err := repo.Get(7)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Delete(7), ErrNotFound)
	})
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Settings()

	_, err := repo.Get("camera.facing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, repo.Set("camera.facing", "front"))
	require.NoError(t, repo.Set("camera.facing", "back"))

	v, err := repo.Get("camera.facing")
	require.NoError(t, err)
	assert.Equal(t, "back", v)

	require.NoError(t, repo.Delete("camera.facing"))
	assert.ErrorIs(t, repo.Delete("camera.facing"), ErrNotFound)
}

func TestSnapshotRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Snapshots()

	landmarks := json.RawMessage(`{"nose":{"x":1,"y":2,"z":0}}`)
	segments := json.RawMessage(`[]`)

	first := &Snapshot{Name: "first", Landmarks: landmarks, Segments: segments}
	require.NoError(t, repo.Create(first))
	assert.Len(t, first.ID, 36)

	second := &Snapshot{ID: "fixed-id", Name: "second", Variant: 2, Landmarks: landmarks, Segments: segments}
	require.NoError(t, repo.Create(second))
	assert.Equal(t, "fixed-id", second.ID)

	t.Run("get", func(t *testing.T) {
		got, err := repo.Get(first.ID)
		require.NoError(t, err)
		assert.Equal(t, "first", got.Name)
		assert.JSONEq(t, string(landmarks), string(got.Landmarks))
		assert.JSONEq(t, string(segments), string(got.Segments))

		_, err = repo.Get("missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("list", func(t *testing.T) {
		all, err := repo.List()
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(first.ID))
		assert.ErrorIs(t, repo.Delete(first.ID), ErrNotFound)

		all, err := repo.List()
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.Equal(t, 2, all[0].Variant)
	})
}
