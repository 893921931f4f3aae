package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edumarques81/stellar-signage/internal/domain/slideshow"
	"github.com/edumarques81/stellar-signage/internal/infra/store"
)

const lobbyRecord = `{
	"id": "lobby",
	"name": "Lobby",
	"images": [
		{"id": "a", "type": "text", "content": {"text": "Welcome"}},
		{"id": "b", "type": "image", "duration": 2000, "content": {"url": "https://cdn.example.com/b.jpg"}}
	],
	"settings": {"backgroundMusic": "loop.mp3"}
}`

func openStores(t *testing.T) map[string]store.Store {
	t.Helper()
	dir := t.TempDir()

	stores := map[string]store.Store{}
	for _, driver := range []string{store.DriverSQLite, store.DriverBolt} {
		s, err := store.Open(driver, filepath.Join(dir, driver, "slideshows.db"))
		require.NoError(t, err, driver)
		t.Cleanup(func() { s.Close() })
		stores[driver] = s
	}
	return stores
}

func decode(t *testing.T, data string) *slideshow.Record {
	t.Helper()
	rec, err := slideshow.DecodeRecord([]byte(data))
	require.NoError(t, err)
	return rec
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()

	for driver, s := range openStores(t) {
		t.Run(driver, func(t *testing.T) {
			require.NoError(t, s.PutSlideshow(ctx, decode(t, lobbyRecord)))

			rec, err := s.GetSlideshow(ctx, "lobby")
			require.NoError(t, err)
			assert.Equal(t, "Lobby", rec.Name)
			assert.Len(t, rec.Images, 2)
			assert.True(t, rec.Active())

			show := slideshow.Parse(rec)
			assert.Equal(t, int64(2000), show.Slides[1].DurationMs())
			assert.Equal(t, "loop.mp3", show.Settings.BackgroundMusic)
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	ctx := context.Background()

	for driver, s := range openStores(t) {
		t.Run(driver, func(t *testing.T) {
			_, err := s.GetSlideshow(ctx, "missing")
			assert.ErrorIs(t, err, store.ErrNotFound)

			err = s.SetActive(ctx, "missing", false)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestStoreRejectsMissingID(t *testing.T) {
	for driver, s := range openStores(t) {
		t.Run(driver, func(t *testing.T) {
			err := s.PutSlideshow(context.Background(), &slideshow.Record{Name: "anonymous"})
			assert.ErrorIs(t, err, store.ErrMissingID)
		})
	}
}

func TestStoreSetActiveAndList(t *testing.T) {
	ctx := context.Background()

	for driver, s := range openStores(t) {
		t.Run(driver, func(t *testing.T) {
			require.NoError(t, s.PutSlideshow(ctx, decode(t, lobbyRecord)))
			require.NoError(t, s.PutSlideshow(ctx, decode(t, `{"id": "annex", "name": "Annex", "images": []}`)))
			require.NoError(t, s.SetActive(ctx, "lobby", false))

			rec, err := s.GetSlideshow(ctx, "lobby")
			require.NoError(t, err)
			assert.False(t, rec.Active())

			list, err := s.ListSlideshows(ctx)
			require.NoError(t, err)
			require.Len(t, list, 2)
			assert.Equal(t, "annex", list[0].ID)
			assert.True(t, list[0].IsActive)
			assert.Equal(t, 0, list[0].Slides)
			assert.Equal(t, "lobby", list[1].ID)
			assert.False(t, list[1].IsActive)
			assert.Equal(t, 2, list[1].Slides)
			assert.False(t, list[1].UpdatedAt.IsZero())
		})
	}
}

func TestStoreOverwrite(t *testing.T) {
	ctx := context.Background()

	for driver, s := range openStores(t) {
		t.Run(driver, func(t *testing.T) {
			require.NoError(t, s.PutSlideshow(ctx, decode(t, lobbyRecord)))
			require.NoError(t, s.PutSlideshow(ctx, decode(t, `{"id": "lobby", "name": "Lobby v2", "images": []}`)))

			rec, err := s.GetSlideshow(ctx, "lobby")
			require.NoError(t, err)
			assert.Equal(t, "Lobby v2", rec.Name)
			assert.Empty(t, rec.Images)
		})
	}
}

func TestStoreClosed(t *testing.T) {
	s, err := store.Open(store.DriverSQLite, filepath.Join(t.TempDir(), "closed.db"))
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	_, err = s.GetSlideshow(context.Background(), "lobby")
	assert.ErrorIs(t, err, store.ErrClosed)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := store.Open("postgres", filepath.Join(t.TempDir(), "x.db"))
	assert.Error(t, err)
}
