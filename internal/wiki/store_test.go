package wiki

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WriteRead(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	url := "https://example.org/genres"
	body := []byte("<html><h2>Folk</h2><p>Acoustic storytelling.</p></html>")
	meta := PageMeta{Category: "genre", FetchedAt: time.Now().UTC(), LastStatus: 200}

	require.NoError(t, store.Write(url, body, meta))

	got, gotMeta, err := store.Read(url)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, url, gotMeta.URL)
	assert.Equal(t, 200, gotMeta.LastStatus)
}

func TestStore_ReadMissing(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = store.Read("https://example.org/nothing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ParsedRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	url := "https://example.org/genres"
	require.NoError(t, store.Write(url, []byte("x"), PageMeta{Category: "genre", FetchedAt: time.Now()}))

	in := []Genre{{Name: "Folk", Characteristics: []string{"acoustic"}, SourceURL: url}}
	require.NoError(t, store.WriteParsed(KindGenre, url, in))

	var out []Genre
	require.NoError(t, store.ReadParsed(KindGenre, url, &out))
	assert.Equal(t, in, out)

	assert.Equal(t, []string{url}, store.List(KindGenre))
}

func TestStore_IsFresh(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	url := "https://example.org/genres"
	require.NoError(t, store.Write(url, []byte("x"), PageMeta{Category: "genre", FetchedAt: time.Now().UTC()}))
	assert.True(t, store.IsFresh(url, time.Hour))

	stale := "https://example.org/stale"
	require.NoError(t, store.Write(stale, []byte("x"), PageMeta{
		Category:  "genre",
		FetchedAt: time.Now().UTC().Add(-2 * time.Hour),
	}))
	assert.False(t, store.IsFresh(stale, time.Hour))
	assert.False(t, store.IsFresh("https://example.org/never", time.Hour))
}

func TestStore_StaleIndexFallsBackToScan(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir)
	require.NoError(t, err)

	url := "https://example.org/genres"
	body := []byte("cached page")
	require.NoError(t, store.Write(url, body, PageMeta{Category: "genre", FetchedAt: time.Now().UTC()}))

	// Simulate a crash that lost the index: a fresh store over the same
	// directory with the index removed must still find the page.
	require.NoError(t, os.Remove(filepath.Join(dir, "index.json")))
	reopened, err := NewStore(dir)
	require.NoError(t, err)

	got, meta, err := reopened.Read(url)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, url, meta.URL)
}

func TestStore_MountExistingReadOnly(t *testing.T) {
	dir := t.TempDir()
	first, err := NewStore(dir)
	require.NoError(t, err)

	url := "https://example.org/metatags"
	require.NoError(t, first.Write(url, []byte("x"), PageMeta{Category: "metatag", FetchedAt: time.Now().UTC()}))
	require.NoError(t, first.WriteParsed(KindMetaTag, url, []MetaTag{{Tag: "intro", Category: "structural"}}))

	// A second store over the same directory serves the same data.
	second, err := NewStore(dir)
	require.NoError(t, err)
	var tags []MetaTag
	require.NoError(t, second.ReadParsed(KindMetaTag, url, &tags))
	require.Len(t, tags, 1)
	assert.Equal(t, "intro", tags[0].Tag)
}

func TestStore_WriteMetaKeepsContent(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	url := "https://example.org/genres"
	body := []byte("original content")
	require.NoError(t, store.Write(url, body, PageMeta{Category: "genre", FetchedAt: time.Now().UTC(), LastStatus: 200}))

	// A later failure is recorded without evicting the page.
	require.NoError(t, store.WriteMeta(url, PageMeta{
		Category:   "genre",
		FetchedAt:  time.Now().UTC(),
		LastStatus: 500,
		LastError:  "server error",
	}))

	got, meta, err := store.Read(url)
	require.NoError(t, err)
	assert.Equal(t, body, got)
	assert.Equal(t, 500, meta.LastStatus)
	assert.Equal(t, "server error", meta.LastError)
}
