package wiki

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fastOptions() FetchOptions {
	return FetchOptions{
		Timeout:    2 * time.Second,
		MaxRetries: 2,
		RetryDelay: 10 * time.Millisecond,
	}
}

func TestFetcher_SuccessWritesThrough(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "musemcp")
		w.Write([]byte("<html>page</html>"))
	}))
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	fetcher := NewFetcher(store, fastOptions(), discardLogger())

	result, err := fetcher.Fetch(context.Background(), server.URL, "genre")
	require.NoError(t, err)
	assert.Equal(t, []byte("<html>page</html>"), result.Body)
	assert.False(t, result.NotModified)

	cached, meta, err := store.Read(server.URL)
	require.NoError(t, err)
	assert.Equal(t, result.Body, cached)
	assert.Equal(t, http.StatusOK, meta.LastStatus)
}

func TestFetcher_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte("recovered"))
	}))
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	fetcher := NewFetcher(store, fastOptions(), discardLogger())

	result, err := fetcher.Fetch(context.Background(), server.URL, "genre")
	require.NoError(t, err)
	assert.Equal(t, []byte("recovered"), result.Body)
	assert.EqualValues(t, 3, calls.Load())
}

func TestFetcher_PermanentFailureKeepsStaleData(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	// Seed stale content under the failing URL.
	stale := []byte("old but readable")
	require.NoError(t, store.Write(server.URL, stale, PageMeta{
		Category:  "genre",
		FetchedAt: time.Now().UTC().Add(-48 * time.Hour),
	}))

	fetcher := NewFetcher(store, fastOptions(), discardLogger())
	_, err = fetcher.Fetch(context.Background(), server.URL, "genre")
	require.Error(t, err)

	// The failure is recorded, the content survives.
	got, meta, err := store.Read(server.URL)
	require.NoError(t, err)
	assert.Equal(t, stale, got)
	assert.NotEmpty(t, meta.LastError)
}

func TestFetcher_NotModified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-Modified-Since") != "" {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Write([]byte("first fetch"))
	}))
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	fetcher := NewFetcher(store, fastOptions(), discardLogger())

	first, err := fetcher.Fetch(context.Background(), server.URL, "genre")
	require.NoError(t, err)
	assert.False(t, first.NotModified)

	second, err := fetcher.Fetch(context.Background(), server.URL, "genre")
	require.NoError(t, err)
	assert.True(t, second.NotModified)

	// 304 keeps the body and refreshes the timestamp.
	cached, meta, err := store.Read(server.URL)
	require.NoError(t, err)
	assert.Equal(t, []byte("first fetch"), cached)
	assert.Equal(t, http.StatusNotModified, meta.LastStatus)
}

func TestFetcher_Classify(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	fetcher := NewFetcher(store, fastOptions(), discardLogger())

	assert.Equal(t, Missing, fetcher.Classify("https://example.org/none", time.Hour))

	url := "https://example.org/page"
	require.NoError(t, store.Write(url, []byte("x"), PageMeta{Category: "genre", FetchedAt: time.Now().UTC()}))
	assert.Equal(t, Fresh, fetcher.Classify(url, time.Hour))

	old := "https://example.org/old"
	require.NoError(t, store.Write(old, []byte("x"), PageMeta{
		Category:  "genre",
		FetchedAt: time.Now().UTC().Add(-2 * time.Hour),
	}))
	assert.Equal(t, Stale, fetcher.Classify(old, time.Hour))
}

func TestFetcher_ValidateURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	fetcher := NewFetcher(store, fastOptions(), discardLogger())

	assert.True(t, fetcher.ValidateURL(context.Background(), server.URL))
	assert.False(t, fetcher.ValidateURL(context.Background(), "http://127.0.0.1:1/unreachable"))
}
