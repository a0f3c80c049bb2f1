package wiki

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const managerGenrePage = `<html><body>
<h2>Folk</h2>
<p>Acoustic storytelling music.</p>
<ul><li>Mood: melancholic, warm</li><li>Subgenres: Indie Folk</li></ul>
<h2>Techno</h2>
<p>Machine rhythms.</p>
<ul><li>pulsing and synthetic</li></ul>
</body></html>`

const managerTagPage = `<html><body>
<h2>Tags</h2>
<ul><li>[intro] — opens the track</li><li>[verse] — carries the story</li></ul>
</body></html>`

func managerSettings(genreURL, tagURL string, enabled, fallbacks bool) func() Settings {
	return func() Settings {
		st := Settings{
			Enabled:             enabled,
			FallbackToHardcoded: fallbacks,
			RefreshTTL:          time.Hour,
			Fetch: FetchOptions{
				Timeout:    2 * time.Second,
				MaxRetries: 1,
				RetryDelay: 10 * time.Millisecond,
			},
		}
		if genreURL != "" {
			st.GenrePages = []string{genreURL}
		}
		if tagURL != "" {
			st.MetaTagPages = []string{tagURL}
		}
		return st
	}
}

func TestManager_RefreshAndServe(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/genres", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(managerGenrePage))
	})
	mux.HandleFunc("/tags", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(managerTagPage))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	m := NewManager(store, managerSettings(server.URL+"/genres", server.URL+"/tags", true, false), discardLogger())

	result, err := m.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Downloaded)
	assert.Zero(t, result.Failed)

	genres := m.GetGenres()
	require.Len(t, genres, 2)
	assert.Equal(t, "Folk", genres[0].Name)

	tags := m.GetMetaTags("")
	require.Len(t, tags, 2)
	assert.Equal(t, []string{server.URL + "/genres"}, m.SourceURLsFor(KindGenre))
}

func TestManager_RefreshIdempotent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(managerGenrePage))
	}))
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	m := NewManager(store, managerSettings(server.URL, "", true, false), discardLogger())

	_, err = m.Refresh(context.Background(), false)
	require.NoError(t, err)
	first := m.CurrentSnapshot()

	// Everything is fresh: the second refresh downloads nothing and keeps
	// the same snapshot pointer.
	result, err := m.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Zero(t, result.Downloaded)
	assert.Equal(t, 1, result.Skipped)
	assert.Same(t, first, m.CurrentSnapshot())
}

func TestManager_PartialFailureKeepsOldData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/good", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(managerGenrePage))
	})
	mux.HandleFunc("/bad", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	settings := func() Settings {
		return Settings{
			Enabled:    true,
			RefreshTTL: time.Nanosecond, // everything is always stale
			GenrePages: []string{server.URL + "/good"},
			TipPages:   []string{server.URL + "/bad"},
			Fetch:      FetchOptions{Timeout: 2 * time.Second, MaxRetries: 1, RetryDelay: 10 * time.Millisecond},
		}
	}
	m := NewManager(store, settings, discardLogger())

	result, err := m.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Downloaded)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, server.URL+"/bad", result.Errors[0].URL)
	assert.Equal(t, "refresh_failed", result.Errors[0].Kind)

	// The successful page is installed and served.
	assert.Len(t, m.GetGenres(), 2)
}

func TestManager_FallbacksWhenEmpty(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	m := NewManager(store, managerSettings("", "", true, true), discardLogger())
	genres := m.GetGenres()
	require.NotEmpty(t, genres)
	for _, g := range genres {
		assert.Equal(t, FallbackSourceURL, g.SourceURL)
	}
	assert.NotEmpty(t, m.GetMetaTags("structural"))
	assert.NotEmpty(t, m.GetTechniques("prompt_structure"))
	assert.Equal(t, []string{FallbackSourceURL}, m.SourceURLsFor(KindGenre))
}

func TestManager_DisabledNoFallbacks(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)

	m := NewManager(store, managerSettings("", "", false, false), discardLogger())
	assert.Empty(t, m.GetGenres())
	assert.Empty(t, m.GetMetaTags(""))
	assert.Empty(t, m.GetTechniques(""))

	_, err = m.Refresh(context.Background(), false)
	assert.Error(t, err)
}

func TestManager_ConcurrentReadsDuringRefresh(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(managerGenrePage))
	}))
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	m := NewManager(store, managerSettings(server.URL, "", true, false), discardLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		m.Refresh(context.Background(), false)
	}()

	// Reads never block while the refresh is parked on the network.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			m.GetGenres()
			m.CurrentSnapshot()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("reads blocked during refresh")
	}

	close(release)
	wg.Wait()
	assert.Len(t, m.GetGenres(), 2)
}

func TestManager_ConcurrentRefreshJoins(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	counter := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		counter++
		if counter == 1 {
			close(started)
		}
		mu.Unlock()
		<-release
		w.Write([]byte(managerGenrePage))
	}))
	defer server.Close()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	m := NewManager(store, managerSettings(server.URL, "", true, false), discardLogger())

	var wg sync.WaitGroup
	results := make([]*RefreshResult, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		r, rerr := m.Refresh(context.Background(), true)
		assert.NoError(t, rerr)
		results[0] = r
	}()

	// Wait until the first refresh is parked inside the fetch, then issue a
	// second one: it must join the in-flight call, not start its own.
	<-started
	wg.Add(1)
	go func() {
		defer wg.Done()
		r, rerr := m.Refresh(context.Background(), true)
		assert.NoError(t, rerr)
		results[1] = r
	}()

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, counter)
	assert.Equal(t, results[0], results[1])
}
