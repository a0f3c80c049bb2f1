package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Settings is the slice of dynamic configuration the manager reads on every
// cycle. It is resolved through a function so config hot-reloads take effect
// without restarting the manager.
type Settings struct {
	Enabled             bool
	FallbackToHardcoded bool
	RefreshTTL          time.Duration
	GenrePages          []string
	MetaTagPages        []string
	TipPages            []string
	Fetch               FetchOptions
}

// KindPages returns the configured URL list for a kind.
func (s Settings) KindPages(kind Kind) []string {
	switch kind {
	case KindGenre:
		return s.GenrePages
	case KindMetaTag:
		return s.MetaTagPages
	case KindTechnique:
		return s.TipPages
	}
	return nil
}

// Manager orchestrates the store, fetcher, and parsers behind typed queries.
// Reads are served from an immutable snapshot; refreshes build a replacement
// off to the side and publish it with an atomic pointer swap, so reads never
// block and never observe a partial refresh.
type Manager struct {
	store    *Store
	tracker  *AttributionTracker
	logger   *slog.Logger
	settings func() Settings

	snapshot atomic.Pointer[Snapshot]

	mu       sync.Mutex
	inflight *refreshCall
}

// refreshCall lets a second concurrent refresh join the in-flight one.
type refreshCall struct {
	done   chan struct{}
	result *RefreshResult
	err    error
}

// NewManager creates a knowledge manager over the given store.
func NewManager(store *Store, settings func() Settings, logger *slog.Logger) *Manager {
	m := &Manager{
		store:    store,
		tracker:  NewAttributionTracker(store.Root()),
		logger:   logger,
		settings: settings,
	}
	m.snapshot.Store(&Snapshot{SourceURLs: map[Kind][]string{}})
	return m
}

// Tracker exposes the attribution tracker.
func (m *Manager) Tracker() *AttributionTracker { return m.tracker }

// Initialize loads the parsed cache into the first snapshot and, when the
// subsystem is enabled and no fresh data exists, kicks off an initial refresh
// in the background.
func (m *Manager) Initialize(ctx context.Context) error {
	st := m.settings()
	snap := m.buildSnapshot(st)
	m.snapshot.Store(snap)
	m.logger.Info("wiki cache loaded",
		"genres", len(snap.Genres),
		"meta_tags", len(snap.MetaTags),
		"techniques", len(snap.Techniques),
	)

	if st.Enabled && m.needsRefresh(st) {
		go func() {
			if _, err := m.Refresh(ctx, false); err != nil {
				m.logger.Warn("initial wiki refresh failed", "error", err)
			}
		}()
	}
	return nil
}

// needsRefresh reports whether any configured URL lacks fresh data.
func (m *Manager) needsRefresh(st Settings) bool {
	for _, kind := range []Kind{KindGenre, KindMetaTag, KindTechnique} {
		for _, url := range st.KindPages(kind) {
			if !m.store.IsFresh(url, st.RefreshTTL) {
				return true
			}
		}
	}
	return false
}

// CurrentSnapshot returns the published snapshot. A caller that keeps the
// returned pointer for a whole request sees one consistent view even while a
// refresh publishes a replacement.
func (m *Manager) CurrentSnapshot() *Snapshot {
	return m.snapshot.Load()
}

// GetGenres serves genres from the snapshot, falling back to the hardcoded
// table when the cache is empty and fallbacks are enabled.
func (m *Manager) GetGenres() []Genre {
	st := m.settings()
	snap := m.snapshot.Load()
	if (!st.Enabled || len(snap.Genres) == 0) && st.FallbackToHardcoded {
		return FallbackGenres()
	}
	if !st.Enabled {
		return nil
	}
	return snap.Genres
}

// GetMetaTags serves meta tags, optionally filtered by category.
func (m *Manager) GetMetaTags(category string) []MetaTag {
	st := m.settings()
	snap := m.snapshot.Load()
	tags := snap.MetaTags
	if (!st.Enabled || len(tags) == 0) && st.FallbackToHardcoded {
		tags = FallbackMetaTags()
	} else if !st.Enabled {
		return nil
	}
	if category == "" {
		return tags
	}
	var out []MetaTag
	for _, t := range tags {
		if t.Category == category {
			out = append(out, t)
		}
	}
	return out
}

// GetTechniques serves techniques, optionally filtered by technique type.
func (m *Manager) GetTechniques(techniqueType string) []Technique {
	st := m.settings()
	snap := m.snapshot.Load()
	techniques := snap.Techniques
	if (!st.Enabled || len(techniques) == 0) && st.FallbackToHardcoded {
		techniques = FallbackTechniques()
	} else if !st.Enabled {
		return nil
	}
	if techniqueType == "" {
		return techniques
	}
	var out []Technique
	for _, t := range techniques {
		if t.TechniqueType == techniqueType {
			out = append(out, t)
		}
	}
	return out
}

// SourceURLsFor returns the pages the current snapshot's records of a kind
// derived from, for attribution.
func (m *Manager) SourceURLsFor(kind Kind) []string {
	snap := m.snapshot.Load()
	urls := snap.SourceURLs[kind]
	if len(urls) == 0 {
		st := m.settings()
		if st.FallbackToHardcoded {
			return []string{FallbackSourceURL}
		}
	}
	return urls
}

// Refresh fetches stale or missing configured pages, reparses them, and
// publishes a new snapshot. It is re-entrant-safe: a concurrent call joins
// the in-flight refresh and receives its result.
func (m *Manager) Refresh(ctx context.Context, force bool) (*RefreshResult, error) {
	m.mu.Lock()
	if m.inflight != nil {
		call := m.inflight
		m.mu.Unlock()
		select {
		case <-call.done:
			return call.result, call.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	m.inflight = call
	m.mu.Unlock()

	result, err := m.refresh(ctx, force)
	call.result, call.err = result, err
	close(call.done)

	m.mu.Lock()
	m.inflight = nil
	m.mu.Unlock()
	return result, err
}

func (m *Manager) refresh(ctx context.Context, force bool) (*RefreshResult, error) {
	st := m.settings()
	if !st.Enabled {
		return nil, fmt.Errorf("wiki subsystem is disabled")
	}

	fetcher := NewFetcher(m.store, st.Fetch, m.logger)
	result := &RefreshResult{}

	for _, kind := range []Kind{KindGenre, KindMetaTag, KindTechnique} {
		for _, url := range st.KindPages(kind) {
			if ctx.Err() != nil {
				return result, ctx.Err()
			}
			freshness := fetcher.Classify(url, st.RefreshTTL)
			if freshness == Fresh && !force {
				result.Skipped++
				continue
			}

			fr, err := fetcher.Fetch(ctx, url, string(kind))
			if err != nil {
				result.Failed++
				result.Errors = append(result.Errors, RefreshError{
					URL:     url,
					Kind:    "refresh_failed",
					Message: err.Error(),
				})
				continue
			}
			if fr.NotModified {
				result.Skipped++
				continue
			}

			if err := m.parseAndStore(kind, url, fr); err != nil {
				result.Failed++
				result.Errors = append(result.Errors, RefreshError{
					URL:     url,
					Kind:    "parse_failure",
					Message: err.Error(),
				})
				continue
			}
			result.Downloaded++
		}
	}

	// No needless rewrites: when nothing new was downloaded the published
	// snapshot pointer stays the same.
	if result.Downloaded > 0 {
		snap := m.buildSnapshot(st)
		m.snapshot.Store(snap)
		m.logger.Info("wiki snapshot published",
			"genres", len(snap.Genres),
			"meta_tags", len(snap.MetaTags),
			"techniques", len(snap.Techniques),
			"downloaded", result.Downloaded,
			"failed", result.Failed,
		)
	}
	return result, nil
}

// parseAndStore runs the kind's parser over fetched bytes and persists the
// records. A page that yields zero records is recorded as a parse failure
// for the refresh result but keeps its previous parsed data.
func (m *Manager) parseAndStore(kind Kind, url string, fr *FetchResult) error {
	switch kind {
	case KindGenre:
		records, stats := ParseGenres(fr.Body, url, fr.FetchedAt)
		if len(records) == 0 {
			return fmt.Errorf("no genre records extracted (%d sections, %d skipped)", stats.Sections, stats.Skipped)
		}
		return m.store.WriteParsed(kind, url, records)
	case KindMetaTag:
		records, stats := ParseMetaTags(fr.Body, url, fr.FetchedAt)
		if len(records) == 0 {
			return fmt.Errorf("no meta tag records extracted (%d sections, %d skipped)", stats.Sections, stats.Skipped)
		}
		return m.store.WriteParsed(kind, url, records)
	case KindTechnique:
		records, stats := ParseTechniques(fr.Body, url, fr.FetchedAt)
		if len(records) == 0 {
			return fmt.Errorf("no technique records extracted (%d sections, %d skipped)", stats.Sections, stats.Skipped)
		}
		return m.store.WriteParsed(kind, url, records)
	}
	return fmt.Errorf("unknown kind %q", kind)
}

// buildSnapshot assembles an immutable snapshot from the parsed cache,
// iterating configured URLs in order so output ordering is deterministic for
// a fixed cache state.
func (m *Manager) buildSnapshot(st Settings) *Snapshot {
	snap := &Snapshot{
		SourceURLs: make(map[Kind][]string),
		BuiltAt:    time.Now().UTC(),
	}

	for _, url := range st.GenrePages {
		var records []Genre
		if err := m.store.ReadParsed(KindGenre, url, &records); err != nil {
			continue
		}
		snap.Genres = append(snap.Genres, records...)
		snap.SourceURLs[KindGenre] = appendUnique(snap.SourceURLs[KindGenre], url)
	}
	for _, url := range st.MetaTagPages {
		var records []MetaTag
		if err := m.store.ReadParsed(KindMetaTag, url, &records); err != nil {
			continue
		}
		snap.MetaTags = append(snap.MetaTags, records...)
		snap.SourceURLs[KindMetaTag] = appendUnique(snap.SourceURLs[KindMetaTag], url)
	}
	for _, url := range st.TipPages {
		var records []Technique
		if err := m.store.ReadParsed(KindTechnique, url, &records); err != nil {
			continue
		}
		snap.Techniques = append(snap.Techniques, records...)
		snap.SourceURLs[KindTechnique] = appendUnique(snap.SourceURLs[KindTechnique], url)
	}
	return snap
}

// Status reports per-URL freshness and failure state for operational tools.
func (m *Manager) Status() map[string]any {
	st := m.settings()
	snap := m.snapshot.Load()

	pages := make([]map[string]any, 0)
	for _, kind := range []Kind{KindGenre, KindMetaTag, KindTechnique} {
		for _, url := range st.KindPages(kind) {
			entry := map[string]any{
				"url":   url,
				"kind":  string(kind),
				"fresh": m.store.IsFresh(url, st.RefreshTTL),
			}
			if meta, err := m.store.Meta(url); err == nil {
				entry["fetched_at"] = meta.FetchedAt
				entry["last_status"] = meta.LastStatus
				if meta.LastError != "" {
					entry["last_error"] = meta.LastError
				}
			} else {
				entry["cached"] = false
			}
			pages = append(pages, entry)
		}
	}

	return map[string]any{
		"enabled":     st.Enabled,
		"fallbacks":   st.FallbackToHardcoded,
		"snapshot_at": snap.BuiltAt,
		"genres":      len(snap.Genres),
		"meta_tags":   len(snap.MetaTags),
		"techniques":  len(snap.Techniques),
		"pages":       pages,
	}
}

// ScheduledRefresh adapts the manager to the scheduler's Job interface.
type ScheduledRefresh struct {
	Manager *Manager
}

func (j *ScheduledRefresh) Name() string { return "wiki-refresh" }

func (j *ScheduledRefresh) Run(ctx context.Context) error {
	result, err := j.Manager.Refresh(ctx, false)
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		j.Manager.logger.Warn("scheduled refresh completed with failures",
			"downloaded", result.Downloaded, "failed", result.Failed)
	}
	return nil
}

func appendUnique(ss []string, s string) []string {
	for _, existing := range ss {
		if existing == s {
			return ss
		}
	}
	return append(ss, s)
}
