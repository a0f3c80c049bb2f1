// Package config implements the dynamic configuration surface. The config
// file is a single JSON document with a fixed field set; unknown fields are
// rejected and invalid updates leave the prior config intact.
package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/versebound/musemcp/internal/wiki"
)

// Config is the recognized option set. Every field's effect is documented in
// the field comment; there are no hidden options.
type Config struct {
	// SchemaVersion is optional; absence means the current version.
	SchemaVersion string `json:"schema_version,omitempty"`

	// Enabled gates the whole wiki subsystem. When false the knowledge
	// manager serves only fallbacks and the fetcher never runs.
	Enabled bool `json:"enabled"`

	// StoragePath is the cache store root.
	StoragePath string `json:"storage_path"`

	// RefreshIntervalHours is the default TTL for fetched pages.
	RefreshIntervalHours int `json:"refresh_interval_hours"`

	// FallbackToHardcoded controls whether an empty cache serves the
	// built-in tables. When false, empty cache means empty results.
	FallbackToHardcoded bool `json:"fallback_to_hardcoded"`

	// Page lists per parser kind.
	GenrePages   []string `json:"genre_pages"`
	MetatagPages []string `json:"metatag_pages"`
	TipPages     []string `json:"tip_pages"`

	// Fetcher tuning, in seconds (timeout, delay) and attempts (retries).
	RequestTimeout int `json:"request_timeout"`
	MaxRetries     int `json:"max_retries"`
	RetryDelay     int `json:"retry_delay"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Enabled:              true,
		StoragePath:          "./data/wiki",
		RefreshIntervalHours: 24,
		FallbackToHardcoded:  true,
		GenrePages: []string{
			"https://sunoaiwiki.com/resources/2024-05-03-list-of-music-genres-and-styles/",
		},
		MetatagPages: []string{
			"https://sunoaiwiki.com/resources/2024-05-13-list-of-metatags/",
		},
		TipPages: []string{
			"https://sunoaiwiki.com/tips/2024-05-04-how-to-structure-prompts/",
		},
		RequestTimeout: 30,
		MaxRetries:     3,
		RetryDelay:     1,
	}
}

// Validate checks field bounds and URL well-formedness.
func (c *Config) Validate() error {
	if c.StoragePath == "" {
		return fmt.Errorf("storage_path must not be empty")
	}
	if c.RefreshIntervalHours < 1 || c.RefreshIntervalHours > 24*30 {
		return fmt.Errorf("refresh_interval_hours must be between 1 and %d, got %d", 24*30, c.RefreshIntervalHours)
	}
	if c.RequestTimeout < 1 || c.RequestTimeout > 300 {
		return fmt.Errorf("request_timeout must be between 1 and 300 seconds, got %d", c.RequestTimeout)
	}
	if c.MaxRetries < 0 || c.MaxRetries > 10 {
		return fmt.Errorf("max_retries must be between 0 and 10, got %d", c.MaxRetries)
	}
	if c.RetryDelay < 0 || c.RetryDelay > 60 {
		return fmt.Errorf("retry_delay must be between 0 and 60 seconds, got %d", c.RetryDelay)
	}
	for _, list := range [][]string{c.GenrePages, c.MetatagPages, c.TipPages} {
		for _, page := range list {
			if err := validateURL(page); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return nil
}

// WikiSettings projects the config into the knowledge manager's view.
func (c *Config) WikiSettings() wiki.Settings {
	return wiki.Settings{
		Enabled:             c.Enabled,
		FallbackToHardcoded: c.FallbackToHardcoded,
		RefreshTTL:          time.Duration(c.RefreshIntervalHours) * time.Hour,
		GenrePages:          append([]string(nil), c.GenrePages...),
		MetaTagPages:        append([]string(nil), c.MetatagPages...),
		TipPages:            append([]string(nil), c.TipPages...),
		Fetch: wiki.FetchOptions{
			Timeout:    time.Duration(c.RequestTimeout) * time.Second,
			MaxRetries: c.MaxRetries,
			RetryDelay: time.Duration(c.RetryDelay) * time.Second,
		},
	}
}

// ChangeEvent notifies subscribers that the config was replaced.
type ChangeEvent struct {
	Previous Config
	Current  Config
}

// Manager holds the live configuration and serializes updates. Reads return
// copies; writers validate a candidate before swapping it in.
type Manager struct {
	mu          sync.RWMutex
	path        string
	current     Config
	subscribers []chan ChangeEvent
}

// Load reads the config file at path. A missing file yields defaults; a
// present file must parse strictly (unknown fields rejected) and validate.
func Load(path string) (*Manager, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// Missing file: run on defaults, Save can materialize it later.
		case err != nil:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		default:
			parsed, perr := parseStrict(data)
			if perr != nil {
				return nil, fmt.Errorf("parsing config file %s: %w", path, perr)
			}
			cfg = parsed
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return &Manager{path: path, current: cfg}, nil
}

// parseStrict decodes a full config document, rejecting unknown fields.
// Fields absent from the document keep their defaults.
func parseStrict(data []byte) (Config, error) {
	cfg := Default()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Current returns a copy of the live config.
func (m *Manager) Current() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.clone()
}

func (c Config) clone() Config {
	out := c
	out.GenrePages = append([]string(nil), c.GenrePages...)
	out.MetatagPages = append([]string(nil), c.MetatagPages...)
	out.TipPages = append([]string(nil), c.TipPages...)
	return out
}

// Path returns the config file path (empty when running on defaults only).
func (m *Manager) Path() string { return m.path }

// Save writes the live config to its file atomically.
func (m *Manager) Save() error {
	m.mu.RLock()
	cfg := m.current.clone()
	path := m.path
	m.mu.RUnlock()

	if path == "" {
		return fmt.Errorf("no config file path to save to")
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".config-*")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("writing config: %w", err)
	}
	return os.Rename(tmpName, path)
}

// Update applies a partial mapping of config keys. Unknown keys are rejected,
// the merged candidate is validated, and only on success does the live config
// change. Subscribers are notified after the swap.
func (m *Manager) Update(partial map[string]any, validate bool) error {
	m.mu.Lock()
	prev := m.current.clone()

	merged, err := mergePartial(prev, partial)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if validate {
		if err := merged.Validate(); err != nil {
			m.mu.Unlock()
			return err
		}
	}
	m.current = merged
	subs := append([]chan ChangeEvent(nil), m.subscribers...)
	m.mu.Unlock()

	notify(subs, ChangeEvent{Previous: prev, Current: merged.clone()})
	return nil
}

// mergePartial overlays partial keys on a base config via strict JSON
// round-trip so type mismatches and unknown keys fail loudly.
func mergePartial(base Config, partial map[string]any) (Config, error) {
	baseJSON, err := json.Marshal(base)
	if err != nil {
		return Config{}, fmt.Errorf("encoding config: %w", err)
	}
	var asMap map[string]any
	if err := json.Unmarshal(baseJSON, &asMap); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	for k, v := range partial {
		asMap[k] = v
	}
	mergedJSON, err := json.Marshal(asMap)
	if err != nil {
		return Config{}, fmt.Errorf("encoding merged config: %w", err)
	}
	merged, err := parseStrict(mergedJSON)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config update: %w", err)
	}
	return merged, nil
}

// AddURLs appends URLs to the page list for a kind, skipping duplicates.
func (m *Manager) AddURLs(kind wiki.Kind, urls []string) error {
	for _, u := range urls {
		if err := validateURL(u); err != nil {
			return err
		}
	}
	return m.mutatePages(kind, func(pages []string) []string {
		for _, u := range urls {
			exists := false
			for _, p := range pages {
				if p == u {
					exists = true
					break
				}
			}
			if !exists {
				pages = append(pages, u)
			}
		}
		return pages
	})
}

// RemoveURLs removes URLs from the page list for a kind.
func (m *Manager) RemoveURLs(kind wiki.Kind, urls []string) error {
	drop := make(map[string]bool, len(urls))
	for _, u := range urls {
		drop[u] = true
	}
	return m.mutatePages(kind, func(pages []string) []string {
		out := pages[:0]
		for _, p := range pages {
			if !drop[p] {
				out = append(out, p)
			}
		}
		return out
	})
}

func (m *Manager) mutatePages(kind wiki.Kind, fn func([]string) []string) error {
	m.mu.Lock()
	prev := m.current.clone()
	next := prev.clone()
	switch kind {
	case wiki.KindGenre:
		next.GenrePages = fn(next.GenrePages)
	case wiki.KindMetaTag:
		next.MetatagPages = fn(next.MetatagPages)
	case wiki.KindTechnique:
		next.TipPages = fn(next.TipPages)
	default:
		m.mu.Unlock()
		return fmt.Errorf("unknown page kind %q", kind)
	}
	m.current = next
	subs := append([]chan ChangeEvent(nil), m.subscribers...)
	m.mu.Unlock()

	notify(subs, ChangeEvent{Previous: prev, Current: next.clone()})
	return nil
}

// Subscribe returns a channel that receives a ChangeEvent after every
// successful config swap. Subscribers decide for themselves whether a change
// warrants a refresh.
func (m *Manager) Subscribe() <-chan ChangeEvent {
	ch := make(chan ChangeEvent, 4)
	m.mu.Lock()
	m.subscribers = append(m.subscribers, ch)
	m.mu.Unlock()
	return ch
}

// notify delivers without blocking; a slow subscriber drops events rather
// than stalling updates.
func notify(subs []chan ChangeEvent, ev ChangeEvent) {
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// replaceFromFile reloads the config file and swaps it in when valid. Used
// by the file watcher.
func (m *Manager) replaceFromFile() error {
	m.mu.RLock()
	path := m.path
	m.mu.RUnlock()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	parsed, err := parseStrict(data)
	if err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	if err := parsed.Validate(); err != nil {
		return fmt.Errorf("validating config file: %w", err)
	}

	m.mu.Lock()
	prev := m.current.clone()
	m.current = parsed
	subs := append([]chan ChangeEvent(nil), m.subscribers...)
	m.mu.Unlock()

	notify(subs, ChangeEvent{Previous: prev, Current: parsed.clone()})
	return nil
}
