// Package authz holds the per-page authorization state: a tri-state status
// and an opaque configuration payload per canonical URL, plus the global
// feature settings. The store is loaded once at startup and persisted on
// every mutation.
package authz

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dgnsrekt/pagegate/internal/urlkey"
)

// PageConfig is the opaque payload handed to an authorized page's agent.
type PageConfig = map[string]any

// Rule is the stored classification for one canonical URL.
type Rule struct {
	Status Status     `json:"status"`
	Config PageConfig `json:"config,omitempty"`
}

// Settings are the global feature toggles.
type Settings struct {
	ShowAction      bool `json:"show_action"`
	ShowContextMenu bool `json:"show_context_menu"`
}

// State is the full persisted document.
type State struct {
	Rules    map[string]Rule `json:"rules"`
	Settings Settings        `json:"settings"`
}

// Page is one classified entry for listing surfaces.
type Page struct {
	URL       string
	Status    Status
	HasConfig bool
}

func defaultSettings() Settings {
	return Settings{ShowAction: true, ShowContextMenu: true}
}

// Store maps canonical URLs to rules. All mutations are read-modify-persist
// under one lock, so concurrent toggles for the same URL cannot lose
// updates. Keys are canonical URLs produced by urlkey.Canonicalize; callers
// canonicalize before calling in.
type Store struct {
	mu       sync.RWMutex
	rules    map[string]Rule
	settings Settings
	persist  Persister
}

// Open loads persisted state through p, starting from fresh defaults when
// nothing has been stored yet.
func Open(p Persister) (*Store, error) {
	s := &Store{
		rules:    make(map[string]Rule),
		settings: defaultSettings(),
		persist:  p,
	}
	st, err := p.Load()
	if err != nil {
		return nil, err
	}
	if st != nil {
		if st.Rules != nil {
			s.rules = st.Rules
		}
		s.settings = st.Settings
	}
	return s, nil
}

// Resolve returns the page's status, StatusNone when it was never
// classified. Pure read.
func (s *Store) Resolve(url string) Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if r, ok := s.rules[url]; ok && r.Status != "" {
		return r.Status
	}
	return StatusNone
}

// Toggle advances the page's status (none and blacklisted go to
// whitelisted, whitelisted goes to blacklisted) and persists before
// returning. On a persist failure the in-memory transition stands and the
// error is returned alongside the new status.
func (s *Store) Toggle(url string) (Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule := s.rules[url]
	rule.Status = nextStatus(rule.Status)
	s.rules[url] = rule
	return rule.Status, s.saveLocked()
}

// Config returns a copy of the page's stored configuration, empty when it
// has none.
func (s *Store) Config(url string) PageConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.rules[url].Config
	cfg := make(PageConfig, len(stored))
	for k, v := range stored {
		cfg[k] = v
	}
	return cfg
}

// SetConfig stores cfg as the page's configuration, leaving its status
// untouched, and persists.
func (s *Store) SetConfig(url string, cfg PageConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule := s.rules[url]
	if rule.Status == "" {
		rule.Status = StatusNone
	}
	rule.Config = cfg
	s.rules[url] = rule
	return s.saveLocked()
}

// Settings returns the global feature toggles.
func (s *Store) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// UpdateSettings replaces the global feature toggles and persists.
func (s *Store) UpdateSettings(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = st
	return s.saveLocked()
}

// Pages returns every classified page sorted by URL.
func (s *Store) Pages() []Page {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pages := make([]Page, 0, len(s.rules))
	for url, r := range s.rules {
		status := r.Status
		if status == "" {
			status = StatusNone
		}
		pages = append(pages, Page{URL: url, Status: status, HasConfig: len(r.Config) > 0})
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].URL < pages[j].URL })
	return pages
}

// ApplySeed classifies seed pages that have no persisted rule yet; existing
// rules always win. Seed URLs are raw and are canonicalized here; an
// ineligible URL is an operator mistake and fails the whole load. Returns
// how many entries were applied.
func (s *Store) ApplySeed(cfg *SeedConfig) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	applied := 0
	for i, p := range cfg.Pages {
		key, ok := urlkey.Canonicalize(p.URL)
		if !ok {
			return applied, fmt.Errorf("seed config: page[%d] (%s) is not an eligible url", i, p.URL)
		}
		if _, exists := s.rules[key]; exists {
			continue
		}
		s.rules[key] = Rule{Status: p.Status}
		applied++
	}
	if applied == 0 {
		return 0, nil
	}
	return applied, s.saveLocked()
}

func (s *Store) saveLocked() error {
	st := State{Rules: make(map[string]Rule, len(s.rules)), Settings: s.settings}
	for k, v := range s.rules {
		st.Rules[k] = v
	}
	return s.persist.Save(&st)
}
