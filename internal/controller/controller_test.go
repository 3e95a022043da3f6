package controller

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/dgnsrekt/pagegate/internal/action"
	"github.com/dgnsrekt/pagegate/internal/authz"
	"github.com/dgnsrekt/pagegate/internal/cdp"
	"github.com/dgnsrekt/pagegate/internal/relay"
	"github.com/dgnsrekt/pagegate/internal/storage"
	"github.com/dgnsrekt/pagegate/internal/syncchan"
)

// memRules is an in-memory authz.Persister.
type memRules struct {
	mu    sync.Mutex
	state *authz.State
}

func (m *memRules) Load() (*authz.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, nil
}

func (m *memRules) Save(st *authz.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = st
	return nil
}

type reloadCall struct {
	tabID       string
	ignoreCache bool
}

// fakeBrowser records cookie and reload traffic. The jar is keyed by the
// URL the cookie was scoped to.
type fakeBrowser struct {
	mu        sync.Mutex
	urls      map[string]string
	jar       map[string]string
	reloads   []reloadCall
	reloadErr error
	onCookie  func()
}

func newFakeBrowser() *fakeBrowser {
	return &fakeBrowser{
		urls: make(map[string]string),
		jar:  make(map[string]string),
	}
}

func (b *fakeBrowser) TabURL(ctx context.Context, tabID string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	url, ok := b.urls[tabID]
	if !ok {
		return "", &cdp.CodedError{Code: cdp.CodeTabNotFound, Message: "tab " + tabID + " not attached"}
	}
	return url, nil
}

func (b *fakeBrowser) SetCookie(ctx context.Context, tabID, name, value, rawURL string) error {
	b.mu.Lock()
	b.jar[rawURL] = value
	hook := b.onCookie
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (b *fakeBrowser) ClearCookie(ctx context.Context, tabID, name, rawURL string) error {
	b.mu.Lock()
	delete(b.jar, rawURL)
	hook := b.onCookie
	b.mu.Unlock()
	if hook != nil {
		hook()
	}
	return nil
}

func (b *fakeBrowser) Reload(ctx context.Context, tabID string, ignoreCache bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.reloadErr != nil {
		return b.reloadErr
	}
	b.reloads = append(b.reloads, reloadCall{tabID: tabID, ignoreCache: ignoreCache})
	return nil
}

func (b *fakeBrowser) cookie(url string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.jar[url]
	return v, ok
}

func (b *fakeBrowser) reloadCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.reloads)
}

// tabSurface keeps the last affordance state applied per tab.
type tabSurface struct {
	mu    sync.Mutex
	state map[string]action.State
}

func newTabSurface() *tabSurface {
	return &tabSurface{state: make(map[string]action.State)}
}

func (s *tabSurface) SetTitle(tabID, title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state[tabID]
	st.Title = title
	s.state[tabID] = st
}

func (s *tabSurface) SetIcon(tabID, iconPath string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state[tabID]
	st.Icon = iconPath
	s.state[tabID] = st
}

func (s *tabSurface) Show(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state[tabID]
	st.Visible = true
	s.state[tabID] = st
}

func (s *tabSurface) Hide(tabID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state[tabID]
	st.Visible = false
	s.state[tabID] = st
}

func (s *tabSurface) get(tabID string) (action.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state[tabID]
	return st, ok
}

func newTestController(t *testing.T) (*Controller, *fakeBrowser, *tabSurface) {
	t.Helper()
	store, err := authz.Open(&memRules{})
	if err != nil {
		t.Fatalf("Open() = %v; want nil", err)
	}
	browser := newFakeBrowser()
	surface := newTabSurface()
	audit := storage.NewAuditLog(t.TempDir(), 64, 5)
	t.Cleanup(func() { audit.Close() })
	c := New(store, syncchan.NewRegistry(), browser, surface, relay.NewBroker(), audit)
	return c, browser, surface
}

// seedTab registers a tab and runs one pipeline pass synchronously.
func seedTab(t *testing.T, c *Controller, tabID, url string) *tabState {
	t.Helper()
	tab := c.ensureTab(tabID)
	seq := tab.seq.Add(1)
	c.runPipeline(context.Background(), tab, seq, url, triggerSeen)
	return tab
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestPipelineUnclassifiedPage(t *testing.T) {
	c, browser, surface := newTestController(t)
	seedTab(t, c, "tab-1", "https://example.com/page#frag")

	tabs := c.Tabs()
	if len(tabs) != 1 {
		t.Fatalf("Tabs() len = %d; want 1", len(tabs))
	}
	if tabs[0].Canonical != "https://example.com/page" {
		t.Fatalf("canonical = %q; want %q", tabs[0].Canonical, "https://example.com/page")
	}
	if tabs[0].Status != authz.StatusNone {
		t.Fatalf("status = %q; want %q", tabs[0].Status, authz.StatusNone)
	}

	st, ok := surface.get("tab-1")
	if !ok {
		t.Fatalf("surface never touched for tab-1")
	}
	if st.Title != "Enable on this page" || st.Icon != action.IconNeutral || !st.Visible {
		t.Fatalf("surface state = %+v; want enable title, neutral icon, visible", st)
	}
	if _, ok := browser.cookie("https://example.com/page"); ok {
		t.Fatalf("cookie present for unclassified page")
	}
}

func TestPipelineWhitelistedPublishesHandle(t *testing.T) {
	c, browser, surface := newTestController(t)
	canonical := "https://example.com/app"
	if _, err := c.store.Toggle(canonical); err != nil {
		t.Fatalf("Toggle() = %v; want nil", err)
	}

	seedTab(t, c, "tab-1", canonical)

	handle, ok := browser.cookie(canonical)
	if !ok || handle == "" {
		t.Fatalf("cookie missing for whitelisted page")
	}
	blob, ok := c.SyncLookup(handle)
	if !ok {
		t.Fatalf("SyncLookup(%q) missed", handle)
	}
	var env syncchan.Envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		t.Fatalf("Unmarshal() = %v; want nil", err)
	}
	if env.URL != canonical || env.TabID != "tab-1" {
		t.Fatalf("envelope = %+v; want url %q tab %q", env, canonical, "tab-1")
	}

	st, _ := surface.get("tab-1")
	if st.Title != "Disable on this page" || st.Icon != action.IconEnabled {
		t.Fatalf("surface state = %+v; want disable title, enabled icon", st)
	}
}

func TestPipelineIgnoredScheme(t *testing.T) {
	c, browser, surface := newTestController(t)
	seedTab(t, c, "tab-1", "chrome://extensions")

	if _, ok := surface.get("tab-1"); ok {
		t.Fatalf("surface touched for ignored scheme")
	}
	browser.mu.Lock()
	jarLen := len(browser.jar)
	browser.mu.Unlock()
	if jarLen != 0 {
		t.Fatalf("jar len = %d; want 0", jarLen)
	}

	tabs := c.Tabs()
	if tabs[0].URL != "chrome://extensions" || tabs[0].Canonical != "" {
		t.Fatalf("tab context = %+v; want raw url recorded, empty canonical", tabs[0])
	}
}

func TestStaleRunRejectedAtEntry(t *testing.T) {
	c, browser, _ := newTestController(t)
	urlA := "https://old.example.com/a"
	urlB := "https://new.example.com/b"
	for _, u := range []string{urlA, urlB} {
		if _, err := c.store.Toggle(u); err != nil {
			t.Fatalf("Toggle(%q) = %v; want nil", u, err)
		}
	}

	tab := c.ensureTab("tab-1")
	seqA := tab.seq.Add(1)
	seqB := tab.seq.Add(1)

	// B completes first, A resumes late and must abandon.
	c.runPipeline(context.Background(), tab, seqB, urlB, triggerNavigated)
	c.runPipeline(context.Background(), tab, seqA, urlA, triggerNavigated)

	tabs := c.Tabs()
	if tabs[0].Canonical != urlB {
		t.Fatalf("canonical = %q; want %q", tabs[0].Canonical, urlB)
	}
	if _, ok := browser.cookie(urlA); ok {
		t.Fatalf("stale run published a cookie for %q", urlA)
	}
	if _, ok := browser.cookie(urlB); !ok {
		t.Fatalf("cookie missing for %q", urlB)
	}
}

func TestStaleRunRejectedAfterSync(t *testing.T) {
	c, browser, _ := newTestController(t)
	url := "https://example.com/slow"
	if _, err := c.store.Toggle(url); err != nil {
		t.Fatalf("Toggle() = %v; want nil", err)
	}

	tab := c.ensureTab("tab-1")
	seq := tab.seq.Add(1)
	// A navigation lands while the cookie write is in flight.
	browser.onCookie = func() { tab.seq.Add(1) }
	c.runPipeline(context.Background(), tab, seq, url, triggerSeen)

	tabs := c.Tabs()
	if tabs[0].URL != "" || tabs[0].Canonical != "" {
		t.Fatalf("superseded run recorded context %+v; want empty", tabs[0])
	}
	if tabs[0].Seq != 2 {
		t.Fatalf("seq = %d; want 2", tabs[0].Seq)
	}
}

func TestTabSeenSettlesAsync(t *testing.T) {
	c, _, _ := newTestController(t)
	c.TabSeen("tab-1", "https://example.com/async")

	waitFor(t, "pipeline settle", func() bool {
		tabs := c.Tabs()
		return len(tabs) == 1 && tabs[0].Canonical == "https://example.com/async"
	})
}

func TestTabClosedEvictsContext(t *testing.T) {
	c, _, surface := newTestController(t)
	seedTab(t, c, "tab-1", "https://example.com/page")

	c.TabClosed("tab-1")

	if got := len(c.Tabs()); got != 0 {
		t.Fatalf("Tabs() len = %d; want 0", got)
	}
	st, _ := surface.get("tab-1")
	if st.Visible {
		t.Fatalf("affordance still visible after close")
	}

	// Closing an unknown tab is a no-op.
	c.TabClosed("ghost")
}

func assertCoherent(t *testing.T, c *Controller, browser *fakeBrowser, urls ...string) {
	t.Helper()
	for _, u := range urls {
		_, present := browser.cookie(u)
		want := c.store.Resolve(u) == authz.StatusWhitelisted
		if present != want {
			t.Fatalf("coherence broken for %q: cookie=%v, whitelisted=%v", u, present, want)
		}
	}
}

func TestStatusCookieCoherence(t *testing.T) {
	c, browser, _ := newTestController(t)
	ctx := context.Background()
	u1 := "https://one.test/a"
	u2 := "https://two.test/b"

	browser.urls["tab-1"] = u1
	browser.urls["tab-2"] = u2
	seedTab(t, c, "tab-1", u1)
	seedTab(t, c, "tab-2", u2)
	assertCoherent(t, c, browser, u1, u2)

	steps := []struct {
		tab  string
		want authz.Status
	}{
		{"tab-1", authz.StatusWhitelisted},
		{"tab-2", authz.StatusWhitelisted},
		{"tab-2", authz.StatusBlacklisted},
		{"tab-1", authz.StatusBlacklisted},
		{"tab-1", authz.StatusWhitelisted},
	}
	for i, step := range steps {
		got, err := c.ToggleTab(ctx, step.tab)
		if err != nil {
			t.Fatalf("step %d: ToggleTab() = %v; want nil", i, err)
		}
		if got != step.want {
			t.Fatalf("step %d: status = %q; want %q", i, got, step.want)
		}
		assertCoherent(t, c, browser, u1, u2)
	}
}
