// Package controller serializes browser events into gating decisions. It
// owns the per-tab contexts and drives the pipeline for every tab the
// browser reports: canonicalize the URL, resolve its status, reflect the
// affordance, then publish or retract the sync handle.
package controller

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgnsrekt/pagegate/internal/action"
	"github.com/dgnsrekt/pagegate/internal/authz"
	"github.com/dgnsrekt/pagegate/internal/cdp"
	"github.com/dgnsrekt/pagegate/internal/relay"
	"github.com/dgnsrekt/pagegate/internal/storage"
	"github.com/dgnsrekt/pagegate/internal/syncchan"
	"github.com/dgnsrekt/pagegate/internal/urlkey"
)

// Browser is the slice of the CDP bridge the controller drives.
type Browser interface {
	TabURL(ctx context.Context, tabID string) (string, error)
	SetCookie(ctx context.Context, tabID, name, value, rawURL string) error
	ClearCookie(ctx context.Context, tabID, name, rawURL string) error
	Reload(ctx context.Context, tabID string, ignoreCache bool) error
}

var _ Browser = (*cdp.Client)(nil)

// Audit trigger labels, one per pipeline entry point.
const (
	triggerSeen         = "seen"
	triggerNavigated    = "navigated"
	triggerActivated    = "activated"
	triggerToggle       = "toggle"
	triggerAgentReload  = "agent_reload"
	triggerSaveSettings = "save_settings"
)

// TabContext is the externally visible snapshot of one tracked tab.
type TabContext struct {
	TabID     string       `json:"tab_id"`
	URL       string       `json:"url,omitempty"`
	Canonical string       `json:"canonical,omitempty"`
	Status    authz.Status `json:"status,omitempty"`
	Seq       uint64       `json:"seq"`
}

// tabState is the mutable per-tab record. seq orders events for the tab
// and is bumped inline when an event arrives; runMu serializes pipeline
// bodies; the snapshot fields are guarded by the controller mutex and
// only written by a run that is still current.
type tabState struct {
	id    string
	seq   atomic.Uint64
	runMu sync.Mutex

	url       string
	canonical string
	status    authz.Status
}

// Controller applies browser events, operator commands and agent commands
// to the authorization store, the tab affordances and the sync channel.
type Controller struct {
	store   *authz.Store
	handles *syncchan.Registry
	browser Browser
	surface action.Surface
	broker  *relay.Broker
	audit   *storage.AuditLog

	mu   sync.RWMutex
	tabs map[string]*tabState
}

var _ cdp.EventSink = (*Controller)(nil)

func New(store *authz.Store, handles *syncchan.Registry, browser Browser, surface action.Surface, broker *relay.Broker, audit *storage.AuditLog) *Controller {
	return &Controller{
		store:   store,
		handles: handles,
		browser: browser,
		surface: surface,
		broker:  broker,
		audit:   audit,
		tabs:    make(map[string]*tabState),
	}
}

func (c *Controller) ensureTab(tabID string) *tabState {
	c.mu.Lock()
	defer c.mu.Unlock()
	tab, ok := c.tabs[tabID]
	if !ok {
		tab = &tabState{id: tabID}
		c.tabs[tabID] = tab
	}
	return tab
}

func (c *Controller) tab(tabID string) (*tabState, error) {
	c.mu.RLock()
	tab, ok := c.tabs[tabID]
	c.mu.RUnlock()
	if !ok {
		return nil, &cdp.CodedError{Code: cdp.CodeTabNotFound, Message: fmt.Sprintf("tab %s is not tracked", cdp.ShortTabID(tabID))}
	}
	return tab, nil
}

// tabURL returns the tab's last settled URL, falling back to a live CDP
// query when no pipeline has settled for it yet.
func (c *Controller) tabURL(ctx context.Context, tab *tabState) (string, error) {
	c.mu.RLock()
	url := tab.url
	c.mu.RUnlock()
	if url != "" {
		return url, nil
	}
	return c.browser.TabURL(ctx, tab.id)
}

// TabSeen starts tracking a target and runs the pipeline for it. Called on
// a CDP event goroutine; the pipeline runs detached.
func (c *Controller) TabSeen(tabID, url string) {
	tab := c.ensureTab(tabID)
	seq := tab.seq.Add(1)
	c.broker.Publish(relay.NewEvent(relay.FeedTabs, relay.TabLifecycle{Event: "seen", TabID: tabID, URL: url}))
	go c.runPipeline(context.Background(), tab, seq, url, triggerSeen)
}

// TabNavigated runs the pipeline for a main-frame navigation.
func (c *Controller) TabNavigated(tabID, url string) {
	tab := c.ensureTab(tabID)
	seq := tab.seq.Add(1)
	c.broker.Publish(relay.NewEvent(relay.FeedTabs, relay.TabLifecycle{Event: "navigated", TabID: tabID, URL: url}))
	go c.runPipeline(context.Background(), tab, seq, url, triggerNavigated)
}

// TabClosed evicts the tab's context and drops its affordance.
func (c *Controller) TabClosed(tabID string) {
	c.mu.Lock()
	tab, ok := c.tabs[tabID]
	delete(c.tabs, tabID)
	c.mu.Unlock()
	if !ok {
		return
	}
	tab.seq.Add(1)
	c.surface.Hide(tabID)
	c.broker.Publish(relay.NewEvent(relay.FeedTabs, relay.TabLifecycle{Event: "closed", TabID: tabID}))
	slog.Debug("controller tab closed", "tab", cdp.ShortTabID(tabID))
}

// runPipeline applies one event to a tab. seq is the sequence number
// captured when the event arrived; the run abandons itself whenever the
// tab has advanced past it, so a late run never reflects a superseded
// URL. Re-entrant per tab through runMu.
func (c *Controller) runPipeline(ctx context.Context, tab *tabState, seq uint64, rawURL, trigger string) {
	tab.runMu.Lock()
	defer tab.runMu.Unlock()

	if tab.seq.Load() != seq {
		slog.Debug("controller run superseded", "tab", cdp.ShortTabID(tab.id), "seq", seq)
		return
	}

	canonical, ok := urlkey.Canonicalize(rawURL)
	if !ok {
		// Ignored scheme or unparsable: no lookup, no affordance, no cookie.
		c.mu.Lock()
		tab.url = rawURL
		tab.canonical = ""
		tab.status = ""
		c.mu.Unlock()
		slog.Debug("controller ignored url", "tab", cdp.ShortTabID(tab.id), "url", rawURL)
		return
	}

	status := c.store.Resolve(canonical)
	action.Apply(c.surface, tab.id, action.Reflect(status, c.store.Settings()))

	cookie := "cleared"
	if status == authz.StatusWhitelisted {
		handle, err := c.handles.Publish(canonical, tab.id, c.store.Config(canonical))
		if err != nil {
			slog.Warn("controller publish failed", "tab", cdp.ShortTabID(tab.id), "url", canonical, "error", err)
			return
		}
		if err := c.browser.SetCookie(ctx, tab.id, syncchan.CookieName, handle, canonical); err != nil {
			c.handles.Retract(canonical)
			slog.Warn("controller cookie set failed", "tab", cdp.ShortTabID(tab.id), "url", canonical, "error", err)
			return
		}
		cookie = "set"
	} else {
		c.handles.Retract(canonical)
		if err := c.browser.ClearCookie(ctx, tab.id, syncchan.CookieName, canonical); err != nil {
			slog.Warn("controller cookie clear failed", "tab", cdp.ShortTabID(tab.id), "url", canonical, "error", err)
			return
		}
	}

	if tab.seq.Load() != seq {
		slog.Debug("controller run superseded after sync", "tab", cdp.ShortTabID(tab.id), "seq", seq)
		return
	}

	c.mu.Lock()
	tab.url = rawURL
	tab.canonical = canonical
	tab.status = status
	c.mu.Unlock()

	c.writeAudit(tab.id, canonical, status, cookie, trigger, seq)
	slog.Debug("controller pipeline settled",
		"tab", cdp.ShortTabID(tab.id), "url", canonical, "status", string(status), "trigger", trigger)
}

func (c *Controller) writeAudit(tabID, url string, status authz.Status, cookie, trigger string, seq uint64) {
	rec := storage.Record{
		Time:    time.Now().UTC(),
		TabID:   tabID,
		URL:     url,
		Status:  string(status),
		Cookie:  cookie,
		Trigger: trigger,
		Seq:     seq,
	}
	if err := c.audit.Write(rec); err != nil {
		slog.Debug("controller audit write skipped", "error", err)
	}
}
