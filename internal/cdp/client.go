// Package cdp bridges pagegate to a running Chromium over the DevTools
// Protocol: it attaches to page targets, feeds tab lifecycle and navigation
// events to the controller, and performs the cookie and reload actions the
// controller asks for.
package cdp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"github.com/dgnsrekt/pagegate/internal/urlkey"
)

// EventSink receives tab signals from the bridge. TabSeen fires when a page
// target is first attached, TabNavigated on every main-frame or
// same-document navigation, TabClosed when the target is destroyed.
// Implementations must return quickly: the bridge invokes them on chromedp
// event goroutines, so anything slow has to be handed off.
type EventSink interface {
	TabSeen(tabID, url string)
	TabNavigated(tabID, url string)
	TabClosed(tabID string)
}

// Client manages the CDP connection and one session per attached tab.
type Client struct {
	cdpURL        string
	actionTimeout time.Duration
	sink          EventSink

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu   sync.RWMutex
	tabs map[target.ID]*tabSession
}

type tabSession struct {
	id     target.ID
	url    string
	ctx    context.Context
	cancel context.CancelFunc
}

func NewClient(cdpURL string, actionTimeout time.Duration) *Client {
	return &Client{
		cdpURL:        cdpURL,
		actionTimeout: actionTimeout,
		tabs:          make(map[target.ID]*tabSession),
	}
}

// Connect establishes the browser connection, attaches to every existing
// page target, and starts watching for new ones. Events flow into sink
// from here on. A browser with no open pages is fine; tabs are picked up
// as they appear.
func (c *Client) Connect(ctx context.Context, sink EventSink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sink = sink
	slog.Info("Connecting to Chromium", "url", c.cdpURL)

	c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(context.Background(), c.cdpURL)
	c.browserCtx, c.browserCancel = chromedp.NewContext(c.allocCtx)

	if err := chromedp.Run(c.browserCtx); err != nil {
		c.allocCancel()
		return NewError(CodeCDPUnavailable, "failed to connect to browser", err)
	}

	chromedp.ListenBrowser(c.browserCtx, c.handleBrowserEvent)

	targets, err := chromedp.Targets(c.browserCtx)
	if err != nil {
		return NewError(CodeCDPUnavailable, "failed to enumerate targets", err)
	}
	slog.Info("Found browser targets", "count", len(targets))

	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if err := c.attach(t.TargetID, t.URL); err != nil {
			slog.Error("Failed to attach to tab",
				"tab_id", ShortTabID(string(t.TargetID)),
				"url", truncateURL(t.URL),
				"error", err)
		}
	}
	return nil
}

// OnDisconnect runs fn once the browser connection drops. Must be called
// after Connect.
func (c *Client) OnDisconnect(fn func()) {
	ctx := c.browserCtx
	go func() {
		<-ctx.Done()
		fn()
	}()
}

// handleBrowserEvent watches target lifecycle at the browser level. Attach
// and detach are handed off: chromedp listeners must not issue CDP commands
// on their own event goroutine.
func (c *Client) handleBrowserEvent(ev interface{}) {
	switch e := ev.(type) {
	case *target.EventTargetCreated:
		if e.TargetInfo.Type != "page" {
			return
		}
		id, url := e.TargetInfo.TargetID, e.TargetInfo.URL
		go func() {
			if err := c.attach(id, url); err != nil {
				slog.Error("Failed to attach to new tab",
					"tab_id", ShortTabID(string(id)),
					"url", truncateURL(url),
					"error", err)
			}
		}()
	case *target.EventTargetDestroyed:
		go c.detach(e.TargetID)
	}
}

func (c *Client) attach(id target.ID, url string) error {
	c.mu.Lock()
	if _, ok := c.tabs[id]; ok {
		c.mu.Unlock()
		return nil
	}
	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx, chromedp.WithTargetID(id))
	tab := &tabSession{id: id, url: url, ctx: tabCtx, cancel: tabCancel}
	c.tabs[id] = tab
	c.mu.Unlock()

	if err := chromedp.Run(tabCtx, page.Enable()); err != nil {
		tabCancel()
		c.mu.Lock()
		delete(c.tabs, id)
		c.mu.Unlock()
		return fmt.Errorf("failed to enable page domain: %w", err)
	}

	chromedp.ListenTarget(tabCtx, c.tabEventHandler(string(id)))

	slog.Info("Attached to tab", "tab_id", ShortTabID(string(id)), "url", truncateURL(url))
	c.sink.TabSeen(string(id), url)
	return nil
}

func (c *Client) detach(id target.ID) {
	c.mu.Lock()
	tab, ok := c.tabs[id]
	if ok {
		delete(c.tabs, id)
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	tab.cancel()
	slog.Info("Tab closed", "tab_id", ShortTabID(string(id)))
	c.sink.TabClosed(string(id))
}

func (c *Client) tabEventHandler(tabID string) func(ev interface{}) {
	return func(ev interface{}) {
		switch e := ev.(type) {
		case *page.EventFrameNavigated:
			if e.Frame.ParentID == "" {
				c.noteURL(target.ID(tabID), e.Frame.URL)
				slog.Info("Tab navigated (full)", "tab_id", ShortTabID(tabID), "url", truncateURL(e.Frame.URL))
				c.sink.TabNavigated(tabID, e.Frame.URL)
			}
		case *page.EventNavigatedWithinDocument:
			c.noteURL(target.ID(tabID), e.URL)
			slog.Info("Tab navigated (SPA)", "tab_id", ShortTabID(tabID), "url", truncateURL(e.URL))
			c.sink.TabNavigated(tabID, e.URL)
		}
	}
}

func (c *Client) noteURL(id target.ID, url string) {
	c.mu.Lock()
	if tab, ok := c.tabs[id]; ok {
		tab.url = url
	}
	c.mu.Unlock()
}

func (c *Client) session(tabID string) (*tabSession, error) {
	c.mu.RLock()
	tab, ok := c.tabs[target.ID(tabID)]
	c.mu.RUnlock()
	if !ok {
		return nil, NewError(CodeTabNotFound, fmt.Sprintf("tab %s is not attached", ShortTabID(tabID)), nil)
	}
	return tab, nil
}

// TabURL asks the browser for the tab's current URL.
func (c *Client) TabURL(ctx context.Context, tabID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	tab, err := c.session(tabID)
	if err != nil {
		return "", err
	}
	runCtx, cancel := context.WithTimeout(tab.ctx, c.actionTimeout)
	defer cancel()

	var url string
	err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		info, err := target.GetTargetInfo().WithTargetID(tab.id).Do(ctx)
		if err != nil {
			return err
		}
		url = info.URL
		return nil
	}))
	if err != nil {
		return "", NewError(CodeCDPUnavailable, "failed to read tab url", err)
	}
	return url, nil
}

// SetCookie writes a cookie scoped to the URL's path on the tab's session.
func (c *Client) SetCookie(ctx context.Context, tabID, name, value, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tab, err := c.session(tabID)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(tab.ctx, c.actionTimeout)
	defer cancel()

	path := urlkey.CookiePath(rawURL)
	err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookie(name, value).WithURL(rawURL).WithPath(path).Do(ctx)
	}))
	if err != nil {
		return NewError(CodeCDPUnavailable, "failed to set cookie", err)
	}
	slog.Debug("Cookie set", "tab_id", ShortTabID(tabID), "name", name, "path", path)
	return nil
}

// ClearCookie deletes the named cookie for the URL.
func (c *Client) ClearCookie(ctx context.Context, tabID, name, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tab, err := c.session(tabID)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(tab.ctx, c.actionTimeout)
	defer cancel()

	err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.DeleteCookies(name).WithURL(rawURL).Do(ctx)
	}))
	if err != nil {
		return NewError(CodeCDPUnavailable, "failed to clear cookie", err)
	}
	slog.Debug("Cookie cleared", "tab_id", ShortTabID(tabID), "name", name)
	return nil
}

// Reload reloads the tab, bypassing the browser cache when ignoreCache is
// set.
func (c *Client) Reload(ctx context.Context, tabID string, ignoreCache bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	tab, err := c.session(tabID)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(tab.ctx, c.actionTimeout)
	defer cancel()

	err = chromedp.Run(runCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.Reload().WithIgnoreCache(ignoreCache).Do(ctx)
	}))
	if err != nil {
		return NewError(CodeReloadFailure, "failed to reload tab", err)
	}
	slog.Info("Tab reloaded", "tab_id", ShortTabID(tabID), "ignore_cache", ignoreCache)
	return nil
}

// TabCount returns how many tabs are attached.
func (c *Client) TabCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.tabs)
}

// Close tears down every tab session and the browser connection.
func (c *Client) Close() error {
	c.mu.Lock()
	for id, tab := range c.tabs {
		tab.cancel()
		delete(c.tabs, id)
	}
	c.mu.Unlock()

	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	slog.Info("CDP bridge closed")
	return nil
}
