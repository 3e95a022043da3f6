package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgnsrekt/pagegate/internal/authz"
	"github.com/dgnsrekt/pagegate/internal/cdp"
	"github.com/dgnsrekt/pagegate/internal/relay"
	"github.com/dgnsrekt/pagegate/internal/urlkey"
)

// ActivateTab runs the pipeline for a tab as a tab-activated event. The
// tab's live URL is fetched over CDP.
func (c *Controller) ActivateTab(ctx context.Context, tabID string) error {
	tab, err := c.tab(tabID)
	if err != nil {
		return err
	}
	seq := tab.seq.Add(1)
	url, err := c.browser.TabURL(ctx, tabID)
	if err != nil {
		return err
	}
	c.runPipeline(ctx, tab, seq, url, triggerActivated)
	return nil
}

// ToggleTab flips the classification of the page the tab is on, reflects
// the new state immediately, then hard-reloads the tab so the in-page
// agent re-initializes under it. The new status is returned even when the
// write-through or the reload fails; the in-memory transition stands.
func (c *Controller) ToggleTab(ctx context.Context, tabID string) (authz.Status, error) {
	tab, err := c.tab(tabID)
	if err != nil {
		return "", err
	}
	rawURL, err := c.tabURL(ctx, tab)
	if err != nil {
		return "", err
	}
	canonical, ok := urlkey.Canonicalize(rawURL)
	if !ok {
		return "", &cdp.CodedError{Code: cdp.CodeValidation, Message: fmt.Sprintf("url %q is not eligible for gating", rawURL)}
	}

	status, toggleErr := c.store.Toggle(canonical)
	if toggleErr != nil {
		slog.Warn("controller toggle persist failed", "url", canonical, "error", toggleErr)
	}
	slog.Info("controller toggled page", "url", canonical, "status", string(status), "tab", cdp.ShortTabID(tabID))

	seq := tab.seq.Add(1)
	c.runPipeline(ctx, tab, seq, rawURL, triggerToggle)
	c.broker.Publish(relay.NewEvent(relay.FeedPages, relay.PageChange{URL: canonical, Status: string(status)}))

	if err := c.browser.Reload(ctx, tabID, true); err != nil {
		return status, err
	}
	if toggleErr != nil {
		return status, &cdp.CodedError{Code: cdp.CodeStoreFailure, Message: "toggle applied but not persisted", Cause: toggleErr}
	}
	return status, nil
}

// AgentReload services the agent's reload command: re-run the pipeline
// for the sender tab, then hard-reload it.
func (c *Controller) AgentReload(ctx context.Context, tabID string) error {
	tab, err := c.tab(tabID)
	if err != nil {
		return err
	}
	rawURL, err := c.tabURL(ctx, tab)
	if err != nil {
		return err
	}
	seq := tab.seq.Add(1)
	c.runPipeline(ctx, tab, seq, rawURL, triggerAgentReload)
	return c.browser.Reload(ctx, tabID, true)
}

// AgentSaveSettings stores the payload the agent sent as the page's
// configuration. content is a JSON-encoded string of the config; the
// page's status is left untouched and no handle is republished, the next
// pipeline run rotates it.
func (c *Controller) AgentSaveSettings(ctx context.Context, tabID, content string) error {
	tab, err := c.tab(tabID)
	if err != nil {
		return err
	}
	rawURL, err := c.tabURL(ctx, tab)
	if err != nil {
		return err
	}
	canonical, ok := urlkey.Canonicalize(rawURL)
	if !ok {
		return &cdp.CodedError{Code: cdp.CodeValidation, Message: fmt.Sprintf("url %q is not eligible for gating", rawURL)}
	}

	var cfg authz.PageConfig
	if err := json.Unmarshal([]byte(content), &cfg); err != nil {
		return &cdp.CodedError{Code: cdp.CodeValidation, Message: "save_settings content is not valid JSON", Cause: err}
	}
	if err := c.store.SetConfig(canonical, cfg); err != nil {
		return &cdp.CodedError{Code: cdp.CodeStoreFailure, Message: "persist page config", Cause: err}
	}

	c.writeAudit(tabID, canonical, c.store.Resolve(canonical), "none", triggerSaveSettings, tab.seq.Load())
	slog.Debug("controller saved page config", "url", canonical, "tab", cdp.ShortTabID(tabID))
	return nil
}
