package controller

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/dgnsrekt/pagegate/internal/action"
	"github.com/dgnsrekt/pagegate/internal/authz"
	"github.com/dgnsrekt/pagegate/internal/cdp"
	"github.com/dgnsrekt/pagegate/internal/urlkey"
)

// Tabs returns a snapshot of every tracked tab, ordered by id.
func (c *Controller) Tabs() []TabContext {
	c.mu.RLock()
	out := make([]TabContext, 0, len(c.tabs))
	for _, tab := range c.tabs {
		out = append(out, TabContext{
			TabID:     tab.id,
			URL:       tab.url,
			Canonical: tab.canonical,
			Status:    tab.status,
			Seq:       tab.seq.Load(),
		})
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].TabID < out[j].TabID })
	return out
}

// ResolvedPage is the classification of one raw URL.
type ResolvedPage struct {
	URL       string       `json:"url"`
	Canonical string       `json:"canonical,omitempty"`
	Eligible  bool         `json:"eligible"`
	Status    authz.Status `json:"status,omitempty"`
	HasConfig bool         `json:"has_config"`
}

// ResolvePage canonicalizes and resolves one URL without touching any tab.
// Ineligible URLs are an answer, not an error.
func (c *Controller) ResolvePage(rawURL string) (ResolvedPage, error) {
	if strings.TrimSpace(rawURL) == "" {
		return ResolvedPage{}, &cdp.CodedError{Code: cdp.CodeValidation, Message: "url is required"}
	}
	page := ResolvedPage{URL: rawURL}
	canonical, ok := urlkey.Canonicalize(rawURL)
	if !ok {
		return page, nil
	}
	page.Canonical = canonical
	page.Eligible = true
	page.Status = c.store.Resolve(canonical)
	page.HasConfig = len(c.store.Config(canonical)) > 0
	return page, nil
}

// Pages lists every classified page.
func (c *Controller) Pages() []authz.Page {
	return c.store.Pages()
}

// SetPageConfig stores a config blob for a URL from the options surface
// and returns the canonical key it was stored under.
func (c *Controller) SetPageConfig(ctx context.Context, rawURL string, cfg authz.PageConfig) (string, error) {
	canonical, ok := urlkey.Canonicalize(rawURL)
	if !ok {
		return "", &cdp.CodedError{Code: cdp.CodeValidation, Message: fmt.Sprintf("url %q is not eligible for gating", rawURL)}
	}
	if err := c.store.SetConfig(canonical, cfg); err != nil {
		return "", &cdp.CodedError{Code: cdp.CodeStoreFailure, Message: "persist page config", Cause: err}
	}
	return canonical, nil
}

// Settings returns the global feature toggles.
func (c *Controller) Settings() authz.Settings {
	return c.store.Settings()
}

// UpdateSettings stores new global toggles and re-reflects every settled
// tab under them. Cookie state is untouched, visibility is the only thing
// settings change.
func (c *Controller) UpdateSettings(ctx context.Context, st authz.Settings) (authz.Settings, error) {
	if err := c.store.UpdateSettings(st); err != nil {
		return authz.Settings{}, &cdp.CodedError{Code: cdp.CodeStoreFailure, Message: "persist settings", Cause: err}
	}
	for _, tab := range c.Tabs() {
		if tab.Canonical == "" {
			continue
		}
		action.Apply(c.surface, tab.TabID, action.Reflect(tab.Status, st))
	}
	return st, nil
}

// SyncLookup resolves a published handle to its envelope bytes.
func (c *Controller) SyncLookup(handle string) ([]byte, bool) {
	return c.handles.Lookup(handle)
}
