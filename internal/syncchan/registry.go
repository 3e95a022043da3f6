// Package syncchan implements the side channel that hands configuration to
// authorized pages. A page's config is serialized, registered under an
// opaque single-use handle, and only the handle travels in the reserved
// cookie; the payload itself never enters the cookie.
package syncchan

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// CookieName is the reserved cookie carrying the handle. Its presence tells
// the in-page agent the page is authorized; a value change means the
// configuration was republished and should be fetched again.
const CookieName = "__pagegate"

// Envelope is the blob a handle resolves to. TabID lets the agent identify
// its own tab when it connects back on the injector port.
type Envelope struct {
	URL    string         `json:"url"`
	TabID  string         `json:"tab_id"`
	Config map[string]any `json:"config"`
}

// Registry owns every live handle. For a given URL at most one handle is
// valid at any time; publishing atomically invalidates the previous one, so
// there is no window with two resolvable handles for the same page.
type Registry struct {
	mu    sync.Mutex
	byURL map[string]string // canonical URL -> live handle
	blobs map[string][]byte // handle -> serialized envelope
}

func NewRegistry() *Registry {
	return &Registry{
		byURL: make(map[string]string),
		blobs: make(map[string][]byte),
	}
}

// Publish snapshots cfg for url and returns the fresh handle. Handles are
// never reused across pages or republishes.
func (r *Registry) Publish(url, tabID string, cfg map[string]any) (string, error) {
	if cfg == nil {
		cfg = map[string]any{}
	}
	blob, err := json.Marshal(Envelope{URL: url, TabID: tabID, Config: cfg})
	if err != nil {
		return "", fmt.Errorf("sync channel: marshal config: %w", err)
	}
	handle := uuid.New().String()

	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.byURL[url]; ok {
		delete(r.blobs, old)
	}
	r.byURL[url] = handle
	r.blobs[handle] = blob
	return handle, nil
}

// Retract drops the live handle for url, if any, and reports whether one
// existed.
func (r *Registry) Retract(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	handle, ok := r.byURL[url]
	if !ok {
		return false
	}
	delete(r.byURL, url)
	delete(r.blobs, handle)
	return true
}

// Lookup resolves a handle to its serialized envelope.
func (r *Registry) Lookup(handle string) ([]byte, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	blob, ok := r.blobs[handle]
	return blob, ok
}
