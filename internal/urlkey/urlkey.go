// Package urlkey normalizes raw browser URLs into the comparison keys the
// authorization store is indexed by.
package urlkey

import (
	"net/url"
	"strings"
)

// Only plain web and local pages are eligible for authorization decisions.
// Everything else (blob:, view-source:, chrome://, chrome-extension://,
// devtools://, about:, data:, javascript:, …) is classified as ignored and
// never reaches the store, the UI surface, or the cookie channel.
var allowedSchemes = map[string]bool{
	"http":  true,
	"https": true,
	"file":  true,
}

// Canonicalize normalizes a raw URL into the lookup key: scheme plus
// lowercased host plus path, with query, fragment and trailing slashes
// dropped. The second return is false when the URL is ignored (internal or
// ephemeral schemes, or anything unparsable). Ignored is a classification,
// not an error, and it is idempotent: re-canonicalizing a key yields the
// same key.
func Canonicalize(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	scheme := strings.ToLower(u.Scheme)
	if !allowedSchemes[scheme] {
		return "", false
	}
	path := strings.TrimRight(u.EscapedPath(), "/")
	return scheme + "://" + strings.ToLower(u.Host) + path, true
}

// CookiePath returns the path a page-scoped cookie should carry for a
// canonical key, "/" when the key has no path component.
func CookiePath(canonical string) string {
	u, err := url.Parse(canonical)
	if err != nil || u.EscapedPath() == "" {
		return "/"
	}
	return u.EscapedPath()
}
