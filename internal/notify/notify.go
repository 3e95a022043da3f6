// Package notify posts short operational messages to an ntfy-style
// endpoint. Notifications are optional; an empty endpoint disables them.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const (
	readyFormat       = "pagegate up: control API on http://%s, gating decisions are live"
	browserLostFormat = "pagegate lost its browser (%v); gating is suspended until the daemon is restarted"
)

// SendReady announces where the control API is listening.
func SendReady(ctx context.Context, client *http.Client, endpoint, bindAddr string) error {
	return Send(ctx, client, endpoint, fmt.Sprintf(readyFormat, bindAddr))
}

// SendBrowserLost announces a dropped CDP connection.
func SendBrowserLost(ctx context.Context, client *http.Client, endpoint string, cause error) error {
	return Send(ctx, client, endpoint, fmt.Sprintf(browserLostFormat, cause))
}

// Send sends a message to the requested endpoint using HTTP POST.
func Send(ctx context.Context, client *http.Client, endpoint, message string) error {
	if endpoint == "" {
		return errors.New("ntfy endpoint is empty")
	}

	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}

	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
