// Package agentport serves the in-page agent's message port: a WebSocket
// endpoint the agent opens to send its reload and save_settings commands
// back to the gate.
package agentport

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// PortName is the only message port the gate serves. Agents asking for
// any other name are rejected at the router.
const PortName = "injector"

const (
	cmdReload       = "reload"
	cmdSaveSettings = "save_settings"

	// logFrameLimit bounds how much of a malformed frame lands in the log.
	logFrameLimit = 512
)

// Message is one inbound agent frame. content carries a JSON-encoded
// string of the page config for save_settings.
type Message struct {
	Command string `json:"command"`
	Content string `json:"content,omitempty"`
}

// Commander is the slice of the controller the port drives.
type Commander interface {
	AgentReload(ctx context.Context, tabID string) error
	AgentSaveSettings(ctx context.Context, tabID, content string) error
}

// Handler upgrades injector port connections and applies agent commands.
// The agent is untrusted input: every failure is logged and dropped.
type Handler struct {
	commander Commander
}

func NewHandler(commander Commander) *Handler {
	return &Handler{commander: commander}
}

// ServeHTTP upgrades the connection and starts the frame loop. The agent
// identifies its tab with the tab query parameter it learned from the
// sync envelope; without one there is no context to apply commands to.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	tabID := r.URL.Query().Get("tab")
	if tabID == "" {
		http.Error(w, "tab query parameter is required", http.StatusBadRequest)
		return
	}

	conn, _, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		slog.Warn("agentport upgrade failed", "error", err)
		return
	}
	slog.Debug("agentport connected", "tab", tabID)
	go h.readLoop(conn, tabID)
}

func (h *Handler) readLoop(conn net.Conn, tabID string) {
	defer conn.Close()
	for {
		data, err := wsutil.ReadClientText(conn)
		if err != nil {
			slog.Debug("agentport read loop exit", "tab", tabID, "error", err)
			return
		}
		h.handleFrame(context.Background(), tabID, data)
	}
}

// handleFrame applies one agent frame. Unrecognized commands are ignored.
func (h *Handler) handleFrame(ctx context.Context, tabID string, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		preview, truncated, size, hash := truncateFrame(data, logFrameLimit)
		slog.Warn("agentport malformed frame dropped",
			"tab", tabID, "size", size, "truncated", truncated, "sha256", hash, "frame", string(preview), "error", err)
		return
	}

	switch msg.Command {
	case cmdReload:
		if err := h.commander.AgentReload(ctx, tabID); err != nil {
			slog.Warn("agentport reload failed", "tab", tabID, "error", err)
		}
	case cmdSaveSettings:
		if err := h.commander.AgentSaveSettings(ctx, tabID, msg.Content); err != nil {
			slog.Warn("agentport save_settings failed", "tab", tabID, "error", err)
		}
	default:
		slog.Debug("agentport unrecognized command ignored", "tab", tabID, "command", msg.Command)
	}
}
