package agentport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

type commandCall struct {
	command string
	tabID   string
	content string
}

type fakeCommander struct {
	mu    sync.Mutex
	calls []commandCall
	err   error
}

func (f *fakeCommander) AgentReload(ctx context.Context, tabID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, commandCall{command: "reload", tabID: tabID})
	return f.err
}

func (f *fakeCommander) AgentSaveSettings(ctx context.Context, tabID, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, commandCall{command: "save_settings", tabID: tabID, content: content})
	return f.err
}

func (f *fakeCommander) snapshot() []commandCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]commandCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func TestHandleFrame(t *testing.T) {
	cases := []struct {
		name  string
		frame string
		want  []commandCall
	}{
		{
			name:  "reload",
			frame: `{"command":"reload"}`,
			want:  []commandCall{{command: "reload", tabID: "tab-1"}},
		},
		{
			name:  "save_settings",
			frame: `{"command":"save_settings","content":"{\"k\":1}"}`,
			want:  []commandCall{{command: "save_settings", tabID: "tab-1", content: `{"k":1}`}},
		},
		{
			name:  "unknown_command_ignored",
			frame: `{"command":"self_destruct"}`,
		},
		{
			name:  "malformed_json_dropped",
			frame: `{"command":`,
		},
		{
			name:  "non_object_dropped",
			frame: `[1,2,3]`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			commander := &fakeCommander{}
			h := NewHandler(commander)
			h.handleFrame(context.Background(), "tab-1", []byte(tc.frame))

			got := commander.snapshot()
			if len(got) != len(tc.want) {
				t.Fatalf("calls = %v; want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("call %d = %+v; want %+v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestHandleFrameCommandFailureDoesNotPanic(t *testing.T) {
	commander := &fakeCommander{err: context.DeadlineExceeded}
	h := NewHandler(commander)
	h.handleFrame(context.Background(), "tab-1", []byte(`{"command":"reload"}`))
	if len(commander.snapshot()) != 1 {
		t.Fatalf("command not attempted")
	}
}

func TestServeHTTPRequiresTab(t *testing.T) {
	h := NewHandler(&fakeCommander{})
	req := httptest.NewRequest(http.MethodGet, "/port/injector", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestPortRoundTrip(t *testing.T) {
	commander := &fakeCommander{}
	srv := httptest.NewServer(NewHandler(commander))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/port/injector?tab=tab-9"
	conn, _, _, err := ws.Dial(ctx, wsURL)
	if err != nil {
		t.Fatalf("Dial() = %v; want nil", err)
	}
	defer conn.Close()

	if err := wsutil.WriteClientText(conn, []byte(`{"command":"reload"}`)); err != nil {
		t.Fatalf("WriteClientText() = %v; want nil", err)
	}
	if err := wsutil.WriteClientText(conn, []byte(`{"command":"save_settings","content":"{}"}`)); err != nil {
		t.Fatalf("WriteClientText() = %v; want nil", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(commander.snapshot()) < 2 {
		time.Sleep(5 * time.Millisecond)
	}

	calls := commander.snapshot()
	if len(calls) != 2 {
		t.Fatalf("calls = %d; want 2", len(calls))
	}
	if calls[0].command != "reload" || calls[0].tabID != "tab-9" {
		t.Fatalf("first call = %+v; want reload for tab-9", calls[0])
	}
	if calls[1].command != "save_settings" || calls[1].content != "{}" {
		t.Fatalf("second call = %+v; want save_settings with empty object", calls[1])
	}
}
