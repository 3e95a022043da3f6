package relay

import (
	"encoding/json"
	"testing"
)

func drainActionCall(t *testing.T, ch <-chan Event) ActionCall {
	t.Helper()
	select {
	case evt := <-ch:
		if evt.Feed != FeedAction {
			t.Fatalf("feed = %q; want %q", evt.Feed, FeedAction)
		}
		var call ActionCall
		if err := json.Unmarshal([]byte(evt.Payload), &call); err != nil {
			t.Fatalf("unmarshal action call: %v", err)
		}
		return call
	default:
		t.Fatal("no event published; want an action call")
		return ActionCall{}
	}
}

func TestActionSurfacePublishesCalls(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	s := NewActionSurface(b)

	s.SetTitle("tab-1", "Disable on this page")
	call := drainActionCall(t, ch)
	if call.Call != "set_title" || call.TabID != "tab-1" || call.Title != "Disable on this page" {
		t.Fatalf("set_title call = %+v; want title replayed", call)
	}

	s.SetIcon("tab-1", "icons/enabled.png")
	call = drainActionCall(t, ch)
	if call.Call != "set_icon" || call.Icon != "icons/enabled.png" {
		t.Fatalf("set_icon call = %+v; want icon replayed", call)
	}

	s.Show("tab-1")
	if call = drainActionCall(t, ch); call.Call != "show" {
		t.Fatalf("call = %+v; want show", call)
	}

	s.Hide("tab-1")
	if call = drainActionCall(t, ch); call.Call != "hide" {
		t.Fatalf("call = %+v; want hide", call)
	}
}
