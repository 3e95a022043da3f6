package relay

import (
	"encoding/json"
	"testing"
)

func TestBrokerPublishFanout(t *testing.T) {
	b := NewBroker()
	id1, ch1 := b.Subscribe()
	id2, ch2 := b.Subscribe()
	defer b.Unsubscribe(id1)
	defer b.Unsubscribe(id2)

	b.Publish(Event{Feed: FeedPages, Payload: `{"url":"https://a.com"}`})

	for i, ch := range []<-chan Event{ch1, ch2} {
		select {
		case evt := <-ch:
			if evt.Feed != FeedPages {
				t.Fatalf("subscriber %d feed = %q; want %q", i+1, evt.Feed, FeedPages)
			}
		default:
			t.Fatalf("subscriber %d received nothing; want one event", i+1)
		}
	}
}

func TestBrokerDropsWhenSubscriberFull(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	defer b.Unsubscribe(id)

	for i := 0; i < subscriberBufSize+10; i++ {
		b.Publish(Event{Feed: FeedTabs, Payload: "{}"})
	}
	if got := len(ch); got != subscriberBufSize {
		t.Fatalf("buffered events = %d; want %d (overflow dropped)", got, subscriberBufSize)
	}
}

func TestBrokerUnsubscribeClosesChannel(t *testing.T) {
	b := NewBroker()
	id, ch := b.Subscribe()
	if got := b.ClientCount(); got != 1 {
		t.Fatalf("ClientCount() = %d; want 1", got)
	}

	b.Unsubscribe(id)
	if _, open := <-ch; open {
		t.Fatal("channel still open after Unsubscribe")
	}
	if got := b.ClientCount(); got != 0 {
		t.Fatalf("ClientCount() = %d; want 0", got)
	}
}

func TestNewEventMarshalsPayload(t *testing.T) {
	evt := NewEvent(FeedPages, PageChange{URL: "https://example.com/page", Status: "whitelisted"})
	if evt.Feed != FeedPages {
		t.Fatalf("Feed = %q; want %q", evt.Feed, FeedPages)
	}
	var pc PageChange
	if err := json.Unmarshal([]byte(evt.Payload), &pc); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if pc.URL != "https://example.com/page" || pc.Status != "whitelisted" {
		t.Fatalf("payload = %+v; want url and status round-tripped", pc)
	}
}
