package relay

import "encoding/json"

// Feeds carried by the relay.
const (
	FeedAction = "action"
	FeedPages  = "pages"
	FeedTabs   = "tabs"
)

// NewEvent marshals payload onto a feed.
func NewEvent(feed string, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte(`{}`)
	}
	return Event{Feed: feed, Payload: string(data)}
}

// ActionCall is one affordance call replayed to operator UIs. Call is one
// of set_title, set_icon, show, hide.
type ActionCall struct {
	Call  string `json:"call"`
	TabID string `json:"tab_id"`
	Title string `json:"title,omitempty"`
	Icon  string `json:"icon,omitempty"`
}

// PageChange announces a page classification change.
type PageChange struct {
	URL    string `json:"url"`
	Status string `json:"status"`
}

// TabLifecycle announces tab arrivals, navigations and closures. Event is
// one of seen, navigated, closed.
type TabLifecycle struct {
	Event string `json:"event"`
	TabID string `json:"tab_id"`
	URL   string `json:"url,omitempty"`
}
