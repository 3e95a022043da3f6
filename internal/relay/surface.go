package relay

import "github.com/dgnsrekt/pagegate/internal/action"

// ActionSurface mirrors affordance calls onto the action feed. Each call
// becomes one event, exactly as issued; consumers merge partial updates the
// same way a browser action bar would.
type ActionSurface struct {
	broker *Broker
}

var _ action.Surface = (*ActionSurface)(nil)

func NewActionSurface(b *Broker) *ActionSurface {
	return &ActionSurface{broker: b}
}

func (s *ActionSurface) SetTitle(tabID, title string) {
	s.broker.Publish(NewEvent(FeedAction, ActionCall{Call: "set_title", TabID: tabID, Title: title}))
}

func (s *ActionSurface) SetIcon(tabID, iconPath string) {
	s.broker.Publish(NewEvent(FeedAction, ActionCall{Call: "set_icon", TabID: tabID, Icon: iconPath}))
}

func (s *ActionSurface) Show(tabID string) {
	s.broker.Publish(NewEvent(FeedAction, ActionCall{Call: "show", TabID: tabID}))
}

func (s *ActionSurface) Hide(tabID string) {
	s.broker.Publish(NewEvent(FeedAction, ActionCall{Call: "hide", TabID: tabID}))
}
