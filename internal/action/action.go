// Package action maps authorization status onto the per-tab UI affordance.
package action

import "github.com/dgnsrekt/pagegate/internal/authz"

// Icon variants the operator UI ships with.
const (
	IconNeutral  = "icons/neutral.png"
	IconDisabled = "icons/disabled.png"
	IconEnabled  = "icons/enabled.png"
)

const (
	titleEnable  = "Enable on this page"
	titleDisable = "Disable on this page"
)

// State is the affordance a tab should present.
type State struct {
	Title   string `json:"title"`
	Icon    string `json:"icon"`
	Visible bool   `json:"visible"`
}

// Surface receives affordance updates for tabs. Implementations must be
// idempotent and must never block the caller.
type Surface interface {
	SetTitle(tabID, title string)
	SetIcon(tabID, iconPath string)
	Show(tabID string)
	Hide(tabID string)
}

// Reflect maps a page status onto its affordance. Pure.
func Reflect(status authz.Status, settings authz.Settings) State {
	st := State{Title: titleEnable, Icon: IconNeutral, Visible: settings.ShowAction}
	switch status {
	case authz.StatusBlacklisted:
		st.Icon = IconDisabled
	case authz.StatusWhitelisted:
		st.Title = titleDisable
		st.Icon = IconEnabled
	}
	return st
}

// Apply issues the reflected state to a surface.
func Apply(s Surface, tabID string, st State) {
	s.SetTitle(tabID, st.Title)
	s.SetIcon(tabID, st.Icon)
	if st.Visible {
		s.Show(tabID)
	} else {
		s.Hide(tabID)
	}
}
