package authz

// Status classifies a page's authorization.
type Status string

const (
	StatusNone        Status = "none"
	StatusBlacklisted Status = "blacklisted"
	StatusWhitelisted Status = "whitelisted"
)

// nextStatus is the toggle transition. Classification is sticky: once a
// page has been classified it alternates between whitelisted and
// blacklisted and never returns to none.
func nextStatus(s Status) Status {
	if s == StatusWhitelisted {
		return StatusBlacklisted
	}
	return StatusWhitelisted
}
