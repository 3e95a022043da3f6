package cdp

import "fmt"

const (
	CodeValidation     = "VALIDATION"
	CodeTabNotFound    = "TAB_NOT_FOUND"
	CodeCDPUnavailable = "CDP_UNAVAILABLE"
	CodeReloadFailure  = "RELOAD_FAILURE"
	CodeStoreFailure   = "STORE_FAILURE"
)

// CodedError is a typed error used for stable API mapping. The controller
// raises the same taxonomy for non-browser failures.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

// NewError builds a CodedError.
func NewError(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// ShortTabID shortens a target id to its first 8 characters for log fields.
func ShortTabID(tabID string) string {
	if len(tabID) <= 8 {
		return tabID
	}
	return tabID[:8]
}

func truncateURL(url string) string {
	if len(url) > 120 {
		return url[:120] + "..."
	}
	return url
}
