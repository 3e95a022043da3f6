package cdp

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestCodedErrorMessage(t *testing.T) {
	t.Run("without_cause", func(t *testing.T) {
		err := NewError(CodeTabNotFound, "tab abc12345 is not attached", nil)
		want := "TAB_NOT_FOUND: tab abc12345 is not attached"
		if err.Error() != want {
			t.Fatalf("Error() = %q; want %q", err.Error(), want)
		}
	})

	t.Run("with_cause", func(t *testing.T) {
		cause := errors.New("context deadline exceeded")
		err := NewError(CodeCDPUnavailable, "failed to set cookie", cause)
		if !strings.Contains(err.Error(), "context deadline exceeded") {
			t.Fatalf("Error() = %q; want cause included", err.Error())
		}
	})
}

func TestCodedErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	err := fmt.Errorf("outer: %w", NewError(CodeReloadFailure, "failed to reload tab", cause))

	var coded *CodedError
	if !errors.As(err, &coded) {
		t.Fatal("errors.As() = false; want CodedError found through wrapping")
	}
	if coded.Code != CodeReloadFailure {
		t.Fatalf("Code = %q; want %q", coded.Code, CodeReloadFailure)
	}
	if !errors.Is(err, cause) {
		t.Fatal("errors.Is(cause) = false; want cause reachable through Unwrap")
	}
}

func TestShortTabID(t *testing.T) {
	if got := ShortTabID("B0D5A8E8F3C14411"); got != "B0D5A8E8" {
		t.Fatalf("ShortTabID() = %q; want B0D5A8E8", got)
	}
	if got := ShortTabID("ab"); got != "ab" {
		t.Fatalf("ShortTabID() = %q; want ab", got)
	}
}

func TestTruncateURL(t *testing.T) {
	long := strings.Repeat("a", 150)
	got := truncateURL("https://example.com/" + long)
	if len(got) != 123 {
		t.Fatalf("len(truncateURL()) = %d; want 123", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("truncateURL() = %q; want ... suffix", got)
	}
	if got := truncateURL("https://example.com"); got != "https://example.com" {
		t.Fatalf("truncateURL() = %q; want unchanged", got)
	}
}
