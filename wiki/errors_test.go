package wiki

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAPIError(t *testing.T) {
	err := &APIError{Code: "badtitle", Info: "Bad title"}
	if !strings.Contains(err.Error(), "badtitle") {
		t.Errorf("Error() = %q, want to contain the code", err.Error())
	}
	if APIErrorCode(err) != "badtitle" {
		t.Errorf("APIErrorCode = %q, want badtitle", APIErrorCode(err))
	}
	if APIErrorCode(fmt.Errorf("wrapped: %w", err)) != "badtitle" {
		t.Error("APIErrorCode should unwrap")
	}
	if APIErrorCode(errors.New("other")) != "" {
		t.Error("APIErrorCode should be empty for non-API errors")
	}
}

func TestIsPageMissing(t *testing.T) {
	err := &PageMissingError{Title: "Gone"}
	if !IsPageMissing(err) {
		t.Error("IsPageMissing should match PageMissingError")
	}
	if !IsPageMissing(fmt.Errorf("wrapped: %w", err)) {
		t.Error("IsPageMissing should match wrapped errors")
	}
	if IsPageMissing(errors.New("other")) {
		t.Error("IsPageMissing should not match unrelated errors")
	}
	if !strings.Contains(err.Error(), "Gone") {
		t.Errorf("Error() = %q, want to name the page", err.Error())
	}
}

func TestNotRedirectError(t *testing.T) {
	err := &NotRedirectError{Title: "Plain"}
	if !strings.Contains(err.Error(), "Plain") {
		t.Errorf("Error() = %q, want to name the page", err.Error())
	}
	var nr *NotRedirectError
	if !errors.As(fmt.Errorf("w: %w", err), &nr) {
		t.Error("NotRedirectError should survive wrapping")
	}
}
