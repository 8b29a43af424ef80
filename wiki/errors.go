package wiki

import (
	"errors"
	"fmt"
)

// APIError is an error envelope returned by the MediaWiki API.
type APIError struct {
	Code string
	Info string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error [%s]: %s", e.Code, e.Info)
}

// PageMissingError indicates a page that does not exist on the wiki.
type PageMissingError struct {
	Title string
}

func (e *PageMissingError) Error() string {
	return fmt.Sprintf("page %q does not exist", e.Title)
}

// NotRedirectError indicates a redirect target was requested for a page
// that is not a redirect.
type NotRedirectError struct {
	Title string
}

func (e *NotRedirectError) Error() string {
	return fmt.Sprintf("page %q is not a redirect", e.Title)
}

// IsPageMissing returns true if the error is a PageMissingError.
func IsPageMissing(err error) bool {
	var pm *PageMissingError
	return errors.As(err, &pm)
}

// APIErrorCode extracts the MediaWiki error code from err, or "" when err
// is not an APIError.
func APIErrorCode(err error) string {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return ""
}
