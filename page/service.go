package page

import (
	"context"
	"errors"
	"fmt"
)

// Service is the capability interface the resolver and checker consume.
// Production code backs it with the MediaWiki client; tests use in-memory
// fakes. Implementations may return *CircularRedirectError from
// RedirectTarget and RedirectsTo; any other error is treated as fatal by
// callers.
type Service interface {
	// Exists reports whether the page currently exists on the wiki.
	Exists(ctx context.Context, ref Ref) (bool, error)

	// IsRedirect reports whether the page is a redirect.
	IsRedirect(ctx context.Context, ref Ref) (bool, error)

	// RedirectTarget returns the direct (one hop) redirect target.
	RedirectTarget(ctx context.Context, ref Ref) (Ref, error)

	// RedirectsTo enumerates pages redirecting to ref, optionally
	// restricted to the given namespaces. On a circular-redirect error the
	// refs gathered before the failure are still returned.
	RedirectsTo(ctx context.Context, ref Ref, namespaces NamespaceFilter) ([]Ref, error)

	// Templates enumerates the templates transcluded by the page.
	Templates(ctx context.Context, ref Ref) ([]Ref, error)
}

// ArticleService adds the disambiguation check needed by IsArticle.
type ArticleService interface {
	Service
	IsDisambig(ctx context.Context, ref Ref) (bool, error)
}

// EditService adds the text read/write capabilities needed by the
// bot-section editor.
type EditService interface {
	Service
	PageText(ctx context.Context, ref Ref) (string, error)
	SavePage(ctx context.Context, ref Ref, text, summary string, minor, bot bool) error
}

// FileService adds file-specific capabilities.
type FileService interface {
	Service
	FileUsage(ctx context.Context, ref Ref) ([]Ref, error)
	FileInfo(ctx context.Context, ref Ref) (FileInfo, error)
}

// FileInfo describes the latest version of a file.
type FileInfo struct {
	Width  int
	Height int
	Size   int64
	URL    string
}

// CircularRedirectError reports a redirect chain that loops back on itself.
// The resolver recovers from it locally; it never reaches resolver callers.
type CircularRedirectError struct {
	Page Ref
}

func (e *CircularRedirectError) Error() string {
	return fmt.Sprintf("circular redirect at %q", e.Page.Title)
}

// IsCircularRedirect reports whether err is (or wraps) a
// CircularRedirectError.
func IsCircularRedirect(err error) bool {
	var ce *CircularRedirectError
	return errors.As(err, &ce)
}
