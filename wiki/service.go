package wiki

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/wikimech/wikiext/page"
)

// PageService adapts Client to the page.Service capability interfaces
// (page.Service, page.ArticleService, page.EditService, page.FileService).
type PageService struct {
	client *Client
}

// NewPageService wraps client for use by the page helpers.
func NewPageService(client *Client) *PageService {
	return &PageService{client: client}
}

func (s *PageService) site() string {
	return s.client.Site()
}

// Ref builds a normalized page.Ref on this service's site, resolving the
// wiki's local namespace names and aliases so "Wikipedia:Foo" and
// "Project:Foo" yield one identity.
func (s *PageService) Ref(ctx context.Context, title string, defaultNamespace int) (page.Ref, error) {
	return page.NewRefWithTable(s.site(), title, defaultNamespace, s.namespaceTable(ctx))
}

// namespaceTable builds the lookup of local namespace names and aliases.
// Siteinfo failures degrade to the built-in canonical names so title
// parsing keeps working against wikis that restrict meta queries.
func (s *PageService) namespaceTable(ctx context.Context) page.NamespaceTable {
	namespaces, err := s.client.Namespaces(ctx)
	if err != nil {
		s.client.logger.Debug("Siteinfo unavailable, using canonical namespace names", "error", err)
		return nil
	}

	table := make(page.NamespaceTable, 2*len(namespaces))
	for _, ns := range namespaces {
		if ns.Name != "" {
			table[strings.ToLower(ns.Name)] = ns.ID
		}
		if ns.Canonical != "" {
			table[strings.ToLower(ns.Canonical)] = ns.ID
		}
		for _, alias := range ns.Aliases {
			table[strings.ToLower(alias)] = ns.ID
		}
	}
	return table
}

// Exists reports whether the page currently exists.
func (s *PageService) Exists(ctx context.Context, ref page.Ref) (bool, error) {
	info, err := s.client.PageInfo(ctx, ref.Title)
	if err != nil {
		return false, err
	}
	return info.Exists, nil
}

// IsRedirect reports whether the page is a redirect.
func (s *PageService) IsRedirect(ctx context.Context, ref page.Ref) (bool, error) {
	info, err := s.client.PageInfo(ctx, ref.Title)
	if err != nil {
		return false, err
	}
	return info.Redirect, nil
}

// IsDisambig reports whether the page is marked as a disambiguation page.
func (s *PageService) IsDisambig(ctx context.Context, ref page.Ref) (bool, error) {
	info, err := s.client.PageInfo(ctx, ref.Title)
	if err != nil {
		return false, err
	}
	return info.Disambig, nil
}

// RedirectTarget returns the direct redirect target. A redirect pointing
// back at itself is reported as a page.CircularRedirectError.
func (s *PageService) RedirectTarget(ctx context.Context, ref page.Ref) (page.Ref, error) {
	target, err := s.client.RedirectTarget(ctx, ref.Title)
	if err != nil {
		return page.Ref{}, err
	}

	tref, err := page.NewRefWithTable(s.site(), target, page.NamespaceMain, s.namespaceTable(ctx))
	if err != nil {
		return page.Ref{}, fmt.Errorf("bad redirect target for %q: %w", ref.Title, err)
	}
	if tref == ref {
		return page.Ref{}, &page.CircularRedirectError{Page: ref}
	}
	return tref, nil
}

// RedirectsTo enumerates pages redirecting to ref. Circular-redirect API
// errors are translated so callers can keep the partial results.
func (s *PageService) RedirectsTo(ctx context.Context, ref page.Ref, namespaces page.NamespaceFilter) ([]page.Ref, error) {
	raw, err := s.client.RedirectsTo(ctx, ref.Title, []int(namespaces))
	refs := s.convert(raw)
	if err != nil {
		return refs, s.translateCircular(ref, err)
	}
	return refs, nil
}

// Templates enumerates the templates transcluded by the page.
func (s *PageService) Templates(ctx context.Context, ref page.Ref) ([]page.Ref, error) {
	raw, err := s.client.TranscludedTemplates(ctx, ref.Title)
	if err != nil {
		return nil, err
	}
	return s.convert(raw), nil
}

// PageText returns the page's current wikitext.
func (s *PageService) PageText(ctx context.Context, ref page.Ref) (string, error) {
	return s.client.PageText(ctx, ref.Title)
}

// SavePage writes text to the page.
func (s *PageService) SavePage(ctx context.Context, ref page.Ref, text, summary string, minor, bot bool) error {
	result, err := s.client.EditPage(ctx, ref.Title, text, summary, minor, bot)
	if err != nil {
		return err
	}
	if !result.Success {
		return fmt.Errorf("saving %q failed: %s", ref.Title, result.Message)
	}
	return nil
}

// FileUsage enumerates pages displaying the file.
func (s *PageService) FileUsage(ctx context.Context, ref page.Ref) ([]page.Ref, error) {
	raw, err := s.client.FileUsage(ctx, ref.Title)
	if err != nil {
		return nil, err
	}
	return s.convert(raw), nil
}

// FileInfo returns dimensions and size for the file's latest version.
func (s *PageService) FileInfo(ctx context.Context, ref page.Ref) (page.FileInfo, error) {
	info, err := s.client.ImageInfo(ctx, ref.Title)
	if err != nil {
		return page.FileInfo{}, err
	}
	return page.FileInfo{
		Width:  info.Width,
		Height: info.Height,
		Size:   info.Size,
		URL:    info.URL,
	}, nil
}

// convert maps API-reported title/namespace pairs into page.Refs, dropping
// titles the normalizer rejects (the wiki should never produce those). The
// reported namespace ID is authoritative, so prefixed titles are never
// prefixed a second time.
func (s *PageService) convert(raw []PageRef) []page.Ref {
	refs := make([]page.Ref, 0, len(raw))
	for _, r := range raw {
		ref, err := page.NewAPIRef(s.site(), r.Title, r.Namespace)
		if err != nil {
			s.client.logger.Warn("Skipping unparseable title from API", "title", r.Title, "error", err)
			continue
		}
		refs = append(refs, ref)
	}
	return refs
}

// translateCircular rewraps circular-redirect API errors into the typed
// error the resolver recovers from.
func (s *PageService) translateCircular(ref page.Ref, err error) error {
	var ae *APIError
	if errors.As(err, &ae) && ae.Code == "circularredirect" {
		return &page.CircularRedirectError{Page: ref}
	}
	return err
}
