package wiki

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// PageInfo retrieves page metadata: existence, redirect status and whether
// the page is marked as a disambiguation page.
func (c *Client) PageInfo(ctx context.Context, title string) (PageInfo, error) {
	if title == "" {
		return PageInfo{}, fmt.Errorf("title is required")
	}

	cacheKey := "page_info:" + title
	if cached, ok := c.getCached(cacheKey); ok {
		return cached.(PageInfo), nil
	}

	if err := c.EnsureLoggedIn(ctx); err != nil {
		return PageInfo{}, err
	}

	params := url.Values{}
	params.Set("titles", title)
	params.Set("prop", "info|pageprops")
	params.Set("ppprop", "disambiguation")

	resp, err := c.query(ctx, params)
	if err != nil {
		return PageInfo{}, err
	}

	page, err := queryPages(resp)
	if err != nil {
		return PageInfo{}, err
	}

	info := PageInfo{
		Title:     getString(page["title"]),
		Namespace: getInt(page["ns"]),
	}
	if _, missing := page["missing"]; !missing {
		info.Exists = true
		info.PageID = getInt64(page["pageid"])
	}
	if _, redirect := page["redirect"]; redirect {
		info.Redirect = true
	}
	if props := getMap(page["pageprops"]); props != nil {
		if _, disambig := props["disambiguation"]; disambig {
			info.Disambig = true
		}
	}

	c.setCache(cacheKey, info, "page_info")
	return info, nil
}

// RedirectTarget returns the direct (one hop) redirect target of title.
// Returns NotRedirectError when the page is not a redirect. A redirect
// pointing at itself is returned as-is; callers decide how to treat the
// loop.
func (c *Client) RedirectTarget(ctx context.Context, title string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("title is required")
	}

	if err := c.EnsureLoggedIn(ctx); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("titles", title)
	params.Set("redirects", "1")
	params.Set("prop", "info")

	resp, err := c.query(ctx, params)
	if err != nil {
		return "", err
	}

	query := getMap(resp["query"])
	if query == nil {
		return "", fmt.Errorf("unexpected API response: missing 'query' object")
	}

	// The API normalizes the requested title before resolving redirects.
	requested := title
	for _, n := range getSlice(query["normalized"]) {
		entry := getMap(n)
		if getString(entry["from"]) == requested {
			requested = getString(entry["to"])
			break
		}
	}

	for _, r := range getSlice(query["redirects"]) {
		entry := getMap(r)
		if getString(entry["from"]) == requested {
			return getString(entry["to"]), nil
		}
	}

	return "", &NotRedirectError{Title: title}
}

// RedirectsTo enumerates pages that redirect to title, optionally
// restricted to the given namespace IDs. Follows API continuation.
func (c *Client) RedirectsTo(ctx context.Context, title string, namespaces []int) ([]PageRef, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	cacheKey := "backlinks:" + title + ":" + namespaceKey(namespaces)
	if cached, ok := c.getCached(cacheKey); ok {
		return cached.([]PageRef), nil
	}

	if err := c.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}

	refs := make([]PageRef, 0)
	cont := ""
	for {
		params := url.Values{}
		params.Set("list", "backlinks")
		params.Set("bltitle", title)
		params.Set("blfilterredir", "redirects")
		params.Set("bllimit", "max")
		if len(namespaces) > 0 {
			params.Set("blnamespace", joinNamespaces(namespaces))
		}
		if cont != "" {
			params.Set("blcontinue", cont)
		}

		resp, err := c.query(ctx, params)
		if err != nil {
			return refs, err
		}

		query := getMap(resp["query"])
		for _, bl := range getSlice(query["backlinks"]) {
			entry := getMap(bl)
			refs = append(refs, PageRef{
				Title:     getString(entry["title"]),
				Namespace: getInt(entry["ns"]),
			})
		}

		cont = getString(getMap(resp["continue"])["blcontinue"])
		if cont == "" {
			break
		}
	}

	c.setCache(cacheKey, refs, "backlinks")
	return refs, nil
}

// TranscludedTemplates enumerates the templates transcluded by title.
// Follows API continuation.
func (c *Client) TranscludedTemplates(ctx context.Context, title string) ([]PageRef, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	cacheKey := "templates:" + title
	if cached, ok := c.getCached(cacheKey); ok {
		return cached.([]PageRef), nil
	}

	if err := c.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}

	refs := make([]PageRef, 0)
	cont := ""
	for {
		params := url.Values{}
		params.Set("titles", title)
		params.Set("prop", "templates")
		params.Set("tllimit", "max")
		if cont != "" {
			params.Set("tlcontinue", cont)
		}

		resp, err := c.query(ctx, params)
		if err != nil {
			return refs, err
		}

		page, err := queryPages(resp)
		if err != nil {
			return refs, err
		}
		for _, tl := range getSlice(page["templates"]) {
			entry := getMap(tl)
			refs = append(refs, PageRef{
				Title:     getString(entry["title"]),
				Namespace: getInt(entry["ns"]),
			})
		}

		cont = getString(getMap(resp["continue"])["tlcontinue"])
		if cont == "" {
			break
		}
	}

	c.setCache(cacheKey, refs, "templates")
	return refs, nil
}

// PageText retrieves the current wikitext of a page. Returns
// PageMissingError for nonexistent pages.
func (c *Client) PageText(ctx context.Context, title string) (string, error) {
	if title == "" {
		return "", fmt.Errorf("title is required")
	}

	cacheKey := "page_text:" + title
	if cached, ok := c.getCached(cacheKey); ok {
		return cached.(string), nil
	}

	if err := c.EnsureLoggedIn(ctx); err != nil {
		return "", err
	}

	params := url.Values{}
	params.Set("titles", title)
	params.Set("prop", "revisions")
	params.Set("rvprop", "content")
	params.Set("rvslots", "main")

	resp, err := c.query(ctx, params)
	if err != nil {
		return "", err
	}

	page, err := queryPages(resp)
	if err != nil {
		return "", err
	}
	if _, missing := page["missing"]; missing {
		return "", &PageMissingError{Title: title}
	}

	revisions := getSlice(page["revisions"])
	if len(revisions) == 0 {
		return "", fmt.Errorf("no revisions in response for %q", title)
	}
	slots := getMap(getMap(revisions[0])["slots"])
	content := getString(getMap(slots["main"])["*"])
	if content == "" {
		// Older wikis return the content under "*" directly.
		content = getString(getMap(revisions[0])["*"])
	}

	c.setCache(cacheKey, content, "page_text")
	return content, nil
}

func namespaceKey(namespaces []int) string {
	if len(namespaces) == 0 {
		return "all"
	}
	return joinNamespaces(namespaces)
}

func joinNamespaces(namespaces []int) string {
	parts := make([]string, len(namespaces))
	for i, ns := range namespaces {
		parts[i] = strconv.Itoa(ns)
	}
	return strings.Join(parts, "|")
}
