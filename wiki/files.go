package wiki

import (
	"context"
	"fmt"
	"net/url"
)

// FileUsage enumerates pages on which the file is displayed. Follows API
// continuation.
func (c *Client) FileUsage(ctx context.Context, title string) ([]PageRef, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	cacheKey := "fileusage:" + title
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
		params.Set("prop", "fileusage")
		params.Set("fulimit", "max")
		if cont != "" {
			params.Set("fucontinue", cont)
		}

		resp, err := c.query(ctx, params)
		if err != nil {
			return refs, err
		}

		page, err := queryPages(resp)
		if err != nil {
			return refs, err
		}
		for _, fu := range getSlice(page["fileusage"]) {
			entry := getMap(fu)
			refs = append(refs, PageRef{
				Title:     getString(entry["title"]),
				Namespace: getInt(entry["ns"]),
			})
		}

		cont = getString(getMap(resp["continue"])["fucontinue"])
		if cont == "" {
			break
		}
	}

	c.setCache(cacheKey, refs, "fileusage")
	return refs, nil
}

// ImageInfo retrieves dimensions and size for the latest version of a
// file. Missing files and files without dimension data return a zero
// ImageInfo without error.
func (c *Client) ImageInfo(ctx context.Context, title string) (ImageInfo, error) {
	if title == "" {
		return ImageInfo{}, fmt.Errorf("title is required")
	}

	if err := c.EnsureLoggedIn(ctx); err != nil {
		return ImageInfo{}, err
	}

	params := url.Values{}
	params.Set("titles", title)
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "dimensions|size|url")

	resp, err := c.query(ctx, params)
	if err != nil {
		return ImageInfo{}, err
	}

	page, err := queryPages(resp)
	if err != nil {
		return ImageInfo{}, err
	}

	infos := getSlice(page["imageinfo"])
	if len(infos) == 0 {
		return ImageInfo{}, nil
	}
	entry := getMap(infos[0])
	return ImageInfo{
		Width:  getInt(entry["width"]),
		Height: getInt(entry["height"]),
		Size:   getInt64(entry["size"]),
		URL:    getString(entry["url"]),
	}, nil
}
