package wiki

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wikimech/wikiext/metrics"
)

// EditPage creates or replaces a page's wikitext. Requires bot password
// credentials.
func (c *Client) EditPage(ctx context.Context, title, text, summary string, minor, bot bool) (EditResult, error) {
	if title == "" {
		return EditResult{}, fmt.Errorf("title is required")
	}

	token, err := c.getCSRFToken(ctx)
	if err != nil {
		metrics.EditOperations.WithLabelValues("edit", "auth_error").Inc()
		return EditResult{}, fmt.Errorf("authentication failed: %w", err)
	}

	params := url.Values{}
	params.Set("action", "edit")
	params.Set("title", title)
	params.Set("text", text)
	params.Set("token", token)
	if summary != "" {
		params.Set("summary", summary)
	}
	if minor {
		params.Set("minor", "1")
	}
	if bot {
		params.Set("bot", "1")
	}

	resp, err := c.apiRequest(ctx, params)
	if err != nil {
		metrics.EditOperations.WithLabelValues("edit", "error").Inc()
		return EditResult{}, err
	}

	edit := getMap(resp["edit"])
	result := getString(edit["result"])
	if result != "Success" {
		metrics.EditOperations.WithLabelValues("edit", "rejected").Inc()
		return EditResult{
			Success: false,
			Title:   title,
			Message: fmt.Sprintf("Edit failed: %s", result),
		}, nil
	}

	// The stored text changed; cached copies are stale.
	c.InvalidateCachePrefix("page_text:" + title)
	c.InvalidateCachePrefix("page_info:" + title)

	metrics.EditOperations.WithLabelValues("edit", "success").Inc()
	editResult := EditResult{
		Success:    true,
		Title:      getString(edit["title"]),
		PageID:     getInt(edit["pageid"]),
		RevisionID: getInt(edit["newrevid"]),
		NewPage:    edit["new"] != nil,
		Message:    "Page edited successfully",
	}
	if editResult.NewPage {
		editResult.Message = "Page created successfully"
	}
	return editResult, nil
}
