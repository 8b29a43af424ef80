package wiki

import (
	"context"
	"net/url"
	"sort"
)

// Namespaces retrieves the wiki's namespace table, including registered
// aliases. Results are cached for the siteinfo TTL.
func (c *Client) Namespaces(ctx context.Context) ([]Namespace, error) {
	cacheKey := "siteinfo:namespaces"
	if cached, ok := c.getCached(cacheKey); ok {
		return cached.([]Namespace), nil
	}

	if err := c.EnsureLoggedIn(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("meta", "siteinfo")
	params.Set("siprop", "namespaces|namespacealiases")

	resp, err := c.query(ctx, params)
	if err != nil {
		return nil, err
	}

	query := getMap(resp["query"])
	byID := make(map[int]*Namespace)

	for _, nsData := range getMap(query["namespaces"]) {
		entry := getMap(nsData)
		id := getInt(entry["id"])
		name := getString(entry["*"])
		if name == "" {
			name = getString(entry["name"])
		}
		byID[id] = &Namespace{
			ID:        id,
			Name:      name,
			Canonical: getString(entry["canonical"]),
		}
	}

	for _, aliasData := range getSlice(query["namespacealiases"]) {
		entry := getMap(aliasData)
		id := getInt(entry["id"])
		alias := getString(entry["*"])
		if alias == "" {
			alias = getString(entry["alias"])
		}
		if ns, ok := byID[id]; ok && alias != "" {
			ns.Aliases = append(ns.Aliases, alias)
		}
	}

	// The API delivers namespaces as a JSON object; sort by ID so callers
	// and the cache always see the same order.
	ids := make([]int, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	namespaces := make([]Namespace, 0, len(ids))
	for _, id := range ids {
		namespaces = append(namespaces, *byID[id])
	}

	c.setCache(cacheKey, namespaces, "siteinfo")
	return namespaces, nil
}

// NamespaceNames returns all names and aliases for the given namespace ID,
// e.g. the File namespace typically yields ["File", "Image", ...]. Used to
// build file link patterns.
func (c *Client) NamespaceNames(ctx context.Context, id int) ([]string, error) {
	namespaces, err := c.Namespaces(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, 2)
	for _, ns := range namespaces {
		if ns.ID != id {
			continue
		}
		if ns.Name != "" {
			names = append(names, ns.Name)
		}
		if ns.Canonical != "" && ns.Canonical != ns.Name {
			names = append(names, ns.Canonical)
		}
		names = append(names, ns.Aliases...)
	}
	return names, nil
}
