package wiki

// PageInfo describes a page's metadata as reported by the wiki.
type PageInfo struct {
	Title     string `json:"title"`
	PageID    int64  `json:"page_id,omitempty"`
	Namespace int    `json:"namespace"`
	Exists    bool   `json:"exists"`
	Redirect  bool   `json:"redirect"`
	Disambig  bool   `json:"disambig"`
}

// PageRef is a page title with its namespace, as returned by list queries.
type PageRef struct {
	Title     string `json:"title"`
	Namespace int    `json:"namespace"`
}

// ImageInfo describes the latest version of a file.
type ImageInfo struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Size   int64  `json:"size"`
	URL    string `json:"url,omitempty"`
}

// Namespace describes one wiki namespace with its canonical and local
// names plus registered aliases.
type Namespace struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Canonical string   `json:"canonical,omitempty"`
	Aliases   []string `json:"aliases,omitempty"`
}

// EditResult reports the outcome of an edit operation.
type EditResult struct {
	Success    bool   `json:"success"`
	Title      string `json:"title"`
	PageID     int    `json:"page_id,omitempty"`
	RevisionID int    `json:"revision_id,omitempty"`
	NewPage    bool   `json:"new_page,omitempty"`
	Message    string `json:"message,omitempty"`
}
