package tools

// AllTools contains all tool specifications for the wikiext MCP server.
// Tool descriptions follow a structured format for optimal LLM tool
// selection:
// - USE WHEN: Natural language triggers
// - NOT FOR: Disambiguation from similar tools
// - PARAMETERS: Key arguments with defaults
// - RETURNS: What the tool returns
var AllTools = []ToolSpec{
	// ==========================================================================
	// REDIRECT TOOLS
	// ==========================================================================
	{
		Name:     "wiki_resolve_redirects",
		Method:   "ResolveRedirects",
		Title:    "Resolve Redirects",
		Category: "redirects",
		Description: `Compute every title equivalent to the given pages: each page's final redirect target plus all pages redirecting to that target.

USE WHEN: User asks "what other names does page X have", "find all redirects to X", or needs the full alias set before matching titles.

NOT FOR: Checking whether a page transcludes a template (use wiki_has_template instead).

PARAMETERS:
- titles: Seed page titles (required)
- namespaces: Restrict redirecting pages to these namespace IDs (optional)

RETURNS: The deduplicated set of equivalent titles. Pages whose redirect target does not exist are dropped.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wiki_clear_resolver_cache",
		Method:   "ClearResolverCache",
		Title:    "Clear Resolver Cache",
		Category: "redirects",
		Description: `Clear the memoized redirect-closure results.

USE WHEN: Wiki redirects changed mid-session and wiki_resolve_redirects keeps returning stale results.

NOT FOR: Routine use; the cache exists to avoid redundant wiki queries.

PARAMETERS: none

RETURNS: The number of entries dropped.`,
		ReadOnly:   true,
		Idempotent: true,
	},

	// ==========================================================================
	// TEMPLATE TOOLS
	// ==========================================================================
	{
		Name:     "wiki_has_template",
		Method:   "HasTemplate",
		Title:    "Check Template Use",
		Category: "templates",
		Description: `Check whether a page transcludes any of the given templates, counting redirects to those templates as matches.

USE WHEN: User asks "is page X tagged with template Y", "does X use the Infobox template", including when the template might be transcluded under a redirected name.

NOT FOR: Listing every template on a page.

PARAMETERS:
- title: Page to inspect (required)
- templates: Template names, with or without the "Template:" prefix (required)

RETURNS: Whether any of the templates (or a redirect to one) is transcluded.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// PAGE TOOLS
	// ==========================================================================
	{
		Name:     "wiki_page_info",
		Method:   "PageInfo",
		Title:    "Get Page Info",
		Category: "pages",
		Description: `Get metadata about a page: existence, redirect status, disambiguation status and namespace.

USE WHEN: User asks "does page X exist", "is X a redirect", "is X a disambiguation page".

NOT FOR: Reading page content.

PARAMETERS:
- title: Page title (required)

RETURNS: Existence, redirect and disambiguation flags plus namespace ID.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wiki_is_article",
		Method:   "IsArticle",
		Title:    "Check Article Status",
		Category: "pages",
		Description: `Check whether a page is a live article: main namespace, not a disambiguation page, not a redirect.

USE WHEN: User asks "is X a real article", or a workflow should only touch articles.

NOT FOR: General page metadata (use wiki_page_info instead).

PARAMETERS:
- title: Page title (required)

RETURNS: Whether the page is an article.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wiki_render_list",
		Method:   "RenderList",
		Title:    "Render Wikitext List",
		Category: "pages",
		Description: `Render titles as a wikitext list of links, suitable for pasting into a page.

USE WHEN: User asks to "format these pages as a wiki list" or a report section needs a bullet list of links.

NOT FOR: Editing pages (use wiki_save_bot_section instead).

PARAMETERS:
- titles: Items to render (required)
- prefix: Item prefix (default "\n* ")

RETURNS: The rendered wikitext. A single item is rendered without the prefix.`,
		ReadOnly:   true,
		Idempotent: true,
	},

	// ==========================================================================
	// FILE TOOLS
	// ==========================================================================
	{
		Name:     "wiki_file_usage",
		Method:   "FileUsage",
		Title:    "Get File Usage",
		Category: "files",
		Description: `List the pages on which a file is displayed. File redirects pointing back at the file itself are excluded, since they do not actually display it.

USE WHEN: User asks "where is File:X used", "is this image orphaned", before deleting or replacing a file.

NOT FOR: File metadata such as dimensions (use wiki_file_info instead).

PARAMETERS:
- title: File title, with or without the "File:" prefix (required)

RETURNS: The using pages and whether the file is used at all.`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},
	{
		Name:     "wiki_file_info",
		Method:   "FileInfo",
		Title:    "Get File Info",
		Category: "files",
		Description: `Get dimensions, size and megapixels for a file's latest version.

USE WHEN: User asks "how big is File:X", or a workflow filters images by resolution.

NOT FOR: Finding where a file is used (use wiki_file_usage instead).

PARAMETERS:
- title: File title, with or without the "File:" prefix (required)

RETURNS: Width, height, byte size and megapixels (megapixels omitted when dimensions are unknown).`,
		ReadOnly:   true,
		Idempotent: true,
		OpenWorld:  true,
	},

	// ==========================================================================
	// EDIT TOOLS
	// ==========================================================================
	{
		Name:     "wiki_save_bot_section",
		Method:   "SaveBotSection",
		Title:    "Save Bot Section",
		Category: "edit",
		Description: `Save text into the area of a page delimited by <!--bot start--> and <!--bot end--> markers, leaving the rest of the page untouched. Without markers the whole page is replaced.

USE WHEN: A bot-maintained report section needs updating while preserving hand-written content around it.

NOT FOR: General page edits outside bot-managed regions.

PARAMETERS:
- title: Page to edit (required)
- text: New section content (required)
- summary: Edit summary (optional)
- minor: Mark the edit as minor (default false)
- bot: Mark the edit with the bot flag (default false)
- force: Save even when the page does not exist yet (default false)

RETURNS: Whether the page was saved. Nonexistent pages are skipped unless force is set.`,
		ReadOnly:    false,
		Destructive: true,
		OpenWorld:   true,
	},
}
