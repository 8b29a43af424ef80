// Wikiext MCP Server - A Model Context Protocol server for MediaWiki wikis
// Provides redirect-closure resolution, template membership checks, article
// classification, file helpers, and bot-section editing
package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wikimech/wikiext/page"
	"github.com/wikimech/wikiext/tools"
	"github.com/wikimech/wikiext/tracing"
	"github.com/wikimech/wikiext/wiki"
)

const (
	ServerName    = "wikiext-mcp-server"
	ServerVersion = "1.0.0"
)

func main() {
	// Load .env if present; real environment variables win.
	_ = godotenv.Load()

	// Configure logging to stderr (stdout is used for MCP protocol)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	config, err := wiki.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	shutdownTracing, err := tracing.Setup(ctx, tracing.DefaultConfig())
	if err != nil {
		log.Fatalf("Failed to set up tracing: %v", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("Tracing shutdown failed", "error", err)
		}
	}()

	client := wiki.NewClient(config, logger)
	defer client.Close()

	svc := wiki.NewPageService(client)
	resolver := page.NewResolver(svc, logger)
	articles := page.NewArticleChecker(svc, page.FailClosed, logger)
	editor := page.NewEditor(svc, logger)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    ServerName,
		Version: ServerVersion,
	}, &mcp.ServerOptions{
		Logger: logger,
		Instructions: `Wikiext MCP Server provides redirect-aware tools for MediaWiki wikis.

Available tools:
- wiki_resolve_redirects: Compute the full set of titles equivalent to given pages
- wiki_clear_resolver_cache: Drop memoized redirect-closure results
- wiki_has_template: Check whether a page uses a template, counting template redirects
- wiki_page_info: Get existence, redirect and disambiguation status for a page
- wiki_is_article: Check whether a page is a live article
- wiki_render_list: Render titles as a wikitext list of links
- wiki_file_usage: List the pages actually displaying a file
- wiki_file_info: Get dimensions, size and megapixels for a file
- wiki_save_bot_section: Update the bot-managed section of a page (requires authentication)

Configure via environment variables:
- MEDIAWIKI_URL: Wiki API URL (e.g., https://wiki.example.com/api.php)
- MEDIAWIKI_USERNAME: Bot username (for editing)
- MEDIAWIKI_PASSWORD: Bot password (for editing)`,
	})

	handlers := tools.NewHandlerRegistry(client, resolver, articles, editor, logger)
	handlers.RegisterAll(server)

	logger.Info("Starting Wikiext MCP Server",
		"name", ServerName,
		"version", ServerVersion,
		"wiki_url", config.BaseURL,
	)

	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
