package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/wikimech/wikiext/metrics"
	"github.com/wikimech/wikiext/page"
	"github.com/wikimech/wikiext/textlib"
	"github.com/wikimech/wikiext/tracing"
	"github.com/wikimech/wikiext/wiki"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// ========== Argument and result types ==========

type ResolveRedirectsArgs struct {
	Titles     []string `json:"titles" jsonschema:"required,description=Seed page titles"`
	Namespaces []int    `json:"namespaces,omitempty" jsonschema:"description=Restrict redirecting pages to these namespace IDs"`
}

type ResolveRedirectsResult struct {
	Pages []string `json:"pages"`
	Count int      `json:"count"`
}

type ClearResolverCacheArgs struct{}

type ClearResolverCacheResult struct {
	Dropped int `json:"dropped"`
}

type HasTemplateArgs struct {
	Title     string   `json:"title" jsonschema:"required,description=Page to inspect"`
	Templates []string `json:"templates" jsonschema:"required,description=Template names with or without the Template: prefix"`
}

type HasTemplateResult struct {
	Title       string `json:"title"`
	HasTemplate bool   `json:"has_template"`
}

type PageInfoArgs struct {
	Title string `json:"title" jsonschema:"required,description=Page title"`
}

type IsArticleArgs struct {
	Title string `json:"title" jsonschema:"required,description=Page title"`
}

type IsArticleResult struct {
	Title     string `json:"title"`
	IsArticle bool   `json:"is_article"`
}

type RenderListArgs struct {
	Titles []string `json:"titles" jsonschema:"required,description=Items to render"`
	Prefix string   `json:"prefix,omitempty" jsonschema:"description=Item prefix (default newline bullet)"`
}

type RenderListResult struct {
	Wikitext string `json:"wikitext"`
}

type FileUsageArgs struct {
	Title string `json:"title" jsonschema:"required,description=File title with or without the File: prefix"`
}

type FileUsageResult struct {
	Title string   `json:"title"`
	Pages []string `json:"pages"`
	Used  bool     `json:"used"`
}

type FileInfoArgs struct {
	Title string `json:"title" jsonschema:"required,description=File title with or without the File: prefix"`
}

type FileInfoResult struct {
	Title      string   `json:"title"`
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Size       int64    `json:"size"`
	Megapixels *float64 `json:"megapixels,omitempty"`
}

type SaveBotSectionArgs struct {
	Title   string `json:"title" jsonschema:"required,description=Page to edit"`
	Text    string `json:"text" jsonschema:"required,description=New section content"`
	Summary string `json:"summary,omitempty" jsonschema:"description=Edit summary"`
	Minor   bool   `json:"minor,omitempty" jsonschema:"description=Mark the edit as minor"`
	Bot     bool   `json:"bot,omitempty" jsonschema:"description=Mark the edit with the bot flag"`
	Force   bool   `json:"force,omitempty" jsonschema:"description=Save even when the page does not exist yet"`
}

type SaveBotSectionResult struct {
	Title   string `json:"title"`
	Saved   bool   `json:"saved"`
	Message string `json:"message,omitempty"`
}

// ========== Handler registry ==========

// HandlerRegistry provides type-safe tool registration by mapping tool
// names to their concrete handler implementations.
type HandlerRegistry struct {
	svc      *wiki.PageService
	client   *wiki.Client
	resolver *page.Resolver
	articles *page.ArticleChecker
	editor   *page.Editor
	logger   *slog.Logger
}

// NewHandlerRegistry creates a new handler registry.
func NewHandlerRegistry(client *wiki.Client, resolver *page.Resolver, articles *page.ArticleChecker, editor *page.Editor, logger *slog.Logger) *HandlerRegistry {
	return &HandlerRegistry{
		svc:      wiki.NewPageService(client),
		client:   client,
		resolver: resolver,
		articles: articles,
		editor:   editor,
		logger:   logger,
	}
}

// RegisterAll registers all tools with the MCP server.
func (h *HandlerRegistry) RegisterAll(server *mcp.Server) {
	for _, spec := range AllTools {
		h.registerByName(server, spec)
	}
	h.logger.Info("Registered all tools", "count", len(AllTools))
}

// registerByName dispatches to the correct typed registration function.
func (h *HandlerRegistry) registerByName(server *mcp.Server, spec ToolSpec) {
	tool := h.buildTool(spec)

	switch spec.Method {
	case "ResolveRedirects":
		register(h, server, tool, spec, h.resolveRedirects)
	case "ClearResolverCache":
		register(h, server, tool, spec, h.clearResolverCache)
	case "HasTemplate":
		register(h, server, tool, spec, h.hasTemplate)
	case "PageInfo":
		register(h, server, tool, spec, h.pageInfo)
	case "IsArticle":
		register(h, server, tool, spec, h.isArticle)
	case "RenderList":
		register(h, server, tool, spec, h.renderList)
	case "FileUsage":
		register(h, server, tool, spec, h.fileUsage)
	case "FileInfo":
		register(h, server, tool, spec, h.fileInfo)
	case "SaveBotSection":
		register(h, server, tool, spec, h.saveBotSection)
	default:
		h.logger.Error("Unknown method, tool not registered", "method", spec.Method, "tool", spec.Name)
	}
}

// buildTool creates an mcp.Tool from a ToolSpec.
func (h *HandlerRegistry) buildTool(spec ToolSpec) *mcp.Tool {
	annotations := &mcp.ToolAnnotations{
		Title:          spec.Title,
		ReadOnlyHint:   spec.ReadOnly,
		IdempotentHint: spec.Idempotent,
	}
	if spec.Destructive {
		annotations.DestructiveHint = ptr(true)
	}
	if spec.OpenWorld {
		annotations.OpenWorldHint = ptr(true)
	}

	return &mcp.Tool{
		Name:        spec.Name,
		Description: spec.Description,
		Annotations: annotations,
	}
}

// register is a generic helper that registers a tool with the MCP server.
// It wraps the handler with panic recovery, metrics, tracing, and logging.
func register[Args, Result any](
	h *HandlerRegistry,
	server *mcp.Server,
	tool *mcp.Tool,
	spec ToolSpec,
	method func(context.Context, Args) (Result, error),
) {
	mcp.AddTool(server, tool, func(ctx context.Context, req *mcp.CallToolRequest, args Args) (*mcp.CallToolResult, Result, error) {
		defer h.recoverPanic(spec.Name)

		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+spec.Name)
		defer span.End()

		span.SetAttributes(
			attribute.String("mcp.tool.name", spec.Name),
			attribute.String("mcp.tool.category", spec.Category),
			attribute.Bool("mcp.tool.readonly", spec.ReadOnly),
		)

		metrics.RequestInFlight.WithLabelValues(spec.Name).Inc()
		defer metrics.RequestInFlight.WithLabelValues(spec.Name).Dec()

		start := time.Now()
		result, err := method(ctx, args)
		duration := time.Since(start).Seconds()

		span.SetAttributes(attribute.Float64("mcp.tool.duration_seconds", duration))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			metrics.RecordRequest(spec.Name, duration, false)
			var zero Result
			return nil, zero, fmt.Errorf("%s failed: %w", spec.Name, err)
		}

		span.SetStatus(codes.Ok, "")
		metrics.RecordRequest(spec.Name, duration, true)
		h.logger.Info("Tool executed", "tool", spec.Name, "duration_seconds", duration)
		return nil, result, nil
	})
}

// recoverPanic logs and counts a recovered panic in a tool handler.
func (h *HandlerRegistry) recoverPanic(tool string) {
	if r := recover(); r != nil {
		metrics.PanicsRecovered.WithLabelValues(tool).Inc()
		h.logger.Error("Panic recovered",
			"tool", tool,
			"panic", r,
			"stack", string(debug.Stack()))
	}
}

// ========== Handlers ==========

func (h *HandlerRegistry) resolveRedirects(ctx context.Context, args ResolveRedirectsArgs) (ResolveRedirectsResult, error) {
	if len(args.Titles) == 0 {
		return ResolveRedirectsResult{}, fmt.Errorf("at least one title is required")
	}

	seeds := page.NewSet()
	for _, title := range args.Titles {
		ref, err := h.svc.Ref(ctx, title, page.NamespaceMain)
		if err != nil {
			return ResolveRedirectsResult{}, err
		}
		seeds.Add(ref)
	}

	closure, err := h.resolver.ResolveClosure(ctx, seeds, page.NamespaceFilter(args.Namespaces))
	if err != nil {
		return ResolveRedirectsResult{}, err
	}

	titles := make([]string, 0, len(closure))
	for _, ref := range closure.Refs() {
		titles = append(titles, ref.Title)
	}
	return ResolveRedirectsResult{Pages: titles, Count: len(titles)}, nil
}

func (h *HandlerRegistry) clearResolverCache(ctx context.Context, args ClearResolverCacheArgs) (ClearResolverCacheResult, error) {
	dropped := h.resolver.CacheSize()
	h.resolver.Clear()
	return ClearResolverCacheResult{Dropped: dropped}, nil
}

func (h *HandlerRegistry) hasTemplate(ctx context.Context, args HasTemplateArgs) (HasTemplateResult, error) {
	if args.Title == "" {
		return HasTemplateResult{}, fmt.Errorf("title is required")
	}
	if len(args.Templates) == 0 {
		return HasTemplateResult{}, fmt.Errorf("at least one template is required")
	}

	ref, err := h.svc.Ref(ctx, args.Title, page.NamespaceMain)
	if err != nil {
		return HasTemplateResult{}, err
	}
	templates, err := page.TemplateRefs(ref.Site, args.Templates...)
	if err != nil {
		return HasTemplateResult{}, err
	}

	has, err := h.resolver.HasAnyTemplate(ctx, ref, templates)
	if err != nil {
		return HasTemplateResult{}, err
	}
	return HasTemplateResult{Title: ref.Title, HasTemplate: has}, nil
}

func (h *HandlerRegistry) pageInfo(ctx context.Context, args PageInfoArgs) (wiki.PageInfo, error) {
	if args.Title == "" {
		return wiki.PageInfo{}, fmt.Errorf("title is required")
	}
	return h.client.PageInfo(ctx, args.Title)
}

func (h *HandlerRegistry) isArticle(ctx context.Context, args IsArticleArgs) (IsArticleResult, error) {
	if args.Title == "" {
		return IsArticleResult{}, fmt.Errorf("title is required")
	}

	ref, err := h.svc.Ref(ctx, args.Title, page.NamespaceMain)
	if err != nil {
		return IsArticleResult{}, err
	}
	isArticle, err := h.articles.IsArticle(ctx, ref)
	if err != nil {
		return IsArticleResult{}, err
	}
	return IsArticleResult{Title: ref.Title, IsArticle: isArticle}, nil
}

func (h *HandlerRegistry) renderList(ctx context.Context, args RenderListArgs) (RenderListResult, error) {
	prefix := args.Prefix
	if prefix == "" {
		prefix = "\n* "
	}

	items := make([]any, 0, len(args.Titles))
	for _, title := range args.Titles {
		if ref, err := h.svc.Ref(ctx, title, page.NamespaceMain); err == nil {
			items = append(items, ref)
		} else {
			items = append(items, title)
		}
	}
	return RenderListResult{Wikitext: textlib.ToWikitext(items, prefix)}, nil
}

func (h *HandlerRegistry) fileUsage(ctx context.Context, args FileUsageArgs) (FileUsageResult, error) {
	file, err := h.file(args.Title)
	if err != nil {
		return FileUsageResult{}, err
	}

	pages, err := file.UsingPages(ctx)
	if err != nil {
		return FileUsageResult{}, err
	}

	titles := make([]string, 0, len(pages))
	for _, p := range pages {
		titles = append(titles, p.Title)
	}
	return FileUsageResult{Title: file.Title, Pages: titles, Used: len(titles) > 0}, nil
}

func (h *HandlerRegistry) fileInfo(ctx context.Context, args FileInfoArgs) (FileInfoResult, error) {
	file, err := h.file(args.Title)
	if err != nil {
		return FileInfoResult{}, err
	}

	info, err := h.client.ImageInfo(ctx, file.Title)
	if err != nil {
		return FileInfoResult{}, err
	}

	result := FileInfoResult{
		Title:  file.Title,
		Width:  info.Width,
		Height: info.Height,
		Size:   info.Size,
	}
	if mp, ok, err := file.Megapixels(ctx); err == nil && ok {
		result.Megapixels = ptr(mp)
	}
	return result, nil
}

func (h *HandlerRegistry) saveBotSection(ctx context.Context, args SaveBotSectionArgs) (SaveBotSectionResult, error) {
	if args.Title == "" {
		return SaveBotSectionResult{}, fmt.Errorf("title is required")
	}
	if args.Text == "" {
		return SaveBotSectionResult{}, fmt.Errorf("text is required")
	}

	ref, err := h.svc.Ref(ctx, args.Title, page.NamespaceMain)
	if err != nil {
		return SaveBotSectionResult{}, err
	}

	exists, err := h.svc.Exists(ctx, ref)
	if err != nil {
		return SaveBotSectionResult{}, err
	}
	if !exists && !args.Force {
		return SaveBotSectionResult{
			Title:   ref.Title,
			Saved:   false,
			Message: "page does not exist, skipped (set force to create it)",
		}, nil
	}

	opts := page.SaveOptions{
		Summary: args.Summary,
		Minor:   args.Minor,
		Bot:     args.Bot,
		Force:   args.Force,
	}
	if err := h.editor.SaveBotStartEnd(ctx, ref, args.Text, opts); err != nil {
		return SaveBotSectionResult{}, err
	}
	return SaveBotSectionResult{Title: ref.Title, Saved: true, Message: "bot section saved"}, nil
}

// file builds a page.File helper from a raw title, defaulting to the File
// namespace.
func (h *HandlerRegistry) file(title string) (*page.File, error) {
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}
	ref, err := page.FileFromWikilink(title, h.client.Site())
	if err != nil {
		return nil, err
	}
	return page.NewFile(h.svc, ref, h.logger)
}
