package page

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/wikimech/wikiext/textlib"
)

// FromWikilink builds a Ref from wikilink markup: "[[Foo|label]]" and plain
// "Foo" both resolve to Foo. Disabled wikitext (comments, nowiki) is
// stripped first. defaultNamespace applies when the link carries no
// namespace prefix.
func FromWikilink(wikilink any, site string, defaultNamespace int) (Ref, error) {
	text := textlib.RemoveDisabledParts(fmt.Sprint(wikilink))
	text = strings.TrimSpace(text)
	text = strings.TrimLeft(text, "[")
	text = strings.TrimRight(text, "]")
	if i := strings.Index(text, "|"); i >= 0 {
		text = text[:i]
	}
	ref, err := NewRef(site, text, defaultNamespace)
	if err != nil {
		return Ref{}, fmt.Errorf("cannot create a page from %v: %w", wikilink, err)
	}
	return ref, nil
}

// FileFromWikilink builds a file Ref from wikilink markup such as
// "[[File:Foo.svg|thumb|Example]]" or a bare file name. Links resolving
// outside the File namespace are rejected.
func FileFromWikilink(wikilink any, site string) (Ref, error) {
	ref, err := FromWikilink(wikilink, site, NamespaceFile)
	if err != nil {
		return Ref{}, err
	}
	if ref.Namespace != NamespaceFile {
		return Ref{}, fmt.Errorf("cannot create a file page from %v: resolved to namespace %d", wikilink, ref.Namespace)
	}
	return ref, nil
}

// FailMode selects how ArticleChecker treats collaborator errors during
// the disambiguation and redirect checks.
type FailMode int

const (
	// FailClosed treats collaborator errors as "not an article".
	FailClosed FailMode = iota
	// FailOpen propagates collaborator errors to the caller.
	FailOpen
)

// ArticleChecker decides whether pages are live articles: main namespace,
// not a disambiguation page, not a redirect.
type ArticleChecker struct {
	svc    ArticleService
	mode   FailMode
	logger *slog.Logger
}

// NewArticleChecker creates an ArticleChecker with the given failure mode.
func NewArticleChecker(svc ArticleService, mode FailMode, logger *slog.Logger) *ArticleChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ArticleChecker{svc: svc, mode: mode, logger: logger}
}

// IsArticle reports whether ref is a live article. Under FailClosed a
// collaborator error yields (false, nil); under FailOpen it propagates.
func (c *ArticleChecker) IsArticle(ctx context.Context, ref Ref) (bool, error) {
	if ref.Namespace != NamespaceMain {
		return false, nil
	}

	disambig, err := c.svc.IsDisambig(ctx, ref)
	if err != nil {
		return c.failResult(ref, "disambiguation check", err)
	}
	if disambig {
		return false, nil
	}

	redirect, err := c.svc.IsRedirect(ctx, ref)
	if err != nil {
		return c.failResult(ref, "redirect check", err)
	}
	return !redirect, nil
}

func (c *ArticleChecker) failResult(ref Ref, op string, err error) (bool, error) {
	if c.mode == FailOpen {
		return false, err
	}
	c.logger.Warn("Treating page as non-article after error",
		"page", ref.Title, "op", op, "error", err)
	return false, nil
}

// botRegion captures the text before and after a bot-managed section
// delimited by <!--bot start--> and <!--bot end--> markers.
var botRegion = regexp.MustCompile(`(?is)^(.*?<!--\s*bot start\s*-->).*?(<!--\s*bot end\s*-->.*)$`)

// ReplaceBotRegion splices text into the bot-managed section of current.
// Without markers the whole text is replaced.
func ReplaceBotRegion(current, text string) string {
	m := botRegion.FindStringSubmatchIndex(current)
	if m == nil {
		return text
	}
	// Manual splice: text may contain characters regexp expansion would
	// interpret.
	return current[m[2]:m[3]] + "\n" + text + current[m[4]:m[5]]
}

// SaveOptions controls SaveBotStartEnd behavior.
type SaveOptions struct {
	Summary string
	Minor   bool
	Bot     bool
	// Force saves even when the page does not exist yet.
	Force bool
}

// Editor writes bot-managed page sections.
type Editor struct {
	svc    EditService
	logger *slog.Logger
}

// NewEditor creates an Editor backed by svc.
func NewEditor(svc EditService, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Editor{svc: svc, logger: logger}
}

// SaveBotStartEnd saves text into the area delimited by <!--bot start-->
// and <!--bot end--> markers, or replaces the whole page when no markers
// are present. Nonexistent pages are skipped with a warning unless
// opts.Force is set.
func (e *Editor) SaveBotStartEnd(ctx context.Context, ref Ref, text string, opts SaveOptions) error {
	exists, err := e.svc.Exists(ctx, ref)
	if err != nil {
		return err
	}
	if !exists && !opts.Force {
		e.logger.Warn("Page does not exist, skipping save", "page", ref.Title)
		return nil
	}

	text = strings.TrimSpace(text)
	current := ""
	if exists {
		current, err = e.svc.PageText(ctx, ref)
		if err != nil {
			return err
		}
	}

	return e.svc.SavePage(ctx, ref, ReplaceBotRegion(current, text), opts.Summary, opts.Minor, opts.Bot)
}
