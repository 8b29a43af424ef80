// Package textlib provides helpers for generating and dissecting wikitext.
package textlib

import (
	"fmt"
	"regexp"
	"strings"
)

// Linker is anything that knows how to render itself as a wikitext link.
// page.Ref satisfies it.
type Linker interface {
	AsLink() string
}

// disabledParts matches wikitext regions that the parser ignores for link
// purposes: HTML comments, nowiki, pre and syntaxhighlight blocks.
var disabledParts = regexp.MustCompile(`(?is)<!--.*?-->|<nowiki>.*?</nowiki>|<pre.*?>.*?</pre>|<syntaxhighlight.*?>.*?</syntaxhighlight>`)

// RemoveDisabledParts strips comments and nowiki/pre/syntaxhighlight blocks
// from text, so that link extraction does not pick up disabled markup.
func RemoveDisabledParts(text string) string {
	return disabledParts.ReplaceAllString(text, "")
}

// ToWikitext renders items as wikitext. Linkers become links, everything
// else uses its string form. With more than one item each is prefixed by
// prefix; a single item is rendered bare.
func ToWikitext(items []any, prefix string) string {
	if len(items) == 0 {
		return ""
	}
	if len(items) == 1 {
		prefix = ""
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString(prefix)
		if l, ok := item.(Linker); ok {
			b.WriteString(l.AsLink())
		} else {
			fmt.Fprint(&b, item)
		}
	}
	return b.String()
}

// FileLinkPattern compiles a regexp matching file wikilinks for the given
// namespace names (e.g. "File", "Image" and localized aliases). The first
// capture group holds the file name. Piped parameters may contain nested
// wikilinks and bare external links.
func FileLinkPattern(namespaceNames []string) (*regexp.Regexp, error) {
	if len(namespaceNames) == 0 {
		return nil, fmt.Errorf("at least one namespace name is required")
	}
	quoted := make([]string, len(namespaceNames))
	for i, name := range namespaceNames {
		quoted[i] = regexp.QuoteMeta(name)
	}
	pattern := `(?s)\[\[\s*(?:` + strings.Join(quoted, "|") + `)\s*:\s*` +
		`([^\]\|]*?)\s*` + // file name
		`(?:\|(?:[^\[\]]|\[\[[^\]]*?\]\]|\[[^\]]*\])*)?` + // piped parameters
		`\]\]`
	return regexp.Compile(pattern)
}
