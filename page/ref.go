// Package page provides convenience helpers layered on top of a MediaWiki
// client: redirect-closure resolution with memoization, template membership
// checks, article predicates, bot-managed text regions, and file helpers.
package page

import (
	"fmt"
	"sort"
	"strings"
	"unicode"
)

// Well-known MediaWiki namespace IDs.
const (
	NamespaceMain     = 0
	NamespaceTalk     = 1
	NamespaceUser     = 2
	NamespaceProject  = 4
	NamespaceFile     = 6
	NamespaceTemplate = 10
	NamespaceCategory = 14
)

// canonicalNamespaces maps namespace IDs to their canonical English names.
var canonicalNamespaces = map[int]string{
	NamespaceTalk:     "Talk",
	NamespaceUser:     "User",
	NamespaceProject:  "Project",
	NamespaceFile:     "File",
	NamespaceTemplate: "Template",
	NamespaceCategory: "Category",
}

// namespacesByName is the reverse of canonicalNamespaces, keyed by lower-case
// name. Includes common aliases.
var namespacesByName = map[string]int{
	"talk":     NamespaceTalk,
	"user":     NamespaceUser,
	"project":  NamespaceProject,
	"file":     NamespaceFile,
	"image":    NamespaceFile,
	"template": NamespaceTemplate,
	"category": NamespaceCategory,
}

// invalidTitleChars are characters MediaWiki forbids in page titles.
const invalidTitleChars = "#<>[]|{}"

// Ref identifies a wiki page by site and normalized title. Two Refs are
// equal iff they denote the same title on the same site, so Ref is usable
// directly as a map key.
type Ref struct {
	Site      string
	Namespace int
	Title     string // full title including namespace prefix
}

// NamespaceTable maps lower-case namespace names and aliases to IDs for a
// particular wiki, as reported by its siteinfo. It lets localized prefixes
// ("Vorlage:") and per-wiki project names ("Wikipedia:") resolve to the
// same Ref as their canonical spelling.
type NamespaceTable map[string]int

// NewRef builds a normalized Ref. If title carries no recognized namespace
// prefix, defaultNamespace is applied. Returns an error for empty or
// malformed titles.
func NewRef(site, title string, defaultNamespace int) (Ref, error) {
	return NewRefWithTable(site, title, defaultNamespace, nil)
}

// NewRefWithTable is NewRef with a wiki-specific namespace table consulted
// before the built-in canonical names.
func NewRefWithTable(site, title string, defaultNamespace int, table NamespaceTable) (Ref, error) {
	normalized, err := checkTitle(title)
	if err != nil {
		return Ref{}, err
	}

	ns, base, prefix := splitNamespace(normalized, table)
	if base == "" {
		return Ref{}, fmt.Errorf("invalid page title %q: empty page name", title)
	}
	if ns == NamespaceMain && defaultNamespace != NamespaceMain {
		ns = defaultNamespace
	}
	return Ref{Site: site, Namespace: ns, Title: fullTitle(ns, upperFirst(base), prefix)}, nil
}

// NewAPIRef builds a Ref from a title and namespace ID as reported by the
// wiki API. The ID is authoritative: whatever local name or alias the
// title's own prefix uses, the Ref is rebuilt with the canonical name when
// one is known, so API-reported pages compare equal to Refs parsed from
// input titles.
func NewAPIRef(site, title string, namespace int) (Ref, error) {
	normalized, err := checkTitle(title)
	if err != nil {
		return Ref{}, err
	}

	base, prefix := normalized, ""
	if namespace != NamespaceMain {
		if p, rest, found := strings.Cut(normalized, ":"); found {
			prefix, base = strings.TrimSpace(p), strings.TrimSpace(rest)
		}
	}
	if base == "" {
		return Ref{}, fmt.Errorf("invalid page title %q: empty page name", title)
	}
	return Ref{Site: site, Namespace: namespace, Title: fullTitle(namespace, upperFirst(base), prefix)}, nil
}

// checkTitle normalizes a raw title and rejects empty or malformed ones.
func checkTitle(title string) (string, error) {
	normalized := normalizeTitle(title)
	if normalized == "" {
		return "", fmt.Errorf("invalid page title %q: empty after normalization", title)
	}
	if i := strings.IndexAny(normalized, invalidTitleChars); i >= 0 {
		return "", fmt.Errorf("invalid page title %q: contains %q", title, normalized[i])
	}
	return normalized, nil
}

// fullTitle prefixes the base name for the namespace. The canonical English
// name wins so Refs built from localized or alias prefixes compare equal;
// namespaces outside the canonical table keep the prefix the title arrived
// with.
func fullTitle(ns int, base, prefix string) string {
	if name, ok := canonicalNamespaces[ns]; ok {
		return name + ":" + base
	}
	if ns != NamespaceMain && prefix != "" {
		return upperFirst(prefix) + ":" + base
	}
	return base
}

// MustRef is NewRef for statically known titles; it panics on error.
func MustRef(site, title string, defaultNamespace int) Ref {
	r, err := NewRef(site, title, defaultNamespace)
	if err != nil {
		panic(err)
	}
	return r
}

// Key returns a stable identity string. Titles cannot contain "|", so the
// separator is unambiguous.
func (r Ref) Key() string {
	return r.Site + "|" + r.Title
}

// BaseName returns the title without its namespace prefix.
func (r Ref) BaseName() string {
	if name, ok := canonicalNamespaces[r.Namespace]; ok {
		return strings.TrimPrefix(r.Title, name+":")
	}
	return r.Title
}

// AsLink renders the page as a wikitext link. File and category pages get a
// leading colon so the link is textual rather than a transclusion.
func (r Ref) AsLink() string {
	if r.Namespace == NamespaceFile || r.Namespace == NamespaceCategory {
		return "[[:" + r.Title + "]]"
	}
	return "[[" + r.Title + "]]"
}

func (r Ref) String() string {
	return r.Title
}

// normalizeTitle applies MediaWiki title normalization: underscores become
// spaces, whitespace runs collapse, bidirectional control marks are dropped.
func normalizeTitle(title string) string {
	var b strings.Builder
	for _, c := range title {
		switch c {
		case '_':
			b.WriteRune(' ')
		case '\u200e', '\u200f', '\u202a', '\u202b', '\u202c':
			// Directionality marks copied from rendered pages.
		default:
			b.WriteRune(c)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// splitNamespace extracts a recognized namespace prefix from a normalized
// title, consulting table first and the built-in names second.
// Unrecognized prefixes stay part of the page name.
func splitNamespace(title string, table NamespaceTable) (ns int, base, prefix string) {
	p, rest, found := strings.Cut(title, ":")
	if !found {
		return NamespaceMain, title, ""
	}
	key := strings.ToLower(strings.TrimSpace(p))
	if id, ok := table[key]; ok {
		return id, strings.TrimSpace(rest), strings.TrimSpace(p)
	}
	if id, ok := namespacesByName[key]; ok {
		return id, strings.TrimSpace(rest), strings.TrimSpace(p)
	}
	return NamespaceMain, title, ""
}

func upperFirst(s string) string {
	for i, c := range s {
		return string(unicode.ToUpper(c)) + s[i+len(string(c)):]
	}
	return s
}

// Set is an unordered collection of Refs deduplicated by Ref equality.
type Set map[Ref]struct{}

// NewSet builds a Set from the given refs.
func NewSet(refs ...Ref) Set {
	s := make(Set, len(refs))
	for _, r := range refs {
		s[r] = struct{}{}
	}
	return s
}

// Add inserts a ref.
func (s Set) Add(r Ref) {
	s[r] = struct{}{}
}

// AddAll inserts every ref from other.
func (s Set) AddAll(other Set) {
	for r := range other {
		s[r] = struct{}{}
	}
}

// Contains reports membership.
func (s Set) Contains(r Ref) bool {
	_, ok := s[r]
	return ok
}

// Intersects reports whether the two sets share any ref.
func (s Set) Intersects(other Set) bool {
	small, large := s, other
	if len(large) < len(small) {
		small, large = large, small
	}
	for r := range small {
		if large.Contains(r) {
			return true
		}
	}
	return false
}

// Refs returns the members sorted by key, for deterministic output.
func (s Set) Refs() []Ref {
	refs := make([]Ref, 0, len(s))
	for r := range s {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Key() < refs[j].Key() })
	return refs
}

// Key returns a canonical identity string for the whole set: two set-equal
// Sets always produce the same key.
func (s Set) Key() string {
	keys := make([]string, 0, len(s))
	for r := range s {
		keys = append(keys, r.Key())
	}
	sort.Strings(keys)
	return strings.Join(keys, "\n")
}

// Equal reports set equality.
func (s Set) Equal(other Set) bool {
	if len(s) != len(other) {
		return false
	}
	for r := range s {
		if !other.Contains(r) {
			return false
		}
	}
	return true
}

// NamespaceFilter restricts which redirecting pages count as equivalent.
// A nil filter allows every namespace.
type NamespaceFilter []int

// Key returns a canonical identity string for use in cache keys.
func (f NamespaceFilter) Key() string {
	if f == nil {
		return "all"
	}
	ids := append([]int(nil), f...)
	sort.Ints(ids)
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ",")
}
