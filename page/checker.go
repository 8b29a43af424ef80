package page

import (
	"context"
)

// TemplateRefs normalizes bare template names into Template-namespace Refs.
// Names that already carry a namespace prefix keep it. Construction errors
// from malformed names propagate to the caller.
func TemplateRefs(site string, names ...string) (Set, error) {
	set := make(Set, len(names))
	for _, name := range names {
		ref, err := NewRef(site, name, NamespaceTemplate)
		if err != nil {
			return nil, err
		}
		set.Add(ref)
	}
	return set, nil
}

// HasAnyTemplate reports whether pg transcludes any of the given templates,
// counting redirects to those templates as matches. The acceptable set is
// the redirect closure of templates (all namespaces), so the check is a
// pure set intersection against the page's transcluded templates.
func (r *Resolver) HasAnyTemplate(ctx context.Context, pg Ref, templates Set) (bool, error) {
	if len(templates) == 0 {
		return false, nil
	}

	accepted, err := r.ResolveClosure(ctx, templates, nil)
	if err != nil {
		return false, err
	}

	transcluded, err := r.svc.Templates(ctx, pg)
	if err != nil {
		return false, err
	}
	for _, t := range transcluded {
		if accepted.Contains(t) {
			return true, nil
		}
	}
	return false, nil
}
