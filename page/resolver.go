package page

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wikimech/wikiext/metrics"
)

// Resolver computes redirect closures against a wiki Service and memoizes
// the results. The memo table is unbounded and lives for the life of the
// Resolver; wiki data is assumed stable for the duration of a run. Call
// Clear when underlying wiki state changes mid-run (or between tests).
type Resolver struct {
	svc    Service
	logger *slog.Logger

	mu   sync.Mutex
	memo map[string]Set
}

// NewResolver creates a Resolver backed by svc.
func NewResolver(svc Service, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		svc:    svc,
		logger: logger,
		memo:   make(map[string]Set),
	}
}

// ResolveClosure returns the set of titles equivalent to the seed pages:
// for each seed, its fully dereferenced canonical target (when that target
// exists) plus every page redirecting to it, restricted to namespaces when
// given. Seeds whose canonical target does not exist contribute nothing.
// Circular redirects are recovered locally and never surface to the caller;
// any other Service error aborts the call and propagates.
//
// Results are memoized by (set, filter) identity: a repeat call with a
// set-equal input returns the cached Set without consulting the Service.
// Callers must treat the returned Set as read-only.
func (r *Resolver) ResolveClosure(ctx context.Context, pages Set, namespaces NamespaceFilter) (Set, error) {
	key := pages.Key() + "\x00" + namespaces.Key()

	r.mu.Lock()
	if cached, ok := r.memo[key]; ok {
		r.mu.Unlock()
		metrics.ResolverCacheHits.Inc()
		return cached, nil
	}
	r.mu.Unlock()
	metrics.ResolverCacheMisses.Inc()

	result := NewSet()
	for _, seed := range pages.Refs() {
		canonical, err := r.canonicalTarget(ctx, seed)
		if err != nil {
			return nil, err
		}

		exists, err := r.svc.Exists(ctx, canonical)
		if err != nil {
			return nil, err
		}
		if !exists {
			continue
		}
		result.Add(canonical)

		redirects, err := r.svc.RedirectsTo(ctx, canonical, namespaces)
		if err != nil && !IsCircularRedirect(err) {
			return nil, err
		}
		if err != nil {
			r.logger.Debug("Circular redirect during backlink enumeration, keeping partial results",
				"page", canonical.Title)
		}
		for _, rd := range redirects {
			result.Add(rd)
		}
	}

	r.mu.Lock()
	r.memo[key] = result
	size := len(r.memo)
	r.mu.Unlock()
	metrics.ResolverCacheSize.Set(float64(size))

	return result, nil
}

// canonicalTarget follows the redirect chain from seed until it reaches a
// non-redirect page. A revisited page or a circular-redirect error from the
// Service stops the walk at the current position.
func (r *Resolver) canonicalTarget(ctx context.Context, seed Ref) (Ref, error) {
	current := seed
	visited := NewSet(current)

	for {
		isRedirect, err := r.svc.IsRedirect(ctx, current)
		if err != nil {
			if IsCircularRedirect(err) {
				return current, nil
			}
			return Ref{}, err
		}
		if !isRedirect {
			return current, nil
		}

		target, err := r.svc.RedirectTarget(ctx, current)
		if err != nil {
			if IsCircularRedirect(err) {
				r.logger.Debug("Circular redirect, stopping chain walk", "page", current.Title)
				return current, nil
			}
			return Ref{}, err
		}
		if visited.Contains(target) {
			r.logger.Debug("Redirect cycle detected, stopping chain walk",
				"page", current.Title, "target", target.Title)
			return current, nil
		}
		visited.Add(target)
		current = target
	}
}

// Clear empties the memo table, forcing subsequent calls to re-query the
// wiki.
func (r *Resolver) Clear() {
	r.mu.Lock()
	r.memo = make(map[string]Set)
	r.mu.Unlock()
	metrics.ResolverCacheSize.Set(0)
}

// CacheSize returns the number of memoized closures.
func (r *Resolver) CacheSize() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.memo)
}
