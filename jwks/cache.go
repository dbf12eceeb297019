package jwks

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/veltio/go-jwks-auth/core"
	"github.com/veltio/go-jwks-auth/internal/oidc"
)

// Adjuster transforms the default validation policy into the effective one
// before a token is decoded. It must be side-effect free and safe to invoke
// repeatedly and concurrently.
type Adjuster func(core.Validation) core.Validation

// IdentityAdjuster leaves the default validation policy unchanged.
func IdentityAdjuster(v core.Validation) core.Validation { return v }

// cacheEntry is the single slot's content. It is owned exclusively by
// Cached and never leaves it.
type cacheEntry struct {
	set    Set
	expiry time.Time
}

// Cached is a key source holding the most recently fetched key set in a
// single TTL-guarded slot. It is meant to be constructed once and shared
// across all request-handling goroutines for the lifetime of the process.
//
// The slot mutex is held for the entire fill operation, network fetch
// included. That deliberately serializes concurrent cache-miss callers
// into a single fetch: all but the first simply wait and then read the
// now-fresh entry instead of each triggering a redundant fetch. Releasing
// the lock before the fetch would reintroduce the thundering herd, so any
// change here must preserve that discipline.
type Cached struct {
	keySetURI string
	issuerURL *url.URL
	ttl       time.Duration
	adjust    Adjuster
	fetcher   Fetcher
	logger    core.Logger
	metrics   core.Metrics

	// JWKS URI discovery, performed at most once.
	discoverOnce sync.Once
	discovered   string

	mu    sync.Mutex
	entry *cacheEntry
}

// NewCached builds a Cached key source. Required options:
//
//   - WithKeySetURI or WithIssuerURL (exactly one)
//   - WithCacheTTL
//   - WithValidationAdjuster (use IdentityAdjuster for the default policy)
//   - WithFetcher
//
// Optional: WithLogger, WithMetrics.
func NewCached(opts ...CachedOption) (*Cached, error) {
	cfg := &cachedConfig{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Cached{
		keySetURI: cfg.keySetURI,
		issuerURL: cfg.issuerURL,
		ttl:       cfg.ttl,
		adjust:    cfg.adjust,
		fetcher:   cfg.fetcher,
		logger:    cfg.logger,
		metrics:   cfg.metrics,
	}, nil
}

// Keys returns the current trusted key set, fetching a fresh one through
// the injected Fetcher when the slot is empty or its TTL has passed. A TTL
// of zero or less forces a fetch on every call.
//
// A fetch or parse failure surfaces as ErrMissingCredentials and leaves
// the slot in its prior state; the next call attempts another fetch.
func (c *Cached) Keys(ctx context.Context) (Set, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	if c.entry == nil || !c.entry.expiry.After(now) {
		uri, err := c.keysURI(ctx)
		if err != nil {
			return Set{}, core.NewMissingCredentials("could not discover key set URI", err)
		}

		c.count("jwks_fetch_total")
		body, err := c.fetcher.Fetch(ctx, uri)
		if err != nil {
			c.count("jwks_fetch_failures_total")
			return Set{}, core.NewMissingCredentials("could not fetch key set", err)
		}

		set, err := ParseSet(body)
		if err != nil {
			c.count("jwks_fetch_failures_total")
			return Set{}, core.NewMissingCredentials("could not parse key set", err)
		}

		c.entry = &cacheEntry{set: set, expiry: now.Add(c.ttl)}
		if c.logger != nil {
			c.logger.Debugf("refreshed key set from %s: %d keys, next refresh after %s", uri, len(set.Keys), c.ttl)
		}
	} else {
		c.count("jwks_cache_hits_total")
	}

	return c.entry.set.Clone(), nil
}

// AdjustValidation applies the configured policy adjuster.
func (c *Cached) AdjustValidation(v core.Validation) core.Validation {
	return c.adjust(v)
}

// keysURI returns the key set URI, discovering it from the issuer's
// well-known endpoint when only an issuer URL was configured. Discovery
// runs at most once; its failure is not sticky.
func (c *Cached) keysURI(ctx context.Context) (string, error) {
	if c.keySetURI != "" {
		return c.keySetURI, nil
	}
	if c.discovered != "" {
		return c.discovered, nil
	}

	var discoverErr error
	c.discoverOnce.Do(func() {
		endpoints, err := oidc.GetWellKnownEndpointsFromIssuerURL(ctx, c.fetcher, *c.issuerURL)
		if err != nil {
			discoverErr = err
			return
		}
		c.discovered = endpoints.JWKSURI
	})
	if discoverErr != nil {
		// Allow a later call to retry the discovery.
		c.discoverOnce = sync.Once{}
		return "", discoverErr
	}
	return c.discovered, nil
}

func (c *Cached) count(name string) {
	if c.metrics != nil {
		c.metrics.IncCounter(name, map[string]string{"source": c.sourceLabel()})
	}
}

func (c *Cached) sourceLabel() string {
	if c.keySetURI != "" {
		return c.keySetURI
	}
	return c.issuerURL.String()
}
