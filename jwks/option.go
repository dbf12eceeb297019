package jwks

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/veltio/go-jwks-auth/core"
)

// cachedConfig accumulates construction options for Cached.
type cachedConfig struct {
	keySetURI string
	issuerURL *url.URL
	ttl       time.Duration
	ttlSet    bool
	adjust    Adjuster
	fetcher   Fetcher
	logger    core.Logger
	metrics   core.Metrics
}

// CachedOption configures a Cached key source.
// Options return errors to enable validation during construction.
type CachedOption func(*cachedConfig) error

// WithKeySetURI sets the URI the key set is fetched from.
// Either this or WithIssuerURL is required, but not both.
func WithKeySetURI(uri string) CachedOption {
	return func(c *cachedConfig) error {
		if uri == "" {
			return errors.New("key set URI cannot be empty")
		}
		if _, err := url.Parse(uri); err != nil {
			return fmt.Errorf("invalid key set URI: %w", err)
		}
		c.keySetURI = uri
		return nil
	}
}

// WithIssuerURL sets the issuer whose well-known endpoint is used to
// discover the key set URI. Either this or WithKeySetURI is required,
// but not both.
func WithIssuerURL(issuerURL *url.URL) CachedOption {
	return func(c *cachedConfig) error {
		if issuerURL == nil {
			return errors.New("issuer URL cannot be nil")
		}
		c.issuerURL = issuerURL
		return nil
	}
}

// WithCacheTTL sets how long a fetched key set stays fresh. Required.
// Zero or negative is legal and forces a fetch on every call.
func WithCacheTTL(ttl time.Duration) CachedOption {
	return func(c *cachedConfig) error {
		c.ttl = ttl
		c.ttlSet = true
		return nil
	}
}

// WithValidationAdjuster sets the policy adjuster consulted before every
// decode. Required; pass IdentityAdjuster to keep the default policy.
func WithValidationAdjuster(adjust Adjuster) CachedOption {
	return func(c *cachedConfig) error {
		if adjust == nil {
			return errors.New("validation adjuster cannot be nil")
		}
		c.adjust = adjust
		return nil
	}
}

// WithFetcher sets the HTTP capability used to fetch the key set. Required.
func WithFetcher(fetcher Fetcher) CachedOption {
	return func(c *cachedConfig) error {
		if fetcher == nil {
			return errors.New("fetcher cannot be nil")
		}
		c.fetcher = fetcher
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(logger core.Logger) CachedOption {
	return func(c *cachedConfig) error {
		c.logger = logger
		return nil
	}
}

// WithMetrics sets an optional metrics sink.
func WithMetrics(metrics core.Metrics) CachedOption {
	return func(c *cachedConfig) error {
		c.metrics = metrics
		return nil
	}
}

func (c *cachedConfig) validate() error {
	if c.keySetURI == "" && c.issuerURL == nil {
		return errors.New("key set URI is required (use WithKeySetURI or WithIssuerURL)")
	}
	if c.keySetURI != "" && c.issuerURL != nil {
		return errors.New("WithKeySetURI and WithIssuerURL are mutually exclusive")
	}
	if !c.ttlSet {
		return errors.New("cache TTL is required (use WithCacheTTL)")
	}
	if c.adjust == nil {
		return errors.New("validation adjuster is required (use WithValidationAdjuster)")
	}
	if c.fetcher == nil {
		return errors.New("fetcher is required (use WithFetcher)")
	}
	return nil
}
