// Package core provides the framework-agnostic pieces of the authentication
// stack: the error taxonomy, the validation policy type, claims context
// helpers and the token check engine shared by the transport adapters
// (HTTP, gRPC, etc.).
package core

import (
	"context"
	"errors"
	"time"
)

// TokenVerifier is the interface the check engine drives. It is satisfied
// by an adapter around *verifier.Verifier.
//
// The returned claims (any) should be type-asserted by the caller to the
// expected claims type (typically *verifier.Claims).
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (any, error)
}

// Logger is the logging interface used across the stack. A nil Logger is
// legal everywhere and means no logging.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Metrics is the instrumentation interface used across the stack. A nil
// Metrics is legal everywhere and means no instrumentation.
type Metrics interface {
	IncCounter(name string, tags map[string]string)
	ObserveHistogram(name string, value float64, tags map[string]string)
	SetGauge(name string, value float64, tags map[string]string)
}

// Core is the transport-agnostic token check engine. Adapters extract a
// bearer credential from their transport and hand it to CheckToken.
type Core struct {
	verifier            TokenVerifier
	credentialsOptional bool
	logger              Logger
}

// Option configures a Core.
type Option func(*Core) error

// WithVerifier sets the token verifier. Required.
func WithVerifier(v TokenVerifier) Option {
	return func(c *Core) error {
		if v == nil {
			return errors.New("verifier cannot be nil")
		}
		c.verifier = v
		return nil
	}
}

// WithCredentialsOptional sets whether an absent credential is acceptable.
// Default: false (credentials required).
func WithCredentialsOptional(value bool) Option {
	return func(c *Core) error {
		c.credentialsOptional = value
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(logger Logger) Option {
	return func(c *Core) error {
		c.logger = logger
		return nil
	}
}

// New builds a Core. WithVerifier is required.
func New(opts ...Option) (*Core, error) {
	c := &Core{}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.verifier == nil {
		return nil, errors.New("verifier is required (use WithVerifier)")
	}
	return c, nil
}

// CheckToken verifies a bearer token and returns the verified claims.
//
//   - empty token, credentials optional: returns (nil, nil)
//   - empty token, credentials required: returns ErrJWTMissing
//   - otherwise the token is verified and the result returned unchanged
func (c *Core) CheckToken(ctx context.Context, token string) (any, error) {
	if token == "" {
		if c.credentialsOptional {
			if c.logger != nil {
				c.logger.Debugf("no token provided, but credentials are optional")
			}
			return nil, nil
		}
		if c.logger != nil {
			c.logger.Warnf("no token provided and credentials are required")
		}
		return nil, ErrJWTMissing
	}

	start := time.Now()
	claims, err := c.verifier.Verify(ctx, token)
	if err != nil {
		if c.logger != nil {
			c.logger.Errorf("token verification failed after %s: %v", time.Since(start), err)
		}
		return nil, err
	}

	if c.logger != nil {
		c.logger.Debugf("token verified in %s", time.Since(start))
	}
	return claims, nil
}
