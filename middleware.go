package jwksauth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/veltio/go-jwks-auth/core"
	"github.com/veltio/go-jwks-auth/verifier"
)

// TokenVerifier verifies a raw bearer token and returns the decoded claims.
// It is satisfied by *verifier.Verifier.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*verifier.Claims, error)
}

// verifierAdapter adapts a TokenVerifier to the core.TokenVerifier interface.
type verifierAdapter struct {
	verifier TokenVerifier
}

func (a *verifierAdapter) Verify(ctx context.Context, token string) (any, error) {
	claims, err := a.verifier.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// ExclusionURLHandler is a function that takes in a http.Request and returns
// true if the request should be excluded from JWT validation.
type ExclusionURLHandler func(r *http.Request) bool

// JWTMiddleware is the net/http boundary adapter. Build it once with New
// and share it; it is safe for concurrent use.
type JWTMiddleware struct {
	core                *core.Core
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	validateOnOptions   bool
	exclusionURLHandler ExclusionURLHandler
	logger              core.Logger
	metrics             core.Metrics
	tracer              Tracer

	// Construction-time fields, consumed by New.
	verifier            TokenVerifier
	credentialsOptional bool
}

// New constructs a new JWTMiddleware instance with the supplied options.
// WithVerifier is required.
//
// Example:
//
//	middleware, err := jwksauth.New(
//	    jwksauth.WithVerifier(v),
//	    jwksauth.WithCredentialsOptional(false),
//	)
func New(opts ...Option) (*JWTMiddleware, error) {
	m := &JWTMiddleware{
		validateOnOptions:   true,
		credentialsOptional: false,
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if m.verifier == nil {
		return nil, ErrVerifierNil
	}

	if m.errorHandler == nil {
		m.errorHandler = DefaultErrorHandler
	}
	if m.tokenExtractor == nil {
		m.tokenExtractor = AuthHeaderTokenExtractor
	}

	coreOpts := []core.Option{
		core.WithVerifier(&verifierAdapter{verifier: m.verifier}),
		core.WithCredentialsOptional(m.credentialsOptional),
	}
	if m.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(m.logger))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create core: %w", err)
	}
	m.core = c

	return m, nil
}

// CheckJWT wraps next with bearer token authentication. On success the
// verified claims are attached to the request context before next runs;
// retrieve them with GetClaims. On failure the configured ErrorHandler
// writes the response and next is never called.
func (m *JWTMiddleware) CheckJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exclusionURLHandler != nil && m.exclusionURLHandler(r) {
			if m.logger != nil {
				m.logger.Debugf("skipping JWT validation for excluded URL %s", r.URL.Path)
			}
			next.ServeHTTP(w, r)
			return
		}

		// If we don't validate on OPTIONS and this is OPTIONS
		// then continue onto next without validating.
		if !m.validateOnOptions && r.Method == http.MethodOptions {
			next.ServeHTTP(w, r)
			return
		}

		var span Span
		if m.tracer != nil {
			span = m.tracer.StartSpan("jwksauth.check_jwt")
			span.SetTag("http.method", r.Method)
			span.SetTag("http.path", r.URL.Path)
			defer span.Finish()
		}

		token, err := m.tokenExtractor(r)
		if err != nil {
			// This is not ErrJWTMissing because an error here means that the
			// tokenExtractor had an error and _not_ that the token was missing.
			if m.logger != nil {
				m.logger.Errorf("failed to extract token from request: %v", err)
			}
			m.observe("extract_error", 0)
			m.errorHandler(w, r, fmt.Errorf("error extracting token: %w", err))
			return
		}

		start := time.Now()
		claims, err := m.core.CheckToken(r.Context(), token)
		elapsed := time.Since(start)

		if err != nil {
			if span != nil {
				span.SetTag("error", err.Error())
			}
			m.observe("failure", elapsed)
			m.errorHandler(w, r, err)
			return
		}

		m.observe("success", elapsed)

		// Credentials were optional and none were provided.
		if claims == nil {
			next.ServeHTTP(w, r)
			return
		}

		r = r.Clone(core.SetClaims(r.Context(), claims))
		next.ServeHTTP(w, r)
	})
}

func (m *JWTMiddleware) observe(outcome string, elapsed time.Duration) {
	if m.metrics == nil {
		return
	}
	tags := map[string]string{"outcome": outcome}
	m.metrics.IncCounter("jwt_check_total", tags)
	if elapsed > 0 {
		m.metrics.ObserveHistogram("jwt_check_duration_seconds", elapsed.Seconds(), tags)
	}
}

// GetClaims retrieves claims from the context with type safety using
// generics. Retrieval fails only when invoked outside an authenticated
// request path, which is a programmer error rather than a runtime race:
// claims are attached before downstream handlers run.
//
// Example:
//
//	claims, err := jwksauth.GetClaims[*verifier.Claims](r.Context())
func GetClaims[T any](ctx context.Context) (T, error) {
	return core.GetClaims[T](ctx)
}

// MustGetClaims retrieves claims from the context or panics. Use only when
// you are certain claims exist, i.e. after the middleware has run.
func MustGetClaims[T any](ctx context.Context) T {
	claims, err := core.GetClaims[T](ctx)
	if err != nil {
		panic(err)
	}
	return claims
}

// HasClaims checks if claims exist in the context.
func HasClaims(ctx context.Context) bool {
	return core.HasClaims(ctx)
}
