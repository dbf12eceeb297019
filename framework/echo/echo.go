// Package echoauth adapts the JWT middleware to the Echo framework.
package echoauth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	jwksauth "github.com/veltio/go-jwks-auth"
	"github.com/veltio/go-jwks-auth/verifier"
)

// DefaultClaimsKey is the Echo context key claims are stored under.
const DefaultClaimsKey = "jwt"

// echoMiddlewareConfig holds all configuration for the middleware.
type echoMiddlewareConfig struct {
	errorHandler   func(echo.Context, error)
	contextKey     string
	tokenExtractor jwksauth.TokenExtractor
}

// NewEchoMiddleware wraps a token verifier as an Echo middleware. On
// success the verified *verifier.Claims are stored in the Echo context
// under the configured key (DefaultClaimsKey unless overridden).
func NewEchoMiddleware(v jwksauth.TokenVerifier, opts ...Option) (echo.MiddlewareFunc, error) {
	config := &echoMiddlewareConfig{
		errorHandler: defaultEchoErrorHandler,
		contextKey:   DefaultClaimsKey,
	}

	for _, opt := range opts {
		opt(config)
	}

	middlewareOpts := []jwksauth.Option{
		jwksauth.WithVerifier(v),
		jwksauth.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			// Adapt the standard error handler to the Echo context.
			e := echo.New()
			c := e.NewContext(r, w)
			config.errorHandler(c, err)
		}),
	}

	if config.tokenExtractor != nil {
		middlewareOpts = append(middlewareOpts, jwksauth.WithTokenExtractor(config.tokenExtractor))
	}

	middleware, err := jwksauth.New(middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			encounteredError := true
			var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
				encounteredError = false
				c.SetRequest(r)

				if claims, err := jwksauth.GetClaims[*verifier.Claims](r.Context()); err == nil {
					c.Set(config.contextKey, claims)
				}

				_ = next(c)
			}

			middleware.CheckJWT(handler).ServeHTTP(c.Response(), c.Request())

			if encounteredError {
				return nil // The error handler already wrote the response.
			}
			return nil
		}
	}, nil
}

func defaultEchoErrorHandler(c echo.Context, err error) {
	rec := httpErrorRecorder{c: c}
	jwksauth.DefaultErrorHandler(&rec, c.Request(), err)
}

// httpErrorRecorder lets the shared DefaultErrorHandler write through the
// Echo response so status/body mapping stays in one place.
type httpErrorRecorder struct {
	c echo.Context
}

func (r *httpErrorRecorder) Header() http.Header {
	return r.c.Response().Header()
}

func (r *httpErrorRecorder) WriteHeader(status int) {
	r.c.Response().WriteHeader(status)
}

func (r *httpErrorRecorder) Write(b []byte) (int, error) {
	return r.c.Response().Write(b)
}

// GetClaims extracts the verified claims from the Echo context.
func GetClaims(c echo.Context, contextKey string) (*verifier.Claims, bool) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, ok := c.Get(contextKey).(*verifier.Claims)
	return claims, ok
}
