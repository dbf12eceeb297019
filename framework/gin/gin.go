// Package ginauth adapts the JWT middleware to the Gin framework.
package ginauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	jwksauth "github.com/veltio/go-jwks-auth"
	"github.com/veltio/go-jwks-auth/verifier"
)

// DefaultClaimsKey is the Gin context key claims are stored under.
const DefaultClaimsKey = "jwt"

var (
	ErrMissingClaims = errors.New("no JWT claims found in context")
	ErrInvalidClaims = errors.New("invalid JWT claims type")
)

type ginMiddlewareConfig struct {
	errorHandler   func(*gin.Context, error)
	contextKey     string
	tokenExtractor jwksauth.TokenExtractor
}

// NewGinMiddleware wraps a token verifier as a Gin middleware. On success
// the verified *verifier.Claims are stored in the Gin context under the
// configured key. The verifier must be safe for concurrent use.
func NewGinMiddleware(v jwksauth.TokenVerifier, opts ...Option) (gin.HandlerFunc, error) {
	config := &ginMiddlewareConfig{
		errorHandler: defaultGinErrorHandler,
		contextKey:   DefaultClaimsKey,
	}

	for _, opt := range opts {
		opt(config)
	}

	middlewareOpts := []jwksauth.Option{
		jwksauth.WithVerifier(v),
		jwksauth.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			c, exists := r.Context().Value(gin.ContextKey).(*gin.Context)
			if !exists || c == nil {
				jwksauth.DefaultErrorHandler(w, r, err)
				return
			}
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

	return func(c *gin.Context) {
		// Make the Gin context reachable from the request context so the
		// error handler can recover it.
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), gin.ContextKey, c))

		encounteredError := true
		var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			encounteredError = false
			c.Request = r

			if claims, err := jwksauth.GetClaims[*verifier.Claims](r.Context()); err == nil {
				c.Set(config.contextKey, claims)
			}

			c.Next()
		}

		middleware.CheckJWT(handler).ServeHTTP(c.Writer, c.Request)

		if encounteredError {
			c.Abort()
		}
	}, nil
}

func defaultGinErrorHandler(c *gin.Context, err error) {
	jwksauth.DefaultErrorHandler(c.Writer, c.Request, err)
	c.Abort()
}

// GetClaims extracts the verified claims from the Gin context.
func GetClaims(c *gin.Context, contextKey string) (*verifier.Claims, error) {
	if contextKey == "" {
		contextKey = DefaultClaimsKey
	}
	claims, exists := c.Get(contextKey)
	if !exists {
		return nil, ErrMissingClaims
	}

	verifiedClaims, ok := claims.(*verifier.Claims)
	if !ok {
		return nil, ErrInvalidClaims
	}

	return verifiedClaims, nil
}
