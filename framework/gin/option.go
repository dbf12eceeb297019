package ginauth

import (
	"github.com/gin-gonic/gin"

	jwksauth "github.com/veltio/go-jwks-auth"
)

// Option is a function that configures the middleware.
type Option func(*ginMiddlewareConfig)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(config *ginMiddlewareConfig) {
		config.errorHandler = handler
	}
}

// WithContextKey sets a custom context key to store claims.
func WithContextKey(key string) Option {
	return func(config *ginMiddlewareConfig) {
		config.contextKey = key
	}
}

// WithTokenExtractor sets a custom token extractor.
func WithTokenExtractor(extractor jwksauth.TokenExtractor) Option {
	return func(config *ginMiddlewareConfig) {
		config.tokenExtractor = extractor
	}
}
