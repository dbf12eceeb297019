package grpcauth

import (
	"context"
	"errors"

	"github.com/veltio/go-jwks-auth/core"
	"github.com/veltio/go-jwks-auth/verifier"
)

// Option configures the JWTInterceptor.
type Option func(*JWTInterceptor) error

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

// WithVerifier sets the token verifier (REQUIRED).
func WithVerifier(v TokenVerifier) Option {
	return func(i *JWTInterceptor) error {
		if v == nil {
			return errors.New("verifier cannot be nil")
		}
		i.verifier = &verifierAdapter{verifier: v}
		return nil
	}
}

// WithCredentialsOptional sets whether an absent credential is acceptable.
// Default: false.
func WithCredentialsOptional(value bool) Option {
	return func(i *JWTInterceptor) error {
		i.credentialsOptional = value
		return nil
	}
}

// WithTokenExtractor sets a custom token extractor.
// Default: MetadataTokenExtractor.
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(i *JWTInterceptor) error {
		if extractor == nil {
			return errors.New("token extractor cannot be nil")
		}
		i.tokenExtractor = extractor
		return nil
	}
}

// WithErrorHandler sets a custom error handler.
// Default: DefaultErrorHandler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(i *JWTInterceptor) error {
		if handler == nil {
			return errors.New("error handler cannot be nil")
		}
		i.errorHandler = handler
		return nil
	}
}

// WithExcludedMethods sets full method names (e.g. "/pkg.Service/Method")
// to skip validation for.
func WithExcludedMethods(methods ...string) Option {
	return func(i *JWTInterceptor) error {
		for _, m := range methods {
			i.excludedMethods[m] = true
		}
		return nil
	}
}

// WithLogger sets an optional logger.
func WithLogger(logger core.Logger) Option {
	return func(i *JWTInterceptor) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		i.logger = logger
		return nil
	}
}
