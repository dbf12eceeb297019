// Package grpcauth adapts the JWT check engine to gRPC servers: bearer
// tokens are read from request metadata and verified claims are attached
// to the handler context.
package grpcauth

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/veltio/go-jwks-auth/core"
)

// ErrorHandler converts a verification error into the gRPC error returned
// to the client.
type ErrorHandler func(err error) error

// DefaultErrorHandler maps error kinds to gRPC status codes: client token
// defects become Unauthenticated, infrastructure failures become Internal.
// Like the HTTP handler it does not forward the underlying failure detail.
func DefaultErrorHandler(err error) error {
	switch {
	case errors.Is(err, core.ErrJWTMissing):
		return status.Error(codes.Unauthenticated, "a bearer token is required")
	case errors.Is(err, core.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, core.ErrMissingCredentials), errors.Is(err, core.ErrUnsupportedAlgorithm):
		return status.Error(codes.Internal, "unable to verify token")
	default:
		return status.Error(codes.Internal, "something went wrong while checking the JWT")
	}
}

// JWTInterceptor provides JWT validation for gRPC servers.
type JWTInterceptor struct {
	core            *core.Core
	tokenExtractor  TokenExtractor
	errorHandler    ErrorHandler
	excludedMethods map[string]bool
	logger          core.Logger

	// Construction-time fields, consumed by New.
	verifier            core.TokenVerifier
	credentialsOptional bool
}

// New creates a new gRPC JWT interceptor with the provided options.
// WithVerifier is required.
func New(opts ...Option) (*JWTInterceptor, error) {
	i := &JWTInterceptor{
		tokenExtractor:  MetadataTokenExtractor,
		errorHandler:    DefaultErrorHandler,
		excludedMethods: make(map[string]bool),
	}

	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}

	if i.verifier == nil {
		return nil, errors.New("verifier is required (use WithVerifier)")
	}

	coreOpts := []core.Option{
		core.WithVerifier(i.verifier),
		core.WithCredentialsOptional(i.credentialsOptional),
	}
	if i.logger != nil {
		coreOpts = append(coreOpts, core.WithLogger(i.logger))
	}

	c, err := core.New(coreOpts...)
	if err != nil {
		return nil, err
	}
	i.core = c

	return i, nil
}

// validateRequest extracts and checks the token, returning a context with
// the verified claims attached.
func (i *JWTInterceptor) validateRequest(ctx context.Context, fullMethod string) (context.Context, error) {
	token, err := i.tokenExtractor(ctx)
	if err != nil {
		if i.logger != nil {
			i.logger.Errorf("failed to extract token for %s: %v", fullMethod, err)
		}
		return nil, status.Error(codes.Unauthenticated, err.Error())
	}

	claims, err := i.core.CheckToken(ctx, token)
	if err != nil {
		return nil, i.errorHandler(err)
	}

	// Credentials were optional and none were provided.
	if claims == nil {
		return ctx, nil
	}

	return core.SetClaims(ctx, claims), nil
}

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that
// validates JWTs. Verified claims are available to handlers via
// core.GetClaims.
func (i *JWTInterceptor) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		if i.excludedMethods[info.FullMethod] {
			if i.logger != nil {
				i.logger.Debugf("skipping JWT validation for excluded method %s", info.FullMethod)
			}
			return handler(ctx, req)
		}

		validatedCtx, err := i.validateRequest(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}

		return handler(validatedCtx, req)
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that
// validates JWTs.
func (i *JWTInterceptor) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(
		srv any,
		ss grpc.ServerStream,
		info *grpc.StreamServerInfo,
		handler grpc.StreamHandler,
	) error {
		if i.excludedMethods[info.FullMethod] {
			return handler(srv, ss)
		}

		validatedCtx, err := i.validateRequest(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: validatedCtx})
	}
}

// wrappedServerStream overrides the stream context with the validated one.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
