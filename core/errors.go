package core

import (
	"errors"
	"fmt"
)

// Sentinel errors classifying every failure the authentication stack can
// produce. Use errors.Is against these to branch on the failure kind.
var (
	// ErrInvalidToken is returned when the presented token is structurally
	// or semantically unacceptable: bad format, unknown kid, bad signature,
	// expired, policy violation, or a malformed component in an
	// otherwise-trusted key.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingCredentials is returned when the information needed to make
	// a decision could not be obtained, typically because the key set fetch
	// failed. This indicates a server-side problem, not a token defect.
	ErrMissingCredentials = errors.New("missing credentials")

	// ErrUnsupportedAlgorithm is returned when the trusted key set contains
	// a key whose algorithm family this implementation does not support.
	ErrUnsupportedAlgorithm = errors.New("unsupported algorithm")

	// ErrJWTMissing is returned when no bearer credential is present on the
	// request and credentials are required.
	ErrJWTMissing = errors.New("jwt missing")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")

	// ErrClaimsWrongType is returned when claims exist in the context but do
	// not match the type the caller asked for.
	ErrClaimsWrongType = errors.New("claims in context have an unexpected type")
)

// AuthError wraps a failure with its kind and a human-readable reason.
// We do not expose the fields publicly because the interface methods of
// Is and Unwrap should give the user all they need.
type AuthError struct {
	kind    error
	reason  string
	details error
}

// NewInvalidToken builds an ErrInvalidToken error carrying the given reason.
// details may be nil.
func NewInvalidToken(reason string, details error) *AuthError {
	return &AuthError{kind: ErrInvalidToken, reason: reason, details: details}
}

// NewMissingCredentials builds an ErrMissingCredentials error carrying the
// given reason. details may be nil.
func NewMissingCredentials(reason string, details error) *AuthError {
	return &AuthError{kind: ErrMissingCredentials, reason: reason, details: details}
}

// NewUnsupportedAlgorithm builds an ErrUnsupportedAlgorithm error for the
// given key algorithm family.
func NewUnsupportedAlgorithm(family string) *AuthError {
	return &AuthError{kind: ErrUnsupportedAlgorithm, reason: family}
}

// Error returns a string representation of the error.
func (e *AuthError) Error() string {
	switch {
	case e.reason == "":
		return e.kind.Error()
	case e.details != nil:
		return fmt.Sprintf("%s: %s: %s", e.kind, e.reason, e.details)
	default:
		return fmt.Sprintf("%s: %s", e.kind, e.reason)
	}
}

// Is allows the error to support equality to its kind sentinel.
func (e *AuthError) Is(target error) bool {
	return target == e.kind
}

// Unwrap allows the error to support equality to the underlying error and
// not just the kind sentinel.
func (e *AuthError) Unwrap() error {
	return e.details
}
