package core

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
// Using an unexported type ensures that only this package can create context
// keys, eliminating the risk of collisions with other packages.
type contextKey int

const (
	claimsKey contextKey = iota
)

// GetClaims retrieves claims from the context with type safety using generics.
//
// Claims are attached by a boundary adapter before the downstream handler runs,
// so within an authenticated request path this never fails due to a data race.
// ErrClaimsNotFound means the caller is outside an authenticated path;
// ErrClaimsWrongType means it asked for a type other than the one the adapter
// stored. Both are programmer errors.
//
// Example usage:
//
//	claims, err := core.GetClaims[*verifier.Claims](ctx)
//	if err != nil {
//	    return err
//	}
func GetClaims[T any](ctx context.Context) (T, error) {
	var zero T

	val := ctx.Value(claimsKey)
	if val == nil {
		return zero, ErrClaimsNotFound
	}

	claims, ok := val.(T)
	if !ok {
		return zero, ErrClaimsWrongType
	}

	return claims, nil
}

// SetClaims stores claims in the context.
// This is a helper for adapters to set claims after verification.
func SetClaims(ctx context.Context, claims any) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// HasClaims checks if claims exist in the context without retrieving them.
func HasClaims(ctx context.Context) bool {
	return ctx.Value(claimsKey) != nil
}
