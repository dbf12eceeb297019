package verifier

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/go-jose/go-jose.v2/jwt"

	"github.com/veltio/go-jwks-auth/core"
	"github.com/veltio/go-jwks-auth/jwks"
)

// KeySource separates how trusted keys are obtained, and how the validation
// policy is customized, from how a token is verified. The caching source is
// jwks.Cached; jwks.Static serves tests and pinned-key deployments.
type KeySource interface {
	// Keys returns the current trusted key set.
	Keys(ctx context.Context) (jwks.Set, error)

	// AdjustValidation transforms the default validation policy into the
	// effective one. Implementations must be safe for concurrent use.
	AdjustValidation(core.Validation) core.Validation
}

// Verifier is the verification pipeline. It is immutable after New and safe
// for concurrent use.
type Verifier struct {
	source    KeySource // Required.
	clockSkew time.Duration
}

// New builds a Verifier. WithKeySource is required.
func New(opts ...Option) (*Verifier, error) {
	v := &Verifier{}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if v.source == nil {
		return nil, fmt.Errorf("key source is required (use WithKeySource)")
	}
	return v, nil
}

// Verify checks the token's signature and claims against the current
// trusted key set and returns the decoded claims. A single pass either
// succeeds or fails deterministically for a given input and cache state;
// there are no retries.
func (v *Verifier) Verify(ctx context.Context, token string) (*Claims, error) {
	if len(strings.Split(token, ".")) < 2 {
		return nil, core.NewInvalidToken("invalid format", nil)
	}

	parsed, err := jwt.ParseSigned(token)
	if err != nil {
		return nil, core.NewInvalidToken("could not parse token header", err)
	}
	header := parsed.Headers[0]

	set, err := v.source.Keys(ctx)
	if err != nil {
		return nil, err
	}

	if header.KeyID == "" {
		return nil, core.NewInvalidToken("missing kid header field", nil)
	}

	key, ok := set.Find(header.KeyID)
	if !ok {
		return nil, core.NewInvalidToken("no matching key found for the given kid", nil)
	}

	material, err := jwks.ResolveKey(key)
	if err != nil {
		return nil, err
	}

	validation := v.source.AdjustValidation(core.DefaultValidation(header.Algorithm, v.clockSkew))
	if !validation.AllowsAlgorithm(header.Algorithm) {
		return nil, core.NewInvalidToken(
			fmt.Sprintf("signing algorithm %q is not allowed by the validation policy", header.Algorithm), nil)
	}

	var registered jwt.Claims
	custom := map[string]any{}
	if err := parsed.Claims(material, &registered, &custom); err != nil {
		return nil, core.NewInvalidToken("could not verify token", err)
	}

	if err := validateClaims(registered, validation, time.Now()); err != nil {
		return nil, core.NewInvalidToken("claims validation failed", err)
	}

	return &Claims{
		Issuer:    registered.Issuer,
		Subject:   registered.Subject,
		Audience:  []string(registered.Audience),
		Expiry:    numericDateToUnixTime(registered.Expiry),
		NotBefore: numericDateToUnixTime(registered.NotBefore),
		IssuedAt:  numericDateToUnixTime(registered.IssuedAt),
		ID:        registered.ID,
		Custom:    custom,
	}, nil
}

// errExpiryRequired is returned when the policy demands an exp claim and
// the token carries none.
var errExpiryRequired = errors.New("exp claim is required")

// validateClaims checks the decoded registered claims against the effective
// policy. Issuer and audience are only checked when the policy sets them;
// time-based claims are always checked, with the policy's leeway applied,
// and exp must be present unless the policy waives it.
func validateClaims(actual jwt.Claims, validation core.Validation, now time.Time) error {
	if validation.Issuer != "" && actual.Issuer != validation.Issuer {
		return jwt.ErrInvalidIssuer
	}

	if len(validation.Audiences) > 0 {
		foundAudience := false
		for _, value := range validation.Audiences {
			if actual.Audience.Contains(value) {
				foundAudience = true
				break
			}
		}
		if !foundAudience {
			return jwt.ErrInvalidAudience
		}
	}

	if validation.RequireExpiry && actual.Expiry == nil {
		return errExpiryRequired
	}

	leeway := validation.Leeway
	if actual.NotBefore != nil && now.Add(leeway).Before(actual.NotBefore.Time()) {
		return jwt.ErrNotValidYet
	}
	if actual.Expiry != nil && now.Add(-leeway).After(actual.Expiry.Time()) {
		return jwt.ErrExpired
	}
	if actual.IssuedAt != nil && now.Add(leeway).Before(actual.IssuedAt.Time()) {
		return jwt.ErrIssuedInTheFuture
	}

	return nil
}

func numericDateToUnixTime(date *jwt.NumericDate) int64 {
	if date != nil {
		return date.Time().Unix()
	}
	return 0
}
