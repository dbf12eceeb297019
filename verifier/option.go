package verifier

import (
	"errors"
	"time"
)

// Option is how options for the Verifier are set up.
// Options return errors to enable validation during construction.
type Option func(*Verifier) error

// WithKeySource sets the trust source the pipeline obtains keys and policy
// adjustments from. This is a required option.
func WithKeySource(source KeySource) Option {
	return func(v *Verifier) error {
		if source == nil {
			return errors.New("key source cannot be nil")
		}
		v.source = source
		return nil
	}
}

// WithClockSkew sets the allowed clock skew seeded into the default
// validation policy for time-based claims (exp, nbf, iat).
//
// Default: 0 (no clock skew allowed). A policy adjuster may still override
// the value this option seeds.
func WithClockSkew(skew time.Duration) Option {
	return func(v *Verifier) error {
		if skew < 0 {
			return errors.New("clock skew cannot be negative")
		}
		v.clockSkew = skew
		return nil
	}
}
