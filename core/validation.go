package core

import "time"

// Validation is the policy applied when decoding a token. The verification
// pipeline builds a default from the token header and the key source may
// adjust it before decode, so that different trust sources can enforce
// issuer/audience/leeway constraints without altering the pipeline.
//
// Adjusters must be pure functions: side-effect free and safe to invoke
// repeatedly and concurrently.
type Validation struct {
	// Algorithms is the set of acceptable signature algorithms. A token
	// whose header algorithm is not in this set is rejected. An empty set
	// rejects every token.
	Algorithms []string

	// Issuer, when non-empty, must equal the token's iss claim.
	Issuer string

	// Audiences, when non-empty, requires the token's aud claim to contain
	// at least one of the listed values.
	Audiences []string

	// Leeway is the clock skew tolerated when checking exp, nbf and iat.
	Leeway time.Duration

	// RequireExpiry rejects tokens that carry no exp claim. Without it a
	// token minted once would be valid forever.
	RequireExpiry bool
}

// DefaultValidation is the policy applied absent any adjustment: the token
// must be signed with the algorithm its own header declares, must carry an
// exp claim, and only time-based claims (exp, nbf, iat) are checked. No
// issuer or audience check is performed unless an adjuster sets one.
func DefaultValidation(algorithm string, leeway time.Duration) Validation {
	return Validation{
		Algorithms:    []string{algorithm},
		Leeway:        leeway,
		RequireExpiry: true,
	}
}

// AllowsAlgorithm reports whether the policy accepts the given signature
// algorithm.
func (v Validation) AllowsAlgorithm(algorithm string) bool {
	for _, alg := range v.Algorithms {
		if alg == algorithm {
			return true
		}
	}
	return false
}
