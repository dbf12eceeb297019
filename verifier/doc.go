// Package verifier implements the token verification pipeline: parse the
// token header, obtain the current trusted key set from a KeySource, locate
// the key by kid, resolve its key material, apply the validation policy and
// decode the claims. The pipeline is fixed; what varies is how trusted keys
// are obtained and how the policy is adjusted, both behind the KeySource
// interface.
package verifier
