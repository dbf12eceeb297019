// Package jwks implements trust sources for token verification: the wire
// types for a JSON Web Key Set, a single-slot TTL cache (Cached) that
// fetches the set from a remote endpoint through an injected Fetcher, a
// fixed in-memory source (Static), and the resolver that turns a key
// record into usable public key material.
package jwks
