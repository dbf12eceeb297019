// Package jwksauth authenticates inbound HTTP requests bearing a signed
// JWT against a remotely published JWK Set.
//
// The stack is split in three: a trust source (jwks.Cached, a single-slot
// TTL cache over the remote key set), a verification pipeline
// (verifier.Verifier) and this boundary adapter, which extracts the bearer
// token from the request, runs the pipeline and attaches the verified
// claims to the request context for downstream handlers.
//
//	fetcher := jwks.NewHTTPFetcher(nil)
//	source, err := jwks.NewCached(
//	    jwks.WithKeySetURI("https://issuer.example/jwks"),
//	    jwks.WithCacheTTL(5*time.Minute),
//	    jwks.WithValidationAdjuster(jwks.IdentityAdjuster),
//	    jwks.WithFetcher(fetcher),
//	)
//	...
//	v, err := verifier.New(verifier.WithKeySource(source))
//	...
//	middleware, err := jwksauth.New(jwksauth.WithVerifier(v))
//	...
//	http.Handle("/protected", middleware.CheckJWT(protectedHandler))
//
// Adapters for echo, gin and gRPC live under framework/.
package jwksauth
