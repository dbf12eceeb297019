// Package testkeys generates signing keys, JWKS documents and signed
// tokens for tests.
package testkeys

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"testing"

	"github.com/lestrrat-go/jwx/v2/jwk"
	jose "gopkg.in/go-jose/go-jose.v2"
	"gopkg.in/go-jose/go-jose.v2/jwt"
)

// PublicKey pairs a kid with public key material for JWKS construction.
type PublicKey struct {
	KID string
	Key any
}

// RSAKey generates a 2048-bit RSA signing key.
func RSAKey(t testing.TB) *rsa.PrivateKey {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generating RSA key: %v", err)
	}
	return key
}

// ECKey generates a P-256 signing key.
func ECKey(t testing.TB) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generating EC key: %v", err)
	}
	return key
}

// JWKS renders the given public keys as a JWK Set JSON document.
func JWKS(t testing.TB, keys ...PublicKey) []byte {
	t.Helper()

	set := jwk.NewSet()
	for _, pk := range keys {
		key, err := jwk.FromRaw(pk.Key)
		if err != nil {
			t.Fatalf("converting key %q to JWK: %v", pk.KID, err)
		}
		if err := key.Set(jwk.KeyIDKey, pk.KID); err != nil {
			t.Fatalf("setting kid on JWK %q: %v", pk.KID, err)
		}
		if err := set.AddKey(key); err != nil {
			t.Fatalf("adding JWK %q to set: %v", pk.KID, err)
		}
	}

	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshaling JWKS: %v", err)
	}
	return data
}

// Sign produces a compact serialized token signed with the given key. An
// empty kid omits the kid header. Extra custom claims may be nil.
func Sign(t testing.TB, key any, alg jose.SignatureAlgorithm, kid string, claims jwt.Claims, custom map[string]any) string {
	t.Helper()

	opts := (&jose.SignerOptions{}).WithType("JWT")
	if kid != "" {
		opts = opts.WithHeader("kid", kid)
	}

	signer, err := jose.NewSigner(jose.SigningKey{Algorithm: alg, Key: key}, opts)
	if err != nil {
		t.Fatalf("building signer: %v", err)
	}

	builder := jwt.Signed(signer).Claims(claims)
	if custom != nil {
		builder = builder.Claims(custom)
	}

	token, err := builder.CompactSerialize()
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}
	return token
}
