package jwks

import "encoding/json"

// Key is a single JSON web key record as published in a JWK Set (RFC 7517).
// Only the public components used for signature verification are modeled;
// anything else in the record is ignored.
type Key struct {
	KeyType   string `json:"kty"`
	KeyID     string `json:"kid,omitempty"`
	Algorithm string `json:"alg,omitempty"`
	Use       string `json:"use,omitempty"`

	// RSA components, base64url-encoded.
	N string `json:"n,omitempty"`
	E string `json:"e,omitempty"`

	// Elliptic-curve components, base64url-encoded.
	Curve string `json:"crv,omitempty"`
	X     string `json:"x,omitempty"`
	Y     string `json:"y,omitempty"`
}

// Set is an ordered collection of public key records. It is fetched
// wholesale and never partially updated.
type Set struct {
	Keys []Key `json:"keys"`
}

// ParseSet parses a JWK Set JSON document.
func ParseSet(data []byte) (Set, error) {
	var set Set
	if err := json.Unmarshal(data, &set); err != nil {
		return Set{}, err
	}
	return set, nil
}

// Find returns the first key whose kid matches.
func (s Set) Find(kid string) (Key, bool) {
	for _, key := range s.Keys {
		if key.KeyID == kid {
			return key, true
		}
	}
	return Key{}, false
}

// Clone returns a copy of the set whose backing slice is independent of
// the receiver's.
func (s Set) Clone() Set {
	keys := make([]Key, len(s.Keys))
	copy(keys, s.Keys)
	return Set{Keys: keys}
}
