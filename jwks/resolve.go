package jwks

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"math/big"

	"github.com/veltio/go-jwks-auth/core"
)

// ResolveKey builds algorithm-specific public key material from a key
// record. RSA keys are built from modulus and exponent, elliptic-curve
// keys from the curve point. Any other family is unsupported.
//
// Malformed components surface as ErrInvalidToken: the key came from the
// configured trust source, but its shape mismatches the declared family,
// which is a defect in the key the token selected rather than in our
// infrastructure.
func ResolveKey(key Key) (crypto.PublicKey, error) {
	switch key.KeyType {
	case "RSA":
		return resolveRSA(key)
	case "EC":
		return resolveEC(key)
	default:
		return nil, core.NewUnsupportedAlgorithm(key.KeyType)
	}
}

func resolveRSA(key Key) (crypto.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(key.N)
	if err != nil {
		return nil, core.NewInvalidToken("malformed RSA modulus", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(key.E)
	if err != nil {
		return nil, core.NewInvalidToken("malformed RSA exponent", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if n.Sign() == 0 || e.Sign() == 0 {
		return nil, core.NewInvalidToken("RSA components must be non-zero", nil)
	}
	if !e.IsInt64() || e.Int64() > int64(int(^uint(0)>>1)) {
		return nil, core.NewInvalidToken("RSA exponent out of range", nil)
	}

	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

func resolveEC(key Key) (crypto.PublicKey, error) {
	var curve elliptic.Curve
	switch key.Curve {
	case "P-256":
		curve = elliptic.P256()
	case "P-384":
		curve = elliptic.P384()
	case "P-521":
		curve = elliptic.P521()
	default:
		return nil, core.NewInvalidToken(fmt.Sprintf("unsupported elliptic curve %q", key.Curve), nil)
	}

	xBytes, err := base64.RawURLEncoding.DecodeString(key.X)
	if err != nil {
		return nil, core.NewInvalidToken("malformed EC x coordinate", err)
	}
	yBytes, err := base64.RawURLEncoding.DecodeString(key.Y)
	if err != nil {
		return nil, core.NewInvalidToken("malformed EC y coordinate", err)
	}

	x := new(big.Int).SetBytes(xBytes)
	y := new(big.Int).SetBytes(yBytes)
	if !curve.IsOnCurve(x, y) {
		return nil, core.NewInvalidToken("EC point is not on the declared curve", nil)
	}

	return &ecdsa.PublicKey{Curve: curve, X: x, Y: y}, nil
}
