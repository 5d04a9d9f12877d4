package util

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
)

// JWKS is a JSON Web Key Set as served by Supabase auth
type JWKS struct {
	Keys []JWK `json:"keys"`
}

// JWK holds the public parameters of an EC or RSA signing key
type JWK struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	Alg string `json:"alg"`
	Use string `json:"use"`
	Crv string `json:"crv,omitempty"`
	X   string `json:"x,omitempty"`
	Y   string `json:"y,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

// Find returns the key with the given kid, or the first key when kid is empty.
func (s JWKS) Find(kid string) (JWK, error) {
	if len(s.Keys) == 0 {
		return JWK{}, errors.New("no keys found in JWKS")
	}
	if kid == "" {
		return s.Keys[0], nil
	}
	for _, k := range s.Keys {
		if k.Kid == kid {
			return k, nil
		}
	}
	return JWK{}, fmt.Errorf("key %q not found in JWKS", kid)
}

// PEM encodes the key as a PKIX public key block, the format ValidateJWT reads.
func (k JWK) PEM() (string, error) {
	var pub any
	switch k.Kty {
	case "EC":
		curve, err := curveFor(k.Crv)
		if err != nil {
			return "", err
		}
		x, err := decodeBigInt(k.X)
		if err != nil {
			return "", fmt.Errorf("decoding x coordinate: %w", err)
		}
		y, err := decodeBigInt(k.Y)
		if err != nil {
			return "", fmt.Errorf("decoding y coordinate: %w", err)
		}
		pub = &ecdsa.PublicKey{Curve: curve, X: x, Y: y}
	case "RSA":
		n, err := decodeBigInt(k.N)
		if err != nil {
			return "", fmt.Errorf("decoding modulus: %w", err)
		}
		e, err := decodeBigInt(k.E)
		if err != nil {
			return "", fmt.Errorf("decoding exponent: %w", err)
		}
		pub = &rsa.PublicKey{N: n, E: int(e.Int64())}
	default:
		return "", fmt.Errorf("unsupported key type %q", k.Kty)
	}

	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return "", fmt.Errorf("marshaling public key: %w", err)
	}
	return string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})), nil
}

func curveFor(crv string) (elliptic.Curve, error) {
	switch crv {
	case "P-256", "":
		return elliptic.P256(), nil
	case "P-384":
		return elliptic.P384(), nil
	case "P-521":
		return elliptic.P521(), nil
	}
	return nil, fmt.Errorf("unsupported curve %q", crv)
}

func decodeBigInt(s string) (*big.Int, error) {
	if s == "" {
		return nil, errors.New("missing value")
	}
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(b), nil
}
