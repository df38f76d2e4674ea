package apns

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Signer produces the short-lived bearer assertions that authenticate each
// send to the gateway. The key is parsed once at construction to fail fast
// on startup if credentials are bad; after that, signing is CPU-only.
type Signer struct {
	teamID string
	keyID  string
	key    *ecdsa.PrivateKey
}

// NewSigner validates the identity and parses its P8 key material.
func NewSigner(id Identity) (*Signer, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	key, err := parseP8Key([]byte(id.P8KeyContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse APNs P8 key: %w", err)
	}
	return &Signer{
		teamID: id.TeamID,
		keyID:  id.KeyID,
		key:    key,
	}, nil
}

// Bearer signs a fresh assertion. Tokens are never cached or reused: every
// delivery attempt gets its own, so the iat claim is monotonic with the
// wall clock across successive calls. The gateway does not require an exp
// claim and none is set.
func (s *Signer) Bearer() (string, error) {
	claims := jwt.RegisteredClaims{
		Issuer:   s.teamID,
		IssuedAt: jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCredential, err)
	}
	return signed, nil
}

// parseP8Key decodes a PEM block holding a PKCS#8 (or bare SEC1) EC key and
// checks the curve the gateway mandates.
func parseP8Key(pemBytes []byte) (*ecdsa.PrivateKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, fmt.Errorf("no PEM block found in key material")
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		// Some exports ship the bare EC key instead of PKCS#8.
		ecKey, ecErr := x509.ParseECPrivateKey(block.Bytes)
		if ecErr != nil {
			return nil, err
		}
		parsed = ecKey
	}

	key, ok := parsed.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("key material is not an ECDSA private key")
	}
	if key.Curve != elliptic.P256() {
		return nil, fmt.Errorf("key curve must be P-256, got %s", key.Curve.Params().Name)
	}
	return key, nil
}
