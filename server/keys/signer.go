package keys

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Signer signs and verifies the mock provider's JWTs.
type Signer interface {
	Sign(claims jwt.MapClaims) (string, error)
	GetVerificationKey(token *jwt.Token) (any, error)
	GetJWKS() (*JWKS, error)
}

// KeyPairSigner implements Signer using RSA with RS256
type KeyPairSigner struct {
	keyPair *KeyPair
}

var _ Signer = (*KeyPairSigner)(nil)

func NewKeyPairSigner(keyPair *KeyPair) *KeyPairSigner {
	return &KeyPairSigner{keyPair: keyPair}
}

// NewGeneratedSigner creates a signer over a fresh 2048-bit key.
func NewGeneratedSigner(keyID string) (*KeyPairSigner, error) {
	kp, err := GenerateRSAKeyPair(keyID, 2048)
	if err != nil {
		return nil, err
	}
	return NewKeyPairSigner(kp), nil
}

func (a *KeyPairSigner) Sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(a.keyPair.GetSigningMethod(), claims)
	token.Header["kid"] = a.keyPair.KeyID

	signedToken, err := token.SignedString(a.keyPair.PrivateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signedToken, nil
}

func (a *KeyPairSigner) GetVerificationKey(token *jwt.Token) (any, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return a.keyPair.PublicKey, nil
}

// GetJWKS returns the JSON Web Key Set published at the provider's jwks endpoint.
func (a *KeyPairSigner) GetJWKS() (*JWKS, error) {
	jwk, err := a.keyPair.ToJWK()
	if err != nil {
		return nil, fmt.Errorf("failed to convert key to JWK: %w", err)
	}
	return &JWKS{Keys: []JWK{*jwk}}, nil
}
