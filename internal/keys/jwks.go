package keys

import (
	"fmt"

	"github.com/go-jose/go-jose/v4"
)

// JWK returns the public key as a go-jose JSON Web Key for signature verification.
func (pk *PublicKey) JWK() (jose.JSONWebKey, error) {
	pub, err := pk.RSA()
	if err != nil {
		return jose.JSONWebKey{}, err
	}
	jwk := jose.JSONWebKey{
		Key:       pub,
		KeyID:     pk.Kid,
		Algorithm: string(jose.RS256),
		Use:       keyUse,
	}
	if !jwk.Valid() {
		return jose.JSONWebKey{}, fmt.Errorf("%w: invalid jwk", ErrMalformedKey)
	}
	return jwk, nil
}

// JWKS wraps the public key in a JWK Set document.
func (pk *PublicKey) JWKS() (jose.JSONWebKeySet, error) {
	jwk, err := pk.JWK()
	if err != nil {
		return jose.JSONWebKeySet{}, err
	}
	return jose.JSONWebKeySet{Keys: []jose.JSONWebKey{jwk}}, nil
}
