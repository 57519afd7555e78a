package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

const (
	// DefaultKeyID is the key identifier assigned to provisioned keys.
	DefaultKeyID = "dev-1"

	keyType = "RSA"
	keyUse  = "sig"
	keyBits = 2048
)

// SecretKey is the persisted private half of the signing keypair. Every
// numeric field is the unpadded URL-safe base64 of its big-endian bytes.
type SecretKey struct {
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
	D   string `json:"d"`
	P   string `json:"p"`
	Q   string `json:"q"`
	DP  string `json:"dp"`
	DQ  string `json:"dq"`
	QI  string `json:"qi"`
}

// PublicKey is the persisted public half of the signing keypair.
type PublicKey struct {
	Kid string `json:"kid"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// PublicKeyResponse is what the well-known key endpoint serves.
type PublicKeyResponse struct {
	Kid string `json:"kid"`
	Use string `json:"use"`
	Kty string `json:"kty"`
	N   string `json:"n"`
	E   string `json:"e"`
}

var (
	ErrKeyGeneration = errors.New("key generation failed")
	ErrMalformedKey  = errors.New("malformed key")
)

// Generate creates a 2048-bit RSA keypair tagged with kid.
func Generate(kid string) (*SecretKey, *PublicKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrKeyGeneration, err)
	}
	priv.Precompute()

	n := encodeInt(priv.N)
	e := encodeInt(big.NewInt(int64(priv.E)))
	sk := &SecretKey{
		Kty: keyType,
		N:   n,
		E:   e,
		D:   encodeInt(priv.D),
		P:   encodeInt(priv.Primes[0]),
		Q:   encodeInt(priv.Primes[1]),
		DP:  encodeInt(priv.Precomputed.Dp),
		DQ:  encodeInt(priv.Precomputed.Dq),
		QI:  encodeInt(priv.Precomputed.Qinv),
	}
	pk := &PublicKey{Kid: kid, Kty: keyType, N: n, E: e}
	return sk, pk, nil
}

// Response builds the well-known endpoint payload.
func (pk *PublicKey) Response() PublicKeyResponse {
	return PublicKeyResponse{Kid: pk.Kid, Use: keyUse, Kty: pk.Kty, N: pk.N, E: pk.E}
}

// RSA decodes the public key.
func (pk *PublicKey) RSA() (*rsa.PublicKey, error) {
	if pk.Kty != keyType {
		return nil, fmt.Errorf("%w: unsupported kty %q", ErrMalformedKey, pk.Kty)
	}
	n, err := decodeInt("n", pk.N)
	if err != nil {
		return nil, err
	}
	e, err := decodeInt("e", pk.E)
	if err != nil {
		return nil, err
	}
	if !e.IsInt64() || e.Int64() > int64(^uint32(0)>>1) {
		return nil, fmt.Errorf("%w: exponent out of range", ErrMalformedKey)
	}
	return &rsa.PublicKey{N: n, E: int(e.Int64())}, nil
}

// RSA decodes and validates the private key, with CRT values precomputed.
func (sk *SecretKey) RSA() (*rsa.PrivateKey, error) {
	if sk.Kty != keyType {
		return nil, fmt.Errorf("%w: unsupported kty %q", ErrMalformedKey, sk.Kty)
	}
	pub, err := (&PublicKey{Kty: sk.Kty, N: sk.N, E: sk.E}).RSA()
	if err != nil {
		return nil, err
	}
	fields := map[string]string{"d": sk.D, "p": sk.P, "q": sk.Q}
	ints := make(map[string]*big.Int, len(fields))
	for name, v := range fields {
		ints[name], err = decodeInt(name, v)
		if err != nil {
			return nil, err
		}
	}
	priv := &rsa.PrivateKey{
		PublicKey: *pub,
		D:         ints["d"],
		Primes:    []*big.Int{ints["p"], ints["q"]},
	}
	if err := priv.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}
	priv.Precompute()
	return priv, nil
}

// Matches reports whether pk is the public half of sk.
func (sk *SecretKey) Matches(pk *PublicKey) bool {
	return sk.N == pk.N && sk.E == pk.E
}

func encodeInt(v *big.Int) string {
	return base64.RawURLEncoding.EncodeToString(v.Bytes())
}

func decodeInt(field, v string) (*big.Int, error) {
	if v == "" {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedKey, field)
	}
	raw, err := base64.RawURLEncoding.DecodeString(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrMalformedKey, field, err)
	}
	return new(big.Int).SetBytes(raw), nil
}
