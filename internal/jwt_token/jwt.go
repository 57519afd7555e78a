package jwttoken

import (
	"crypto/rsa"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "relay/pkg/domain-errors"
)

// SessionClaims is the assertion the relay mints for a completed sign-in.
// Downstream services verify it against the published JWK.
type SessionClaims struct {
	Email     string `json:"email"`
	SessionID string `json:"sid"`
	Scope     string `json:"scope,omitempty"`
	jwt.RegisteredClaims
}

// JWTService signs session assertions with the relay's RSA key.
type JWTService struct {
	signingKey *rsa.PrivateKey
	keyID      string
	issuer     string
	audience   string
	now        func() time.Time
}

func NewJWTService(signingKey *rsa.PrivateKey, keyID, issuer, audience string) *JWTService {
	return &JWTService{
		signingKey: signingKey,
		keyID:      keyID,
		issuer:     issuer,
		audience:   audience,
		now:        time.Now,
	}
}

// GenerateSessionToken signs an RS256 assertion with the key id in the header.
func (s *JWTService) GenerateSessionToken(
	uid string,
	email string,
	sessionID string,
	scope string,
	expiresIn time.Duration) (string, error) {
	now := s.now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodRS256, SessionClaims{
		Email:     email,
		SessionID: sessionID,
		Scope:     scope,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   uid,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})
	newToken.Header["kid"] = s.keyID

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken verifies an assertion against the public half of the signing key.
func (s *JWTService) ValidateToken(tokenString string) (*SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if kid, _ := token.Header["kid"].(string); kid != s.keyID {
			return nil, jwt.ErrTokenUnverifiable
		}
		return &s.signingKey.PublicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*SessionClaims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	return claims, nil
}
