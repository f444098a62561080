// Package auth guards the two privileged surfaces of the server:
//
//   - the admin API, which takes a short-lived JWT issued by POST /api/admin/login
//   - the cron endpoint, which takes a static shared secret
//
// Both arrive as "Authorization: Bearer <value>".
//
// WHY JWT FOR ADMINS?
// JWT is stateless: the server keeps no session table. Everything needed
// (subject, role, expiry) is inside the signed token, and the HMAC signature
// means nobody can change it without the secret key.
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header:    {"alg":"HS256","typ":"JWT"}
//	- Payload:   {"sub":"admin","role":"admin","iss":"grindboard","exp":...}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "grindboard"

	// DefaultTokenTTL is how long an admin token stays valid.
	DefaultTokenTTL = 12 * time.Hour
)

// ErrInvalidToken is returned for every token that fails validation.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService issues and validates admin tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret should be at least
// 32 bytes of random data in production: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// claims is the JWT payload: the registered claims plus a role.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Claims is what a validated token says about its bearer.
type Claims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// Generate signs a token for subject with the given role.
func (s *TokenService) Generate(subject, role string) (string, error) {
	now := time.Now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry.
//
// ALGORITHM CONFUSION:
// Without pinning the algorithm, a token claiming alg "none" could be
// accepted. jwt.WithValidMethods rejects anything but HS256.
func (s *TokenService) Validate(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &Claims{Subject: c.Subject, Role: c.Role, ExpiresAt: c.ExpiresAt.Time}, nil
}
