// Package auth provides JWT access tokens, password hashing, GitHub OAuth and
// the middleware that puts the caller's user ID into the request context.
//
// Flow:
//  1. Signup, login or the GitHub callback issues a JWT.
//  2. The client sends it back as "Authorization: Bearer <jwt>" or in the
//     HttpOnly "token" cookie.
//  3. RequireAuth validates it and stores the user ID for the handlers.
//
// Tokens are HS256-signed and carry the user ID in the "sub" claim, so no
// session storage is needed.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	issuer = "promptforms"

	// DefaultTTL is how long an access token lives when not configured.
	DefaultTTL = 7 * 24 * time.Hour
)

// TokenService handles JWT creation and validation with one HMAC secret.
//
// A token is three base64url parts joined by dots:
//
//	HEADER.PAYLOAD.SIGNATURE
//	- header:    {"alg":"HS256","typ":"JWT"}
//	- payload:   {"sub":"<user id>","iss":"promptforms","iat":...,"exp":...}
//	- signature: HMAC-SHA256(header + "." + payload, secret)
//
// Anyone can read the payload, so it carries nothing but the user ID. Only
// the holder of the secret can produce a valid signature, which is what lets
// Validate trust the subject without a database lookup.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret should be at least 32
// bytes of random data in production (openssl rand -hex 32); a ttl of zero
// means DefaultTTL.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

type claims struct {
	jwt.RegisteredClaims
}

// TTL is the lifetime of tokens from Generate.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// Generate signs an access token for userID valid for the configured TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration signs a token with a custom lifetime. Tests use it to
// mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate parses and verifies a JWT string and returns its subject.
//
// Checked here or by the jwt library:
//   - the signature matches the secret
//   - exp is present and in the future
//   - iss is "promptforms", so tokens minted by other apps sharing the
//     secret are refused
//   - the algorithm is HS256
//
// ALGORITHM CONFUSION:
// The header names its own algorithm. A library that trusts it would accept
// "alg":"none" with an empty signature, or an RS256 token "signed" with a
// public key used as an HMAC secret. WithValidMethods pins HS256 and the key
// func refuses any non-HMAC method before the secret is handed out.
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}
	if c.Subject == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}
	return c.Subject, nil
}
