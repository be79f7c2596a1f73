// Package auth provides JWT token management for caller identity.
// Every mutating API call carries a bearer token whose subject is the
// caller's address; the registry core receives that address explicitly.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry is the lifetime of an issued token.
const TokenExpiry = 15 * time.Minute

// DefaultLeeway for token validation.
const DefaultLeeway = 30 * time.Second

// Token errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrEmptyAddress = errors.New("address cannot be empty")
)

// Claims are the JWT claims carried by caller tokens. The subject is the
// caller address.
type Claims struct {
	jwt.RegisteredClaims
}

// Address returns the caller address carried by the token.
func (c *Claims) Address() string {
	return c.Subject
}

// JWTService signs and validates caller tokens. It supports dual-key
// rotation: tokens are signed with the current secret but validate against
// either the current or the previous secret.
type JWTService struct {
	currentSecret  []byte
	previousSecret []byte
	leeway         time.Duration
}

// NewJWTService creates a JWTService. previousSecret may be empty when no
// rotation is in progress.
func NewJWTService(currentSecret, previousSecret string) *JWTService {
	svc := &JWTService{
		currentSecret: []byte(currentSecret),
		leeway:        DefaultLeeway,
	}
	if previousSecret != "" {
		svc.previousSecret = []byte(previousSecret)
	}
	return svc
}

// GenerateToken issues a token for the given caller address.
func (s *JWTService) GenerateToken(address string) (string, error) {
	if address == "" {
		return "", ErrEmptyAddress
	}

	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenExpiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.currentSecret)
}

// ValidateToken parses and validates a token, returning its claims.
// Tries the current secret first, then the previous secret if set.
func (s *JWTService) ValidateToken(tokenString string) (*Claims, error) {
	claims, err := s.parseWith(tokenString, s.currentSecret)
	if err == nil {
		return claims, nil
	}

	if s.previousSecret != nil {
		claims, prevErr := s.parseWith(tokenString, s.previousSecret)
		if prevErr == nil {
			return claims, nil
		}
		// A token signed with the rotated-out secret still reports expiry
		// rather than a bad signature.
		if errors.Is(prevErr, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
	}

	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrExpiredToken
	}
	return nil, ErrInvalidToken
}

func (s *JWTService) parseWith(tokenString string, secret []byte) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, ErrInvalidToken
		}
		return secret, nil
	}, jwt.WithLeeway(s.leeway))
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
