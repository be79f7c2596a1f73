package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-32-bytes-long!!"

func TestGenerateAndValidateToken(t *testing.T) {
	svc := NewJWTService(testSecret, "")

	token, err := svc.GenerateToken("addr:renderer")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Address() != "addr:renderer" {
		t.Errorf("Address() = %q, want %q", claims.Address(), "addr:renderer")
	}
}

func TestGenerateTokenEmptyAddress(t *testing.T) {
	svc := NewJWTService(testSecret, "")

	if _, err := svc.GenerateToken(""); !errors.Is(err, ErrEmptyAddress) {
		t.Errorf("GenerateToken(\"\") error = %v, want ErrEmptyAddress", err)
	}
}

func TestValidateTokenRejections(t *testing.T) {
	svc := NewJWTService(testSecret, "")

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name: "garbage token",
			token: func(t *testing.T) string {
				return "not.a.token"
			},
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				other := NewJWTService("a-completely-different-secret-value", "")
				tok, err := other.GenerateToken("addr:renderer")
				if err != nil {
					t.Fatalf("GenerateToken() error = %v", err)
				}
				return tok
			},
		},
		{
			name: "missing subject",
			token: func(t *testing.T) string {
				claims := jwt.RegisteredClaims{
					IssuedAt:  jwt.NewNumericDate(time.Now()),
					ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
				}
				tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
				if err != nil {
					t.Fatalf("SignedString() error = %v", err)
				}
				return tok
			},
		},
		{
			name: "unsigned algorithm",
			token: func(t *testing.T) string {
				claims := jwt.RegisteredClaims{Subject: "addr:renderer"}
				tok, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
				if err != nil {
					t.Fatalf("SignedString() error = %v", err)
				}
				return tok
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ValidateToken(tt.token(t)); !errors.Is(err, ErrInvalidToken) {
				t.Errorf("ValidateToken() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestValidateTokenExpired(t *testing.T) {
	svc := NewJWTService(testSecret, "")
	svc.leeway = 0

	claims := jwt.RegisteredClaims{
		Subject:   "addr:renderer",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-30 * time.Minute)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	if _, err := svc.ValidateToken(tok); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestExpiredTokenUnderRotatedSecret(t *testing.T) {
	const previous = "previous-secret-value-for-rotation"

	claims := jwt.RegisteredClaims{
		Subject:   "addr:renderer",
		IssuedAt:  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-30 * time.Minute)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(previous))
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}

	rotated := NewJWTService(testSecret, previous)
	rotated.leeway = 0

	// The token fails under the current secret with a signature error and
	// under the previous secret with expiry; expiry must win.
	if _, err := rotated.ValidateToken(tok); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("ValidateToken() error = %v, want ErrExpiredToken", err)
	}
}

func TestSecretRotation(t *testing.T) {
	oldSvc := NewJWTService("previous-secret-value-for-rotation", "")
	tok, err := oldSvc.GenerateToken("addr:renderer")
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	// Service rotated to a new secret but still trusts the previous one.
	rotated := NewJWTService(testSecret, "previous-secret-value-for-rotation")
	claims, err := rotated.ValidateToken(tok)
	if err != nil {
		t.Fatalf("ValidateToken() after rotation error = %v", err)
	}
	if claims.Address() != "addr:renderer" {
		t.Errorf("Address() = %q, want %q", claims.Address(), "addr:renderer")
	}

	// Without the previous secret the old token is rejected.
	strict := NewJWTService(testSecret, "")
	if _, err := strict.ValidateToken(tok); err == nil {
		t.Error("ValidateToken() with rotated-out secret succeeded, want error")
	}
}
