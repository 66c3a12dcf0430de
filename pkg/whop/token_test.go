package whop

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func newKeyPair(t *testing.T) (*ecdsa.PrivateKey, string) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	return key, string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
}

func signToken(t *testing.T, key *ecdsa.PrivateKey, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func validClaims() jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   "user_123",
		Issuer:    tokenIssuer,
		Audience:  jwt.ClaimStrings{"app_abc"},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
}

func TestTokenVerifier_Verify(t *testing.T) {
	key, pubPEM := newKeyPair(t)
	otherKey, _ := newKeyPair(t)

	verifier, err := NewTokenVerifier(pubPEM, "app_abc")
	if err != nil {
		t.Fatalf("NewTokenVerifier: %v", err)
	}

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	wrongIssuer := validClaims()
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := validClaims()
	wrongAudience.Audience = jwt.ClaimStrings{"app_other"}
	noSubject := validClaims()
	noSubject.Subject = ""

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{"valid", signToken(t, key, validClaims()), false},
		{"empty", "", true},
		{"garbage", "not-a-jwt", true},
		{"expired", signToken(t, key, expired), true},
		{"wrong issuer", signToken(t, key, wrongIssuer), true},
		{"wrong audience", signToken(t, key, wrongAudience), true},
		{"no subject", signToken(t, key, noSubject), true},
		{"other signer", signToken(t, otherKey, validClaims()), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userID, err := verifier.Verify(tt.token)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidToken) {
					t.Fatalf("Verify() error = %v, want ErrInvalidToken", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if userID != "user_123" {
				t.Errorf("userID = %q, want user_123", userID)
			}
		})
	}
}

func TestNewTokenVerifier_RejectsMissingKey(t *testing.T) {
	if _, err := NewTokenVerifier("   ", ""); err == nil {
		t.Fatal("expected error for empty key")
	}
	if _, err := NewTokenVerifier("-----BEGIN PUBLIC KEY-----\nAAAA\n-----END PUBLIC KEY-----", ""); err == nil {
		t.Fatal("expected error for malformed key")
	}
}
