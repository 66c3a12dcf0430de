package whop

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// UserTokenHeader carries the identity token Whop's proxy attaches to app requests.
const UserTokenHeader = "x-whop-user-token"

const tokenIssuer = "urn:whopcom:exp-proxy"

var ErrInvalidToken = errors.New("invalid whop user token")

type TokenVerifier struct {
	key   interface{}
	appID string
}

// NewTokenVerifier parses the ES256 public key (PEM) Whop signs user tokens with.
// A non-empty appID is checked against the token audience.
func NewTokenVerifier(publicKeyPEM, appID string) (*TokenVerifier, error) {
	if strings.TrimSpace(publicKeyPEM) == "" {
		return nil, errors.New("whop public key is not configured")
	}
	// Keys passed through env files often have literal \n sequences.
	pemText := strings.ReplaceAll(publicKeyPEM, `\n`, "\n")
	key, err := jwt.ParseECPublicKeyFromPEM([]byte(pemText))
	if err != nil {
		return nil, fmt.Errorf("parse whop public key: %w", err)
	}
	return &TokenVerifier{key: key, appID: appID}, nil
}

// Verify validates the token and returns the Whop user id it was issued for.
func (v *TokenVerifier) Verify(token string) (string, error) {
	if token == "" {
		return "", ErrInvalidToken
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodES256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
	}
	if v.appID != "" {
		opts = append(opts, jwt.WithAudience(v.appID))
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return v.key, nil
	}, opts...)
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims.Subject, nil
}

// VerifyRequest reads the user token header from r.
func (v *TokenVerifier) VerifyRequest(r *http.Request) (string, error) {
	return v.Verify(r.Header.Get(UserTokenHeader))
}
