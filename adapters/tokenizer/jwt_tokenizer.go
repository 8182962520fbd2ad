// Package tokenizer mints session tokens for verified logins. It is the
// default completion hook: the JWT it produces flows back to the client as
// passthrough data on the poll response.
package tokenizer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/Fried333/verus-connect/core"
	"github.com/Fried333/verus-connect/service"
)

// AudienceLogin is the audience claim on minted session tokens
const AudienceLogin = "verus:login"

// DefaultSessionTTL is how long a minted session token stays valid
const DefaultSessionTTL = 24 * time.Hour

// SessionTokenizer mints ES256 session JWTs for verified logins
type SessionTokenizer struct {
	signKey    *ecdsa.PrivateKey
	sessionTTL time.Duration
}

// NewSessionTokenizer creates a new session tokenizer
func NewSessionTokenizer(signKey *ecdsa.PrivateKey, sessionTTL time.Duration) *SessionTokenizer {
	if sessionTTL <= 0 {
		sessionTTL = DefaultSessionTTL
	}
	return &SessionTokenizer{signKey: signKey, sessionTTL: sessionTTL}
}

// Mint converts a verified login into a signed session token
func (t *SessionTokenizer) Mint(login *core.VerifiedLogin) (string, error) {
	now := time.Now()
	claims := LoginClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login.IAddress,
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.sessionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Audience:  jwt.ClaimStrings{AudienceLogin},
		},
		FriendlyName: login.FriendlyName,
		ChallengeID:  login.ChallengeID,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)

	signedToken, err := token.SignedString(t.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return signedToken, nil
}

// Parse validates a session token and returns its claims
func (t *SessionTokenizer) Parse(tokenStr string) (*LoginClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &LoginClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &t.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceLogin))

	if err != nil {
		return nil, fmt.Errorf("failed to parse session token: %w", err)
	}

	claims, ok := token.Claims.(*LoginClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid session token claims")
	}

	return claims, nil
}

// Hook adapts the tokenizer to the service's completion hook shape. The
// minted token rides back to the client under the "token" key.
func (t *SessionTokenizer) Hook() service.LoginHook {
	return func(ctx context.Context, login *core.VerifiedLogin) (map[string]any, error) {
		token, err := t.Mint(login)
		if err != nil {
			return nil, err
		}
		return map[string]any{"token": token}, nil
	}
}
