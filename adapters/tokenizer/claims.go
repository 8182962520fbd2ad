package tokenizer

import "github.com/golang-jwt/jwt/v5"

// LoginClaims combines standard claims with the verified login identity
type LoginClaims struct {
	jwt.RegisteredClaims
	FriendlyName string `json:"friendly_name,omitempty"`
	ChallengeID  string `json:"challenge_id"`
}
